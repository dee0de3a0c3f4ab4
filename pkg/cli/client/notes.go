/* Copyright 2025 Driftpad Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package client

import (
	"encoding/json"
	"fmt"

	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/pkg/errors"
)

// Note is the wire representation of a note. The local-only dirty flag is
// never part of the payload.
type Note struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"ownerId"`
	Title       string   `json:"title"`
	ContentHTML string   `json:"contentHtml"`
	Tags        []string `json:"tags"`
	Pinned      bool     `json:"pinned"`
	Deleted     bool     `json:"deleted"`
	UpdatedAt   int64    `json:"updatedAt"`
	EncIV       string   `json:"encIv,omitempty"`
}

// PushChangesResp is the response from the batch push endpoint
type PushChangesResp struct {
	Updated int `json:"updated"`
}

// PushChanges submits the given note mutations to the server in one batch
func PushChanges(ctx context.DriftpadCtx, changes []Note) (PushChangesResp, error) {
	var ret PushChangesResp

	payload := struct {
		Changes []Note `json:"changes"`
	}{Changes: changes}

	body, err := json.Marshal(payload)
	if err != nil {
		return ret, errors.Wrap(err, "marshalling the request payload")
	}

	res, err := doAuthorizedReq(ctx, "POST", "/notes/batch", string(body))
	if err != nil {
		return ret, errors.Wrap(err, "posting a batch of changes")
	}

	if err := readJSONResp(res, &ret); err != nil {
		return ret, err
	}

	return ret, nil
}

// GetChangesResp is the response from the incremental pull endpoint
type GetChangesResp struct {
	Changes []Note `json:"changes"`
	Cursor  int64  `json:"cursor"`
}

// GetChanges gets all note mutations visible to the user that are newer
// than the given watermark
func GetChanges(ctx context.DriftpadCtx, since int64) (GetChangesResp, error) {
	var ret GetChangesResp

	path := fmt.Sprintf("/notes/changes?since=%d", since)
	res, err := doAuthorizedReq(ctx, "GET", path, "")
	if err != nil {
		return ret, errors.Wrap(err, "getting changes")
	}

	if err := readJSONResp(res, &ret); err != nil {
		return ret, err
	}

	return ret, nil
}

// ShareNoteParams is the payload for the share endpoint
type ShareNoteParams struct {
	NoteID       string `json:"noteId"`
	TargetUserID string `json:"targetUserId"`
	Access       string `json:"access"`
	Action       string `json:"action"`
}

// ShareNoteResp is the response from the share endpoint
type ShareNoteResp struct {
	OK bool `json:"ok"`
}

// ShareNote grants or revokes access to a note for another user
func ShareNote(ctx context.DriftpadCtx, params ShareNoteParams) (ShareNoteResp, error) {
	var ret ShareNoteResp

	body, err := json.Marshal(params)
	if err != nil {
		return ret, errors.Wrap(err, "marshalling the request payload")
	}

	res, err := doAuthorizedReq(ctx, "POST", "/notes/share", string(body))
	if err != nil {
		return ret, errors.Wrap(err, "posting a share request")
	}

	if err := readJSONResp(res, &ret); err != nil {
		return ret, err
	}

	return ret, nil
}
