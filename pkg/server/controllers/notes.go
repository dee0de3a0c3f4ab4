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

package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/driftpad/driftpad/pkg/server/app"
	"github.com/driftpad/driftpad/pkg/server/context"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	mw "github.com/driftpad/driftpad/pkg/server/middleware"
	"github.com/driftpad/driftpad/pkg/server/operations"
	"github.com/pkg/errors"
)

// NewNotes creates a new Notes controller.
func NewNotes(app *app.App) *Notes {
	return &Notes{
		app: app,
	}
}

// Notes is a notes controller.
type Notes struct {
	app *app.App
}

// notePayload is a note on the wire
type notePayload struct {
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

func toNoteChange(p notePayload) operations.NoteChange {
	return operations.NoteChange{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		ContentHTML: p.ContentHTML,
		Tags:        p.Tags,
		Pinned:      p.Pinned,
		Deleted:     p.Deleted,
		EncIV:       p.EncIV,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toNotePayload(record ledger.Record) notePayload {
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	return notePayload{
		ID:          record.NoteID,
		OwnerID:     record.OwnerID,
		Title:       record.Title,
		ContentHTML: record.ContentHTML,
		Tags:        tags,
		Pinned:      record.Pinned,
		Deleted:     record.Deleted,
		UpdatedAt:   record.UpdatedAt,
		EncIV:       record.EncIV,
	}
}

// doOperationError maps a failed operation to a status code and responds
func doOperationError(w http.ResponseWriter, msg string, err error) {
	var forbidden operations.ForbiddenError

	switch {
	case errors.Is(err, operations.ErrNoteIDMissing),
		errors.Is(err, operations.ErrShareParamsMissing),
		errors.Is(err, operations.ErrShareActionInvalid),
		errors.Is(err, operations.ErrShareAccessInvalid),
		errors.Is(err, ledger.ErrSharingDisabled):
		mw.DoError(w, err.Error(), nil, http.StatusBadRequest)
	case errors.As(err, &forbidden):
		mw.RespondForbidden(w, forbidden.Error())
	case errors.Is(err, operations.ErrNoteNotFound):
		mw.RespondNotFound(w, operations.ErrNoteNotFound.Error())
	default:
		mw.DoError(w, msg, err, http.StatusInternalServerError)
	}
}

type pushPayload struct {
	Changes []notePayload `json:"changes"`
}

type pushResp struct {
	Updated int `json:"updated"`
}

// Push handles POST /notes/batch
func (n *Notes) Push(w http.ResponseWriter, r *http.Request) {
	userID := context.UserID(r.Context())

	var payload pushPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		mw.DoError(w, "Invalid JSON body", err, http.StatusBadRequest)
		return
	}

	changes := make([]operations.NoteChange, 0, len(payload.Changes))
	for _, p := range payload.Changes {
		changes = append(changes, toNoteChange(p))
	}

	updated, err := operations.PushBatch(r.Context(), n.app, userID, changes)
	if err != nil {
		doOperationError(w, "persisting notes", err)
		return
	}

	mw.RespondJSON(w, http.StatusOK, pushResp{Updated: updated})
}

type changesResp struct {
	Changes []notePayload `json:"changes"`
	Cursor  int64         `json:"cursor"`
}

// Changes handles GET /notes/changes
func (n *Notes) Changes(w http.ResponseWriter, r *http.Request) {
	userID := context.UserID(r.Context())

	var since int64
	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		parsed, err := strconv.ParseInt(sinceParam, 10, 64)
		if err == nil {
			since = parsed
		}
	}

	feed, err := operations.GetChangesSince(r.Context(), n.app, userID, since)
	if err != nil {
		doOperationError(w, "reading changes", err)
		return
	}

	changes := make([]notePayload, 0, len(feed.Changes))
	for _, record := range feed.Changes {
		changes = append(changes, toNotePayload(record))
	}

	mw.RespondJSON(w, http.StatusOK, changesResp{Changes: changes, Cursor: feed.Cursor})
}

type sharePayload struct {
	NoteID       string `json:"noteId"`
	TargetUserID string `json:"targetUserId"`
	Access       string `json:"access"`
	Action       string `json:"action"`
}

type shareResp struct {
	OK bool `json:"ok"`
}

// Share handles POST /notes/share
func (n *Notes) Share(w http.ResponseWriter, r *http.Request) {
	userID := context.UserID(r.Context())

	var payload sharePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		mw.DoError(w, "Invalid payload", err, http.StatusBadRequest)
		return
	}

	params := operations.ShareNoteParams{
		NoteID:       payload.NoteID,
		TargetUserID: payload.TargetUserID,
		Access:       payload.Access,
		Action:       payload.Action,
	}

	if err := operations.ShareNote(r.Context(), n.app, userID, params); err != nil {
		doOperationError(w, "sharing note", err)
		return
	}

	mw.RespondJSON(w, http.StatusOK, shareResp{OK: true})
}

// Options handles preflight requests for the notes routes. The CORS
// middleware writes the headers; nothing else is needed.
func (n *Notes) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
