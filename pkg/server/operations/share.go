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

package operations

import (
	"context"

	"github.com/driftpad/driftpad/pkg/server/app"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	"github.com/pkg/errors"
)

const (
	// ShareActionGrant grants access to a note
	ShareActionGrant = "grant"
	// ShareActionRevoke revokes access to a note
	ShareActionRevoke = "revoke"

	// ShareAccessViewer allows reading a note
	ShareAccessViewer = "viewer"
	// ShareAccessEditor allows reading and writing a note
	ShareAccessEditor = "editor"
)

var (
	// ErrShareParamsMissing is an error for a share request without a note
	// id or a target user id
	ErrShareParamsMissing = errors.New("noteId and targetUserId are required")
	// ErrShareActionInvalid is an error for an unrecognized share action
	ErrShareActionInvalid = errors.New("action must be grant or revoke")
	// ErrShareAccessInvalid is an error for an unrecognized access level
	ErrShareAccessInvalid = errors.New("access must be viewer or editor")
	// ErrNoteNotFound is an error for a note the caller does not own. It is
	// returned for missing and for foreign notes alike, so callers cannot
	// probe for the existence of other users' notes.
	ErrNoteNotFound = errors.New("note not found")
)

// ShareNoteParams are the parameters for sharing or unsharing a note
type ShareNoteParams struct {
	NoteID       string
	TargetUserID string
	Access       string
	Action       string
}

func validateShareParams(p ShareNoteParams) error {
	if p.NoteID == "" || p.TargetUserID == "" {
		return ErrShareParamsMissing
	}

	switch p.Action {
	case ShareActionGrant:
		if p.Access != ShareAccessViewer && p.Access != ShareAccessEditor {
			return ErrShareAccessInvalid
		}
	case ShareActionRevoke:
	default:
		return ErrShareActionInvalid
	}

	return nil
}

// ShareNote grants or revokes another user's access to one of the caller's
// notes. Revoking a grant that does not exist is a no-op.
func ShareNote(ctx context.Context, a *app.App, userID string, p ShareNoteParams) error {
	if err := validateShareParams(p); err != nil {
		return err
	}

	_, found, err := a.Ledger.GetNote(ctx, userID, p.NoteID)
	if err != nil {
		return errors.Wrapf(err, "looking up note %s", p.NoteID)
	}
	if !found {
		return ErrNoteNotFound
	}

	if p.Action == ShareActionRevoke {
		if err := a.Ledger.DeleteGrant(ctx, p.TargetUserID, p.NoteID); err != nil {
			return errors.Wrap(err, "deleting grant")
		}
		return nil
	}

	grant := ledger.Grant{
		GranteeID: p.TargetUserID,
		NoteID:    p.NoteID,
		OwnerID:   userID,
		CanEdit:   p.Access == ShareAccessEditor,
		UpdatedAt: a.Clock.Now().UnixMilli(),
	}
	if err := a.Ledger.PutGrant(ctx, grant); err != nil {
		return errors.Wrap(err, "putting grant")
	}

	return nil
}
