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
	"testing"

	"github.com/driftpad/driftpad/pkg/assert"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	"github.com/driftpad/driftpad/pkg/server/testutils"
	"github.com/pkg/errors"
)

func seedNote(t *testing.T, l *ledger.Memory, ownerID, noteID string) {
	t.Helper()

	record := ledger.NewRecord(ownerID, noteID, "a note", "", nil, false, false, "", 100)
	if _, err := l.BatchWriteNotes(context.Background(), []ledger.Record{record}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding note"))
	}
}

func TestShareNote(t *testing.T) {
	t.Run("grants editor access", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)
		seedNote(t, l, "alice", "n1")

		err := ShareNote(context.Background(), a, "alice", ShareNoteParams{
			NoteID:       "n1",
			TargetUserID: "bob",
			Access:       ShareAccessEditor,
			Action:       ShareActionGrant,
		})
		if err != nil {
			t.Fatal(errors.Wrap(err, "sharing note"))
		}

		grant, found, _ := l.GetGrant(context.Background(), "bob", "n1")
		assert.Equal(t, found, true, "grant should exist")
		assert.Equal(t, grant.OwnerID, "alice", "grant owner mismatch")
		assert.Equal(t, grant.CanEdit, true, "grant access mismatch")
	})

	t.Run("grants viewer access", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)
		seedNote(t, l, "alice", "n1")

		err := ShareNote(context.Background(), a, "alice", ShareNoteParams{
			NoteID:       "n1",
			TargetUserID: "bob",
			Access:       ShareAccessViewer,
			Action:       ShareActionGrant,
		})
		if err != nil {
			t.Fatal(errors.Wrap(err, "sharing note"))
		}

		grant, found, _ := l.GetGrant(context.Background(), "bob", "n1")
		assert.Equal(t, found, true, "grant should exist")
		assert.Equal(t, grant.CanEdit, false, "grant access mismatch")
	})

	t.Run("revokes access", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)
		seedNote(t, l, "alice", "n1")

		grant := ledger.Grant{GranteeID: "bob", NoteID: "n1", OwnerID: "alice", CanEdit: true}
		if err := l.PutGrant(context.Background(), grant); err != nil {
			t.Fatal(errors.Wrap(err, "seeding grant"))
		}

		err := ShareNote(context.Background(), a, "alice", ShareNoteParams{
			NoteID:       "n1",
			TargetUserID: "bob",
			Action:       ShareActionRevoke,
		})
		if err != nil {
			t.Fatal(errors.Wrap(err, "revoking access"))
		}

		_, found, _ := l.GetGrant(context.Background(), "bob", "n1")
		assert.Equal(t, found, false, "grant should be gone")
	})

	t.Run("revoking a missing grant is a no-op", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)
		seedNote(t, l, "alice", "n1")

		err := ShareNote(context.Background(), a, "alice", ShareNoteParams{
			NoteID:       "n1",
			TargetUserID: "bob",
			Action:       ShareActionRevoke,
		})
		assert.Equal(t, err, nil, "revoke should succeed")
	})

	t.Run("reports not found for notes the caller does not own", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)
		seedNote(t, l, "alice", "n1")

		err := ShareNote(context.Background(), a, "mallory", ShareNoteParams{
			NoteID:       "n1",
			TargetUserID: "bob",
			Access:       ShareAccessEditor,
			Action:       ShareActionGrant,
		})
		assert.Equal(t, errors.Is(err, ErrNoteNotFound), true, "error mismatch")

		_, found, _ := l.GetGrant(context.Background(), "bob", "n1")
		assert.Equal(t, found, false, "no grant should be created")
	})

	t.Run("validates parameters", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)
		seedNote(t, l, "alice", "n1")

		testCases := []struct {
			name   string
			params ShareNoteParams
			err    error
		}{
			{
				name:   "missing note id",
				params: ShareNoteParams{TargetUserID: "bob", Access: ShareAccessViewer, Action: ShareActionGrant},
				err:    ErrShareParamsMissing,
			},
			{
				name:   "missing target user",
				params: ShareNoteParams{NoteID: "n1", Access: ShareAccessViewer, Action: ShareActionGrant},
				err:    ErrShareParamsMissing,
			},
			{
				name:   "invalid action",
				params: ShareNoteParams{NoteID: "n1", TargetUserID: "bob", Access: ShareAccessViewer, Action: "lend"},
				err:    ErrShareActionInvalid,
			},
			{
				name:   "invalid access",
				params: ShareNoteParams{NoteID: "n1", TargetUserID: "bob", Access: "owner", Action: ShareActionGrant},
				err:    ErrShareAccessInvalid,
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				err := ShareNote(context.Background(), a, "alice", tc.params)
				assert.Equal(t, errors.Is(err, tc.err), true, "error mismatch")
			})
		}
	})
}
