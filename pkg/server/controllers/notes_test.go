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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/driftpad/driftpad/pkg/assert"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	"github.com/driftpad/driftpad/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestNotesPush(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "POST", "/notes/batch", `{"changes":[]}`)
		res := testutils.HTTPDo(t, req)

		assert.StatusCodeEquals(t, res, http.StatusUnauthorized, "status code mismatch")
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "POST", "/notes/batch", `{"changes":`)
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusBadRequest, "status code mismatch")
	})

	t.Run("accepts an empty batch", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "POST", "/notes/batch", `{"changes":[]}`)
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

		var body pushResp
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding response"))
		}
		assert.Equal(t, body.Updated, 0, "updated count mismatch")
	})

	t.Run("persists changes", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		payload := `{"changes":[{"id":"n1","title":"hello","contentHtml":"<p>hi</p>","tags":["work"],"pinned":true,"updatedAt":12345}]}`
		req := testutils.MakeReq(t, server.URL, "POST", "/notes/batch", payload)
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

		var body pushResp
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding response"))
		}
		assert.Equal(t, body.Updated, 1, "updated count mismatch")

		record, found, _ := l.GetNote(context.Background(), "alice", "n1")
		assert.Equal(t, found, true, "note should exist")
		assert.Equal(t, record.Title, "hello", "title mismatch")
		assert.Equal(t, record.Pinned, true, "pinned mismatch")
		assert.Equal(t, record.UpdatedAt, int64(12345), "update time mismatch")
	})

	t.Run("rejects a change without a note id", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		payload := `{"changes":[{"title":"no id","updatedAt":1}]}`
		req := testutils.MakeReq(t, server.URL, "POST", "/notes/batch", payload)
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusBadRequest, "status code mismatch")
	})

	t.Run("names the offending note on forbidden edits", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)

		record := ledger.NewRecord("alice", "n1", "alice's note", "", nil, false, false, "", 100)
		if _, err := l.BatchWriteNotes(context.Background(), []ledger.Record{record}); err != nil {
			t.Fatal(errors.Wrap(err, "seeding note"))
		}

		server := MustNewServer(t, a)
		defer server.Close()

		payload := `{"changes":[{"id":"n1","ownerId":"alice","title":"stolen","updatedAt":200}]}`
		req := testutils.MakeReq(t, server.URL, "POST", "/notes/batch", payload)
		res := testutils.HTTPAuthDo(t, req, "bob")

		assert.StatusCodeEquals(t, res, http.StatusForbidden, "status code mismatch")

		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding response"))
		}
		assert.Equal(t, body.Message, "No edit access for note n1", "message mismatch")
	})
}

func TestNotesChanges(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "GET", "/notes/changes?since=0", "")
		res := testutils.HTTPDo(t, req)

		assert.StatusCodeEquals(t, res, http.StatusUnauthorized, "status code mismatch")
	})

	t.Run("returns changes after the watermark with a cursor", func(t *testing.T) {
		a, l, c := testutils.NewTestApp(t)
		c.SetNow(time.UnixMilli(50000))

		var records []ledger.Record
		for i := 0; i < 3; i++ {
			records = append(records, ledger.NewRecord(
				"alice",
				fmt.Sprintf("n%d", i),
				fmt.Sprintf("note %d", i),
				"",
				nil,
				false,
				false,
				"",
				int64(100+i),
			))
		}
		if _, err := l.BatchWriteNotes(context.Background(), records); err != nil {
			t.Fatal(errors.Wrap(err, "seeding notes"))
		}

		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "GET", "/notes/changes?since=100", "")
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

		var body changesResp
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding response"))
		}

		assert.Equal(t, len(body.Changes), 2, "change count mismatch")
		assert.Equal(t, body.Changes[0].ID, "n1", "first change mismatch")
		assert.Equal(t, body.Changes[1].ID, "n2", "second change mismatch")
		assert.Equal(t, body.Cursor, int64(50000), "cursor mismatch")
	})

	t.Run("treats a malformed since as zero", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)

		record := ledger.NewRecord("alice", "n1", "a note", "", nil, false, false, "", 100)
		if _, err := l.BatchWriteNotes(context.Background(), []ledger.Record{record}); err != nil {
			t.Fatal(errors.Wrap(err, "seeding note"))
		}

		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "GET", "/notes/changes?since=banana", "")
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

		var body changesResp
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding response"))
		}
		assert.Equal(t, len(body.Changes), 1, "change count mismatch")
	})

	t.Run("sets permissive cross-origin headers", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "GET", "/notes/changes", "")
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.Equal(t, res.Header.Get("Access-Control-Allow-Origin"), "*", "cors origin header mismatch")
		assert.Equal(t, res.Header.Get("Access-Control-Allow-Credentials"), "true", "cors credentials header mismatch")
	})

	t.Run("answers preflight requests", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "OPTIONS", "/notes/batch", "")
		res := testutils.HTTPDo(t, req)

		assert.StatusCodeEquals(t, res, http.StatusNoContent, "status code mismatch")
		assert.Equal(t, res.Header.Get("Access-Control-Allow-Origin"), "*", "cors origin header mismatch")
		assert.Equal(t, res.Header.Get("Access-Control-Allow-Credentials"), "true", "cors credentials header mismatch")
	})
}

func TestNotesShare(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "POST", "/notes/share", `{"noteId":"n1","targetUserId":"bob","access":"viewer","action":"grant"}`)
		res := testutils.HTTPDo(t, req)

		assert.StatusCodeEquals(t, res, http.StatusUnauthorized, "status code mismatch")
	})

	t.Run("grants access to an owned note", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)

		record := ledger.NewRecord("alice", "n1", "a note", "", nil, false, false, "", 100)
		if _, err := l.BatchWriteNotes(context.Background(), []ledger.Record{record}); err != nil {
			t.Fatal(errors.Wrap(err, "seeding note"))
		}

		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "POST", "/notes/share", `{"noteId":"n1","targetUserId":"bob","access":"editor","action":"grant"}`)
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

		var body shareResp
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatal(errors.Wrap(err, "decoding response"))
		}
		assert.Equal(t, body.OK, true, "response mismatch")

		grant, found, _ := l.GetGrant(context.Background(), "bob", "n1")
		assert.Equal(t, found, true, "grant should exist")
		assert.Equal(t, grant.CanEdit, true, "grant access mismatch")
	})

	t.Run("responds not found for notes the caller does not own", func(t *testing.T) {
		a, l, _ := testutils.NewTestApp(t)

		record := ledger.NewRecord("alice", "n1", "a note", "", nil, false, false, "", 100)
		if _, err := l.BatchWriteNotes(context.Background(), []ledger.Record{record}); err != nil {
			t.Fatal(errors.Wrap(err, "seeding note"))
		}

		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "POST", "/notes/share", `{"noteId":"n1","targetUserId":"bob","access":"viewer","action":"grant"}`)
		res := testutils.HTTPAuthDo(t, req, "mallory")

		assert.StatusCodeEquals(t, res, http.StatusNotFound, "status code mismatch")
	})

	t.Run("rejects missing parameters", func(t *testing.T) {
		a, _, _ := testutils.NewTestApp(t)
		server := MustNewServer(t, a)
		defer server.Close()

		req := testutils.MakeReq(t, server.URL, "POST", "/notes/share", `{"noteId":"","targetUserId":"","action":"grant"}`)
		res := testutils.HTTPAuthDo(t, req, "alice")

		assert.StatusCodeEquals(t, res, http.StatusBadRequest, "status code mismatch")
	})
}
