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

package database

import (
	"testing"

	"github.com/driftpad/driftpad/pkg/assert"
	"github.com/pkg/errors"
)

func TestNoteUpsert(t *testing.T) {
	t.Run("inserts and reads back a note", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		n := NewNote("n1", "alice", "hello", "<p>world</p>", []string{"work", "ideas"}, true, false, true, 100, "iv123")
		MustUpsertNote(t, db, n)

		got, found, err := GetNote(db, "n1")
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting note"))
		}

		assert.Equal(t, found, true, "note should exist")
		assert.DeepEqual(t, got, n, "note mismatch")
	})

	t.Run("overwrites all fields on conflict", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		MustUpsertNote(t, db, NewNote("n1", "alice", "before", "<p>old</p>", []string{"a"}, false, false, true, 100, ""))
		after := NewNote("n1", "alice", "after", "<p>new</p>", []string{"b", "c"}, true, false, false, 200, "")
		MustUpsertNote(t, db, after)

		got, _, err := GetNote(db, "n1")
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting note"))
		}

		assert.DeepEqual(t, got, after, "note mismatch")
	})

	t.Run("nil tags round-trip as an empty list", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		MustUpsertNote(t, db, NewNote("n1", "alice", "untagged", "", nil, false, false, false, 100, ""))

		got, _, err := GetNote(db, "n1")
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting note"))
		}

		assert.DeepEqual(t, got.Tags, []string{}, "tags mismatch")
	})
}

func TestExpungeNote(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustUpsertNote(t, db, NewNote("n1", "alice", "doomed", "", nil, false, false, false, 100, ""))

	if err := ExpungeNote(db, "n1"); err != nil {
		t.Fatal(errors.Wrap(err, "expunging note"))
	}

	_, found, err := GetNote(db, "n1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, found, false, "note should be gone")

	// expunging an id that does not exist is not an error
	if err := ExpungeNote(db, "n1"); err != nil {
		t.Fatal(errors.Wrap(err, "expunging again"))
	}
}

func TestGetNoteByIDPrefix(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustUpsertNote(t, db, NewNote("abc123", "alice", "one", "", nil, false, false, false, 100, ""))
	MustUpsertNote(t, db, NewNote("abd456", "alice", "two", "", nil, false, false, false, 200, ""))

	t.Run("unique prefix", func(t *testing.T) {
		got, found, err := GetNoteByIDPrefix(db, "abc")
		if err != nil {
			t.Fatal(errors.Wrap(err, "looking up prefix"))
		}

		assert.Equal(t, found, true, "note should be found")
		assert.Equal(t, got.ID, "abc123", "note id mismatch")
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, _, err := GetNoteByIDPrefix(db, "ab")

		assert.Equal(t, errors.Is(err, ErrAmbiguousNoteID), true, "error mismatch")
	})

	t.Run("no match", func(t *testing.T) {
		_, found, err := GetNoteByIDPrefix(db, "zzz")
		if err != nil {
			t.Fatal(errors.Wrap(err, "looking up prefix"))
		}

		assert.Equal(t, found, false, "note should not be found")
	})
}

func TestGetDirtyNotes(t *testing.T) {
	db := InitTestMemoryDB(t)

	MustUpsertNote(t, db, NewNote("n1", "alice", "dirty old", "", nil, false, false, true, 300, ""))
	MustUpsertNote(t, db, NewNote("n2", "alice", "clean", "", nil, false, false, false, 200, ""))
	MustUpsertNote(t, db, NewNote("n3", "alice", "dirty older", "", nil, false, false, true, 100, ""))

	dirty, err := GetDirtyNotes(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting dirty notes"))
	}

	assert.Equal(t, len(dirty), 2, "dirty count mismatch")
	assert.Equal(t, dirty[0].ID, "n3", "dirty order mismatch")
	assert.Equal(t, dirty[1].ID, "n1", "dirty order mismatch")
}

func TestMarkNoteClean(t *testing.T) {
	t.Run("clears the flag when the record is unchanged", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		MustUpsertNote(t, db, NewNote("n1", "alice", "sent", "", nil, false, false, true, 100, ""))

		if err := MarkNoteClean(db, "n1", 100); err != nil {
			t.Fatal(errors.Wrap(err, "marking clean"))
		}

		got, _, err := GetNote(db, "n1")
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting note"))
		}
		assert.Equal(t, got.Dirty, false, "note should be clean")
	})

	t.Run("keeps the flag when the record changed since the push", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		// pushed at updatedAt 100, then edited to 150 while in flight
		MustUpsertNote(t, db, NewNote("n1", "alice", "edited mid-push", "", nil, false, false, true, 150, ""))

		if err := MarkNoteClean(db, "n1", 100); err != nil {
			t.Fatal(errors.Wrap(err, "marking clean"))
		}

		got, _, err := GetNote(db, "n1")
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting note"))
		}
		assert.Equal(t, got.Dirty, true, "note should stay dirty")
	})
}

func TestSystem(t *testing.T) {
	t.Run("round-trips an integer value", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		if err := UpsertSystem(db, "last_sync_time", int64(12345)); err != nil {
			t.Fatal(errors.Wrap(err, "upserting"))
		}

		var got int64
		if err := GetSystem(db, "last_sync_time", &got); err != nil {
			t.Fatal(errors.Wrap(err, "getting"))
		}
		assert.Equal(t, got, int64(12345), "value mismatch")
	})

	t.Run("overwrites an existing value", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		if err := UpsertSystem(db, "session_token", "old"); err != nil {
			t.Fatal(errors.Wrap(err, "upserting"))
		}
		if err := UpsertSystem(db, "session_token", "new"); err != nil {
			t.Fatal(errors.Wrap(err, "upserting again"))
		}

		var got string
		if err := GetSystem(db, "session_token", &got); err != nil {
			t.Fatal(errors.Wrap(err, "getting"))
		}
		assert.Equal(t, got, "new", "value mismatch")
	})

	t.Run("missing key", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		var got string
		err := GetSystem(db, "no_such_key", &got)

		assert.Equal(t, errors.Is(err, ErrSystemKeyNotFound), true, "error mismatch")
	})

	t.Run("delete", func(t *testing.T) {
		db := InitTestMemoryDB(t)

		if err := UpsertSystem(db, "user_id", "alice"); err != nil {
			t.Fatal(errors.Wrap(err, "upserting"))
		}
		if err := DeleteSystem(db, "user_id"); err != nil {
			t.Fatal(errors.Wrap(err, "deleting"))
		}

		var got string
		err := GetSystem(db, "user_id", &got)
		assert.Equal(t, errors.Is(err, ErrSystemKeyNotFound), true, "error mismatch")
	})
}
