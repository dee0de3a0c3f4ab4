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

package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/driftpad/driftpad/pkg/assert"
	"github.com/pkg/errors"
)

func TestMemoryBatchWriteNotes(t *testing.T) {
	t.Run("writes records into their owner partitions", func(t *testing.T) {
		l := NewMemory()

		records := []Record{
			NewRecord("alice", "n1", "one", "", nil, false, false, "", 100),
			NewRecord("bob", "n2", "two", "", nil, false, false, "", 200),
		}

		unprocessed, err := l.BatchWriteNotes(context.Background(), records)
		if err != nil {
			t.Fatal(errors.Wrap(err, "writing batch"))
		}
		assert.Equal(t, len(unprocessed), 0, "unprocessed count mismatch")

		_, found, _ := l.GetNote(context.Background(), "alice", "n1")
		assert.Equal(t, found, true, "alice's note should exist")
		_, found, _ = l.GetNote(context.Background(), "bob", "n2")
		assert.Equal(t, found, true, "bob's note should exist")
		_, found, _ = l.GetNote(context.Background(), "alice", "n2")
		assert.Equal(t, found, false, "partitions should not mix")
	})

	t.Run("rejects oversized batches", func(t *testing.T) {
		l := NewMemory()

		var records []Record
		for i := 0; i < MaxBatchWriteItems+1; i++ {
			records = append(records, NewRecord("alice", fmt.Sprintf("n%d", i), "", "", nil, false, false, "", int64(i)))
		}

		_, err := l.BatchWriteNotes(context.Background(), records)
		assert.Equal(t, errors.Is(err, ErrBatchTooLarge), true, "error mismatch")
	})

	t.Run("reports refused writes as unprocessed", func(t *testing.T) {
		l := NewMemory()
		l.RefuseWrites(1)

		records := []Record{NewRecord("alice", "n1", "", "", nil, false, false, "", 100)}

		unprocessed, err := l.BatchWriteNotes(context.Background(), records)
		if err != nil {
			t.Fatal(errors.Wrap(err, "writing batch"))
		}
		assert.Equal(t, len(unprocessed), 1, "unprocessed count mismatch")

		_, found, _ := l.GetNote(context.Background(), "alice", "n1")
		assert.Equal(t, found, false, "refused write should not persist")

		// the budget is spent; the next write lands
		unprocessed, err = l.BatchWriteNotes(context.Background(), records)
		if err != nil {
			t.Fatal(errors.Wrap(err, "writing batch"))
		}
		assert.Equal(t, len(unprocessed), 0, "unprocessed count mismatch")
	})
}

func TestMemoryQueryOwnerSince(t *testing.T) {
	seed := func(t *testing.T, l *Memory, n int) {
		t.Helper()

		for i := 0; i < n; i += MaxBatchWriteItems {
			var records []Record
			for j := i; j < i+MaxBatchWriteItems && j < n; j++ {
				records = append(records, NewRecord("alice", fmt.Sprintf("n%03d", j), "", "", nil, false, false, "", int64(100+j)))
			}
			if _, err := l.BatchWriteNotes(context.Background(), records); err != nil {
				t.Fatal(errors.Wrap(err, "seeding"))
			}
		}
	}

	t.Run("filters strictly after since and orders by update time", func(t *testing.T) {
		l := NewMemory()
		seed(t, l, 5)

		page, err := l.QueryOwnerSince(context.Background(), "alice", 101, 10, "")
		if err != nil {
			t.Fatal(errors.Wrap(err, "querying"))
		}

		assert.Equal(t, len(page.Records), 3, "record count mismatch")
		assert.Equal(t, page.Records[0].NoteID, "n002", "order mismatch")
		assert.Equal(t, page.Records[2].NoteID, "n004", "order mismatch")
		assert.Equal(t, page.NextKey, "", "next key should be empty")
	})

	t.Run("pages with a continuation token", func(t *testing.T) {
		l := NewMemory()
		seed(t, l, 10)

		var all []Record
		startKey := ""
		pages := 0
		for {
			page, err := l.QueryOwnerSince(context.Background(), "alice", 0, 4, startKey)
			if err != nil {
				t.Fatal(errors.Wrap(err, "querying"))
			}

			all = append(all, page.Records...)
			pages++

			if page.NextKey == "" {
				break
			}
			startKey = page.NextKey
		}

		assert.Equal(t, pages, 3, "page count mismatch")
		assert.Equal(t, len(all), 10, "record count mismatch")
		for i, record := range all {
			assert.Equal(t, record.NoteID, fmt.Sprintf("n%03d", i), "record order mismatch")
		}
	})

	t.Run("returns nothing for an unknown owner", func(t *testing.T) {
		l := NewMemory()
		seed(t, l, 3)

		page, err := l.QueryOwnerSince(context.Background(), "bob", 0, 10, "")
		if err != nil {
			t.Fatal(errors.Wrap(err, "querying"))
		}

		assert.Equal(t, len(page.Records), 0, "record count mismatch")
	})
}

func TestMemoryGrants(t *testing.T) {
	l := NewMemory()

	grants := []Grant{
		{GranteeID: "bob", NoteID: "n2", OwnerID: "alice", CanEdit: true, UpdatedAt: 2},
		{GranteeID: "bob", NoteID: "n1", OwnerID: "alice", CanEdit: false, UpdatedAt: 1},
		{GranteeID: "carol", NoteID: "n1", OwnerID: "alice", CanEdit: true, UpdatedAt: 3},
	}
	for _, grant := range grants {
		if err := l.PutGrant(context.Background(), grant); err != nil {
			t.Fatal(errors.Wrap(err, "putting grant"))
		}
	}

	t.Run("lists grants by grantee in note order", func(t *testing.T) {
		got, err := l.ListGrantsFor(context.Background(), "bob")
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing grants"))
		}

		assert.Equal(t, len(got), 2, "grant count mismatch")
		assert.Equal(t, got[0].NoteID, "n1", "grant order mismatch")
		assert.Equal(t, got[1].NoteID, "n2", "grant order mismatch")
	})

	t.Run("deletes are scoped to the grantee", func(t *testing.T) {
		if err := l.DeleteGrant(context.Background(), "bob", "n1"); err != nil {
			t.Fatal(errors.Wrap(err, "deleting grant"))
		}

		_, found, _ := l.GetGrant(context.Background(), "bob", "n1")
		assert.Equal(t, found, false, "bob's grant should be gone")

		_, found, _ = l.GetGrant(context.Background(), "carol", "n1")
		assert.Equal(t, found, true, "carol's grant should remain")
	})
}
