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

// Package operations provides the business logic for the server handlers
package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/driftpad/driftpad/pkg/server/app"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	"github.com/pkg/errors"
)

const (
	// pushMaxRetries is the number of backoff rounds for unprocessed writes
	pushMaxRetries = 5
	// pushBackoffBase is the first backoff delay. It doubles every round.
	pushBackoffBase = 100 * time.Millisecond
)

// sleep is swapped out in tests
var sleep = time.Sleep

// ErrNoteIDMissing is an error for a mutation without a note id
var ErrNoteIDMissing = errors.New("note id is required")

// ForbiddenError is an error for a mutation the caller may not perform. It
// names the offending note.
type ForbiddenError struct {
	NoteID string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("No edit access for note %s", e.NoteID)
}

// PartialFailureError is an error for a batch the store would not fully
// accept after all retries
type PartialFailureError struct {
	Unprocessed int
}

func (e PartialFailureError) Error() string {
	return fmt.Sprintf("Failed to persist some notes: %d unprocessed", e.Unprocessed)
}

// NoteChange is one incoming note mutation
type NoteChange struct {
	ID          string
	OwnerID     string
	Title       string
	ContentHTML string
	Tags        []string
	Pinned      bool
	Deleted     bool
	EncIV       string
	UpdatedAt   int64
}

// authorizeChange resolves the owner partition for the given change and
// verifies the caller may write it. A note that already exists belongs to its
// recorded owner regardless of what the mutation claims.
func authorizeChange(ctx context.Context, a *app.App, userID string, change NoteChange) (string, error) {
	ownerToCheck := change.OwnerID
	if ownerToCheck == "" {
		ownerToCheck = userID
	}

	existing, found, err := a.Ledger.GetNote(ctx, ownerToCheck, change.ID)
	if err != nil {
		return "", errors.Wrapf(err, "looking up note %s", change.ID)
	}
	if !found {
		return ownerToCheck, nil
	}

	ownerID := existing.OwnerID
	if ownerID == "" {
		ownerID = existing.UserID
	}
	if ownerID == userID {
		return ownerID, nil
	}

	grant, found, err := a.Ledger.GetGrant(ctx, userID, change.ID)
	if err != nil {
		return "", errors.Wrapf(err, "looking up grant for note %s", change.ID)
	}
	if !found || !grant.CanEdit {
		return "", ForbiddenError{NoteID: change.ID}
	}

	return ownerID, nil
}

func chunkRecords(records []ledger.Record, size int) [][]ledger.Record {
	var batches [][]ledger.Record
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[i:end])
	}
	return batches
}

// writeBatch persists one chunk, resubmitting unprocessed records with
// exponential backoff until the store accepts them or retries run out
func writeBatch(ctx context.Context, a *app.App, records []ledger.Record) error {
	unprocessed := records
	retry := 0

	for len(unprocessed) > 0 {
		remaining, err := a.Ledger.BatchWriteNotes(ctx, unprocessed)
		if err != nil {
			return errors.Wrap(err, "writing note batch")
		}

		unprocessed = remaining
		if len(unprocessed) == 0 {
			break
		}

		if retry >= pushMaxRetries {
			return PartialFailureError{Unprocessed: len(unprocessed)}
		}

		sleep(pushBackoffBase << retry)
		retry++
	}

	return nil
}

// PushBatch authorizes and persists the given mutations on behalf of the
// caller. The batch is all-or-nothing with respect to authorization: if any
// mutation is rejected, nothing is written. It returns the number of
// mutations persisted.
func PushBatch(ctx context.Context, a *app.App, userID string, changes []NoteChange) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	records := make([]ledger.Record, 0, len(changes))
	for _, change := range changes {
		if change.ID == "" {
			return 0, ErrNoteIDMissing
		}

		ownerID, err := authorizeChange(ctx, a, userID, change)
		if err != nil {
			return 0, err
		}

		updatedAt := change.UpdatedAt
		if updatedAt == 0 {
			updatedAt = a.Clock.Now().UnixMilli()
		}

		records = append(records, ledger.NewRecord(
			ownerID,
			change.ID,
			change.Title,
			change.ContentHTML,
			change.Tags,
			change.Pinned,
			change.Deleted,
			change.EncIV,
			updatedAt,
		))
	}

	for _, batch := range chunkRecords(records, ledger.MaxBatchWriteItems) {
		if err := writeBatch(ctx, a, batch); err != nil {
			return 0, err
		}
	}

	return len(changes), nil
}

// ChangeFeed is the result of an incremental read
type ChangeFeed struct {
	Changes []ledger.Record
	// Cursor is the watermark for the next read, issued from the server
	// clock rather than the records so that a client with a skewed clock
	// cannot miss changes.
	Cursor int64
}

// GetChangesSince reads the caller's notes updated strictly after since,
// including notes shared with the caller, capped at the configured page size
func GetChangesSince(ctx context.Context, a *app.App, userID string, since int64) (ChangeFeed, error) {
	seen := map[string]bool{}
	var items []ledger.Record

	startKey := ""
	for {
		page, err := a.Ledger.QueryOwnerSince(ctx, userID, since, a.MaxChanges, startKey)
		if err != nil {
			return ChangeFeed{}, errors.Wrap(err, "reading owned changes")
		}

		for _, record := range page.Records {
			if seen[record.NoteID] {
				continue
			}
			items = append(items, record)
			seen[record.NoteID] = true
		}

		if len(items) >= a.MaxChanges || page.NextKey == "" {
			break
		}
		startKey = page.NextKey
	}

	if len(items) < a.MaxChanges {
		shared, err := sharedChangesSince(ctx, a, userID, since, seen, a.MaxChanges-len(items))
		if err != nil {
			return ChangeFeed{}, err
		}
		items = append(items, shared...)
	}

	if len(items) > a.MaxChanges {
		items = items[:a.MaxChanges]
	}

	return ChangeFeed{
		Changes: items,
		Cursor:  a.Clock.Now().UnixMilli(),
	}, nil
}

// sharedChangesSince folds in notes granted to the caller that changed after
// since, up to the remaining page budget
func sharedChangesSince(ctx context.Context, a *app.App, userID string, since int64, seen map[string]bool, budget int) ([]ledger.Record, error) {
	grants, err := a.Ledger.ListGrantsFor(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing grants")
	}

	var items []ledger.Record
	for _, grant := range grants {
		if len(items) >= budget {
			break
		}
		if grant.NoteID == "" || grant.OwnerID == "" || seen[grant.NoteID] {
			continue
		}

		record, found, err := a.Ledger.GetNote(ctx, grant.OwnerID, grant.NoteID)
		if err != nil {
			return nil, errors.Wrapf(err, "reading shared note %s", grant.NoteID)
		}
		if !found || record.UpdatedAt <= since {
			continue
		}

		items = append(items, record)
		seen[record.NoteID] = true
	}

	return items, nil
}
