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

package syncer

import (
	"sync/atomic"

	"github.com/driftpad/driftpad/pkg/cli/client"
	"github.com/driftpad/driftpad/pkg/cli/consts"
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/pkg/errors"
)

// Result summarizes what a sync cycle did
type Result struct {
	// Skipped is true if another cycle was already in flight
	Skipped bool
	// PushedOK is true if the dirty records were acknowledged by the server
	PushedOK bool
	// Pushed is the number of dirty records submitted
	Pushed int
	// Pulled is true if the incremental pull completed
	Pulled bool
	// Upserted and Deleted count the local applications of the pull
	Upserted int
	Deleted  int
	// Cursor is the new watermark, when the pull advanced it
	Cursor int64
}

// Syncer coordinates sync cycles against the local store and the server.
// At most one cycle runs at a time; a cycle requested while another is in
// flight is dropped, not queued.
type Syncer struct {
	ctx      context.DriftpadCtx
	syncing  atomic.Bool
	onFinish func()
}

// New returns a new Syncer. onFinish, if non-nil, runs at the end of every
// cycle regardless of outcome, so callers can refresh their display.
func New(ctx context.DriftpadCtx, onFinish func()) *Syncer {
	return &Syncer{ctx: ctx, onFinish: onFinish}
}

// SyncNow runs one best-effort sync cycle: push dirty records, pull
// changes since the watermark, reconcile, advance the watermark.
//
// Remote failures are an expected offline condition, not an error. They
// are logged at debug level and never returned; an error indicates a
// local store fault only.
func (s *Syncer) SyncNow() (Result, error) {
	var ret Result

	if !s.syncing.CompareAndSwap(false, true) {
		ret.Skipped = true
		return ret, nil
	}
	defer func() {
		s.syncing.Store(false)
		if s.onFinish != nil {
			s.onFinish()
		}
	}()

	db := s.ctx.DB

	// the snapshot that the pull is reconciled against is taken at cycle start
	snapshot, err := database.GetAllNotes(db)
	if err != nil {
		return ret, errors.Wrap(err, "taking local snapshot")
	}

	if err := s.push(&ret); err != nil {
		return ret, err
	}

	if err := s.pull(snapshot, &ret); err != nil {
		return ret, err
	}

	return ret, nil
}

// push submits dirty records and clears their flags on acknowledgement. A
// remote failure leaves the flags set and does not block the pull.
func (s *Syncer) push(ret *Result) error {
	db := s.ctx.DB

	dirty, err := database.GetDirtyNotes(db)
	if err != nil {
		return errors.Wrap(err, "getting dirty notes")
	}
	if len(dirty) == 0 {
		ret.PushedOK = true
		return nil
	}

	changes := make([]client.Note, 0, len(dirty))
	for _, n := range dirty {
		changes = append(changes, toPayload(n))
	}

	if _, err := client.PushChanges(s.ctx, changes); err != nil {
		log.Debug("push skipped (offline?): %v\n", err)
		return nil
	}

	// clear the flag for exactly the records submitted, one at a time; a
	// record modified while the push was in flight stays dirty
	for _, n := range dirty {
		if err := database.MarkNoteClean(db, n.ID, n.UpdatedAt); err != nil {
			return errors.Wrap(err, "marking note clean")
		}
	}

	ret.PushedOK = true
	ret.Pushed = len(dirty)

	return nil
}

// pull requests changes since the watermark and applies them against the
// given snapshot. A remote failure aborts the cycle silently.
func (s *Syncer) pull(snapshot []database.Note, ret *Result) error {
	db := s.ctx.DB

	since, err := getWatermark(db)
	if err != nil {
		return err
	}

	resp, err := client.GetChanges(s.ctx, since)
	if err != nil {
		log.Debug("pull skipped (offline?): %v\n", err)
		return nil
	}

	ret.Pulled = true

	if len(resp.Changes) == 0 {
		return nil
	}

	plan := ResolveIncoming(snapshot, resp.Changes)

	for _, remote := range plan.ToUpsert {
		if err := toLocalNote(remote).Upsert(db); err != nil {
			return errors.Wrap(err, "applying an incoming note")
		}
	}
	for _, id := range plan.ToDelete {
		if err := database.ExpungeNote(db, id); err != nil {
			return errors.Wrap(err, "applying an incoming tombstone")
		}
	}

	// the watermark is the server-issued cursor, not the max updatedAt
	// seen, so that device clock skew cannot cause missed changes
	if err := database.UpsertSystem(db, consts.SystemLastSyncAt, resp.Cursor); err != nil {
		return errors.Wrap(err, "saving the watermark")
	}

	ret.Upserted = len(plan.ToUpsert)
	ret.Deleted = len(plan.ToDelete)
	ret.Cursor = resp.Cursor

	return nil
}

// getWatermark reads the persisted watermark, defaulting to the start of
// time on a fresh device
func getWatermark(db *database.DB) (int64, error) {
	var since int64

	err := database.GetSystem(db, consts.SystemLastSyncAt, &since)
	if errors.Is(err, database.ErrSystemKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "querying the watermark")
	}

	return since, nil
}
