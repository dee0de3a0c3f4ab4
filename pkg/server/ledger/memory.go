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
	"sort"
	"sync"
)

// Memory is an in-process ledger for local development and tests
type Memory struct {
	mtx   sync.RWMutex
	notes map[string]map[string]Record
	// grants is keyed by grantee id, then note id
	grants map[string]map[string]Grant
	// refuseWrites makes the next n BatchWriteNotes calls return their
	// input as unprocessed without writing
	refuseWrites int
	// batchSizes records the size of every BatchWriteNotes call
	batchSizes []int
}

// NewMemory creates an empty in-process ledger
func NewMemory() *Memory {
	return &Memory{
		notes:  map[string]map[string]Record{},
		grants: map[string]map[string]Grant{},
	}
}

// RefuseWrites makes the next n batch writes report every record as
// unprocessed, mimicking a throttled table
func (m *Memory) RefuseWrites(n int) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.refuseWrites = n
}

// BatchSizes returns the size of every batch write made so far
func (m *Memory) BatchSizes() []int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	sizes := make([]int, len(m.batchSizes))
	copy(sizes, m.batchSizes)
	return sizes
}

// GetNote fetches a single note from the given owner's partition
func (m *Memory) GetNote(ctx context.Context, ownerID, noteID string) (Record, bool, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	record, ok := m.notes[ownerID][noteID]
	return record, ok, nil
}

// BatchWriteNotes persists the given records, keyed by their owner partition
func (m *Memory) BatchWriteNotes(ctx context.Context, records []Record) ([]Record, error) {
	if len(records) > MaxBatchWriteItems {
		return nil, ErrBatchTooLarge
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.batchSizes = append(m.batchSizes, len(records))

	if m.refuseWrites > 0 {
		m.refuseWrites--

		unprocessed := make([]Record, len(records))
		copy(unprocessed, records)
		return unprocessed, nil
	}

	for _, record := range records {
		partition, ok := m.notes[record.UserID]
		if !ok {
			partition = map[string]Record{}
			m.notes[record.UserID] = partition
		}
		partition[record.NoteID] = record
	}

	return nil, nil
}

// QueryOwnerSince reads the owner's notes updated strictly after since in
// ascending update time order
func (m *Memory) QueryOwnerSince(ctx context.Context, ownerID string, since int64, limit int, startKey string) (Page, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	var matched []Record
	for _, record := range m.notes[ownerID] {
		if record.GsiUpdatedAtSk > since {
			matched = append(matched, record)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].GsiUpdatedAtSk == matched[j].GsiUpdatedAtSk {
			return matched[i].NoteID < matched[j].NoteID
		}
		return matched[i].GsiUpdatedAtSk < matched[j].GsiUpdatedAtSk
	})

	start := 0
	if startKey != "" {
		for i, record := range matched {
			if encodeStartKey(record) == startKey {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	page := Page{Records: matched[start:end]}
	if end < len(matched) && len(page.Records) > 0 {
		page.NextKey = encodeStartKey(page.Records[len(page.Records)-1])
	}

	return page, nil
}

// GetGrant fetches the grant for the given grantee and note
func (m *Memory) GetGrant(ctx context.Context, granteeID, noteID string) (Grant, bool, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	grant, ok := m.grants[granteeID][noteID]
	return grant, ok, nil
}

// PutGrant stores the given grant, replacing any existing one
func (m *Memory) PutGrant(ctx context.Context, grant Grant) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	partition, ok := m.grants[grant.GranteeID]
	if !ok {
		partition = map[string]Grant{}
		m.grants[grant.GranteeID] = partition
	}
	partition[grant.NoteID] = grant

	return nil
}

// DeleteGrant removes the grant for the given grantee and note
func (m *Memory) DeleteGrant(ctx context.Context, granteeID, noteID string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	delete(m.grants[granteeID], noteID)

	return nil
}

// ListGrantsFor returns all grants held by the given grantee
func (m *Memory) ListGrantsFor(ctx context.Context, granteeID string) ([]Grant, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	var grants []Grant
	for _, grant := range m.grants[granteeID] {
		grants = append(grants, grant)
	}

	sort.Slice(grants, func(i, j int) bool {
		return grants[i].NoteID < grants[j].NoteID
	})

	return grants, nil
}
