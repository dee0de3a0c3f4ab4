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

// Package ledger provides the server side note store. Notes live in a table
// partitioned by owner, with a secondary index ordered by update time to
// serve incremental reads. Access grants live in a separate table partitioned
// by grantee.
package ledger

import (
	"context"

	"github.com/pkg/errors"
)

// MaxBatchWriteItems is the most records a single BatchWriteNotes call accepts
const MaxBatchWriteItems = 25

// ErrBatchTooLarge is an error for a batch write exceeding MaxBatchWriteItems
var ErrBatchTooLarge = errors.Errorf("batch exceeds %d items", MaxBatchWriteItems)

// ErrSharingDisabled is an error for grant mutations on a deployment that has
// no ACL table configured
var ErrSharingDisabled = errors.New("sharing is disabled")

// Record is a note as stored in the ledger
type Record struct {
	UserID         string   `dynamodbav:"userId"`
	NoteID         string   `dynamodbav:"noteId"`
	OwnerID        string   `dynamodbav:"ownerId"`
	Title          string   `dynamodbav:"title"`
	ContentHTML    string   `dynamodbav:"contentHtml"`
	Tags           []string `dynamodbav:"tags"`
	Pinned         bool     `dynamodbav:"pinned"`
	Deleted        bool     `dynamodbav:"deleted"`
	EncIV          string   `dynamodbav:"encIv"`
	UpdatedAt      int64    `dynamodbav:"updatedAt"`
	GsiUpdatedAtPk string   `dynamodbav:"gsiUpdatedAtPk"`
	GsiUpdatedAtSk int64    `dynamodbav:"gsiUpdatedAtSk"`
}

// NewRecord builds a fully populated record for the given owner. The
// partition key and the index key attributes are derived from the owner and
// the update time, so callers cannot produce a record whose keys disagree
// with its content.
func NewRecord(ownerID, noteID, title, contentHTML string, tags []string, pinned, deleted bool, encIV string, updatedAt int64) Record {
	if tags == nil {
		tags = []string{}
	}

	return Record{
		UserID:         ownerID,
		NoteID:         noteID,
		OwnerID:        ownerID,
		Title:          title,
		ContentHTML:    contentHTML,
		Tags:           tags,
		Pinned:         pinned,
		Deleted:        deleted,
		EncIV:          encIV,
		UpdatedAt:      updatedAt,
		GsiUpdatedAtPk: ownerID,
		GsiUpdatedAtSk: updatedAt,
	}
}

// Grant is an access grant for a note, keyed by the grantee
type Grant struct {
	GranteeID string `dynamodbav:"userId"`
	NoteID    string `dynamodbav:"noteId"`
	OwnerID   string `dynamodbav:"ownerId"`
	CanEdit   bool   `dynamodbav:"canEdit"`
	UpdatedAt int64  `dynamodbav:"updatedAt"`
}

// Page is one page of an owner-partitioned incremental read
type Page struct {
	Records []Record
	// NextKey is an opaque continuation token. Empty means the read is
	// exhausted.
	NextKey string
}

// Ledger is the interface for the server side note store
type Ledger interface {
	// GetNote fetches a single note from the given owner's partition
	GetNote(ctx context.Context, ownerID, noteID string) (Record, bool, error)
	// BatchWriteNotes persists up to MaxBatchWriteItems records and returns
	// the ones the store could not process
	BatchWriteNotes(ctx context.Context, records []Record) ([]Record, error)
	// QueryOwnerSince reads the owner's notes updated strictly after since,
	// ordered by update time, up to limit records per page
	QueryOwnerSince(ctx context.Context, ownerID string, since int64, limit int, startKey string) (Page, error)
	// GetGrant fetches the grant for the given grantee and note
	GetGrant(ctx context.Context, granteeID, noteID string) (Grant, bool, error)
	// PutGrant stores the given grant, replacing any existing one
	PutGrant(ctx context.Context, grant Grant) error
	// DeleteGrant removes the grant for the given grantee and note. Deleting
	// a grant that does not exist is not an error.
	DeleteGrant(ctx context.Context, granteeID, noteID string) error
	// ListGrantsFor returns all grants held by the given grantee
	ListGrantsFor(ctx context.Context, granteeID string) ([]Grant, error)
}
