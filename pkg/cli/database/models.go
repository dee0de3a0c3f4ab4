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
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
)

// Note is the unit of synchronization. A device holds at most one version
// of a note regardless of who owns it.
type Note struct {
	ID          string
	OwnerID     string
	Title       string
	ContentHTML string
	Tags        []string
	Pinned      bool
	Deleted     bool
	Dirty       bool
	UpdatedAt   int64
	EncIV       string
}

// NewNote constructs a fully populated note with the given data
func NewNote(id, ownerID, title, contentHTML string, tags []string, pinned, deleted, dirty bool, updatedAt int64, encIV string) Note {
	if tags == nil {
		tags = []string{}
	}

	return Note{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		ContentHTML: contentHTML,
		Tags:        tags,
		Pinned:      pinned,
		Deleted:     deleted,
		Dirty:       dirty,
		UpdatedAt:   updatedAt,
		EncIV:       encIV,
	}
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}

	b, err := json.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "marshalling tags")
	}

	return string(b), nil
}

func unmarshalTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}

	var ret []string
	if err := json.Unmarshal([]byte(raw), &ret); err != nil {
		return nil, errors.Wrap(err, "unmarshalling tags")
	}

	return ret, nil
}

// Upsert writes the note to the local store, replacing any existing version
// with the same id
func (n Note) Upsert(db *DB) error {
	tags, err := marshalTags(n.Tags)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT INTO notes (id, owner_id, title, content_html, tags, pinned, deleted, dirty, updated_at, enc_iv)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			title = excluded.title,
			content_html = excluded.content_html,
			tags = excluded.tags,
			pinned = excluded.pinned,
			deleted = excluded.deleted,
			dirty = excluded.dirty,
			updated_at = excluded.updated_at,
			enc_iv = excluded.enc_iv`,
		n.ID, n.OwnerID, n.Title, n.ContentHTML, tags, n.Pinned, n.Deleted, n.Dirty, n.UpdatedAt, n.EncIV)
	if err != nil {
		return errors.Wrapf(err, "upserting note with id %s", n.ID)
	}

	return nil
}

// Expunge hard-deletes the note from the local store
func (n Note) Expunge(db *DB) error {
	return ExpungeNote(db, n.ID)
}

// ExpungeNote hard-deletes the note with the given id from the local store
func ExpungeNote(db *DB, id string) error {
	_, err := db.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "expunging note with id %s", id)
	}

	return nil
}

func scanNote(scan func(dest ...interface{}) error) (Note, error) {
	var n Note
	var tags string

	if err := scan(&n.ID, &n.OwnerID, &n.Title, &n.ContentHTML, &tags, &n.Pinned, &n.Deleted, &n.Dirty, &n.UpdatedAt, &n.EncIV); err != nil {
		return n, err
	}

	parsed, err := unmarshalTags(tags)
	if err != nil {
		return n, err
	}
	n.Tags = parsed

	return n, nil
}

const noteColumns = "id, owner_id, title, content_html, tags, pinned, deleted, dirty, updated_at, enc_iv"

// GetNote retrieves the note with the given id. The second return value
// indicates whether a note was found.
func GetNote(db *DB, id string) (Note, bool, error) {
	row := db.QueryRow("SELECT "+noteColumns+" FROM notes WHERE id = ?", id)

	n, err := scanNote(row.Scan)
	if err == sql.ErrNoRows {
		return Note{}, false, nil
	}
	if err != nil {
		return Note{}, false, errors.Wrapf(err, "getting note with id %s", id)
	}

	return n, true, nil
}

// ErrAmbiguousNoteID is an error for a note id prefix that matches more
// than one note
var ErrAmbiguousNoteID = errors.New("more than one note matches the id")

// GetNoteByIDPrefix retrieves the note whose id starts with the given
// prefix. It fails if the prefix is ambiguous.
func GetNoteByIDPrefix(db *DB, prefix string) (Note, bool, error) {
	notes, err := queryNotes(db, "SELECT "+noteColumns+" FROM notes WHERE id LIKE ? LIMIT 2", prefix+"%")
	if err != nil {
		return Note{}, false, errors.Wrapf(err, "querying notes with id prefix %s", prefix)
	}

	if len(notes) == 0 {
		return Note{}, false, nil
	}
	if len(notes) > 1 {
		return Note{}, false, errors.Wrapf(ErrAmbiguousNoteID, "prefix '%s'", prefix)
	}

	return notes[0], true, nil
}

func queryNotes(db *DB, query string, args ...interface{}) ([]Note, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	defer rows.Close()

	ret := []Note{}
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a note row")
		}

		ret = append(ret, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating note rows")
	}

	return ret, nil
}

// GetAllNotes retrieves all notes ordered by recency
func GetAllNotes(db *DB) ([]Note, error) {
	return queryNotes(db, "SELECT "+noteColumns+" FROM notes ORDER BY updated_at DESC")
}

// GetDirtyNotes retrieves all notes with unconfirmed local changes
func GetDirtyNotes(db *DB) ([]Note, error) {
	return queryNotes(db, "SELECT "+noteColumns+" FROM notes WHERE dirty ORDER BY updated_at ASC")
}

// MarkNoteClean clears the dirty flag of the note with the given id, but
// only if the note has not been modified since the given timestamp. A note
// that became dirty again while a push was in flight keeps its flag.
func MarkNoteClean(db *DB, id string, updatedAt int64) error {
	_, err := db.Exec("UPDATE notes SET dirty = 0 WHERE id = ? AND updated_at = ?", id, updatedAt)
	if err != nil {
		return errors.Wrapf(err, "marking note %s clean", id)
	}

	return nil
}
