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

	"github.com/pkg/errors"
)

// ErrSystemKeyNotFound is an error for a missing key in the system table
var ErrSystemKeyNotFound = errors.New("system key not found")

// GetSystem scans the value of the system record with the given key into dest
func GetSystem(db *DB, key string, dest interface{}) error {
	err := db.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(dest)
	if err == sql.ErrNoRows {
		return errors.Wrapf(ErrSystemKeyNotFound, "key '%s'", key)
	}
	if err != nil {
		return errors.Wrapf(err, "querying system record with key '%s'", key)
	}

	return nil
}

// UpsertSystem inserts or updates the system record with the given key
func UpsertSystem(db *DB, key string, val interface{}) error {
	_, err := db.Exec(`INSERT INTO system (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	if err != nil {
		return errors.Wrapf(err, "upserting system record with key '%s'", key)
	}

	return nil
}

// DeleteSystem removes the system record with the given key
func DeleteSystem(db *DB, key string) error {
	_, err := db.Exec("DELETE FROM system WHERE key = ?", key)
	if err != nil {
		return errors.Wrapf(err, "deleting system record with key '%s'", key)
	}

	return nil
}
