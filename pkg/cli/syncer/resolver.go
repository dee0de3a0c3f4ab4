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

// Package syncer implements the conflict resolution rules and the sync
// cycle orchestration for the local replica
package syncer

import (
	"github.com/driftpad/driftpad/pkg/cli/client"
	"github.com/driftpad/driftpad/pkg/cli/database"
)

// Resolve decides which of a local and a candidate remote version of the
// same note is authoritative. The record with the greater update timestamp
// wins. On a tie the remote wins, treating the server as the source of
// truth on exact timestamp equality.
func Resolve(local, remote database.Note) database.Note {
	if remote.UpdatedAt >= local.UpdatedAt {
		return remote
	}

	return local
}

// Plan is a partition of an incoming batch of remote notes against the
// local snapshot
type Plan struct {
	// ToUpsert are incoming notes that should overwrite the local copy
	ToUpsert []client.Note
	// ToDelete are ids of notes that should be physically removed locally
	ToDelete []string
}

// ResolveIncoming partitions the incoming batch into notes to upsert and
// notes to delete, judging against the given local snapshot.
//
// A tombstone always wins and causes physical removal of the local copy. A
// non-tombstone is upserted when it has no local counterpart or when its
// update timestamp is strictly greater than the local one. The resolution
// of each incoming note is independent of the rest of the batch.
func ResolveIncoming(local []database.Note, incoming []client.Note) Plan {
	localByID := make(map[string]database.Note, len(local))
	for _, n := range local {
		localByID[n.ID] = n
	}

	var plan Plan
	for _, remote := range incoming {
		if remote.Deleted {
			plan.ToDelete = append(plan.ToDelete, remote.ID)
			continue
		}

		current, ok := localByID[remote.ID]
		if !ok || remote.UpdatedAt > current.UpdatedAt {
			plan.ToUpsert = append(plan.ToUpsert, remote)
		}
	}

	return plan
}
