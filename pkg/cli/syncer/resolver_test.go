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
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/driftpad/driftpad/pkg/assert"
	"github.com/driftpad/driftpad/pkg/cli/client"
	"github.com/driftpad/driftpad/pkg/cli/database"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		name   string
		local  database.Note
		remote database.Note
		winner string
	}{
		{
			name:   "remote is newer",
			local:  database.Note{ID: "n1", Title: "local", UpdatedAt: 100},
			remote: database.Note{ID: "n1", Title: "remote", UpdatedAt: 200},
			winner: "remote",
		},
		{
			name:   "local is newer",
			local:  database.Note{ID: "n1", Title: "local", UpdatedAt: 300},
			remote: database.Note{ID: "n1", Title: "remote", UpdatedAt: 200},
			winner: "local",
		},
		{
			name:   "tie goes to remote",
			local:  database.Note{ID: "n1", Title: "local", UpdatedAt: 200},
			remote: database.Note{ID: "n1", Title: "remote", UpdatedAt: 200},
			winner: "remote",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.local, tc.remote)

			assert.Equal(t, got.Title, tc.winner, "winner mismatch")
		})
	}
}

func TestResolveIncoming(t *testing.T) {
	t.Run("tombstones always delete", func(t *testing.T) {
		local := []database.Note{
			{ID: "n1", Title: "newer locally", UpdatedAt: 500},
		}
		incoming := []client.Note{
			{ID: "n1", Deleted: true, UpdatedAt: 100},
			{ID: "n2", Deleted: true, UpdatedAt: 100},
		}

		plan := ResolveIncoming(local, incoming)

		assert.Equal(t, len(plan.ToUpsert), 0, "upsert count mismatch")
		assert.DeepEqual(t, plan.ToDelete, []string{"n1", "n2"}, "delete set mismatch")
	})

	t.Run("upserts notes with no local counterpart", func(t *testing.T) {
		incoming := []client.Note{
			{ID: "n1", Title: "fresh", UpdatedAt: 100},
		}

		plan := ResolveIncoming(nil, incoming)

		assert.Equal(t, len(plan.ToUpsert), 1, "upsert count mismatch")
		assert.Equal(t, plan.ToUpsert[0].ID, "n1", "upsert id mismatch")
	})

	t.Run("upserts only strictly newer notes", func(t *testing.T) {
		local := []database.Note{
			{ID: "older", UpdatedAt: 100},
			{ID: "same", UpdatedAt: 200},
			{ID: "newer", UpdatedAt: 300},
		}
		incoming := []client.Note{
			{ID: "older", UpdatedAt: 150},
			{ID: "same", UpdatedAt: 200},
			{ID: "newer", UpdatedAt: 250},
		}

		plan := ResolveIncoming(local, incoming)

		assert.Equal(t, len(plan.ToUpsert), 1, "upsert count mismatch")
		assert.Equal(t, plan.ToUpsert[0].ID, "older", "upsert id mismatch")
		assert.Equal(t, len(plan.ToDelete), 0, "delete count mismatch")
	})

	t.Run("result does not depend on batch order", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))

		var local []database.Note
		var incoming []client.Note
		for i := 0; i < 50; i++ {
			id := fmt.Sprintf("n%02d", i)
			local = append(local, database.Note{ID: id, UpdatedAt: rng.Int63n(1000)})
			incoming = append(incoming, client.Note{
				ID:        id,
				Deleted:   rng.Intn(4) == 0,
				UpdatedAt: rng.Int63n(1000),
			})
		}

		canonical := func(p Plan) ([]string, []string) {
			var upserts []string
			for _, n := range p.ToUpsert {
				upserts = append(upserts, n.ID)
			}
			deletes := append([]string(nil), p.ToDelete...)
			sort.Strings(upserts)
			sort.Strings(deletes)
			return upserts, deletes
		}

		wantUpserts, wantDeletes := canonical(ResolveIncoming(local, incoming))

		for trial := 0; trial < 10; trial++ {
			shuffled := append([]client.Note(nil), incoming...)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			gotUpserts, gotDeletes := canonical(ResolveIncoming(local, shuffled))

			assert.DeepEqual(t, gotUpserts, wantUpserts, "upsert set mismatch")
			assert.DeepEqual(t, gotDeletes, wantDeletes, "delete set mismatch")
		}
	})
}
