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
	"github.com/driftpad/driftpad/pkg/cli/client"
	"github.com/driftpad/driftpad/pkg/cli/database"
)

// toPayload converts a local note into its wire representation. The dirty
// flag is local-only and does not cross the boundary.
func toPayload(n database.Note) client.Note {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	return client.Note{
		ID:          n.ID,
		OwnerID:     n.OwnerID,
		Title:       n.Title,
		ContentHTML: n.ContentHTML,
		Tags:        tags,
		Pinned:      n.Pinned,
		Deleted:     n.Deleted,
		UpdatedAt:   n.UpdatedAt,
		EncIV:       n.EncIV,
	}
}

// toLocalNote converts a wire note into a clean local record
func toLocalNote(n client.Note) database.Note {
	return database.NewNote(n.ID, n.OwnerID, n.Title, n.ContentHTML, n.Tags, n.Pinned, n.Deleted, false, n.UpdatedAt, n.EncIV)
}
