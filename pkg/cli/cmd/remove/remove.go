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

package remove

import (
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 driftpad remove 3c542b6d`

// NewCmd returns a new remove command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <note id>",
		Short:   "Remove a note",
		Aliases: []string{"rm", "d", "delete"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.DriftpadCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		note, ok, err := database.GetNoteByIDPrefix(ctx.DB, args[0])
		if err != nil {
			return errors.Wrap(err, "finding note")
		}
		if !ok {
			return errors.Errorf("note '%s' not found", args[0])
		}

		// removal is a tombstone until the next sync reconciles it; the
		// record is not physically deleted here
		note.Deleted = true
		note.Dirty = true
		note.UpdatedAt = ctx.Clock.Now().UnixMilli()

		if err := note.Upsert(ctx.DB); err != nil {
			return errors.Wrap(err, "writing tombstone")
		}

		log.Successf("removed %s\n", note.ID)

		return nil
	}
}
