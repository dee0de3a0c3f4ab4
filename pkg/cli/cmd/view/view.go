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

package view

import (
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentOnlyFlag bool

var example = `
 driftpad view 3c542b6d`

// NewCmd returns a new view command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view <note id>",
		Short:   "View a note",
		Aliases: []string{"v", "cat"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&contentOnlyFlag, "content-only", false, "print the content only")

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

		if contentOnlyFlag {
			cmd.Print(note.ContentHTML)
			return nil
		}

		output.NoteInfo(note)

		return nil
	}
}
