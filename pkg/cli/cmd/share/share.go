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

package share

import (
	"github.com/driftpad/driftpad/pkg/cli/client"
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var accessFlag string
var revokeFlag bool

var example = `
 * Grant read access on a note
 driftpad share 3c542b6d alice

 * Grant write access
 driftpad share 3c542b6d alice --access editor

 * Revoke access
 driftpad share 3c542b6d alice --revoke`

// NewCmd returns a new share command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "share <note id> <user id>",
		Short:   "Share a note with another user",
		Example: example,
		Args:    cobra.ExactArgs(2),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&accessFlag, "access", "viewer", "the access level to grant: viewer or editor")
	f.BoolVar(&revokeFlag, "revoke", false, "revoke access instead of granting it")

	return cmd
}

func newRun(ctx context.DriftpadCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.SessionKey == "" {
			return errors.New("login required for sharing")
		}

		if accessFlag != "viewer" && accessFlag != "editor" {
			return errors.Errorf("invalid access level '%s'", accessFlag)
		}

		note, ok, err := database.GetNoteByIDPrefix(ctx.DB, args[0])
		if err != nil {
			return errors.Wrap(err, "finding note")
		}
		if !ok {
			return errors.Errorf("note '%s' not found", args[0])
		}

		action := "grant"
		if revokeFlag {
			action = "revoke"
		}

		params := client.ShareNoteParams{
			NoteID:       note.ID,
			TargetUserID: args[1],
			Access:       accessFlag,
			Action:       action,
		}

		if _, err := client.ShareNote(ctx, params); err != nil {
			return errors.Wrap(err, "sharing note")
		}

		if revokeFlag {
			log.Successf("revoked access to %s for %s\n", note.ID, args[1])
		} else {
			log.Successf("shared %s with %s as %s\n", note.ID, args[1], accessFlag)
		}

		return nil
	}
}
