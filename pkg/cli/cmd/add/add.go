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

package add

import (
	"os"

	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/driftpad/driftpad/pkg/cli/ui"
	"github.com/driftpad/driftpad/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentFlag string
var tagsFlag []string
var pinnedFlag bool

var example = `
 * Open an editor to write content
 driftpad add "Grocery list"

 * Skip the editor by providing content directly
 driftpad add "Grocery list" -c "<p>milk, eggs</p>"

 * Send stdin content to a note
 echo "<p>milk, eggs</p>" | driftpad add "Grocery list"`

// NewCmd returns a new add command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "the content for the note")
	f.StringSliceVar(&tagsFlag, "tag", nil, "a tag for the note (can be repeated)")
	f.BoolVar(&pinnedFlag, "pin", false, "pin the note")

	return cmd
}

func getContent(ctx context.DriftpadCtx) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	// check for piped content
	fInfo, _ := os.Stdin.Stat()
	if fInfo.Mode()&os.ModeCharDevice == 0 {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "getting piped input")
		}
		return c, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporary content file path")
	}

	c, err := ui.GetEditorInput(ctx, fpath)
	if err != nil {
		return "", errors.Wrap(err, "getting editor input")
	}

	return c, nil
}

// ownerID resolves the owner for new notes. A device that has never logged
// in owns its notes under the local placeholder identity.
func ownerID(ctx context.DriftpadCtx) string {
	if ctx.UserID != "" {
		return ctx.UserID
	}

	return "local"
}

func newRun(ctx context.DriftpadCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		title := args[0]

		content, err := getContent(ctx)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}

		id, err := utils.GenerateUUID()
		if err != nil {
			return errors.Wrap(err, "generating note id")
		}

		now := ctx.Clock.Now().UnixMilli()
		note := database.NewNote(id, ownerID(ctx), title, content, tagsFlag, pinnedFlag, false, true, now, "")

		if err := note.Upsert(ctx.DB); err != nil {
			return errors.Wrap(err, "writing note")
		}

		log.Successf("added %s\n", id)

		return nil
	}
}
