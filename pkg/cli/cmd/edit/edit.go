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

package edit

import (
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/driftpad/driftpad/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentFlag string
var titleFlag string
var tagsFlag []string
var pinFlag bool
var unpinFlag bool

var example = `
 * Open an editor to edit the content of a note
 driftpad edit 3c542b6d

 * Update the title only
 driftpad edit 3c542b6d -t "New title"

 * Pin a note
 driftpad edit 3c542b6d --pin`

// NewCmd returns a new edit command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <note id>",
		Short:   "Edit a note",
		Aliases: []string{"e"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "the new content for the note")
	f.StringVarP(&titleFlag, "title", "t", "", "the new title for the note")
	f.StringSliceVar(&tagsFlag, "tag", nil, "replace the note's tags (can be repeated)")
	f.BoolVar(&pinFlag, "pin", false, "pin the note")
	f.BoolVar(&unpinFlag, "unpin", false, "unpin the note")

	return cmd
}

func getContent(ctx context.DriftpadCtx, current string) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporary content file path")
	}

	c, err := ui.GetEditorInputWithContent(ctx, fpath, current)
	if err != nil {
		return "", errors.Wrap(err, "getting editor input")
	}

	return c, nil
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

		// a metadata-only edit does not open the editor
		metadataOnly := titleFlag != "" || tagsFlag != nil || pinFlag || unpinFlag

		if !metadataOnly || contentFlag != "" {
			content, err := getContent(ctx, note.ContentHTML)
			if err != nil {
				return errors.Wrap(err, "getting content")
			}
			note.ContentHTML = content
		}

		if titleFlag != "" {
			note.Title = titleFlag
		}
		if tagsFlag != nil {
			note.Tags = tagsFlag
		}
		if pinFlag {
			note.Pinned = true
		}
		if unpinFlag {
			note.Pinned = false
		}

		note.Dirty = true
		note.UpdatedAt = ctx.Clock.Now().UnixMilli()

		if err := note.Upsert(ctx.DB); err != nil {
			return errors.Wrap(err, "writing note")
		}

		log.Successf("edited %s\n", note.ID)

		return nil
	}
}
