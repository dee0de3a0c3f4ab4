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

package ls

import (
	"sort"

	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var allFlag bool
var tagFlag string

var example = `
 * List all notes
 driftpad ls

 * List notes with a tag
 driftpad ls --tag work`

// NewCmd returns a new ls command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Short:   "List notes",
		Aliases: []string{"l", "list"},
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&allFlag, "all", "a", false, "include removed notes")
	f.StringVar(&tagFlag, "tag", "", "only list notes with the given tag")

	return cmd
}

func hasTag(n database.Note, tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

func newRun(ctx context.DriftpadCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		notes, err := database.GetAllNotes(ctx.DB)
		if err != nil {
			return errors.Wrap(err, "getting notes")
		}

		filtered := []database.Note{}
		for _, n := range notes {
			if n.Deleted && !allFlag {
				continue
			}
			if tagFlag != "" && !hasTag(n, tagFlag) {
				continue
			}

			filtered = append(filtered, n)
		}

		// pinned notes first, most recent first within each group
		sort.SliceStable(filtered, func(i, j int) bool {
			if filtered[i].Pinned != filtered[j].Pinned {
				return filtered[i].Pinned
			}
			return filtered[i].UpdatedAt > filtered[j].UpdatedAt
		})

		for _, n := range filtered {
			output.NoteLine(n)
		}

		return nil
	}
}
