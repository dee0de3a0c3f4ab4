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

package sync

import (
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/driftpad/driftpad/pkg/cli/syncer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var apiEndpointFlag string

var example = `
  driftpad sync`

// NewCmd returns a new sync command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Sync notes with the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

func newRun(ctx context.DriftpadCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.SessionKey == "" {
			log.Error("not logged in\n")
			return errors.New("login required for sync")
		}

		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		log.Infof("syncing with %s\n", ctx.APIEndpoint)

		result, err := syncer.New(ctx, nil).SyncNow()
		if err != nil {
			return errors.Wrap(err, "syncing")
		}

		if result.Skipped {
			log.Warnf("a sync is already in progress\n")
			return nil
		}

		if result.Pushed > 0 {
			log.Successf("pushed %d note(s)\n", result.Pushed)
		} else if !result.PushedOK {
			log.Warnf("server unreachable; local changes will be pushed on the next sync\n")
		}

		if result.Pulled {
			log.Successf("pulled %d change(s) (%d applied, %d removed)\n",
				result.Upserted+result.Deleted, result.Upserted, result.Deleted)
		} else {
			log.Warnf("server unreachable; pull skipped\n")
		}

		return nil
	}
}
