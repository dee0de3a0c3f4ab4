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

package logout

import (
	"github.com/driftpad/driftpad/pkg/cli/consts"
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new logout command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored sync credential",
		RunE:  newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.DriftpadCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.SessionKey == "" {
			log.Plain("not logged in\n")
			return nil
		}

		db := ctx.DB
		if err := database.DeleteSystem(db, consts.SystemSessionKey); err != nil {
			return errors.Wrap(err, "removing session")
		}
		if err := database.DeleteSystem(db, consts.SystemUserID); err != nil {
			return errors.Wrap(err, "removing user id")
		}

		log.Success("logged out\n")

		return nil
	}
}
