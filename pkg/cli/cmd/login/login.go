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

package login

import (
	"github.com/driftpad/driftpad/pkg/cli/consts"
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/infra"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var userFlag string

var example = `
 * Store the bearer token obtained from the identity provider
 driftpad login --token eyJhbGciOi...

 * Override the user id instead of taking it from the token
 driftpad login --token eyJhbGciOi... --user alice`

var tokenFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.DriftpadCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Store a sync credential",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&tokenFlag, "token", "", "the bearer token issued by the identity provider")
	f.StringVar(&userFlag, "user", "", "the user id (defaults to the token's subject claim)")
	cmd.MarkFlagRequired("token")

	return cmd
}

// subjectFromToken extracts the subject claim without verifying the
// signature. Verification is the server's job; the client only needs a
// display identity.
func subjectFromToken(token string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", errors.Wrap(err, "parsing token")
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", errors.Wrap(err, "reading subject claim")
	}

	return sub, nil
}

func newRun(ctx context.DriftpadCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		userID := userFlag
		if userID == "" {
			sub, err := subjectFromToken(tokenFlag)
			if err != nil {
				return errors.Wrap(err, "resolving user id from token; pass --user to set it explicitly")
			}
			userID = sub
		}
		if userID == "" {
			return errors.New("could not resolve a user id; pass --user to set it explicitly")
		}

		db := ctx.DB
		if err := database.UpsertSystem(db, consts.SystemSessionKey, tokenFlag); err != nil {
			return errors.Wrap(err, "storing session")
		}
		if err := database.UpsertSystem(db, consts.SystemUserID, userID); err != nil {
			return errors.Wrap(err, "storing user id")
		}

		log.Successf("logged in as %s\n", userID)

		return nil
	}
}
