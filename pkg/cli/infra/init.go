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

// Package infra provides operations and definitions for the
// local infrastructure for driftpad
package infra

import (
	"fmt"

	"github.com/driftpad/driftpad/pkg/cli/client"
	"github.com/driftpad/driftpad/pkg/cli/config"
	"github.com/driftpad/driftpad/pkg/cli/consts"
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/log"
	"github.com/driftpad/driftpad/pkg/cli/ui"
	"github.com/driftpad/driftpad/pkg/cli/utils"
	"github.com/driftpad/driftpad/pkg/clock"
	"github.com/driftpad/driftpad/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// DefaultAPIEndpoint is the default API endpoint used when none is configured
const DefaultAPIEndpoint = "http://localhost:3001"

// RunEFunc is a function type of driftpad commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.DriftpadDirName, consts.DriftpadDBFileName)
}

func initDirs(paths context.Paths) error {
	for _, base := range []string{paths.Config, paths.Data, paths.Cache} {
		dir := fmt.Sprintf("%s/%s", base, consts.DriftpadDirName)
		if err := utils.EnsureDir(dir); err != nil {
			return errors.Wrapf(err, "ensuring directory %s", dir)
		}
	}

	return nil
}

func initConfigFile(ctx context.DriftpadCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	if apiEndpoint == "" {
		apiEndpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		Editor:      ui.GetEditorCommand(),
		APIEndpoint: apiEndpoint,
	}

	return config.Write(ctx, cf)
}

// readSystemString reads a string value from the system table, returning
// an empty string if the key does not exist
func readSystemString(db *database.DB, key string) (string, error) {
	var ret string

	err := database.GetSystem(db, key, &ret)
	if errors.Is(err, database.ErrSystemKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return ret, nil
}

// setupCtx enriches the base context with config values and session state
func setupCtx(ctx context.DriftpadCtx) (context.DriftpadCtx, error) {
	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	sessionKey, err := readSystemString(ctx.DB, consts.SystemSessionKey)
	if err != nil {
		return ctx, errors.Wrap(err, "reading session key")
	}

	userID, err := readSystemString(ctx.DB, consts.SystemUserID)
	if err != nil {
		return ctx, errors.Wrap(err, "reading user id")
	}

	ctx.APIEndpoint = cf.APIEndpoint
	ctx.Editor = cf.Editor
	ctx.SessionKey = sessionKey
	ctx.UserID = userID
	ctx.Clock = clock.New()
	ctx.HTTPClient = client.NewRateLimitedHTTPClient()

	return ctx, nil
}

// Init initializes the driftpad environment and returns a new driftpad context.
// apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.DriftpadCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := initDirs(paths); err != nil {
		return nil, errors.Wrap(err, "initializing directories")
	}

	db, err := database.Open(getDBPath(paths, dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to db")
	}

	if err := database.InitSchema(db); err != nil {
		return nil, errors.Wrap(err, "initializing database")
	}

	ctx := context.DriftpadCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "initializing config file")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}
