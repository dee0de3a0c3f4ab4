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

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/driftpad/driftpad/pkg/clock"
	"github.com/driftpad/driftpad/pkg/server/app"
	"github.com/driftpad/driftpad/pkg/server/buildinfo"
	"github.com/driftpad/driftpad/pkg/server/config"
	"github.com/driftpad/driftpad/pkg/server/controllers"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	"github.com/driftpad/driftpad/pkg/server/log"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

func initLedger(cfg config.Config) (ledger.Ledger, error) {
	if cfg.LedgerBackend == config.LedgerBackendMemory {
		log.Warn("using in-memory ledger; notes will not survive a restart")
		return ledger.NewMemory(), nil
	}

	return ledger.NewDynamo(context.Background(), ledger.DynamoParams{
		Region:       cfg.AWSRegion,
		Endpoint:     cfg.AWSEndpoint,
		NotesTable:   cfg.NotesTable,
		ACLTable:     cfg.ACLTable,
		UpdatedAtGSI: cfg.UpdatedAtGSI,
	})
}

func initApp(cfg config.Config) (app.App, error) {
	l, err := initLedger(cfg)
	if err != nil {
		return app.App{}, errors.Wrap(err, "initializing ledger")
	}

	return app.App{
		Ledger:     l,
		Clock:      clock.New(),
		JWTSecret:  cfg.JWTSecret,
		MaxChanges: cfg.MaxChanges,
		Port:       cfg.Port,
	}, nil
}

func startCmd(args []string) {
	startFlags := flag.NewFlagSet("start", flag.ExitOnError)
	startFlags.Usage = func() {
		fmt.Printf(`Usage:
  driftpad-server start [flags]

Flags:
`)
		startFlags.PrintDefaults()
	}

	appEnv := startFlags.String("appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	port := startFlags.String("port", "", "Server port (env: PORT, default: 3001)")
	logLevel := startFlags.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	ledgerBackend := startFlags.String("ledgerBackend", "", "Note store backend: dynamo or memory (env: LEDGER_BACKEND, default: dynamo)")
	notesTable := startFlags.String("notesTable", "", "DynamoDB notes table name (env: NOTES_TABLE, default: driftpad-notes)")
	aclTable := startFlags.String("aclTable", "", "DynamoDB access grants table name (env: NOTES_ACL_TABLE, default: none)")
	maxChanges := startFlags.Int("maxChanges", 0, "Max changes returned per incremental read (env: MAX_CHANGES, default: 200)")

	startFlags.Parse(args)

	// absent .env file is fine; env vars and flags still apply
	godotenv.Load()

	cfg, err := config.New(config.Params{
		AppEnv:        *appEnv,
		Port:          *port,
		LogLevel:      *logLevel,
		LedgerBackend: *ledgerBackend,
		NotesTable:    *notesTable,
		ACLTable:      *aclTable,
		MaxChanges:    *maxChanges,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		startFlags.Usage()
		os.Exit(1)
	}

	log.SetLevel(cfg.LogLevel)

	a, err := initApp(cfg)
	if err != nil {
		log.ErrorWrap(err, "initializing app")
		os.Exit(1)
	}

	ctl := controllers.New(&a)
	r, err := controllers.NewRouter(&a, ctl)
	if err != nil {
		panic(errors.Wrap(err, "initializing router"))
	}

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"port":    cfg.Port,
		"backend": cfg.LedgerBackend,
	}).Info("Driftpad server starting")

	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

func versionCmd() {
	fmt.Printf("driftpad-server-%s\n", buildinfo.Version)
}

func rootCmd() {
	fmt.Printf(`Driftpad server - sync backend for the Driftpad notebook

Usage:
  driftpad-server [command] [flags]

Available commands:
  start: Start the server (use 'driftpad-server start --help' for flags)
  version: Print the version
`)
}

func main() {
	if len(os.Args) < 2 {
		rootCmd()
		return
	}

	cmd := os.Args[1]

	switch cmd {
	case "start":
		startCmd(os.Args[2:])
	case "version":
		versionCmd()
	default:
		fmt.Printf("Unknown command %s\n", cmd)
		rootCmd()
		os.Exit(1)
	}
}
