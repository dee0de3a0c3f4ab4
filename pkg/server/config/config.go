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

// Package config loads and validates the server configuration from
// parameters, environment variables and defaults, in that order.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"

	// LedgerBackendDynamo stores notes in DynamoDB.
	LedgerBackendDynamo = "dynamo"
	// LedgerBackendMemory stores notes in process memory. It is meant for
	// local development and tests.
	LedgerBackendMemory = "memory"
)

var (
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrJWTSecretMissing is an error for a configuration missing the token signing secret
	ErrJWTSecretMissing = errors.New("JWT secret is empty")
	// ErrNotesTableMissing is an error for a configuration missing the notes table name
	ErrNotesTableMissing = errors.New("Notes table name is empty")
	// ErrLedgerBackendInvalid is an error for an unrecognized ledger backend
	ErrLedgerBackendInvalid = errors.New("Invalid ledger backend")
	// ErrMaxChangesInvalid is an error for a non-positive page size cap
	ErrMaxChangesInvalid = errors.New("Invalid max changes")
)

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// Config is an application configuration
type Config struct {
	AppEnv        string
	Port          string
	LogLevel      string
	JWTSecret     string
	LedgerBackend string
	AWSRegion     string
	AWSEndpoint   string
	NotesTable    string
	ACLTable      string
	UpdatedAtGSI  string
	MaxChanges    int
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv        string
	Port          string
	LogLevel      string
	JWTSecret     string
	LedgerBackend string
	NotesTable    string
	ACLTable      string
	MaxChanges    int
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	c := Config{
		AppEnv:        getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:          getOrEnv(p.Port, "PORT", "3001"),
		LogLevel:      getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
		JWTSecret:     getOrEnv(p.JWTSecret, "JWT_SECRET", ""),
		LedgerBackend: getOrEnv(p.LedgerBackend, "LEDGER_BACKEND", LedgerBackendDynamo),
		AWSRegion:     getOrEnv("", "AWS_REGION", "us-east-1"),
		AWSEndpoint:   os.Getenv("AWS_ENDPOINT_URL"),
		NotesTable:    getOrEnv(p.NotesTable, "NOTES_TABLE", "driftpad-notes"),
		ACLTable:      getOrEnv(p.ACLTable, "NOTES_ACL_TABLE", ""),
		UpdatedAtGSI:  getOrEnv("", "NOTES_UPDATED_AT_GSI", "gsiUpdatedAt"),
		MaxChanges:    p.MaxChanges,
	}

	if c.MaxChanges == 0 {
		n, err := strconv.Atoi(getOrEnv("", "MAX_CHANGES", "200"))
		if err != nil {
			return Config{}, errors.Wrap(err, "parsing MAX_CHANGES")
		}
		c.MaxChanges = n
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretMissing
	}
	if c.MaxChanges <= 0 {
		return ErrMaxChangesInvalid
	}

	switch c.LedgerBackend {
	case LedgerBackendMemory:
	case LedgerBackendDynamo:
		if c.NotesTable == "" {
			return ErrNotesTableMissing
		}
	default:
		return errors.Wrapf(ErrLedgerBackendInvalid, "'%s'", c.LedgerBackend)
	}

	return nil
}
