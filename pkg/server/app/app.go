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

// Package app defines the application context shared by the server handlers
package app

import (
	"github.com/driftpad/driftpad/pkg/clock"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyLedger is an error for missing ledger in the app configuration
	ErrEmptyLedger = errors.New("No ledger was provided")
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")
	// ErrEmptyJWTSecret is an error for missing token signing secret
	ErrEmptyJWTSecret = errors.New("No JWT secret was provided")
	// ErrInvalidMaxChanges is an error for a non-positive page size cap
	ErrInvalidMaxChanges = errors.New("MaxChanges must be positive")
)

// App is an application context
type App struct {
	Ledger     ledger.Ledger
	Clock      clock.Clock
	JWTSecret  string
	MaxChanges int
	Port       string
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.Ledger == nil {
		return ErrEmptyLedger
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.JWTSecret == "" {
		return ErrEmptyJWTSecret
	}
	if a.MaxChanges <= 0 {
		return ErrInvalidMaxChanges
	}

	return nil
}
