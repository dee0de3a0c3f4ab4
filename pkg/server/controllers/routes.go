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

package controllers

import (
	"net/http"

	"github.com/driftpad/driftpad/pkg/server/app"
	mw "github.com/driftpad/driftpad/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// NewAPIRoutes returns the api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"POST", "/notes/batch", mw.Auth(a, c.Notes.Push), true},
		{"OPTIONS", "/notes/batch", c.Notes.Options, true},
		{"GET", "/notes/changes", mw.Auth(a, c.Notes.Changes), true},
		{"OPTIONS", "/notes/changes", c.Notes.Options, true},
		{"POST", "/notes/share", mw.Auth(a, c.Notes.Share), true},
		{"OPTIONS", "/notes/share", c.Notes.Options, true},

		{"GET", "/health", c.Health.Index, true},
	}
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, app *app.App, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, app, route.RateLimit)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, c *Controllers) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)
	registerRoutes(router, mw.APIMw, app, NewAPIRoutes(app, c))

	return mw.Global(router), nil
}
