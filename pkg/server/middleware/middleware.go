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

// Package middleware provides the http middlewares for the server
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/driftpad/driftpad/pkg/server/app"
	"github.com/driftpad/driftpad/pkg/server/log"
)

// Middleware is a function signature for a middleware applied to every route
type Middleware func(h http.HandlerFunc, app *app.App, rateLimit bool) http.Handler

// errResp is the payload for an error response
type errResp struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// DoError logs the error and responds with the given status code and a JSON
// error payload
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	var details string
	if err != nil {
		details = err.Error()
	}

	log.WithFields(log.Fields{
		"statusCode": statusCode,
		"err":        err,
	}).Error(msg)

	RespondJSON(w, statusCode, errResp{Message: msg, Details: details})
}

// RespondUnauthorized responds with a 401 and a WWW-Authenticate challenge
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="driftpad"`)
	RespondJSON(w, http.StatusUnauthorized, errResp{Message: "unauthorized"})
}

// RespondForbidden responds with a 403 naming the reason
func RespondForbidden(w http.ResponseWriter, msg string) {
	RespondJSON(w, http.StatusForbidden, errResp{Message: msg})
}

// RespondNotFound responds with a 404
func RespondNotFound(w http.ResponseWriter, msg string) {
	RespondJSON(w, http.StatusNotFound, errResp{Message: msg})
}

// RespondJSON writes the given payload as a JSON response
func RespondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// CORS sets permissive cross-origin headers so that browser clients served
// from any origin can reach the api
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, CLI-Version")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remoteAddr": lookupIP(r),
			"uri":        r.RequestURI,
			"method":     r.Method,
		}).Debug("incoming request")
	})
}

func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				DoError(w, "internal server error", fmt.Errorf("panic: %v", rec), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// APIMw is the middleware chain for api routes
func APIMw(h http.HandlerFunc, a *app.App, rateLimit bool) http.Handler {
	var ret http.Handler = h

	ret = ApplyLimit(ret.ServeHTTP, rateLimit)
	ret = CORS(ret)

	return ret
}

// Global wraps the given handler with the middlewares applied to all routes
func Global(h http.Handler) http.Handler {
	ret := h

	ret = logging(ret)
	ret = recoverPanic(ret)

	return ret
}
