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

// Package testutils provides utilities used in server tests
package testutils

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/driftpad/driftpad/pkg/clock"
	"github.com/driftpad/driftpad/pkg/server/app"
	"github.com/driftpad/driftpad/pkg/server/ledger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TestJWTSecret is the token signing secret used in tests
const TestJWTSecret = "driftpad-test-secret"

// NewTestApp returns an app backed by an in-process ledger and a mock clock
func NewTestApp(t *testing.T) (*app.App, *ledger.Memory, *clock.Mock) {
	t.Helper()

	l := ledger.NewMemory()
	c := clock.NewMock()

	a := &app.App{
		Ledger:     l,
		Clock:      c,
		JWTSecret:  TestJWTSecret,
		MaxChanges: 200,
	}

	return a, l, c
}

// MustMakeToken creates a signed bearer token for the given user id
func MustMakeToken(t *testing.T, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatal(errors.Wrap(err, "signing token"))
	}

	return signed
}

// MakeReq creates an http request against the given server
func MakeReq(t *testing.T, serverURL, method, path, body string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, serverURL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating request"))
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

// HTTPDo performs the given request
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing request"))
	}

	return res
}

// HTTPAuthDo performs the given request with a bearer token for the given user
func HTTPAuthDo(t *testing.T, req *http.Request, userID string) *http.Response {
	t.Helper()

	req.Header.Set("Authorization", "Bearer "+MustMakeToken(t, userID))

	return HTTPDo(t, req)
}
