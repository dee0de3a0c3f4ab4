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

package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/driftpad/driftpad/pkg/assert"
	"github.com/driftpad/driftpad/pkg/cli/context"
	"github.com/pkg/errors"
)

func TestGetReq(t *testing.T) {
	ctx := context.DriftpadCtx{
		APIEndpoint: "http://localhost:3001",
		Version:     "0.1.0",
		SessionKey:  "token123",
	}

	t.Run("sets headers", func(t *testing.T) {
		req, err := getReq(ctx, "POST", "/notes/batch", `{"changes":[]}`)
		if err != nil {
			t.Fatal(errors.Wrap(err, "building request"))
		}

		assert.Equal(t, req.URL.String(), "http://localhost:3001/notes/batch", "url mismatch")
		assert.Equal(t, req.Header.Get("CLI-Version"), "0.1.0", "version header mismatch")
		assert.Equal(t, req.Header.Get("Content-Type"), "application/json", "content type mismatch")
		assert.Equal(t, req.Header.Get("Authorization"), "Bearer token123", "authorization mismatch")
	})

	t.Run("omits the content type without a body", func(t *testing.T) {
		req, err := getReq(ctx, "GET", "/notes/changes", "")
		if err != nil {
			t.Fatal(errors.Wrap(err, "building request"))
		}

		assert.Equal(t, req.Header.Get("Content-Type"), "", "content type should be unset")
	})

	t.Run("omits the credential without a session", func(t *testing.T) {
		anon := ctx
		anon.SessionKey = ""

		req, err := getReq(anon, "GET", "/notes/changes", "")
		if err != nil {
			t.Fatal(errors.Wrap(err, "building request"))
		}

		assert.Equal(t, req.Header.Get("Authorization"), "", "authorization should be unset")
	})
}

func TestDoAuthorizedReq(t *testing.T) {
	ctx := context.DriftpadCtx{APIEndpoint: "http://localhost:3001"}

	_, err := doAuthorizedReq(ctx, "GET", "/notes/changes", "")

	assert.Equal(t, errors.Is(err, ErrNoSession), true, "error mismatch")
}

func TestCheckRespErr(t *testing.T) {
	newResp := func(t *testing.T, statusCode int, body string) *http.Response {
		t.Helper()

		rec := httptest.NewRecorder()
		rec.WriteHeader(statusCode)
		rec.Body.WriteString(body)
		return rec.Result()
	}

	t.Run("success is not an error", func(t *testing.T) {
		err := checkRespErr(newResp(t, http.StatusOK, `{"updated":1}`))

		assert.Equal(t, err, nil, "unexpected error")
	})

	t.Run("decodes the server message", func(t *testing.T) {
		err := checkRespErr(newResp(t, http.StatusForbidden, `{"message":"No edit access for note n1"}`))

		var httpErr *HTTPError
		assert.Equal(t, errors.As(err, &httpErr), true, "expected an http error")
		assert.Equal(t, httpErr.StatusCode, http.StatusForbidden, "status code mismatch")
		assert.Equal(t, httpErr.Message, "No edit access for note n1", "message mismatch")
		assert.Equal(t, httpErr.IsForbidden(), true, "IsForbidden mismatch")
	})

	t.Run("falls back to the raw body", func(t *testing.T) {
		err := checkRespErr(newResp(t, http.StatusBadGateway, "upstream exploded\n"))

		var httpErr *HTTPError
		assert.Equal(t, errors.As(err, &httpErr), true, "expected an http error")
		assert.Equal(t, httpErr.Message, "upstream exploded", "message mismatch")
	})
}

// closeRecordingBody wraps a response body and records whether it was closed
type closeRecordingBody struct {
	io.Reader
	closed bool
}

func (b *closeRecordingBody) Close() error {
	b.closed = true
	return nil
}

type staticTransport struct {
	res *http.Response
}

func (t *staticTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return t.res, nil
}

func TestDoReqClosesBodyOnError(t *testing.T) {
	body := &closeRecordingBody{Reader: strings.NewReader(`{"message":"boom"}`)}
	ctx := context.DriftpadCtx{
		APIEndpoint: "http://localhost:3001",
		HTTPClient: &http.Client{
			Transport: &staticTransport{res: &http.Response{
				StatusCode: http.StatusInternalServerError,
				Status:     "500 Internal Server Error",
				Body:       body,
			}},
		},
	}

	_, err := doReq(ctx, "GET", "/notes/changes", "")

	var httpErr *HTTPError
	assert.Equal(t, errors.As(err, &httpErr), true, "expected an http error")
	assert.Equal(t, body.closed, true, "error response body should be closed")
}

func TestGetChanges(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		json.NewEncoder(w).Encode(GetChangesResp{
			Changes: []Note{{ID: "n1", Title: "hi", UpdatedAt: 100}},
			Cursor:  999,
		})
	}))
	defer server.Close()

	ctx := context.DriftpadCtx{
		APIEndpoint: server.URL,
		SessionKey:  "token123",
	}

	resp, err := GetChanges(ctx, 42)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting changes"))
	}

	assert.Equal(t, gotPath, "/notes/changes?since=42", "request path mismatch")
	assert.Equal(t, len(resp.Changes), 1, "change count mismatch")
	assert.Equal(t, resp.Cursor, int64(999), "cursor mismatch")
}
