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

package middleware

import (
	"net/http"
	"strings"

	"github.com/driftpad/driftpad/pkg/server/app"
	"github.com/driftpad/driftpad/pkg/server/context"
	"github.com/driftpad/driftpad/pkg/server/log"
	"github.com/golang-jwt/jwt/v5"
	pkgErrors "github.com/pkg/errors"
)

// GetCredential extracts the bearer token from the request. It returns an
// empty string if the request carries no credential.
func GetCredential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	return strings.TrimPrefix(authHeader, "Bearer ")
}

// authWithToken validates the bearer token and returns the subject user id
func authWithToken(secret string, r *http.Request) (string, bool, error) {
	tokenValue := GetCredential(r)
	if tokenValue == "" {
		return "", false, nil
	}

	token, err := jwt.Parse(tokenValue, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pkgErrors.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return "", false, pkgErrors.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return "", false, nil
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", false, pkgErrors.Wrap(err, "reading subject claim")
	}
	if subject == "" {
		return "", false, nil
	}

	return subject, true, nil
}

// Auth is an authentication middleware. It rejects requests without a valid
// bearer token and stores the caller's user id in the request context.
func Auth(a *app.App, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok, err := authWithToken(a.JWTSecret, r)
		if err != nil {
			// log the error and treat the request as unauthenticated
			log.ErrorWrap(err, "authenticating with token")
		}
		if !ok {
			RespondUnauthorized(w)
			return
		}

		ctx := context.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
