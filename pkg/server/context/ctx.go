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

package context

import (
	"context"
)

const userIDKey privateKey = "userID"

type privateKey string

// WithUserID creates a new context carrying the authenticated user's id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID retrieves the authenticated user's id from the given context. If the
// context does not contain one, it returns an empty string.
func UserID(ctx context.Context) string {
	if temp := ctx.Value(userIDKey); temp != nil {
		if userID, ok := temp.(string); ok {
			return userID
		}
	}

	return ""
}
