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

// Package consts provides definitions of constants
package consts

var (
	// DriftpadDirName is the name of the directory containing driftpad files
	DriftpadDirName = "driftpad"
	// DriftpadDBFileName is a filename for the driftpad SQLite database
	DriftpadDBFileName = "driftpad.db"
	// TmpContentFileBase is the base for the filename for a temporary content
	TmpContentFileBase = "DRIFTPAD_TMPCONTENT"
	// TmpContentFileExt is the extension for the temporary content file
	TmpContentFileExt = "html"
	// ConfigFilename is the name of the config file
	ConfigFilename = "driftpadrc"

	// SystemSchema is the key for schema in the system table
	SystemSchema = "schema"
	// SystemLastSyncAt is the server cursor received at the last successful pull
	SystemLastSyncAt = "last_sync_time"
	// SystemSessionKey is the bearer credential for the sync server
	SystemSessionKey = "session_token"
	// SystemUserID is the stable identifier of the authenticated user
	SystemUserID = "user_id"
)
