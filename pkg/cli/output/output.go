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

// Package output provides functions to print information on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/driftpad/driftpad/pkg/cli/database"
	"github.com/driftpad/driftpad/pkg/cli/log"
)

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Format("Jan 2, 2006 3:04pm (MST)")
}

// NoteInfo prints a note's details
func NoteInfo(n database.Note) {
	log.Infof("note id: %s\n", n.ID)
	log.Infof("owner: %s\n", n.OwnerID)
	log.Infof("updated at: %s\n", formatTime(n.UpdatedAt))
	if len(n.Tags) > 0 {
		log.Infof("tags: %s\n", strings.Join(n.Tags, ", "))
	}
	if n.Pinned {
		log.Infof("pinned: yes\n")
	}
	if n.Dirty {
		log.Infof("pending sync: yes\n")
	}

	fmt.Printf("\n------------------------content------------------------\n")
	fmt.Printf("%s", n.ContentHTML)
	fmt.Printf("\n-------------------------------------------------------\n")
}

// NoteLine prints a one-line summary of a note
func NoteLine(n database.Note) {
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}

	var markers []string
	if n.Pinned {
		markers = append(markers, "pinned")
	}
	if n.Dirty {
		markers = append(markers, "unsynced")
	}
	if n.Deleted {
		markers = append(markers, "deleted")
	}

	suffix := ""
	if len(markers) > 0 {
		suffix = fmt.Sprintf(" [%s]", strings.Join(markers, ", "))
	}

	log.Plainf("%s  %s%s\n", log.ColorYellow.Sprint(n.ID[:8]), title, suffix)
}
