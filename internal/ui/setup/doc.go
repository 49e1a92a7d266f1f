// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package setup implements the first-run wizard behind "council init".
//
// The wizard walks through four phases:
//
//	Welcome -> Configure -> Check -> Complete
//
// Configure edits the backend URL, the export directory and the Markdown
// style. Check lists conversations on the backend; a failed check
// is reported but does not block saving, since the backend is often started
// after the client is configured. Complete writes the file atomically.
package setup
