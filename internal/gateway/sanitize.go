// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import "strings"

// sanitizeReplacer escapes the characters that would let chat text break
// out of an HTML context when rendered by a careless consumer.
var sanitizeReplacer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Sanitize escapes `<`, `>`, `"`, `'` and `/` in chat text.
func Sanitize(text string) string {
	return sanitizeReplacer.Replace(text)
}
