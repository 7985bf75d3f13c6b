// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "salam dari Bandung", "salam dari Bandung"},
		{"angle brackets", "<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;&#x2F;script&gt;"},
		{"double quotes", `say "hello"`, "say &quot;hello&quot;"},
		{"single quotes", "it's fine", "it&#x27;s fine"},
		{"slashes", "a/b/c", "a&#x2F;b&#x2F;c"},
		{"empty", "", ""},
		{"unicode untouched", "selamat pagi ☀", "selamat pagi ☀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
