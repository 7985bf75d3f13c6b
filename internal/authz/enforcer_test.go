// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package authz

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnforcerRoleMatrix(t *testing.T) {
	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() failed: %v", err)
	}

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"admin", "/api/v1/livechat/messages/pending", "GET", true},
		{"broadcaster", "/api/v1/livechat/messages/pending", "GET", true},
		{"penyiar", "/api/v1/livechat/messages/pending", "GET", true},
		{"admin", "/api/v1/livechat/messages/42/moderate", "POST", true},
		{"broadcaster", "/api/v1/livechat/messages/42/moderate", "POST", true},
		{"penyiar", "/api/v1/livechat/messages/42/moderate", "POST", true},

		// Only admins get the wildcard surface.
		{"admin", "/api/v1/livechat/staff", "DELETE", true},
		{"broadcaster", "/api/v1/livechat/staff", "DELETE", false},
		{"penyiar", "/api/v1/livechat/staff", "DELETE", false},

		// Unknown roles get nothing.
		{"user", "/api/v1/livechat/messages/pending", "GET", false},
		{"", "/api/v1/livechat/messages/pending", "GET", false},
		{"guest", "/api/v1/livechat/messages/42/moderate", "POST", false},
	}

	for _, tt := range tests {
		got, err := enforcer.Enforce(tt.role, tt.object, tt.action)
		if err != nil {
			t.Errorf("Enforce(%s, %s, %s) failed: %v", tt.role, tt.object, tt.action, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
		}
	}
}

func TestEnforcerPolicyFileOverride(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.csv")
	policy := "p, dj, /api/v1/livechat/messages/pending, GET\n"
	if err := os.WriteFile(policyPath, []byte(policy), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	enforcer, err := NewEnforcer(&EnforcerConfig{PolicyPath: policyPath})
	if err != nil {
		t.Fatalf("NewEnforcer() failed: %v", err)
	}

	allowed, err := enforcer.Enforce("dj", "/api/v1/livechat/messages/pending", "GET")
	if err != nil {
		t.Fatalf("Enforce() failed: %v", err)
	}
	if !allowed {
		t.Error("custom dj role should be allowed by the override policy")
	}

	// The embedded roles are replaced by the override.
	allowed, err = enforcer.Enforce("broadcaster", "/api/v1/livechat/messages/pending", "GET")
	if err != nil {
		t.Fatalf("Enforce() failed: %v", err)
	}
	if allowed {
		t.Error("embedded broadcaster role should not exist under the override policy")
	}
}

func TestEnforcerMissingOverrideFallsBack(t *testing.T) {
	enforcer, err := NewEnforcer(&EnforcerConfig{PolicyPath: "/nonexistent/policy.csv"})
	if err != nil {
		t.Fatalf("NewEnforcer() failed: %v", err)
	}

	allowed, err := enforcer.Enforce("penyiar", "/api/v1/livechat/messages/pending", "GET")
	if err != nil {
		t.Fatalf("Enforce() failed: %v", err)
	}
	if !allowed {
		t.Error("missing override file should fall back to the embedded policy")
	}
}
