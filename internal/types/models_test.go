// internal/types/models_test.go
package types

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"system", "user", "assistant"} {
		r, err := ParseRole(s)
		if err != nil {
			t.Fatalf("ParseRole(%q) failed: %v", s, err)
		}
		if string(r) != s {
			t.Errorf("expected role %s, got %s", s, r)
		}
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "tool", "function", "SYSTEM"} {
		if _, err := ParseRole(s); err == nil {
			t.Errorf("expected error for role %q", s)
		}
	}
}

func TestTurnSerialization(t *testing.T) {
	turn := Turn{Role: RoleUser, Content: "Sum column A"}

	data, err := json.Marshal(turn)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Turn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Role != turn.Role {
		t.Errorf("expected role %s, got %s", turn.Role, decoded.Role)
	}
	if decoded.Content != turn.Content {
		t.Errorf("expected content %q, got %q", turn.Content, decoded.Content)
	}
}
