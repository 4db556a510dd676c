package api

import "testing"

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()

	if !ValidateRequestID(id) {
		t.Errorf("generated ID %q does not validate", id)
	}
	if len(id) != len(requestIDPrefix)+idLength {
		t.Errorf("len(id) = %d, want %d", len(id), len(requestIDPrefix)+idLength)
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewRequestID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"req_abcDEF123456789012345678", true},
		{"req_short", false},
		{"resp_abcDEF123456789012345678", false},
		{"", false},
		{"req_abcDEF12345678901234567!", false},
	}

	for _, tt := range tests {
		if got := ValidateRequestID(tt.id); got != tt.want {
			t.Errorf("ValidateRequestID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
