package session

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		input  string
		reason string
	}{
		{"main", ""},
		{"carrier42", ""},
		{"acme-kargo", ""},
		{"ege_lojistik", ""},
		{"x", ""},
		{strings.Repeat("a", MaxNameLength), ""},
		{"", "empty"},
		{strings.Repeat("a", MaxNameLength+1), "longer than"},
		{"Ankara", "only"},
		{"yük", "only"},
		{"two words", "only"},
		{"../escape", "only"},
		{"a.b", "only"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("ValidateName(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			var ne *NameError
			if !errors.As(err, &ne) {
				t.Fatalf("ValidateName(%q) = %v, want *NameError", tt.input, err)
			}
			if ne.Name != tt.input || !strings.HasPrefix(ne.Reason, tt.reason) {
				t.Errorf("NameError = %+v, want reason starting %q", ne, tt.reason)
			}
		})
	}
}
