package id

import (
	"strings"
	"testing"
)

func TestNewFormat(t *testing.T) {
	value, err := New()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(value) != 36 {
		t.Fatalf("expected 36-character id, got %d", len(value))
	}
	if value != strings.ToLower(value) {
		t.Fatalf("expected lowercase id, got %q", value)
	}
	if strings.Count(value, "-") != 4 {
		t.Fatalf("expected canonical uuid form, got %q", value)
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		value, err := New()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[value] {
			t.Fatalf("duplicate id generated: %s", value)
		}
		seen[value] = true
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "canonical", input: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", want: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{name: "uppercase", input: "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", want: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{name: "padded", input: "  6ba7b810-9dad-11d1-80b4-00c04fd430c8 ", want: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-uuid", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize %q: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("normalize %q = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
