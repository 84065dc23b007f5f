package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"\tMixed.Case@Domain.ORG\n", "mixed.case@domain.org"},
		{"\u212Aate@Example.com", "\u212Aate@example.com"},
		{"ÉMILE@example.com", "Émile@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Mary Ann", "Mary Ann"},
		{"  O'Brien  ", "O'Brien"},
		{"UPPERCASE", "UPPERCASE"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRevision(t *testing.T) {
	if got := Revision("  Filtered "); got != "filtered" {
		t.Errorf("Revision() = %q, want %q", got, "filtered")
	}
}
