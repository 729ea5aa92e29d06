package errors

import (
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"root", "", false},
		{"simple file", "main.go", false},
		{"nested", "src/core/pack.go", false},
		{"dots in names", "a..b/c.d", false},
		{"loose files group", "__loose_files__", false},

		{"absolute", "/etc/passwd", true},
		{"traversal", "src/../../etc", true},
		{"traversal only", "..", true},
		{"backslash", "src\\main.go", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"too long", strings.Repeat("a", 5000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "0b6a3f0e-8f6a-4d3b-9a51-2d0f0c1e7a11", false},
		{"empty", "", true},
		{"not a uuid", "session-1", true},
		{"traversal", "../../x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGlob(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"double star", "**/*.min.js", false},
		{"dir", "vendor/**", false},
		{"class", "*.[ch]", false},

		{"empty", "", true},
		{"unclosed class", "*.[ch", true},
		{"unclosed alt", "{a,b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGlob(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGlob(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
