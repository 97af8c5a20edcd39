package cmd

import (
	"testing"
	"time"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "alice@example.com",
			expected: []string{"alice@example.com"},
		},
		{
			name:     "multiple values",
			input:    "alice@example.com,bob@example.com",
			expected: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:     "values with spaces around comma",
			input:    "alice@example.com, bob@example.com",
			expected: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:     "values with leading/trailing spaces",
			input:    "  alice@example.com  ,  bob@example.com  ",
			expected: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:     "trailing comma",
			input:    "alice@example.com,bob@example.com,",
			expected: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:     "leading comma",
			input:    ",alice@example.com,bob@example.com",
			expected: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:     "multiple consecutive commas",
			input:    "alice@example.com,,bob@example.com",
			expected: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:     "only commas and spaces",
			input:    ",  , , ",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCommaSeparatedList(tt.input)

			// Handle nil vs empty slice comparison
			if tt.expected == nil {
				if result != nil {
					t.Errorf("parseCommaSeparatedList(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("parseCommaSeparatedList(%q) = %v (len %d), want %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCommaSeparatedList(%q)[%d] = %q, want %q",
						tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestParseClockFlag(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "09:00", expected: 9 * time.Hour},
		{input: "17:30", expected: 17*time.Hour + 30*time.Minute},
		{input: "00:00", expected: 0},
		{input: "9am", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseClockFlag(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseClockFlag(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClockFlag(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseClockFlag(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
