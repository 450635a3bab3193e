package relate

import "testing"

func TestLiteralMatcher(t *testing.T) {
	m := LiteralMatcher{}
	tests := []struct {
		candidate, fullName string
		want                bool
	}{
		{"jane doe", "Jane Doe", true},
		{"Doe", "Jane Doe", true},
		{"JANE DOE", "jane doe", true},
		{"Jane Doe", "Doe, Jane", false},
		{"Jane Doe", "Jane", false},
		{"ÉMILE", "émile zola", true},
		{"", "Jane Doe", false},
	}
	for _, tt := range tests {
		got := m.Match(m.Prepare(tt.candidate), m.Prepare(tt.fullName))
		if got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.candidate, tt.fullName, got, tt.want)
		}
	}
}
