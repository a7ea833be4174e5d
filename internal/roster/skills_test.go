package roster

import "testing"

func TestParseSkill(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantLevel int
		wantOK    bool
	}{
		{"go:5", "go", 5, true},
		{" Kubernetes : 8 ", "Kubernetes", 8, true},
		{"data:eng:7", "data:eng", 7, true},
		{"go", "", 0, false},
		{":5", "", 0, false},
		{"go:high", "", 0, false},
	}
	for _, tt := range tests {
		name, level, ok := ParseSkill(tt.in)
		if name != tt.wantName || level != tt.wantLevel || ok != tt.wantOK {
			t.Errorf("ParseSkill(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tt.in, name, level, ok, tt.wantName, tt.wantLevel, tt.wantOK)
		}
	}
}

func TestMatches(t *testing.T) {
	person := []string{"Go:7", "sql:4"}
	if !Matches(person, nil) {
		t.Error("no requirements should match anyone")
	}
	if !Matches(person, []string{"go:5"}) {
		t.Error("go:7 should satisfy go:5, case-insensitively")
	}
	if Matches(person, []string{"go:8"}) {
		t.Error("go:7 should not satisfy go:8")
	}
	if Matches(person, []string{"go:5", "rust:3"}) {
		t.Error("a missing skill should fail the match")
	}
}

func TestHasSkill(t *testing.T) {
	skills := []string{"Go:7", "sql:4"}
	if !HasSkill(skills, "go") {
		t.Error("expected case-insensitive name match")
	}
	if HasSkill(skills, "rust") {
		t.Error("unexpected match for absent skill")
	}
}

func TestFormatSkills(t *testing.T) {
	got := FormatSkills([]string{"go:5", "k8s:3", "plain"})
	want := "go (5), k8s (3), plain"
	if got != want {
		t.Errorf("FormatSkills = %q, want %q", got, want)
	}
}
