package wikilink

import "testing"

func TestParseExact(t *testing.T) {
	tests := []struct {
		in     string
		target string
		ok     bool
	}{
		{"[[projects/website]]", "projects/website", true},
		{"[[ people/carol ]]", "people/carol", true},
		{"[[target|Display]]", "target", true},
		{"[[]]", "", false},
		{"not a link", "", false},
		{"[[unclosed", "", false},
	}

	for _, tt := range tests {
		target, ok := ParseExact(tt.in)
		if ok != tt.ok || target != tt.target {
			t.Errorf("ParseExact(%q) = (%q, %v), want (%q, %v)", tt.in, target, ok, tt.target, tt.ok)
		}
	}
}

func TestFindAll(t *testing.T) {
	line := "see [[alpha]] and [[beta|the beta doc]] for details"
	matches := FindAll(line)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Target != "alpha" || matches[0].Display != "" {
		t.Errorf("first match = %+v", matches[0])
	}
	if matches[1].Target != "beta" || matches[1].Display != "the beta doc" {
		t.Errorf("second match = %+v", matches[1])
	}
	if got := line[matches[0].Start:matches[0].End]; got != "[[alpha]]" {
		t.Errorf("span = %q, want [[alpha]]", got)
	}
}

func TestFindAllSkipsEmptyTargets(t *testing.T) {
	if matches := FindAll("[[ ]] and [[ok]]"); len(matches) != 1 || matches[0].Target != "ok" {
		t.Errorf("matches = %+v", matches)
	}
}
