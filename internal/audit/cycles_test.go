package audit

import (
	"reflect"
	"testing"
)

func TestFindOwnershipCycles(t *testing.T) {
	tests := []struct {
		name  string
		graph map[string]string
		want  [][]string
	}{
		{
			"no cycle",
			map[string]string{"b": "a", "c": "b"},
			nil,
		},
		{
			"self cycle",
			map[string]string{"a": "a"},
			[][]string{{"a"}},
		},
		{
			"two-node cycle",
			map[string]string{"a": "b", "b": "a"},
			[][]string{{"a", "b"}},
		},
		{
			"cycle with a tail is anchored at the cycle",
			map[string]string{"tail": "b", "b": "c", "c": "b"},
			[][]string{{"b", "c"}},
		},
		{
			"two independent cycles",
			map[string]string{"a": "b", "b": "a", "x": "y", "y": "x"},
			[][]string{{"a", "b"}, {"x", "y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := FindOwnershipCycles(tt.graph)
			var got [][]string
			for _, issue := range issues {
				if issue.Code != CodeOwnershipCycle || issue.Severity != SeverityError {
					t.Errorf("issue = %+v", issue)
				}
				got = append(got, issue.CyclePath)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("cycles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindOwnershipCyclesIsDeterministic(t *testing.T) {
	graph := map[string]string{"m": "n", "n": "o", "o": "m"}
	first := FindOwnershipCycles(graph)
	second := FindOwnershipCycles(graph)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ: %v vs %v", first, second)
	}
	if len(first) != 1 || first[0].CyclePath[0] != "m" {
		t.Errorf("cycle = %+v, want anchored at m", first)
	}
}
