package audit

import (
	"fmt"
	"sort"
	"strings"
)

// FindOwnershipCycles walks the owner-relation graph and reports every
// document that can reach itself. The graph maps a document name to the
// target of its owner field; documents without an owner are simply absent.
// Each cycle is reported once, anchored at its lexicographically smallest
// member so repeated runs emit identical issues.
func FindOwnershipCycles(graph map[string]string) []Issue {
	reported := make(map[string]bool)

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []Issue
	for _, start := range names {
		if reported[start] {
			continue
		}

		// Walk until the chain ends or revisits a node.
		seen := map[string]int{start: 0}
		path := []string{start}
		cur := start
		for {
			next, ok := graph[cur]
			if !ok {
				break
			}
			if at, visited := seen[next]; visited {
				cycle := path[at:]
				anchor := rotateToSmallest(cycle)
				if !reported[anchor[0]] {
					for _, member := range anchor {
						reported[member] = true
					}
					issues = append(issues, cycleIssue(anchor))
				}
				break
			}
			seen[next] = len(path)
			path = append(path, next)
			cur = next
		}
	}
	return issues
}

func cycleIssue(cycle []string) Issue {
	display := append(append([]string{}, cycle...), cycle[0])
	return Issue{
		Code:      CodeOwnershipCycle,
		Severity:  SeverityError,
		CyclePath: cycle,
		Message:   fmt.Sprintf("ownership cycle: %s", strings.Join(display, " -> ")),
	}
}

// rotateToSmallest rotates a cycle so its smallest member comes first.
func rotateToSmallest(cycle []string) []string {
	smallest := 0
	for i, name := range cycle {
		if name < cycle[smallest] {
			smallest = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[smallest:]...)
	out = append(out, cycle[:smallest]...)
	return out
}
