package query

import "testing"

func TestNormalizeKeys(t *testing.T) {
	known := []string{"creation-date", "due-date", "status", "priority"}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"known hyphenated key",
			"creation-date == '2026-01-28'",
			"field('creation-date') == '2026-01-28'",
		},
		{
			"unknown hyphenated run untouched",
			"priority-1 == 3",
			"priority-1 == 3",
		},
		{
			"key inside string literal untouched",
			"title == 'creation-date'",
			"title == 'creation-date'",
		},
		{
			"plain keys untouched",
			"status == 'done' && priority == 3",
			"status == 'done' && priority == 3",
		},
		{
			"both sides rewritten",
			"creation-date == due-date",
			"field('creation-date') == field('due-date')",
		},
		{
			"dot access untouched",
			"meta.creation-date == 'x'",
			"meta.creation-date == 'x'",
		},
		{
			"already wrapped stays stable",
			"field('creation-date') == today()",
			"field('creation-date') == today()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKeys(tt.input, known); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeKeysNoHyphenatedKeysIsIdentity(t *testing.T) {
	input := "creation-date == 'x'"
	if got := NormalizeKeys(input, []string{"status"}); got != input {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestNormalizedExpressionParsesAndEvaluates(t *testing.T) {
	ctx := testContext()
	ctx.Fields["creation-date"] = ctx.Fields["due"]

	src := NormalizeKeys("creation-date == '2026-01-28'", []string{"creation-date"})
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("parse normalized expression: %v", err)
	}
	got, err := Evaluate(node, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("hyphenated key lookup failed after normalization")
	}
}
