package cmd

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	got := renderTable(
		[]string{"Name", "Count"},
		[][]string{{"alpha", "1"}, {"beta"}},
		[]columnAlignment{alignLeft, alignRight},
	)

	lines := strings.Split(got, "\n")
	if len(lines) != 6 {
		t.Fatalf("renderTable() lines = %d, want 6:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "╭") || !strings.HasPrefix(lines[5], "╰") {
		t.Errorf("renderTable() should use rounded borders:\n%s", got)
	}
	if !strings.Contains(lines[3], "alpha") || !strings.Contains(lines[3], "1 │") {
		t.Errorf("row 1 = %q, want right aligned count", lines[3])
	}
	if !strings.Contains(lines[4], "beta") {
		t.Errorf("row 2 = %q, want padded short row", lines[4])
	}
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	if got := renderTable(nil, [][]string{{"x"}}, nil); got != "" {
		t.Errorf("renderTable(nil headers) = %q, want empty", got)
	}
}
