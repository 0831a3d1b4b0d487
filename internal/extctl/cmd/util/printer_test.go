package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinterWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	if p.Width() != defaultWidth {
		t.Fatalf("width = %d, want %d", p.Width(), defaultWidth)
	}

	p.OK("done")
	p.Failure("%s", strings.Repeat("word ", 40))
	p.Table([]interface{}{"ID", "VERSION"}, []interface{}{"weather", "1.0.0"})

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("escape codes written to a non-terminal: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "✔ done" {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "✘ word") || !strings.HasPrefix(lines[2], "  word") {
		t.Errorf("failure not wrapped with indent: %q", lines[1:3])
	}
	for _, l := range lines[1:3] {
		if len(l) > defaultWidth+2 {
			t.Errorf("line longer than width: %d", len(l))
		}
	}
	if !strings.Contains(out, "weather") || !strings.Contains(out, "VERSION") {
		t.Errorf("table missing: %q", out)
	}
}

func TestUsageErrorf(t *testing.T) {
	err := UsageErrorf(newTestCommand(), "bad %s", "flag")
	if !strings.Contains(err.Error(), "bad flag") || !strings.Contains(err.Error(), "'extctl -h'") {
		t.Errorf("err = %q", err)
	}
}
