package console

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info("loaded %d rows", 4)
	l.Debug("hidden %d", 1)
	l.SetDebug(true)
	l.Debug("shown %d", 2)
	l.Error("trial %s failed", "x")

	out := buf.String()
	for _, want := range []string{"[INFO] loaded 4 rows", "[DEBUG] shown 2", "[ERROR]", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden 1") {
		t.Errorf("debug line printed while disabled:\n%s", out)
	}
}

func TestBannerAndStatus(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Banner("n_clusters=%d, kernel=%s", 30, "poly")
	l.Success("Done in %.2fs", 1.5)
	l.Failure("Error during run")
	l.Block("a\nb\n\n")

	out := buf.String()
	for _, want := range []string{strings.Repeat("=", ruleWidth), "Test: n_clusters=30, kernel=poly", "Done in 1.50s", "Error during run", "a\nb\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
