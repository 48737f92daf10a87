package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")
	log.Info("hidden")
	log.Warn("shown", "user_id", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "shown" || rec["user_id"] != float64(3) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestTextFormatDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "bogus", "text")
	log.Debug("dbg")
	log.Info("inf")
	out := buf.String()
	if strings.Contains(out, "dbg") || !strings.Contains(out, "msg=inf") {
		t.Fatalf("unexpected output %q", out)
	}
}
