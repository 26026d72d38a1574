package logx

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetLevelByName("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Infof("hidden info %d", 1)
	Warnf("visible warning %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden info") {
		t.Fatalf("info leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "visible warning 2") {
		t.Fatalf("warning missing from output: %q", out)
	}
}

func TestDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetLevelByName("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Debugf("tracing %s", "details")
	if !strings.Contains(buf.String(), "tracing details") {
		t.Fatalf("debug message missing: %q", buf.String())
	}
	if Level() != zerolog.DebugLevel {
		t.Fatalf("level %v want debug", Level())
	}
}

func TestUnknownLevelKeepsCurrent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetLevelByName("info"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	if err := SetLevelByName("chatty"); err == nil {
		t.Fatalf("expected error for unknown level name")
	}
	if Level() != zerolog.InfoLevel {
		t.Fatalf("level changed on bad name: %v", Level())
	}
}

func TestTimeTrack(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetLevelByName("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	TimeTrack(time.Now().Add(-time.Millisecond), "export")
	if !strings.Contains(buf.String(), "export took") {
		t.Fatalf("time track output missing: %q", buf.String())
	}
}
