package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"none":           LevelNone,
		"":                LevelNone,
		"bogus":          LevelNone,
		"mc":             LevelMachineCode,
		"machine-code":   LevelMachineCode,
		"MC":             LevelMachineCode,
		"schedule":       LevelScheduleTrace,
		"schedule-trace": LevelScheduleTrace,
		"graphs":         LevelGraphs,
		"GRAPHS":         LevelGraphs,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEnabledIsExactMatchNotSeverityLadder(t *testing.T) {
	l := New(nil, LevelScheduleTrace)
	if l.Enabled(LevelMachineCode) {
		t.Error("LevelScheduleTrace logger must not report LevelMachineCode enabled")
	}
	if !l.Enabled(LevelScheduleTrace) {
		t.Error("LevelScheduleTrace logger must report its own level enabled")
	}
	if l.Enabled(LevelGraphs) {
		t.Error("LevelScheduleTrace logger must not report LevelGraphs enabled")
	}
}

func TestNilLoggerEnabledIsFalse(t *testing.T) {
	var l *Logger
	if l.Enabled(LevelNone) {
		t.Error("nil logger must never report enabled")
	}
}

func TestHandlerWritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelMachineCode)
	l.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected output to contain message, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected output to contain attr, got %q", buf.String())
	}
}
