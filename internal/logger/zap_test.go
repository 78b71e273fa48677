package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"bogus":    zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestInit_ReturnsSingleton(t *testing.T) {
	a := Init(DebugLevel, JSONFormat)
	b := Get()
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
	if !a.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("first Init level should win")
	}
}

func TestNop_Discards(t *testing.T) {
	l := Nop()
	l.Infow("ignored", "k", "v")
	if l.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("nop logger should not enable any level")
	}
}
