package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		minLevel Level
		logFunc  func(*Logger)
		want     bool // should log
	}{
		{
			name:     "info at info",
			minLevel: LevelInfo,
			logFunc:  func(l *Logger) { l.Info("test message", Fields{"key": "value"}) },
			want:     true,
		},
		{
			name:     "debug below threshold",
			minLevel: LevelInfo,
			logFunc:  func(l *Logger) { l.Debug("debug message", nil) },
			want:     false,
		},
		{
			name:     "debug at debug",
			minLevel: LevelDebug,
			logFunc:  func(l *Logger) { l.Debug("debug message", nil) },
			want:     true,
		},
		{
			name:     "warn below error threshold",
			minLevel: LevelError,
			logFunc:  func(l *Logger) { l.Warn("warn message", nil) },
			want:     false,
		},
		{
			name:     "error with err",
			minLevel: LevelWarn,
			logFunc:  func(l *Logger) { l.Error("error occurred", nil, errors.New("test error")) },
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(New(tt.minLevel, &buf))

			if logged := buf.Len() > 0; logged != tt.want {
				t.Errorf("logged = %v, want %v (output %q)", logged, tt.want, buf.String())
			}
		})
	}
}

func TestLogger_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf).With(Fields{"run_id": "abc"})

	l.Error("upload failed", Fields{"key": "ade/raw/ade_events_2019.csv", "attempt": 1}, errors.New("boom"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}

	checks := map[string]interface{}{
		"level":   "ERROR",
		"message": "upload failed",
		"run_id":  "abc",
		"key":     "ade/raw/ade_events_2019.csv",
		"error":   "boom",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("entry[%q] = %v, want %v", k, entry[k], want)
		}
	}
	if entry["attempt"] != float64(1) {
		t.Errorf("entry[attempt] = %v, want 1", entry["attempt"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("entry has no timestamp")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	// Must not panic
	l.Info("ignored", Fields{"k": "v"})
	l.With(Fields{"a": 1}).Error("ignored", nil, errors.New("x"))
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}
