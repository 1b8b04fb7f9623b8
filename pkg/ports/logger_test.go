package ports

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"quiet", LevelQuiet, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogLevel_String(t *testing.T) {
	for _, l := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelQuiet} {
		got, err := ParseLogLevel(l.String())
		if err != nil || got != l {
			t.Errorf("round trip of %v failed: %v, %v", l, got, err)
		}
	}
	if LogLevel(42).String() != "unknown" {
		t.Error("expected unknown for out-of-range level")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard.WithComponent("encoder")
	if log != Discard {
		t.Error("expected WithComponent to return Discard")
	}

	// Should not panic
	log.Debug("debug %d", 1)
	log.Info("info")
	log.Warn("warn %s", "x")
	log.Error("error")
}
