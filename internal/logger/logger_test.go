package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestApplyLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tests := []struct {
		name    string
		want    zerolog.Level
		wantErr bool
	}{
		{"warn", zerolog.WarnLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{" info ", zerolog.InfoLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyLevel(%q) err = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ApplyLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
			if !tt.wantErr && zerolog.GlobalLevel() != tt.want {
				t.Errorf("global level = %v", zerolog.GlobalLevel())
			}
		})
	}
}

func TestApplyLevelEmptyKeepsCurrent(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	got, err := ApplyLevel("")
	if err != nil || got != zerolog.ErrorLevel {
		t.Errorf("ApplyLevel(\"\") = %v, %v", got, err)
	}
}

func TestSetLevel(t *testing.T) {
	if got := SetLevel(zerolog.WarnLevel).GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("level = %v", got)
	}
	if got := New().GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("New level = %v", got)
	}
}
