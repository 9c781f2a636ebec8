package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"session":   "debug",
			"transport": "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"session", true, true, true},
		{"transport", false, false, true},
		{"camera", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestLoggerCreatedBeforeInitialize(t *testing.T) {
	resetState()

	early := GetLogger("simcam")
	if early.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("uninitialized logger should default to info")
	}

	Initialize(Config{Level: "debug"})
	if !GetLogger("simcam").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger should pick up debug after Initialize")
	}
}

func TestOutputCarriesModule(t *testing.T) {
	resetState()
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Initialize(Config{Level: "info", Format: "json"})
	GetLogger("session").Warn("Discarding unmatched reply", "camera", 1)

	out := buf.String()
	if !strings.Contains(out, `"module":"session"`) || !strings.Contains(out, `"camera":1`) {
		t.Errorf("output = %s", out)
	}
}

func TestSetModuleLevel(t *testing.T) {
	resetState()
	Initialize(Config{Level: "error"})

	if !SetModuleLevel("cli", "debug") {
		t.Fatal("SetModuleLevel rejected debug")
	}
	if !GetLogger("cli").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("cli should log debug")
	}
	if SetModuleLevel("cli", "loud") {
		t.Error("SetModuleLevel accepted an unknown level")
	}
}

func TestAddAttrToFields(t *testing.T) {
	fields := map[string]string{}
	addAttrToFields(fields, slog.Any("packet", []byte{0x81, 0x01, 0xFF}), nil)
	addAttrToFields(fields, slog.Int("socket", 2), []string{"reply"})

	if fields["PACKET"] != "8101ff" {
		t.Errorf("PACKET = %q", fields["PACKET"])
	}
	if fields["REPLY_SOCKET"] != "2" {
		t.Errorf("REPLY_SOCKET = %q", fields["REPLY_SOCKET"])
	}
}
