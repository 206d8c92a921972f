package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RuntimeName != "frontdesk-core" {
		t.Fatalf("unexpected runtime name %q", cfg.RuntimeName)
	}
	if cfg.STT.Mode != "mock" || cfg.Generation.Mode != "mock" || cfg.TTS.Mode != "mock" {
		t.Fatal("providers must default to mock mode")
	}
	if cfg.Bus.Enabled || cfg.CallLog.Enabled {
		t.Fatal("bus and call log must default off")
	}
	if cfg.STT.SampleRate != 16000 || cfg.TTS.SampleRate != 24000 {
		t.Fatalf("unexpected default rates %d/%d", cfg.STT.SampleRate, cfg.TTS.SampleRate)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
runtime_name: frontdesk-test
http:
  port: 9090
generation:
  mode: exec
  command: "./fake-llm --json"
agent:
  slot_templates: ["08:00", "11:00"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RuntimeName != "frontdesk-test" {
		t.Fatalf("runtime name not loaded: %q", cfg.RuntimeName)
	}
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("port not loaded: %d", cfg.HTTP.Port)
	}
	if cfg.Generation.Mode != "exec" || cfg.Generation.Command != "./fake-llm --json" {
		t.Fatalf("generation section not loaded: %+v", cfg.Generation)
	}
	if len(cfg.Agent.SlotTemplates) != 2 || cfg.Agent.SlotTemplates[0] != "08:00" {
		t.Fatalf("slot templates not loaded: %v", cfg.Agent.SlotTemplates)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FRONTDESK_HTTP_PORT", "8181")
	t.Setenv("FRONTDESK_BUS_ENABLED", "true")
	t.Setenv("FRONTDESK_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("FRONTDESK_BUS_EMBEDDED", "false")
	t.Setenv("FRONTDESK_STT_MODE", "deepgram")
	t.Setenv("FRONTDESK_TTS_MODE", "deepgram")
	t.Setenv("FRONTDESK_DEEPGRAM_API_KEY", "dg-secret")
	t.Setenv("FRONTDESK_GENERATION_MODE", "gemini")
	t.Setenv("FRONTDESK_INTENT_MODE", "gemini")
	t.Setenv("FRONTDESK_INTAKE_MODE", "gemini")
	t.Setenv("FRONTDESK_GEMINI_API_KEY", "gm-secret")
	t.Setenv("FRONTDESK_CALL_LOG_ENABLED", "true")
	t.Setenv("FRONTDESK_CALL_LOG_PATH", "./tmp-calls.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 8181 {
		t.Fatalf("expected port override, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.STT.APIKey != "dg-secret" || cfg.TTS.APIKey != "dg-secret" {
		t.Fatal("shared deepgram key should fill both audio sections")
	}
	if cfg.Generation.APIKey != "gm-secret" || cfg.Intent.APIKey != "gm-secret" || cfg.Intake.APIKey != "gm-secret" {
		t.Fatal("shared gemini key should fill all model sections")
	}
	if !cfg.CallLog.Enabled || cfg.CallLog.Path != "./tmp-calls.db" {
		t.Fatalf("call log override missing: %+v", cfg.CallLog)
	}
}

func TestSectionKeyBeatsSharedKey(t *testing.T) {
	t.Setenv("FRONTDESK_GENERATION_MODE", "gemini")
	t.Setenv("FRONTDESK_GENERATION_API_KEY", "section-key")
	t.Setenv("FRONTDESK_GEMINI_API_KEY", "shared-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Generation.APIKey != "section-key" {
		t.Fatalf("section key should win, got %q", cfg.Generation.APIKey)
	}
	if cfg.Intent.APIKey != "shared-key" {
		t.Fatalf("shared key should backfill intent, got %q", cfg.Intent.APIKey)
	}
}

func TestValidateRejectsBadModes(t *testing.T) {
	t.Setenv("FRONTDESK_STT_MODE", "whisper")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown stt mode")
	}
}

func TestValidateRequiresKeys(t *testing.T) {
	t.Setenv("FRONTDESK_GENERATION_MODE", "gemini")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for gemini mode without api key")
	}
}
