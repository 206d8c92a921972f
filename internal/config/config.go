package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	CallLog     CallLogConfig   `yaml:"call_log"`
	STT         STTConfig       `yaml:"stt"`
	Generation  GenConfig       `yaml:"generation"`
	Intent      IntentConfig    `yaml:"intent"`
	Intake      IntakeConfig    `yaml:"intake"`
	TTS         TTSConfig       `yaml:"tts"`
	Agent       AgentConfig     `yaml:"agent"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type CallLogConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxCalls      int    `yaml:"max_calls"`
}

type STTConfig struct {
	Mode       string `yaml:"mode"` // mock, deepgram
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
}

type GenConfig struct {
	Mode        string  `yaml:"mode"` // mock, gemini, exec
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Command     string  `yaml:"command"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type IntentConfig struct {
	Mode   string `yaml:"mode"` // mock, gemini
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type IntakeConfig struct {
	Mode        string  `yaml:"mode"` // mock, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type TTSConfig struct {
	Mode       string `yaml:"mode"` // mock, deepgram, exec
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Voice      string `yaml:"voice"`
	Command    string `yaml:"command"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
}

type AgentConfig struct {
	KnowledgeBasePath string   `yaml:"knowledge_base_path"`
	SlotTemplates     []string `yaml:"slot_templates"`
}

func Default() Config {
	return Config{
		RuntimeName: "frontdesk-core",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		CallLog: CallLogConfig{
			Enabled:       false,
			Path:          "./data/frontdesk-calls.db",
			RetentionDays: 30,
			MaxCalls:      10000,
		},
		STT: STTConfig{
			Mode:       "mock",
			Model:      "nova-3",
			SampleRate: 16000,
			Channels:   1,
		},
		Generation: GenConfig{
			Mode:        "mock",
			Model:       "gemini-2.0-flash",
			MaxTokens:   256,
			Temperature: 0.7,
		},
		Intent: IntentConfig{
			Mode:  "mock",
			Model: "gemini-2.0-flash",
		},
		Intake: IntakeConfig{
			Mode:        "mock",
			Model:       "gemini-2.0-flash",
			Temperature: 0.1,
		},
		TTS: TTSConfig{
			Mode:       "mock",
			Model:      "aura-2-thalia-en",
			SampleRate: 24000,
			Channels:   1,
		},
		Agent: AgentConfig{
			KnowledgeBasePath: "",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "FRONTDESK_RUNTIME_NAME")
	overrideString(&cfg.Environment, "FRONTDESK_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "FRONTDESK_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "FRONTDESK_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "FRONTDESK_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "FRONTDESK_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "FRONTDESK_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Enabled, "FRONTDESK_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "FRONTDESK_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "FRONTDESK_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "FRONTDESK_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "FRONTDESK_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "FRONTDESK_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "FRONTDESK_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "FRONTDESK_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "FRONTDESK_BUS_CONNECT_TIMEOUT_MS")
	overrideBool(&cfg.CallLog.Enabled, "FRONTDESK_CALL_LOG_ENABLED")
	overrideString(&cfg.CallLog.Path, "FRONTDESK_CALL_LOG_PATH")
	overrideInt(&cfg.CallLog.RetentionDays, "FRONTDESK_CALL_LOG_RETENTION_DAYS")
	overrideInt(&cfg.CallLog.MaxCalls, "FRONTDESK_CALL_LOG_MAX_CALLS")
	overrideString(&cfg.STT.Mode, "FRONTDESK_STT_MODE")
	overrideString(&cfg.STT.APIKey, "FRONTDESK_STT_API_KEY")
	overrideString(&cfg.STT.BaseURL, "FRONTDESK_STT_BASE_URL")
	overrideString(&cfg.STT.Model, "FRONTDESK_STT_MODEL")
	overrideInt(&cfg.STT.SampleRate, "FRONTDESK_STT_SAMPLE_RATE")
	overrideInt(&cfg.STT.Channels, "FRONTDESK_STT_CHANNELS")
	overrideString(&cfg.Generation.Mode, "FRONTDESK_GENERATION_MODE")
	overrideString(&cfg.Generation.APIKey, "FRONTDESK_GENERATION_API_KEY")
	overrideString(&cfg.Generation.Model, "FRONTDESK_GENERATION_MODEL")
	overrideString(&cfg.Generation.Command, "FRONTDESK_GENERATION_COMMAND")
	overrideInt(&cfg.Generation.MaxTokens, "FRONTDESK_GENERATION_MAX_TOKENS")
	overrideFloat(&cfg.Generation.Temperature, "FRONTDESK_GENERATION_TEMPERATURE")
	overrideString(&cfg.Intent.Mode, "FRONTDESK_INTENT_MODE")
	overrideString(&cfg.Intent.APIKey, "FRONTDESK_INTENT_API_KEY")
	overrideString(&cfg.Intent.Model, "FRONTDESK_INTENT_MODEL")
	overrideString(&cfg.Intake.Mode, "FRONTDESK_INTAKE_MODE")
	overrideString(&cfg.Intake.APIKey, "FRONTDESK_INTAKE_API_KEY")
	overrideString(&cfg.Intake.Model, "FRONTDESK_INTAKE_MODEL")
	overrideFloat(&cfg.Intake.Temperature, "FRONTDESK_INTAKE_TEMPERATURE")
	overrideString(&cfg.TTS.Mode, "FRONTDESK_TTS_MODE")
	overrideString(&cfg.TTS.APIKey, "FRONTDESK_TTS_API_KEY")
	overrideString(&cfg.TTS.BaseURL, "FRONTDESK_TTS_BASE_URL")
	overrideString(&cfg.TTS.Model, "FRONTDESK_TTS_MODEL")
	overrideString(&cfg.TTS.Voice, "FRONTDESK_TTS_VOICE")
	overrideString(&cfg.TTS.Command, "FRONTDESK_TTS_COMMAND")
	overrideInt(&cfg.TTS.SampleRate, "FRONTDESK_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.Channels, "FRONTDESK_TTS_CHANNELS")
	overrideString(&cfg.Agent.KnowledgeBasePath, "FRONTDESK_AGENT_KNOWLEDGE_BASE_PATH")
	overrideStringSlice(&cfg.Agent.SlotTemplates, "FRONTDESK_AGENT_SLOT_TEMPLATES")

	// One key can drive every Gemini-backed component.
	if key, ok := os.LookupEnv("FRONTDESK_GEMINI_API_KEY"); ok && strings.TrimSpace(key) != "" {
		if cfg.Generation.APIKey == "" {
			cfg.Generation.APIKey = key
		}
		if cfg.Intent.APIKey == "" {
			cfg.Intent.APIKey = key
		}
		if cfg.Intake.APIKey == "" {
			cfg.Intake.APIKey = key
		}
	}
	// Likewise for Deepgram on both sides of the audio path.
	if key, ok := os.LookupEnv("FRONTDESK_DEEPGRAM_API_KEY"); ok && strings.TrimSpace(key) != "" {
		if cfg.STT.APIKey == "" {
			cfg.STT.APIKey = key
		}
		if cfg.TTS.APIKey == "" {
			cfg.TTS.APIKey = key
		}
	}
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.CallLog.Enabled && cfg.CallLog.Path == "" {
		return errors.New("call_log.path must not be empty when the call log is enabled")
	}
	switch cfg.STT.Mode {
	case "mock", "deepgram":
	default:
		return errors.New("stt.mode must be one of mock|deepgram")
	}
	if cfg.STT.Mode == "deepgram" && cfg.STT.APIKey == "" {
		return errors.New("stt.api_key must be set for deepgram mode")
	}
	if cfg.STT.SampleRate <= 0 {
		return errors.New("stt.sample_rate must be positive")
	}
	if cfg.STT.Channels <= 0 {
		return errors.New("stt.channels must be positive")
	}
	switch cfg.Generation.Mode {
	case "mock", "gemini", "exec":
	default:
		return errors.New("generation.mode must be one of mock|gemini|exec")
	}
	if cfg.Generation.Mode == "gemini" && cfg.Generation.APIKey == "" {
		return errors.New("generation.api_key must be set for gemini mode")
	}
	if cfg.Generation.Mode == "exec" && cfg.Generation.Command == "" {
		return errors.New("generation.command must be set for exec mode")
	}
	switch cfg.Intent.Mode {
	case "mock", "gemini":
	default:
		return errors.New("intent.mode must be one of mock|gemini")
	}
	if cfg.Intent.Mode == "gemini" && cfg.Intent.APIKey == "" {
		return errors.New("intent.api_key must be set for gemini mode")
	}
	switch cfg.Intake.Mode {
	case "mock", "gemini":
	default:
		return errors.New("intake.mode must be one of mock|gemini")
	}
	if cfg.Intake.Mode == "gemini" && cfg.Intake.APIKey == "" {
		return errors.New("intake.api_key must be set for gemini mode")
	}
	switch cfg.TTS.Mode {
	case "mock", "deepgram", "exec":
	default:
		return errors.New("tts.mode must be one of mock|deepgram|exec")
	}
	if cfg.TTS.Mode == "deepgram" && cfg.TTS.APIKey == "" {
		return errors.New("tts.api_key must be set for deepgram mode")
	}
	if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set for exec mode")
	}
	if cfg.TTS.SampleRate <= 0 {
		return errors.New("tts.sample_rate must be positive")
	}
	return nil
}
