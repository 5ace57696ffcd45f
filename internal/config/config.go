package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
)

// Config carries every fixed pipeline constant. The generation and capture
// parameters are deliberately not runtime knobs; flags only select paths,
// the input source and the log level.
type Config struct {
	// Capture
	SampleRate    int
	Channels      int
	ChunkSize     int
	RecordSeconds int

	// Transcription
	WhisperModel string

	// Response generation
	ChatURL         string
	ChatModel       string
	ChatMaxTokens   int64
	ChatTemperature float64
	ChatTimeout     time.Duration

	// Conversation memory, in user+assistant turn pairs
	MaxHistoryTurns int

	// Speech synthesis
	PiperPath  string
	PiperVoice string
	TTSTimeout time.Duration

	// Optional listening cue played before each capture
	ChimePath string

	// Debug: decode this file each turn instead of opening the microphone
	InputFile string

	LogLevel string
}

func defaultVoicePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "es_ES-sharvard-medium.onnx"
	}
	return filepath.Join(home, ".local", "share", "piper", "es_ES-sharvard-medium.onnx")
}

// Load parses flags, loads the optional env file and applies env overrides.
func Load() (*Config, error) {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	whisperModel := cli.StringP("whisper", "w", "models/ggml-small.bin", "Whisper model path")
	inputFile := cli.StringP("input-file", "f", "", "Transcribe this audio file instead of the microphone")
	chimePath := cli.StringP("chime", "c", "", "Listening cue mp3 played before each capture")
	cli.Parse()

	godotenv.Load(*envFile)

	cfg := &Config{
		SampleRate:    16000,
		Channels:      1,
		ChunkSize:     1024,
		RecordSeconds: 6,

		WhisperModel: *whisperModel,

		ChatURL:         "http://localhost:11434/v1",
		ChatModel:       "qwen2.5:3b",
		ChatMaxTokens:   40,
		ChatTemperature: 0.7,
		ChatTimeout:     60 * time.Second,

		MaxHistoryTurns: 4,

		PiperPath:  "piper",
		PiperVoice: defaultVoicePath(),
		TTSTimeout: 30 * time.Second,

		ChimePath: *chimePath,
		InputFile: *inputFile,
		LogLevel:  *logLevel,
	}

	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.ChatURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.ChatModel = v
	}
	if v := os.Getenv("PIPER_PATH"); v != "" {
		cfg.PiperPath = v
	}
	if v := os.Getenv("PIPER_VOICE"); v != "" {
		cfg.PiperVoice = v
	}
	if v := os.Getenv("WHISPER_MODEL"); v != "" {
		cfg.WhisperModel = v
	}

	if cfg.PiperVoice == "" {
		return nil, fmt.Errorf("piper voice path is required")
	}

	return cfg, nil
}
