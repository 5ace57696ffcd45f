package main

import (
	"context"
	"os"
	"time"

	"github.com/lmittmann/tint"
	log "log/slog"

	"osito/internal/audio"
	"osito/internal/audioconv"
	"osito/internal/config"
	"osito/internal/listen"
	"osito/internal/llm"
	"osito/internal/notify"
	"osito/internal/osito"
	"osito/internal/tts"
	"osito/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error("bad configuration", "err", err)
		os.Exit(1)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[cfg.LogLevel],
	})))

	log.Info("Booting up")

	engine, err := stt.New(cfg.WhisperModel)
	if err != nil {
		log.Error("Failed to load whisper model", "path", cfg.WhisperModel, "err", err)
		os.Exit(1)
	}
	defer engine.Close()

	log.Debug("Loaded whisper", "model", cfg.WhisperModel)

	client := llm.NewClient(cfg.ChatURL, cfg.ChatModel, cfg.ChatMaxTokens, cfg.ChatTemperature)

	verifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = client.Verify(verifyCtx)
	cancel()
	if err != nil {
		log.Error("Chat backend not ready", "url", cfg.ChatURL, "model", cfg.ChatModel, "err", err)
		os.Exit(1)
	}

	log.Debug("Chat backend ready", "model", cfg.ChatModel)

	if err := tts.CheckInstallation(cfg.PiperPath, cfg.PiperVoice); err != nil {
		log.Error("Piper not ready", "err", err)
		os.Exit(1)
	}

	log.Debug("Piper ready", "voice", cfg.PiperVoice)

	var src osito.Source
	if cfg.InputFile != "" {
		log.Info("Using file input", "path", cfg.InputFile)
		src = &audioconv.FileSource{Path: cfg.InputFile, MaxSeconds: cfg.RecordSeconds}
	} else {
		rec := audio.NewRecorder(cfg.SampleRate, cfg.Channels, cfg.ChunkSize, cfg.RecordSeconds)
		if err := rec.Init(); err != nil {
			log.Error("Failed to init audio", "err", err)
			os.Exit(1)
		}
		defer rec.Close()
		src = rec
	}

	log.Info("Boot up - successful")

	assistant := osito.New(
		src,
		listen.NewTranscriber(engine),
		llm.NewGenerator(client, cfg.ChatTimeout),
		tts.New(cfg.PiperPath, cfg.PiperVoice, cfg.TTSTimeout),
		cfg.MaxHistoryTurns,
		osito.WithRecordSeconds(cfg.RecordSeconds),
		osito.WithChime(func() {
			if err := notify.Chime(cfg.ChimePath); err != nil {
				log.Debug("chime skipped", "err", err)
			}
		}),
	)

	if err := assistant.Run(context.Background()); err != nil {
		log.Error("Conversation loop failed", "err", err)
		os.Exit(1)
	}
}
