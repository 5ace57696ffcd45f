// Package tts renders replies to speech with piper and plays them through
// the default output device. Audio is a degradation path: when synthesis or
// playback fails or times out, the reply is printed instead.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

type Engine struct {
	PiperPath string
	VoicePath string
	// Timeout applies to synthesis and to playback separately.
	Timeout time.Duration
	// Out receives the textual fallback. Defaults to os.Stdout.
	Out io.Writer
}

func New(piperPath, voicePath string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{PiperPath: piperPath, VoicePath: voicePath, Timeout: timeout}
}

func (e *Engine) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return os.Stdout
}

// Say speaks the text, falling back to a textual display on any failure.
// It never returns an error; a turn must complete either way.
func (e *Engine) Say(text string) {
	if text == "" {
		return
	}
	if err := e.speak(text); err != nil {
		log.Warn("speech output failed", "err", err)
		fmt.Fprintf(e.out(), "  [Audio]: %s\n", text)
	}
}

func (e *Engine) speak(text string) error {
	wavPath, err := e.synthesize(text)
	if wavPath != "" {
		defer os.Remove(wavPath)
	}
	if err != nil {
		return err
	}
	return e.play(wavPath)
}

// synthesize runs piper with the text on stdin and returns the temp wav path.
// The path is returned even on failure so the caller can clean it up.
func (e *Engine) synthesize(text string) (string, error) {
	tmp, err := os.CreateTemp("", "osito-*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.PiperPath, "--model", e.VoicePath, "--output_file", path)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return path, fmt.Errorf("piper timed out after %s", e.Timeout)
		}
		return path, fmt.Errorf("piper: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return path, nil
}

// CheckInstallation verifies the piper binary responds and the voice model
// exists. Piper exits 1 on --help; both 0 and 1 mean the binary is present.
func CheckInstallation(piperPath, voicePath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := exec.CommandContext(ctx, piperPath, "--help").Run()
	var ee *exec.ExitError
	if err != nil && !(errors.As(err, &ee) && ee.ExitCode() == 1) {
		return fmt.Errorf("piper not found at %q: %w", piperPath, err)
	}

	if _, err := os.Stat(voicePath); err != nil {
		return fmt.Errorf("piper voice not found at %q: %w", voicePath, err)
	}
	return nil
}
