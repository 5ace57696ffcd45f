// osito-fetch downloads the piper voice model Osito speaks with.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	log "log/slog"

	cli "github.com/spf13/pflag"
)

const (
	voiceName = "es_ES-sharvard-medium"
	voiceBase = "https://huggingface.co/rhasspy/piper-voices/resolve/main/es/es_ES/sharvard/medium/"

	// anything smaller is a failed or truncated download
	minVoiceSize = 1000
)

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".local", "share", "piper")
}

func fetch(url, dest string) error {
	if st, err := os.Stat(dest); err == nil && st.Size() > minVoiceSize {
		log.Info("Already present", "path", dest)
		return nil
	}

	log.Info("Downloading", "url", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("download %s: %w", url, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		return err
	}

	log.Info("Downloaded", "path", dest)
	return nil
}

func main() {
	dir := cli.StringP("dir", "d", defaultDir(), "Destination directory for voice files")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{})))

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Error("Failed to create destination", "dir", *dir, "err", err)
		os.Exit(1)
	}

	for _, name := range []string{voiceName + ".onnx", voiceName + ".onnx.json"} {
		if err := fetch(voiceBase+name, filepath.Join(*dir, name)); err != nil {
			log.Error("Fetch failed", "file", name, "err", err)
			os.Exit(1)
		}
	}

	log.Info("Done", "voice", voiceName)
}
