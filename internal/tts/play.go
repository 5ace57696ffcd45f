package tts

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// play decodes the rendered wav and plays it through the default output,
// bounded by the engine timeout.
func (e *Engine) play(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rendered audio: %w", err)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return fmt.Errorf("decode rendered audio: %w", err)
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-time.After(e.Timeout):
		speaker.Clear()
		return fmt.Errorf("playback timed out after %s", e.Timeout)
	}
}
