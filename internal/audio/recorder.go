// Package audio captures utterances from the default input device.
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Recorder reads a fixed-duration utterance from the microphone. Fixed-length
// capture trades natural endpointing for determinism; there is no early stop
// and no retry.
type Recorder struct {
	SampleRate int
	Channels   int
	ChunkSize  int
	Seconds    int
}

func NewRecorder(sampleRate, channels, chunkSize, seconds int) *Recorder {
	return &Recorder{
		SampleRate: sampleRate,
		Channels:   channels,
		ChunkSize:  chunkSize,
		Seconds:    seconds,
	}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record blocks for the configured duration and returns mono samples
// normalized to [-1, 1]. Device failures propagate; the caller decides how
// the turn degrades.
func (r *Recorder) Record() ([]float32, error) {
	buf := make([]int16, r.ChunkSize)

	stream, err := portaudio.OpenDefaultStream(r.Channels, 0, float64(r.SampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	chunks := r.SampleRate * r.Seconds / r.ChunkSize
	out := make([]float32, 0, r.SampleRate*r.Seconds)

	for i := 0; i < chunks; i++ {
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input stream: %w", err)
		}
		for _, s := range buf {
			out = append(out, float32(s)/32768.0)
		}
	}

	return out, nil
}
