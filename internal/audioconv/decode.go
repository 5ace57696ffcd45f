// Package audioconv decodes recorded audio files into the 16 kHz mono float
// PCM the transcription engine consumes. It backs the file-input debug path,
// which exercises the pipeline without a microphone.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

// TargetRate is the sample rate every decoded clip is brought to.
const TargetRate = 16000

// clip is decoder output before normalization to the target format.
type clip struct {
	samples  []float32 // interleaved when channels > 1
	rate     int
	channels int
}

// DecodeFile reads a wav/mp3/ogg file and returns mono samples at TargetRate.
// maxSamples > 0 truncates the result.
func DecodeFile(path string, maxSamples int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := decode(f, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}

	out := c.samples
	if c.channels > 1 {
		out = downmix(out, c.channels)
	}
	if c.rate != TargetRate {
		out = resample(out, c.rate, TargetRate)
	}
	if maxSamples > 0 && len(out) > maxSamples {
		out = out[:maxSamples]
	}
	return out, nil
}

func decode(f *os.File, ext string) (clip, error) {
	switch ext {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	case ".ogg", ".oga":
		return decodeOgg(f)
	}

	// No usable extension: sniff the container magic.
	br := bufio.NewReader(f)
	magic, _ := br.Peek(4)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return clip{}, err
	}
	switch string(magic) {
	case "RIFF":
		return decodeWAV(f)
	case "OggS":
		return decodeOgg(f)
	}
	return clip{}, fmt.Errorf("unsupported format %q (supported: wav/mp3/ogg)", ext)
}

func decodeWAV(r io.ReadSeeker) (clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return clip{}, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return clip{}, err
	}
	if pb == nil || pb.Data == nil {
		return clip{}, errors.New("empty wav")
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}
	scale := 1.0 / float64(int64(1)<<(bd-1))
	samples := make([]float32, len(pb.Data))
	for i, v := range pb.Data {
		samples[i] = float32(clamp(float64(v)*scale, -1.0, 1.0))
	}

	c := clip{samples: samples, rate: 44100, channels: 1}
	if pb.Format != nil {
		if pb.Format.SampleRate > 0 {
			c.rate = pb.Format.SampleRate
		}
		if pb.Format.NumChannels > 0 {
			c.channels = pb.Format.NumChannels
		}
	}
	return c, nil
}

func decodeMP3(r io.Reader) (clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return clip{}, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return clip{}, err
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return clip{}, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always emits interleaved stereo
	return clip{samples: int16ToFloat32(ints), rate: rate, channels: 2}, nil
}

func decodeOgg(f *os.File) (clip, error) {
	c, verr := decodeVorbis(f)
	if verr == nil {
		return c, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return clip{}, err
	}
	c, oerr := decodeOpus(f)
	if oerr == nil {
		return c, nil
	}
	return clip{}, fmt.Errorf("cannot decode ogg as vorbis (%v) or opus (%v)", verr, oerr)
}

func decodeVorbis(r io.Reader) (clip, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return clip{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return clip{}, errors.New("invalid ogg/vorbis stream")
	}
	return clip{samples: pcm, rate: format.SampleRate, channels: format.Channels}, nil
}

func decodeOpus(rs io.ReadSeeker) (clip, error) {
	dec, err := popus.NewDecoder(rs)
	if err != nil {
		return clip{}, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	// opus always decodes at 48 kHz
	var samples []float32
	buf := make([]int16, 48000*ch/2)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			samples = append(samples, int16ToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return clip{}, err
		}
	}
	if len(samples) == 0 {
		return clip{}, errors.New("empty opus stream")
	}
	return clip{samples: samples, rate: 48000, channels: ch}, nil
}

func int16ToFloat32(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v) / 32768.0
	}
	return out
}

func downmix(in []float32, channels int) []float32 {
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resample(in []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(in) == 0 {
		return in
	}
	ratio := float64(outRate) / float64(inRate)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(src - float64(i0))
		out[i] = in[i0]*(1-frac) + in[i0+1]*frac
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
