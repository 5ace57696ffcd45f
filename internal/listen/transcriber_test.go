package listen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	lang       string
	detectErr  error
	transcript string
	transErr   error

	transcribeCalls int
	gotLang         string
	gotPrompt       string
}

func (f *fakeBackend) DetectLanguage(ctx context.Context, pcm []float32) (string, error) {
	return f.lang, f.detectErr
}

func (f *fakeBackend) Transcribe(ctx context.Context, pcm []float32, lang, prompt string) (string, error) {
	f.transcribeCalls++
	f.gotLang = lang
	f.gotPrompt = prompt
	return f.transcript, f.transErr
}

func TestUnsupportedLanguagesNeverTranscribed(t *testing.T) {
	for _, lang := range []string{"fr", "de", "ru", "ja", "pt", ""} {
		b := &fakeBackend{lang: lang, transcript: "should not matter"}
		out := NewTranscriber(b).Transcribe(context.Background(), []float32{0})

		assert.Equal(t, RejectUnsupportedLanguage, out.Reject, "lang %q", lang)
		assert.False(t, out.Recognized())
		assert.Zero(t, b.transcribeCalls, "lang %q must not reach transcription", lang)
	}
}

func TestAdmittedLanguagesUsePrimingPhrase(t *testing.T) {
	cases := map[string]string{
		"es": "Hola, como estas?",
		"en": "Hello, how are you?",
	}

	for lang, prompt := range cases {
		b := &fakeBackend{lang: lang, transcript: "Hola, me llamo Ana"}
		out := NewTranscriber(b).Transcribe(context.Background(), []float32{0})

		assert.True(t, out.Recognized())
		assert.Equal(t, "Hola, me llamo Ana", out.Text)
		assert.Equal(t, lang, out.Language)
		assert.Equal(t, lang, b.gotLang)
		assert.Equal(t, prompt, b.gotPrompt)
	}
}

func TestShortHallucinationRejected(t *testing.T) {
	for _, text := range []string{
		"Gracias por ver",
		"gracias por ver!",
		"Subscribe",
		"Thank you for watching",
		"  subtitulos por la comunidad ",
	} {
		b := &fakeBackend{lang: "es", transcript: text}
		out := NewTranscriber(b).Transcribe(context.Background(), []float32{0})
		assert.Equal(t, RejectNoSpeech, out.Reject, "text %q", text)
	}
}

func TestLongTextContainingHallucinationKept(t *testing.T) {
	text := "Me gusta decir gracias por ver a mis amigos cuando jugamos juntos"
	b := &fakeBackend{lang: "es", transcript: text}
	out := NewTranscriber(b).Transcribe(context.Background(), []float32{0})

	assert.True(t, out.Recognized())
	assert.Equal(t, text, out.Text)
}

func TestEmptyOrTooShortTranscriptRejected(t *testing.T) {
	// "ñ" is two bytes but a single character; still too short
	for _, text := range []string{"", " ", "a", "ñ", "\t\n"} {
		b := &fakeBackend{lang: "en", transcript: text}
		out := NewTranscriber(b).Transcribe(context.Background(), []float32{0})
		assert.Equal(t, RejectNoSpeech, out.Reject, "text %q", text)
	}
}

func TestHallucinationBoundCountsRunesNotBytes(t *testing.T) {
	// 36 characters but over 40 bytes; the filter must still apply
	text := "Gracias por ver, qué será será ñññññ"
	b := &fakeBackend{lang: "es", transcript: text}
	out := NewTranscriber(b).Transcribe(context.Background(), []float32{0})

	assert.Equal(t, RejectNoSpeech, out.Reject)
}

func TestBackendErrorsMapToRejectError(t *testing.T) {
	detect := &fakeBackend{detectErr: errors.New("mel failed")}
	assert.Equal(t, RejectError, NewTranscriber(detect).Transcribe(context.Background(), nil).Reject)

	trans := &fakeBackend{lang: "es", transErr: errors.New("decode failed")}
	assert.Equal(t, RejectError, NewTranscriber(trans).Transcribe(context.Background(), nil).Reject)
}

func TestTranscriptTrimmed(t *testing.T) {
	b := &fakeBackend{lang: "es", transcript: "  Hola Osito  "}
	out := NewTranscriber(b).Transcribe(context.Background(), []float32{0})

	assert.True(t, out.Recognized())
	assert.Equal(t, "Hola Osito", out.Text)
}
