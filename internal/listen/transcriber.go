// Package listen turns a captured utterance into text, admitting only the
// two languages the assistant understands.
package listen

import (
	"context"
	log "log/slog"
	"strings"
	"unicode/utf8"
)

// Backend is the transcription capability: it detects the spoken language of
// a 16 kHz mono utterance and, given a language, produces a transcript.
type Backend interface {
	DetectLanguage(ctx context.Context, pcm []float32) (string, error)
	Transcribe(ctx context.Context, pcm []float32, lang, prompt string) (string, error)
}

// RejectReason says why a capture attempt produced no usable text.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectUnsupportedLanguage
	RejectNoSpeech
	RejectError
)

// Outcome is the result of one capture attempt. Either Text and Language are
// set, or Reject says why they are not.
type Outcome struct {
	Text     string
	Language string
	Reject   RejectReason
}

func (o Outcome) Recognized() bool { return o.Reject == RejectNone }

const (
	// transcripts shorter than this are noise
	minTranscriptLen = 2
	// hallucination matches longer than this are assumed legitimate speech
	hallucinationMaxLen = 40
)

// Decoder priming phrases per admitted language.
var primingPhrases = map[string]string{
	"es": "Hola, como estas?",
	"en": "Hello, how are you?",
}

// Boilerplate whisper emits on silence or noise, matched case-insensitively.
var hallucinations = []string{
	"Gracias por ver",
	"Suscribete",
	"subtitulos",
	"MBC",
	"Thank you for watching",
	"Subscribe",
}

// Transcriber gates transcription on the detected language and filters
// transcripts that are too short or known hallucinations.
type Transcriber struct {
	backend Backend
}

func NewTranscriber(b Backend) *Transcriber {
	return &Transcriber{backend: b}
}

// Transcribe runs detection, the admission gate and the transcript filters.
// It never returns an error: backend failures map to RejectError.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []float32) Outcome {
	lang, err := t.backend.DetectLanguage(ctx, pcm)
	if err != nil {
		log.Error("language detection failed", "err", err)
		return Outcome{Reject: RejectError}
	}

	prompt, ok := primingPhrases[lang]
	if !ok {
		log.Info("rejected utterance", "language", lang)
		return Outcome{Reject: RejectUnsupportedLanguage}
	}

	text, err := t.backend.Transcribe(ctx, pcm, lang, prompt)
	if err != nil {
		log.Error("transcription failed", "lang", lang, "err", err)
		return Outcome{Reject: RejectError}
	}

	text = strings.TrimSpace(text)

	// Both bounds count runes; accented Spanish must measure the same as
	// its unaccented spelling.
	if utf8.RuneCountInString(text) < hallucinationMaxLen {
		lower := strings.ToLower(text)
		for _, h := range hallucinations {
			if strings.Contains(lower, strings.ToLower(h)) {
				log.Debug("filtered hallucination", "text", text)
				return Outcome{Reject: RejectNoSpeech}
			}
		}
	}

	if utf8.RuneCountInString(text) < minTranscriptLen {
		return Outcome{Reject: RejectNoSpeech}
	}

	return Outcome{Text: text, Language: lang}
}
