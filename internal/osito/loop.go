// Package osito sequences the conversational turn pipeline: capture,
// language-gated transcription, response generation, sanitization and speech
// playback, with the bounded conversation memory in between.
package osito

import (
	"bufio"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"
	"time"

	"osito/internal/listen"
	"osito/internal/sanitize"
	"osito/internal/session"
)

// Source yields one utterance per call: the microphone, or a decoded file on
// the debug path.
type Source interface {
	Record() ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) listen.Outcome
}

type Generator interface {
	Generate(ctx context.Context, userText string, history []session.Turn) string
}

// Speaker voices a reply. Implementations handle their own fallback; a turn
// never fails because speech output did.
type Speaker interface {
	Say(text string)
}

// Fixed utterances. The greeting and farewell are not model-authored, so they
// never enter the history.
const (
	greeting      = "Hola! Soy Osito, tu amigo! Como te llamas?"
	farewell      = "Adios amigo! Hasta pronto!"
	msgUnheard    = "No te escuche bien. Can you say that again?"
	msgBadLang    = "Hmm, solo entiendo espanol e ingles. Try again!"
	msgMicTrouble = "No te puedo escuchar ahora mismo."

	exitCommand = "salir"
)

// State of the turn machine, logged for observability only.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateCapturing
	StateTranscribing
	StateGenerating
	StateSanitizing
	StateSpeaking
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateCapturing:
		return "capturing"
	case StateTranscribing:
		return "transcribing"
	case StateGenerating:
		return "generating"
	case StateSanitizing:
		return "sanitizing"
	case StateSpeaking:
		return "speaking"
	case StateExiting:
		return "exiting"
	}
	return "unknown"
}

// Latency holds the per-stage timings of one completed turn. Capture is not
// measured; it is a fixed window.
type Latency struct {
	Transcribe time.Duration
	Generate   time.Duration
	Speak      time.Duration
	Total      time.Duration
}

// Assistant owns the session history and drives the turn pipeline.
type Assistant struct {
	src     Source
	stt     Transcriber
	gen     Generator
	tts     Speaker
	history *session.History

	in    io.Reader
	out   io.Writer
	chime func()

	state         State
	recordSeconds int
}

type Option func(*Assistant)

// WithIO redirects the prompt/transcript console, mainly for tests.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *Assistant) {
		a.in = in
		a.out = out
	}
}

// WithChime plays a cue right before each capture.
func WithChime(fn func()) Option {
	return func(a *Assistant) { a.chime = fn }
}

func WithRecordSeconds(s int) Option {
	return func(a *Assistant) { a.recordSeconds = s }
}

func New(src Source, stt Transcriber, gen Generator, tts Speaker, maxHistoryTurns int, opts ...Option) *Assistant {
	a := &Assistant{
		src:           src,
		stt:           stt,
		gen:           gen,
		tts:           tts,
		history:       session.NewHistory(maxHistoryTurns),
		in:            os.Stdin,
		out:           os.Stdout,
		state:         StateIdle,
		recordSeconds: 6,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assistant) setState(s State) {
	a.state = s
	log.Debug("state", "state", s)
}

// say prints and voices a fixed or sanitized utterance.
func (a *Assistant) say(text string) {
	fmt.Fprintf(a.out, "Osito: %s\n", text)
	a.tts.Say(text)
}

func (a *Assistant) printHeader() {
	line := strings.Repeat("=", 50)
	fmt.Fprintf(a.out, "\n%s\n", line)
	fmt.Fprintln(a.out, "      OSITO - Tu Amigo en Espanol")
	fmt.Fprintln(a.out, line)
	fmt.Fprintln(a.out, "\n  Habla en espanol o ingles.")
	fmt.Fprintln(a.out, "  Osito siempre responde en espanol.")
	fmt.Fprintln(a.out, "\n  [Enter] = Hablar")
	fmt.Fprintf(a.out, "  [%s] = Terminar\n\n%s\n", exitCommand, line)
}

// Run speaks the greeting and cycles turns until the exit command or EOF on
// the command input.
func (a *Assistant) Run(ctx context.Context) error {
	a.printHeader()
	a.say(greeting)

	sc := bufio.NewScanner(a.in)
	for {
		a.setState(StateAwaitingInput)
		fmt.Fprint(a.out, "Presiona Enter para hablar: ")

		if !sc.Scan() {
			a.setState(StateExiting)
			return sc.Err()
		}

		// The exit check reads a typed command, never transcribed speech,
		// and happens before any capture.
		if strings.EqualFold(strings.TrimSpace(sc.Text()), exitCommand) {
			a.say(farewell)
			a.setState(StateExiting)
			return nil
		}

		a.runTurn(ctx)
	}
}

// runTurn drives one conversational cycle. Every failure short-circuits into
// a spoken fallback without touching the history.
func (a *Assistant) runTurn(ctx context.Context) {
	a.setState(StateCapturing)
	if a.chime != nil {
		a.chime()
	}
	fmt.Fprintf(a.out, "\nEscuchando... (%d segundos)\n", a.recordSeconds)

	pcm, err := a.src.Record()
	if err != nil {
		log.Error("audio capture failed", "err", err)
		a.say(msgMicTrouble)
		return
	}

	var lat Latency
	turnStart := time.Now()

	fmt.Fprintln(a.out, "Procesando...")
	a.setState(StateTranscribing)
	sttStart := time.Now()
	out := a.stt.Transcribe(ctx, pcm)
	lat.Transcribe = time.Since(sttStart)

	switch out.Reject {
	case listen.RejectUnsupportedLanguage:
		a.say(msgBadLang)
		return
	case listen.RejectNoSpeech, listen.RejectError:
		a.say(msgUnheard)
		return
	}

	fmt.Fprintf(a.out, "Tu: %q\n", out.Text)

	a.setState(StateGenerating)
	genStart := time.Now()
	raw := a.gen.Generate(ctx, out.Text, a.history.Context())
	lat.Generate = time.Since(genStart)

	a.setState(StateSanitizing)
	reply := sanitize.Clean(raw)

	a.setState(StateSpeaking)
	speakStart := time.Now()
	a.say(reply)
	lat.Speak = time.Since(speakStart)
	lat.Total = time.Since(turnStart)

	log.Info("turn complete",
		"stt", lat.Transcribe.Round(time.Millisecond),
		"llm", lat.Generate.Round(time.Millisecond),
		"tts", lat.Speak.Round(time.Millisecond),
		"total", lat.Total.Round(time.Millisecond),
	)

	a.history.Append(session.Turn{Role: session.RoleUser, Content: out.Text})
	a.history.Append(session.Turn{Role: session.RoleAssistant, Content: reply})
	a.history.Trim()
}

// History exposes the session for inspection in tests.
func (a *Assistant) History() []session.Turn { return a.history.Context() }

// State reports where the turn machine currently is.
func (a *Assistant) State() State { return a.state }
