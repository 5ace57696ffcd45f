package osito

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"osito/internal/listen"
	"osito/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pcm   []float32
	err   error
	calls int
}

func (f *fakeSource) Record() ([]float32, error) {
	f.calls++
	return f.pcm, f.err
}

type fakeTranscriber struct {
	outcomes []listen.Outcome
	calls    int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, pcm []float32) listen.Outcome {
	out := f.outcomes[f.calls%len(f.outcomes)]
	f.calls++
	return out
}

type fakeGenerator struct {
	reply      string
	gotText    string
	gotHistory []session.Turn
	calls      int
}

func (f *fakeGenerator) Generate(ctx context.Context, userText string, history []session.Turn) string {
	f.calls++
	f.gotText = userText
	f.gotHistory = history
	return f.reply
}

type fakeSpeaker struct {
	spoken []string
}

func (f *fakeSpeaker) Say(text string) {
	f.spoken = append(f.spoken, text)
}

func newTestAssistant(input string, src Source, stt Transcriber, gen Generator) (*Assistant, *fakeSpeaker, *bytes.Buffer) {
	spk := &fakeSpeaker{}
	var out bytes.Buffer
	a := New(src, stt, gen, spk, 4, WithIO(strings.NewReader(input), &out))
	return a, spk, &out
}

func TestExitCommandSkipsCapture(t *testing.T) {
	src := &fakeSource{}
	stt := &fakeTranscriber{outcomes: []listen.Outcome{{}}}
	gen := &fakeGenerator{}
	a, spk, _ := newTestAssistant("salir\n", src, stt, gen)

	err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, src.calls, "capture must not run on exit")
	assert.Equal(t, StateExiting, a.State())
	require.Len(t, spk.spoken, 2)
	assert.Equal(t, "Hola! Soy Osito, tu amigo! Como te llamas?", spk.spoken[0])
	assert.Equal(t, "Adios amigo! Hasta pronto!", spk.spoken[1])
}

func TestExitCommandCaseInsensitive(t *testing.T) {
	src := &fakeSource{}
	a, _, _ := newTestAssistant("  SALIR \n", src, &fakeTranscriber{outcomes: []listen.Outcome{{}}}, &fakeGenerator{})

	require.NoError(t, a.Run(context.Background()))
	assert.Zero(t, src.calls)
}

func TestSuccessfulTurnAppendsPairAndSpeaksReply(t *testing.T) {
	src := &fakeSource{pcm: []float32{0.1}}
	stt := &fakeTranscriber{outcomes: []listen.Outcome{{Text: "Hola, me llamo Ana", Language: "es"}}}
	gen := &fakeGenerator{reply: "**Osito:** Hola Ana! 😊 Te gusta el azul?"}
	a, spk, out := newTestAssistant("\nsalir\n", src, stt, gen)

	require.NoError(t, a.Run(context.Background()))

	// generator saw the transcript and the pre-turn (empty) history
	assert.Equal(t, "Hola, me llamo Ana", gen.gotText)
	assert.Empty(t, gen.gotHistory)

	// greeting, sanitized reply, farewell
	require.Len(t, spk.spoken, 3)
	assert.Equal(t, "Hola Ana! Te gusta el azul?", spk.spoken[1])

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, session.Turn{Role: session.RoleUser, Content: "Hola, me llamo Ana"}, history[0])
	assert.Equal(t, session.Turn{Role: session.RoleAssistant, Content: "Hola Ana! Te gusta el azul?"}, history[1])

	assert.Contains(t, out.String(), `Tu: "Hola, me llamo Ana"`)
	assert.Contains(t, out.String(), "Osito: Hola Ana! Te gusta el azul?")
}

func TestUnsupportedLanguageLeavesHistoryUntouched(t *testing.T) {
	stt := &fakeTranscriber{outcomes: []listen.Outcome{{Reject: listen.RejectUnsupportedLanguage}}}
	gen := &fakeGenerator{reply: "should not be called"}
	a, spk, _ := newTestAssistant("\nsalir\n", &fakeSource{pcm: []float32{0.1}}, stt, gen)

	require.NoError(t, a.Run(context.Background()))

	assert.Zero(t, gen.calls)
	assert.Empty(t, a.History())
	require.Len(t, spk.spoken, 3)
	assert.Equal(t, "Hmm, solo entiendo espanol e ingles. Try again!", spk.spoken[1])
}

func TestNoSpeechAndErrorShareFallback(t *testing.T) {
	for _, reject := range []listen.RejectReason{listen.RejectNoSpeech, listen.RejectError} {
		stt := &fakeTranscriber{outcomes: []listen.Outcome{{Reject: reject}}}
		a, spk, _ := newTestAssistant("\nsalir\n", &fakeSource{pcm: []float32{0.1}}, stt, &fakeGenerator{})

		require.NoError(t, a.Run(context.Background()))

		assert.Empty(t, a.History())
		require.Len(t, spk.spoken, 3)
		assert.Equal(t, "No te escuche bien. Can you say that again?", spk.spoken[1])
	}
}

func TestDeviceFailureAbortsTurnWithoutCrash(t *testing.T) {
	src := &fakeSource{err: errors.New("device unavailable")}
	stt := &fakeTranscriber{outcomes: []listen.Outcome{{}}}
	a, spk, _ := newTestAssistant("\nsalir\n", src, stt, &fakeGenerator{})

	require.NoError(t, a.Run(context.Background()))

	assert.Zero(t, stt.calls, "transcription must not run on capture failure")
	assert.Empty(t, a.History())
	require.Len(t, spk.spoken, 3)
	assert.Equal(t, "No te puedo escuchar ahora mismo.", spk.spoken[1])
}

func TestHistoryGrowsAcrossTurnsAndStaysBounded(t *testing.T) {
	stt := &fakeTranscriber{outcomes: []listen.Outcome{{Text: "hola otra vez", Language: "es"}}}
	gen := &fakeGenerator{reply: "Que lindo! Te gusta rojo?"}

	turns := strings.Repeat("\n", 10) + "salir\n"
	a, _, _ := newTestAssistant(turns, &fakeSource{pcm: []float32{0.1}}, stt, gen)

	require.NoError(t, a.Run(context.Background()))

	history := a.History()
	assert.Len(t, history, 8)
	// last generator call saw a full, already-trimmed history
	assert.Len(t, gen.gotHistory, 8)
}

func TestGreetingNotInHistory(t *testing.T) {
	a, spk, _ := newTestAssistant("salir\n", &fakeSource{}, &fakeTranscriber{outcomes: []listen.Outcome{{}}}, &fakeGenerator{})

	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, a.History())
	assert.Equal(t, "Hola! Soy Osito, tu amigo! Como te llamas?", spk.spoken[0])
}

func TestChimeRunsBeforeCapture(t *testing.T) {
	var order []string
	src := &fakeSource{pcm: []float32{0.1}}
	chime := func() { order = append(order, "chime") }

	stt := &fakeTranscriber{outcomes: []listen.Outcome{{Reject: listen.RejectNoSpeech}}}
	spk := &fakeSpeaker{}
	var out bytes.Buffer
	a := New(srcWrap{src, func() { order = append(order, "record") }}, stt, &fakeGenerator{}, spk, 4,
		WithIO(strings.NewReader("\nsalir\n"), &out), WithChime(chime))

	require.NoError(t, a.Run(context.Background()))
	require.Len(t, order, 2)
	assert.Equal(t, []string{"chime", "record"}, order)
}

type srcWrap struct {
	inner *fakeSource
	hook  func()
}

func (s srcWrap) Record() ([]float32, error) {
	s.hook()
	return s.inner.Record()
}
