package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"osito/internal/session"

	openai "github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatter struct {
	reply string
	err   error
	got   []openai.ChatCompletionMessageParamUnion
}

func (f *fakeChatter) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	f.got = messages
	return f.reply, f.err
}

func TestGenerateAssemblesPersonaHistoryAndUserTurn(t *testing.T) {
	chat := &fakeChatter{reply: "Hola Ana! Te gusta el azul?"}
	g := NewGenerator(chat, time.Second)

	history := []session.Turn{
		{Role: session.RoleUser, Content: "Hola, me llamo Ana"},
		{Role: session.RoleAssistant, Content: "Hola Ana! Te gustan los perros?"},
	}

	got := g.Generate(context.Background(), "Me gusta el azul", history)
	assert.Equal(t, "Hola Ana! Te gusta el azul?", got)

	require.Len(t, chat.got, 4)
	assert.NotNil(t, chat.got[0].OfSystem)
	assert.NotNil(t, chat.got[1].OfUser)
	assert.NotNil(t, chat.got[2].OfAssistant)
	assert.NotNil(t, chat.got[3].OfUser)
}

func TestGenerateWithEmptyHistory(t *testing.T) {
	chat := &fakeChatter{reply: "Hola! Como te llamas?"}
	g := NewGenerator(chat, time.Second)

	got := g.Generate(context.Background(), "Hola, me llamo Ana", nil)
	assert.Equal(t, "Hola! Como te llamas?", got)

	require.Len(t, chat.got, 2)
	assert.NotNil(t, chat.got[0].OfSystem)
	assert.NotNil(t, chat.got[1].OfUser)
}

func TestGenerateRecoversWithFallback(t *testing.T) {
	chat := &fakeChatter{err: errors.New("backend unreachable")}
	g := NewGenerator(chat, time.Second)

	got := g.Generate(context.Background(), "Hola", nil)
	assert.Equal(t, FallbackReply, got)
}
