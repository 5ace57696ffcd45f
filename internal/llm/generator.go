// Package llm generates Osito's replies through an OpenAI-compatible chat
// backend, locally served by Ollama.
package llm

import (
	"context"
	log "log/slog"
	"time"

	"osito/internal/session"

	openai "github.com/openai/openai-go/v3"
)

// FallbackReply is spoken when the chat backend misbehaves; a turn never
// aborts because of a backend hiccup.
const FallbackReply = "Hola! Que quieres decirme?"

const personaPrompt = `You are Osito, a friendly teddy bear teaching Spanish to 4-year-old children.

STRICT RULES:
- Respond ONLY in simple Spanish (never English)
- Maximum 8 words per response
- End with ONE simple question
- Use vocabulary a 4-year-old understands
- NEVER use emojis
- Remember the child's name and use it

GOOD EXAMPLES:
- "Hola Ana! Te gustan los perros?"
- "Azul! Muy lindo! Te gusta rojo?"
- "Uno, dos, tres! Puedes contar?"
- "Tengo hambre tambien! Te gusta pizza?"

TOPICS: colors, animals, food, numbers 1-5, family.
FORBIDDEN: emojis, long sentences, difficult words, English in responses.`

// Chatter is one chat-completion round trip. Generation parameters live
// behind the implementation; callers only supply messages.
type Chatter interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Generator assembles the persona, the session history and the new user turn
// into one request and recovers locally from any backend failure.
type Generator struct {
	chat    Chatter
	timeout time.Duration
}

func NewGenerator(chat Chatter, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{chat: chat, timeout: timeout}
}

func (g *Generator) Generate(ctx context.Context, userText string, history []session.Turn) string {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	msgs = append(msgs, openai.SystemMessage(personaPrompt))
	for _, t := range history {
		switch t.Role {
		case session.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(userText))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.chat.Complete(ctx, msgs)
	if err != nil {
		log.Error("response generation failed", "err", err)
		return FallbackReply
	}
	return reply
}
