// internal/agent/conversation.go
package agent

import (
	"github.com/hackparv/operator-cli/api/schemas"
)

// Conversation is the append-only, ordered log of prior exchanges for one
// run. Insertion order is chronological order; turns are never reordered,
// deduplicated, or mutated after the fact. The state is owned solely by the
// Operator and discarded when the run ends.
type Conversation struct {
	turns []schemas.ChatMessage
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// SeedSystem installs the system instructions as the first turn. It is a
// no-op if the conversation already has any turns; the system prompt exists
// at most once and is never resent as a duplicate role.
func (c *Conversation) SeedSystem(instructions string) {
	if len(c.turns) > 0 {
		return
	}
	c.turns = append(c.turns, schemas.NewSystemTurn(instructions))
}

// AppendUser records the user turn exactly as it was sent to the backend:
// objective text plus the encoded screenshot reference. The raw capture is
// not retained, only this encoded form.
func (c *Conversation) AppendUser(objective, imageB64 string) {
	c.turns = append(c.turns, schemas.NewUserTurn(objective, imageB64))
}

// AppendAssistant records the raw response text, parsed or not.
func (c *Conversation) AppendAssistant(raw string) {
	c.turns = append(c.turns, schemas.NewAssistantTurn(raw))
}

// History returns the prior turns to thread into the next model call,
// excluding the leading system turn: the invocation client merges the system
// instruction itself, exactly once per request.
func (c *Conversation) History() []schemas.ChatMessage {
	turns := c.turns
	if len(turns) > 0 && turns[0].Role == schemas.RoleSystem {
		turns = turns[1:]
	}
	out := make([]schemas.ChatMessage, len(turns))
	copy(out, turns)
	return out
}

// Turns returns a copy of the full log, system turn included.
func (c *Conversation) Turns() []schemas.ChatMessage {
	out := make([]schemas.ChatMessage, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len reports the number of turns recorded so far.
func (c *Conversation) Len() int { return len(c.turns) }
