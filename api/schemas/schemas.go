// api/schemas/schemas.go
package schemas

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind enumerates the primitive UI operations the model may request.
// The string values are the wire-level `operation` discriminator.
type ActionKind string

const (
	ActionClick ActionKind = "click" // Move the pointer to a screen fraction and click.
	ActionWrite ActionKind = "write" // Type text into the focused input.
	ActionPress ActionKind = "press" // Press a chorded keyboard shortcut.
	ActionDone  ActionKind = "done"  // Declare the objective complete and stop.
)

// Known reports whether the discriminator maps to a supported operation.
func (k ActionKind) Known() bool {
	switch k {
	case ActionClick, ActionWrite, ActionPress, ActionDone:
		return true
	}
	return false
}

// Fraction is a screen coordinate expressed as a proportion of the display's
// width or height. Models occasionally answer with quoted numbers or
// percentage strings ("50%") instead of bare JSON numbers, so unmarshalling
// is tolerant of all three shapes.
type Fraction float64

// UnmarshalJSON accepts a JSON number, a numeric string, or a percentage
// string and normalizes all of them to a [0,1]-scale value.
func (f *Fraction) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid percentage coordinate %q: %w", s, err)
		}
		*f = Fraction(v / 100)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	*f = Fraction(v)
	return nil
}

// Action is one parsed instruction from a model response. The populated
// payload fields depend on Operation; Thought is free-form reasoning carried
// only for logging. Actions are created per response, executed once in order,
// and discarded.
type Action struct {
	Operation ActionKind `json:"operation"`
	Thought   string     `json:"thought,omitempty"`

	// click
	X Fraction `json:"x,omitempty"`
	Y Fraction `json:"y,omitempty"`

	// write
	Content string `json:"content,omitempty"`

	// press
	Keys []string `json:"keys,omitempty"`

	// done
	Summary string `json:"summary,omitempty"`
}

// Validate checks the kind-specific payload requirements.
func (a Action) Validate() error {
	switch a.Operation {
	case ActionClick:
		// Out-of-range fractions are clamped by the executor, not rejected here.
		return nil
	case ActionWrite:
		return nil
	case ActionPress:
		if len(a.Keys) == 0 {
			return fmt.Errorf("press action requires at least one key")
		}
		return nil
	case ActionDone:
		return nil
	default:
		return fmt.Errorf("unknown operation %q", a.Operation)
	}
}

// ChatRole tags a message in the conversation sent to the model backend.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ContentPart is one element of a mixed text/image message body, matching the
// OpenAI-compatible chat completions wire format.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an inline image as a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ChatMessage is a single role-tagged turn in the conversation.
type ChatMessage struct {
	Role    ChatRole      `json:"role"`
	Content []ContentPart `json:"content"`
}

// NewSystemTurn builds a system message from plain instructions.
func NewSystemTurn(instructions string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: []ContentPart{{Type: "text", Text: instructions}},
	}
}

// NewUserTurn builds the user message for one loop iteration: the objective
// text plus the current screenshot inlined as a JPEG data URL. Both the
// client request and the retained conversation history use this exact shape
// so the history always reflects what was actually sent.
func NewUserTurn(objective, imageB64 string) ChatMessage {
	return ChatMessage{
		Role: RoleUser,
		Content: []ContentPart{
			{Type: "text", Text: fmt.Sprintf("Objective: %s. Based on this screenshot, what should I do next?", objective)},
			{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + imageB64}},
		},
	}
}

// NewAssistantTurn records the raw model response verbatim.
func NewAssistantTurn(raw string) ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: []ContentPart{{Type: "text", Text: raw}},
	}
}
