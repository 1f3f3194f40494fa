// internal/agent/style.go
package agent

import (
	"io"
	"os"

	"github.com/fatih/color"
)

// Narrator prints the operator-facing run narration: the objective banner,
// per-action thoughts, safety warnings, and the final summary. It is separate
// from the structured logger so the console story stays readable even with
// logging routed to a file.
type Narrator struct {
	out io.Writer

	banner  *color.Color
	thought *color.Color
	warning *color.Color
	success *color.Color
	failure *color.Color
}

// NewNarrator writes narration to w; pass nil for stdout.
func NewNarrator(w io.Writer) *Narrator {
	if w == nil {
		w = os.Stdout
	}
	return &Narrator{
		out:     w,
		banner:  color.New(color.FgHiMagenta, color.Bold),
		thought: color.New(color.FgCyan),
		warning: color.New(color.FgRed, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
}

func (n *Narrator) Objective(objective string) {
	n.banner.Fprintf(n.out, "[operator] Objective: %s\n", objective)
}

func (n *Narrator) Thought(operation, thought string) {
	if thought == "" {
		return
	}
	n.thought.Fprintf(n.out, "  [%s] %s\n", operation, thought)
}

func (n *Narrator) Blocked(pattern string) {
	n.warning.Fprintf(n.out, "[Security Block] Prevented execution of dangerous pattern: %s\n", pattern)
}

func (n *Narrator) ActionFailed(operation string, err error) {
	n.failure.Fprintf(n.out, "  [%s] action failed: %v\n", operation, err)
}

func (n *Narrator) Done(summary string) {
	n.success.Fprintf(n.out, "[operator] Done: %s\n", summary)
}

func (n *Narrator) Aborted(err error) {
	n.failure.Fprintf(n.out, "[operator] Aborted: %v\n", err)
}
