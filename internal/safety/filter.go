// internal/safety/filter.go

// Package safety implements a best-effort denylist over text the executor is
// about to type. It is a blocklist, not a sandbox: it catches the obvious
// destructive shell idioms and nothing more.
package safety

import (
	"regexp"

	"github.com/hackparv/operator-cli/api/schemas"
)

// destructivePatterns are matched case-insensitively against write content.
var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)rm\s+-rf`),                              // recursive force delete
	regexp.MustCompile(`(?i)mkfs`),                                  // filesystem format
	regexp.MustCompile(`(?i)>\s*/dev/sd`),                           // raw block device overwrite
	regexp.MustCompile(`(?i)dd\s+if=`),                              // direct disk write
	regexp.MustCompile(`(?i):\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\};\s*:`), // fork bomb
}

// Filter validates outbound actions before the executor emits them.
type Filter struct{}

// NewFilter returns the action safety filter.
func NewFilter() *Filter { return &Filter{} }

// Permits reports whether the given action may be executed. For write actions
// the content is checked against the destructive pattern denylist; a deny
// returns the offending pattern so the caller can surface it in a warning.
// All other action kinds pass unconditionally; coordinate and key bounds are
// the executor's concern.
func (f *Filter) Permits(kind schemas.ActionKind, content string) (bool, string) {
	if kind != schemas.ActionWrite || content == "" {
		return true, ""
	}
	for _, p := range destructivePatterns {
		if p.MatchString(content) {
			return false, p.String()
		}
	}
	return true, ""
}
