// internal/safety/filter_test.go
package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hackparv/operator-cli/api/schemas"
)

func TestFilter_DeniesDestructivePatterns(t *testing.T) {
	f := NewFilter()

	testCases := []struct {
		name    string
		content string
	}{
		{name: "recursive force delete", content: "rm -rf /"},
		{name: "recursive force delete uppercase", content: "RM -RF /home"},
		{name: "recursive delete with extra spacing", content: "sudo rm   -rf /var"},
		{name: "filesystem format", content: "mkfs.ext4 /dev/sda1"},
		{name: "block device overwrite", content: "cat image.iso > /dev/sda"},
		{name: "direct disk write", content: "dd if=/dev/zero of=/dev/sda"},
		{name: "fork bomb", content: ":(){ :|: &};:"},
		{name: "destructive text embedded in prose", content: "now run rm -rf / to clean up"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			permitted, pattern := f.Permits(schemas.ActionWrite, tc.content)
			assert.False(t, permitted)
			assert.NotEmpty(t, pattern, "denial must name the matched pattern")
		})
	}
}

func TestFilter_PermitsBenignContent(t *testing.T) {
	f := NewFilter()

	for _, content := range []string{
		"hello world",
		"https://example.com/search?q=weather",
		"form feedback: the rm command is dangerous", // mentions rm without the flag
		"mkdir -p /tmp/notes",
		"",
	} {
		permitted, pattern := f.Permits(schemas.ActionWrite, content)
		assert.True(t, permitted, content)
		assert.Empty(t, pattern)
	}
}

// Only write content is filtered; other kinds always pass.
func TestFilter_IgnoresNonWriteActions(t *testing.T) {
	f := NewFilter()

	for _, kind := range []schemas.ActionKind{schemas.ActionClick, schemas.ActionPress, schemas.ActionDone} {
		permitted, _ := f.Permits(kind, "rm -rf /")
		assert.True(t, permitted, string(kind))
	}
}
