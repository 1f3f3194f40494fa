// -- cmd/operate_test.go --
package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackparv/operator-cli/internal/config"
)

func TestApplyModelSpec(t *testing.T) {
	tests := []struct {
		name         string
		spec         string
		wantProvider config.Provider
		wantModel    string
		wantErr      bool
	}{
		{name: "plain name keeps provider", spec: "gpt-4o-mini", wantProvider: config.ProviderOpenAI, wantModel: "gpt-4o-mini"},
		{name: "bare ollama switches provider", spec: "ollama", wantProvider: config.ProviderOllama, wantModel: "bakllava"},
		{name: "ollama prefix with tag", spec: "ollama:llava:7b", wantProvider: config.ProviderOllama, wantModel: "llava:7b"},
		{name: "empty name after prefix", spec: "ollama:", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mc := config.ModelConfig{
				Provider:           config.ProviderOpenAI,
				Model:              "gpt-4o",
				DefaultOllamaModel: "bakllava",
			}
			err := applyModelSpec(&mc, tc.spec)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantProvider, mc.Provider)
			assert.Equal(t, tc.wantModel, mc.Model)
		})
	}
}

func TestPromptForObjective(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("  open the browser  \n"))
	out := &strings.Builder{}
	cmd.SetOut(out)

	objective, err := promptForObjective(cmd)

	require.NoError(t, err)
	assert.Equal(t, "open the browser", objective)
	assert.Contains(t, out.String(), "What would you like the operator to do?")
}

func TestPromptForObjective_EmptyInput(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&strings.Builder{})

	objective, err := promptForObjective(cmd)

	require.NoError(t, err)
	assert.Empty(t, objective)
}
