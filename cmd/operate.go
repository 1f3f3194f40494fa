// -- cmd/operate.go --
package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hackparv/operator-cli/internal/agent"
	"github.com/hackparv/operator-cli/internal/config"
	"github.com/hackparv/operator-cli/internal/humanoid"
	"github.com/hackparv/operator-cli/internal/llmclient"
	"github.com/hackparv/operator-cli/internal/observability"
	"github.com/hackparv/operator-cli/internal/safety"
	"github.com/hackparv/operator-cli/internal/screen"
)

var (
	operateObjective     string
	operateModel         string
	operateMaxIterations int
)

var operateCmd = &cobra.Command{
	Use:   "operate",
	Short: "Pursue a natural-language objective by controlling mouse and keyboard",
	Long: `Captures the screen, asks the configured vision model for the next UI
actions, and executes them in a loop until the model declares the objective
complete. Typed text passes through a best-effort denylist of destructive
shell patterns before being emitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		objective := strings.TrimSpace(operateObjective)
		if objective == "" {
			var err error
			objective, err = promptForObjective(cmd)
			if err != nil {
				return err
			}
		}
		if objective == "" {
			return fmt.Errorf("an objective is required (use --prompt or enter one interactively)")
		}

		cfg := *appConfig
		if operateModel != "" {
			if err := applyModelSpec(&cfg.Model, operateModel); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("max-iterations") {
			cfg.Agent.MaxIterations = operateMaxIterations
		}

		logger := observability.GetLogger()

		client, err := llmclient.NewClient(cfg.Model, logger)
		if err != nil {
			return err
		}

		fs := afero.NewOsFs()
		capturer := screen.NewDisplayCapturer(fs, cfg.Screen.Dir, logger)
		encoder := screen.NewEncoder(fs, cfg.Screen, logger)
		executor := humanoid.NewExecutor(humanoid.NewRobotDriver(), safety.NewFilter(), cfg.Executor, logger)

		operator := agent.NewOperator(
			logger,
			cfg.Agent,
			cfg.Model,
			client,
			capturer,
			encoder,
			executor,
			agent.NewNarrator(cmd.OutOrStdout()),
		)

		_, err = operator.Run(cmd.Context(), objective)
		return err
	},
}

// applyModelSpec resolves a --model override onto the run's model config.
// Specs with an ollama prefix (or the bare word "ollama") also switch the
// provider so a hosted-API default config still reaches the local daemon.
func applyModelSpec(mc *config.ModelConfig, spec string) error {
	if spec == "ollama" || strings.HasPrefix(spec, "ollama:") {
		name, err := llmclient.ResolveModelSpec(spec, mc.DefaultOllamaModel)
		if err != nil {
			return err
		}
		mc.Provider = config.ProviderOllama
		mc.Model = name
		return nil
	}
	mc.Model = spec
	return nil
}

// promptForObjective asks on stdin when no --prompt flag was given.
func promptForObjective(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "What would you like the operator to do? ")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read objective: %w", err)
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func init() {
	operateCmd.Flags().StringVarP(&operateObjective, "prompt", "p", "", "the objective to pursue (prompted interactively when omitted)")
	operateCmd.Flags().StringVarP(&operateModel, "model", "m", "", "model override (e.g. gpt-4o, ollama, ollama:llava:7b)")
	operateCmd.Flags().IntVar(&operateMaxIterations, "max-iterations", 0, "cap on model calls for this run (overrides config; 0 keeps the configured cap)")
	rootCmd.AddCommand(operateCmd)
}
