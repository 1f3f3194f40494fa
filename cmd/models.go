// -- cmd/models.go --
package cmd

import (
	"fmt"
	"io/fs"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hackparv/operator-cli/internal/llmclient"
	"github.com/hackparv/operator-cli/internal/observability"
)

var modelsSetDefault string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List locally available Ollama models",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		registry := llmclient.NewOllamaRegistry(appConfig.Model.OllamaHost, logger)

		if modelsSetDefault != "" {
			return setDefaultModel(cmd, registry, modelsSetDefault)
		}

		models, err := registry.ListModels(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(models) == 0 {
			fmt.Fprintln(out, "No Ollama models found. To install one, try:")
			fmt.Fprintln(out, "  ollama pull llava")
			fmt.Fprintln(out, "  ollama pull llava:7b")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED\tFAMILY")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.SizeHuman(), m.ModifiedAt.Format("2006-01-02 15:04"), m.Family)
		}
		return w.Flush()
	},
}

// setDefaultModel validates the model exists locally, then persists it as the
// default target of the bare "ollama" model spec.
func setDefaultModel(cmd *cobra.Command, registry *llmclient.OllamaRegistry, name string) error {
	found, err := registry.HasModel(cmd.Context(), name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("model %q is not installed locally (see 'operator-cli models')", name)
	}

	target := cfgFile
	if target == "" {
		target = "operator.yaml"
	}

	v := viper.New()
	v.SetConfigFile(target)
	// Preserve whatever else is already in the file.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*fs.PathError); !ok {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return fmt.Errorf("failed to read existing config: %w", err)
			}
		}
	}
	v.Set("model.default_ollama_model", name)
	if err := v.WriteConfigAs(target); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default Ollama model set to: %s\n", name)
	return nil
}

func init() {
	modelsCmd.Flags().StringVar(&modelsSetDefault, "set-default", "", "validate and persist the default Ollama model")
	rootCmd.AddCommand(modelsCmd)
}
