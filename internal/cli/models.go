package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Advisory provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "ollama",
		Models: []string{
			"deepseek-r1:1.5b",
			"deepseek-coder-v2",
			"qwen2.5-coder",
			"codellama",
			"llama3.2",
		},
	},
	{
		Provider: "openai",
		Models: []string{
			"gpt-4.1-mini",
			"gpt-4.1",
			"o3-mini",
		},
	},
	{
		Provider: "lmstudio",
		Models: []string{
			"local-model",
		},
	},
	{
		Provider: "anthropic",
		Models: []string{
			"claude-haiku-4-5",
			"claude-sonnet-4-5",
		},
	},
	{
		Provider: "gemini",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(out, "%s:\n", info.Provider)
			for _, m := range info.Models {
				marker := ""
				if providers.DefaultModels[info.Provider] == m {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  - %s%s\n", m, marker)
			}
			fmt.Fprintln(out)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the advisory provider is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s...\n", cfg.Provider)

		p, err := providers.New(cfg.Provider, providers.Options{
			Model:    cfg.Model,
			Endpoint: cfg.Endpoint,
			Logger:   newLogger(cfg),
		})
		if err != nil {
			fail(ExitAuthError, "%v", err)
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Advise(ctx, providers.AdviceRequest{
			Prompt:    "Respond with exactly: ok",
			MaxTokens: 10,
		})
		if err != nil {
			if providers.IsAuthError(err) {
				fail(ExitAuthError, "%v", err)
			} else {
				fail(ExitRuntimeError, "%v", err)
			}
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", p.Name())
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
	modelsDoctorCmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Provider base URL")
}
