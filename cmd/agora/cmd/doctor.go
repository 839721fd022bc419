package cmd

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/agora-ai/agora/internal/adapters/ollama"
	"github.com/agora-ai/agora/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local setup",
	Long: `Verify that the Ollama runtime is reachable, that every configured
model is installed, and that the host has enough resources to run them.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runtime, err := ollama.NewRuntime(cfg.Ollama, logger)
	if err != nil {
		return err
	}

	fmt.Println("Checking Ollama runtime...")
	fmt.Println()

	ctx := cmd.Context()
	allOk := true

	if err := runtime.Ping(ctx); err != nil {
		fmt.Printf("  ✗ ollama unreachable at %s: %v\n", cfg.Ollama.Host, err)
		fmt.Println()
		fmt.Println("Start ollama ('ollama serve') and run 'agora doctor' again.")
		return fmt.Errorf("runtime check failed")
	}
	fmt.Printf("  ✓ ollama reachable at %s\n", cfg.Ollama.Host)
	fmt.Println()

	fmt.Println("Checking configured models...")
	fmt.Println()

	installed, err := runtime.Debater.ListModels(ctx)
	if err != nil {
		fmt.Printf("  ⚠ could not list installed models: %v\n", err)
		allOk = false
	} else {
		for _, model := range runtime.Models() {
			if modelInstalled(model, installed) {
				fmt.Printf("  ✓ %s\n", model)
				continue
			}
			allOk = false
			if hint := closestModel(model, installed); hint != "" {
				fmt.Printf("  ✗ %s not installed (did you mean %q?)\n", model, hint)
			} else {
				fmt.Printf("  ✗ %s not installed (try 'ollama pull %s')\n", model, model)
			}
		}
	}
	fmt.Println()

	fmt.Println("Checking host resources...")
	fmt.Println()

	for _, check := range diagnostics.Collect().Checks() {
		icon := "✓"
		switch check.Status {
		case diagnostics.StatusWarn:
			icon = "⚠"
		case diagnostics.StatusInfo:
			icon = "○"
		}
		fmt.Printf("  %s %s: %s\n", icon, check.Name, check.Detail)
	}
	fmt.Println()

	if !allOk {
		fmt.Println("Some configured models are missing")
		return fmt.Errorf("model check failed")
	}
	fmt.Println("Everything looks good")
	return nil
}

// modelInstalled matches the configured name against the installed tags.
// Ollama reports "llama3:latest" for a model configured as plain "llama3".
func modelInstalled(model string, installed []string) bool {
	for _, tag := range installed {
		if tag == model || strings.TrimSuffix(tag, ":latest") == model {
			return true
		}
	}
	return false
}

// closestModel suggests an installed tag for a near-miss configured name.
func closestModel(model string, installed []string) string {
	matches := fuzzy.Find(model, installed)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
