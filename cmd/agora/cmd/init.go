package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agora-ai/agora/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an agora workspace",
	Long: `Initialize an agora workspace in the current directory.
Creates .agora/config.yaml plus the state directory for debate snapshots.`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
}

func runInit(_ *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	configPath := filepath.Join(cwd, ".agora", "config.yaml")

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("configuration already exists, use --force to overwrite")
	}

	dirs := []string{
		".agora",
		".agora/debates",
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(cwd, dir), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := config.AtomicWrite(configPath, []byte(config.DefaultConfigYAML)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Println("Initialized agora workspace in", cwd)
	fmt.Println("Configuration file: .agora/config.yaml")
	fmt.Println("Run 'agora doctor' to verify setup")

	return nil
}
