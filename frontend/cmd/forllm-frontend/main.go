package main

import (
	"fmt"
	"os"

	"github.com/itchan-dev/forllm/shared/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFolder string
)

var rootCmd = &cobra.Command{
	Use:   "forllm-frontend",
	Short: "Frontend of the LLM discussion forum",
	Long: `forllm-frontend renders forum topics as threaded post trees and hosts the
compose workspaces: persona mentions, token budget estimates and staged
attachments, all backed by the forum API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFolder, "config_folder", "frontend/config", "path to folder with public.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(threadCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(topicsCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
