package main

import (
	"fmt"
	"os"

	"carry/internal/app"
	"carry/internal/handoff"
	"carry/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:     "carry",
		Short:   "carry - a coding agent with goal-conditioned session handoff",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", app.DefaultConfigPath(), "config file path")

	var (
		goal   string
		outDir string
	)
	heuristics := &cobra.Command{
		Use:   "heuristics [session-file ...]",
		Short: "replay session files through the handoff selection core and dump turn records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := app.NewSessionStore(cfg.StorageRoot)
			if err != nil {
				return err
			}
			defer store.Close()
			return handoff.RunHeuristics(store, args, handoff.HeuristicsOptions{
				Goal:    goal,
				OutDir:  outDir,
				Budgets: handoff.DefaultBudgets(),
			})
		},
	}
	heuristics.Flags().StringVar(&goal, "goal", "", "force this goal for every session")
	heuristics.Flags().StringVar(&outDir, "out", ".", "output directory for turns.jsonl and sessions.json")
	root.AddCommand(heuristics)

	connect := &cobra.Command{
		Use:   "connect <api-key>",
		Short: "store the provider API key in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			var registry app.ModelRegistry
			if err := registry.SetAPIKey(cfg.Model, args[0]); err != nil {
				return err
			}
			fmt.Println("API key stored")
			return nil
		},
	}
	root.AddCommand(connect)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(configPath string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}
	if cfg.StorageRoot == "" {
		cfg.StorageRoot = app.DefaultStorageRoot()
	}

	store, err := app.NewSessionStore(cfg.StorageRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := app.NewFileLogger(cfg.StorageRoot)
	application := tui.NewApp(cfg, store, logger)

	session, err := application.NewSession("")
	if err != nil {
		return err
	}

	model := tui.NewMainModel(application, session)
	p := tea.NewProgram(model, tea.WithAltScreen())
	application.SetProgram(p)
	_, err = p.Run()
	return err
}
