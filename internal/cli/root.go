// Package cli implements the staffassist cobra commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/config"
	"github.com/0xcro3dile/staffassist/internal/logging"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	configPath string
	storeKind  string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd creates the staffassist root command with all subcommands attached.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "staffassist",
		Short: "Natural-language business data assistant for HealthCareWorld staff",
		Long: `staffassist answers staff questions about sales, products, customers and
inventory. Each question is grounded in a text summary of the business
store and answered by a language model in a fixed JSON envelope.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "staffassist.yaml", "config file")
	root.PersistentFlags().StringVar(&a.storeKind, "store", "", "override store.kind (sqlite, memory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newAskCmd(a))
	root.AddCommand(newSeedCmd(a))
	root.AddCommand(newSessionsCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.storeKind != "" {
		cfg.Store.Kind = a.storeKind
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, a.verbose)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("path", a.configPath),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("store", cfg.Store.Kind))
	return nil
}

// validate checks the config. Commands that never call the model skip the
// LLM section.
func (a *app) validate(needLLM bool) error {
	cfg := *a.cfg
	if !needLLM {
		cfg.LLM = config.DefaultConfig().LLM
		cfg.LLM.Provider = "ollama"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
