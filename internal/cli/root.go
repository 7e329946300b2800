// Package cli provides the itemctl command tree.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/marketplace-items/internal/app"
	"github.com/samvad-hq/marketplace-items/internal/config"
	"github.com/samvad-hq/marketplace-items/internal/logger"
)

// ConfigLoader returns the base configuration before flag overrides.
type ConfigLoader func() (*config.Config, error)

const (
	outputText = "text"
	outputJSON = "json"
)

// runtime holds what every subcommand needs once wrap has built it.
type runtime struct {
	load ConfigLoader

	baseURL  string
	logLevel string
	output   string

	cfg         *config.Config
	log         *logger.ZapLogger
	marketplace *app.Marketplace
}

// NewRootCmd builds the itemctl command tree.
func NewRootCmd(load ConfigLoader) *cobra.Command {
	if load == nil {
		load = config.Load
	}
	rt := &runtime{load: load}

	root := &cobra.Command{
		Use:               "itemctl",
		Short:             "Manage items in the marketplace items API",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&rt.baseURL, "base-url", "", "Items API base URL (overrides BASE_URL)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVarP(&rt.output, "output", "o", outputText, "Output format (text or json)")

	root.AddCommand(
		newListCmd(rt),
		newGetCmd(rt),
		newCreateCmd(rt),
		newUpdateCmd(rt),
		newDeleteCmd(rt),
		newHistoryCmd(rt),
		newSeedCmd(rt),
	)
	return root
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	rt.output = strings.ToLower(strings.TrimSpace(rt.output))
	if rt.output != outputText && rt.output != outputJSON {
		return fmt.Errorf("unsupported output format %q (expected text or json)", rt.output)
	}

	cfg, err := rt.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if rt.baseURL != "" {
		cfg.BaseURL = rt.baseURL
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}
	if err := cfg.Finalize(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt.cfg = cfg

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt.log = log

	m, err := app.NewMarketplace(cmd.Context(), cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize marketplace", "error", err.Error())
		return err
	}
	rt.marketplace = m
	return nil
}

// wrap builds the runtime, runs fn and releases the runtime afterwards, also
// when setup or fn fails. Setup runs after cobra's flag validation, so a
// rejected command never opens the journal.
func (rt *runtime) wrap(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if closeErr := rt.teardown(); err == nil {
				err = closeErr
			}
		}()
		if err := rt.setup(cmd); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}

func (rt *runtime) teardown() error {
	var err error
	if rt.marketplace != nil {
		err = rt.marketplace.Close()
		rt.marketplace = nil
	}
	if rt.log != nil {
		_ = rt.log.Sync()
		rt.log = nil
	}
	return err
}
