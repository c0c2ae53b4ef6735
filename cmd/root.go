package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/carsim/config"
	"github.com/kilianp07/carsim/core/pedal"
	"github.com/kilianp07/carsim/infra/logger"
	"github.com/kilianp07/carsim/infra/mqtt"
)

const defaultConfigPath = "config.yaml"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "carsim",
	Short:        "Real-time longitudinal vehicle simulator",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration selected by --config. A missing
// config.yaml is not an error unless the flag was given explicitly, in which
// case only the environment and defaults apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withRemotePedals combines local with the MQTT pedal subscriber when
// input.mqtt is configured. Local input wins while one of its pedals is
// pressed. The returned func releases the subscription.
func withRemotePedals(cfg *config.Config, local pedal.Source) (pedal.Source, func(), error) {
	if cfg.Input.MQTT == nil {
		return local, func() {}, nil
	}
	sub, err := mqtt.NewPedalSubscriber(*cfg.Input.MQTT, cfg.Simulation.VehicleID, cfg.Input.Stale())
	if err != nil {
		return nil, nil, fmt.Errorf("remote pedals: %w", err)
	}
	release := func() {
		if err := sub.Close(); err != nil {
			logger.New("main").Warnf("remote pedals close: %v", err)
		}
	}
	return pedal.FirstActive(local, sub), release, nil
}
