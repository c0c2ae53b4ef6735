package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/carsim/app"
	"github.com/kilianp07/carsim/config"
	"github.com/kilianp07/carsim/core/model"
	"github.com/kilianp07/carsim/core/pedal"
	"github.com/kilianp07/carsim/infra/logger"
)

var runOpts struct {
	vehicle  string
	throttle float64
	brake    float64
	duration time.Duration
	phases   []string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation in real time with scripted pedals",
	Long: `Run ticks the vehicle at simulation.tick_hz and publishes telemetry to the
configured sinks. Pedals are held at --throttle/--brake, or follow the
--phase list, e.g. --phase 8s:1 --phase 4s:0:0.6 (duration:throttle:brake).
With input.mqtt configured, remote pedals apply whenever the local ones are
released and the run lasts until the configured duration or an interrupt.`,
	RunE: runSimulation,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.vehicle, "vehicle", "", "vehicle preset, overrides vehicle.preset")
	f.Float64Var(&runOpts.throttle, "throttle", 0, "constant throttle position in [0,1]")
	f.Float64Var(&runOpts.brake, "brake", 0, "constant brake position in [0,1]")
	f.DurationVar(&runOpts.duration, "duration", 0, "simulated time to run, overrides simulation.duration_seconds")
	f.StringArrayVar(&runOpts.phases, "phase", nil, "pedal phase duration:throttle[:brake], repeatable")
	rootCmd.AddCommand(runCmd)
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return err
	}
	local, err := runInput()
	if err != nil {
		return err
	}
	input, release, err := withRemotePedals(cfg, local)
	if err != nil {
		return err
	}
	defer release()
	r, err := app.New(cfg, app.WithInput(input))
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.New("main").Errorf("runner close: %v", err)
		}
	}()
	if err := r.Run(ctx); err != nil {
		return err
	}
	s := r.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "%s | top gear %d | %d shifts | %.1fs\n",
		s.Final, s.TopGear+1, s.Shifts, s.Final.Elapsed)
	return nil
}

func applyRunFlags(cfg *config.Config) error {
	if runOpts.vehicle != "" {
		cfg.Vehicle.Preset = runOpts.vehicle
	}
	if runOpts.duration > 0 {
		cfg.Simulation.DurationSeconds = runOpts.duration.Seconds()
	}
	return cfg.Validate()
}

func runInput() (pedal.Source, error) {
	if len(runOpts.phases) == 0 {
		return pedal.Fixed(pedal.Normalize(model.PedalInput{
			Throttle: runOpts.throttle,
			Brake:    runOpts.brake,
		})), nil
	}
	phases, err := parsePhases(runOpts.phases)
	if err != nil {
		return nil, err
	}
	return pedal.NewScript(phases...), nil
}

// parsePhases reads phases written as duration:throttle[:brake].
func parsePhases(specs []string) ([]pedal.Phase, error) {
	phases := make([]pedal.Phase, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(s, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("phase %q: want duration:throttle[:brake]", s)
		}
		d, err := time.ParseDuration(parts[0])
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", s, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("phase %q: duration must be positive", s)
		}
		var in model.PedalInput
		if in.Throttle, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return nil, fmt.Errorf("phase %q: throttle: %w", s, err)
		}
		if len(parts) == 3 {
			if in.Brake, err = strconv.ParseFloat(parts[2], 64); err != nil {
				return nil, fmt.Errorf("phase %q: brake: %w", s, err)
			}
		}
		phases = append(phases, pedal.Phase{Duration: d, Input: in})
	}
	return phases, nil
}
