package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	coremetrics "github.com/kilianp07/carsim/core/metrics"
	"github.com/kilianp07/carsim/infra/logger"
	"github.com/kilianp07/carsim/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Driving scenarios",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Run scenario files headless and check their expectations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	scenarioCmd.AddCommand(scenarioRunCmd)
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sink, err := coremetrics.NewTelemetrySink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("telemetry sink: %w", err)
	}
	defer func() {
		if c, ok := sink.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				logger.New("main").Errorf("sink close: %v", err)
			}
		}
	}()

	log := logger.New("scenario")
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		sc, err := scenarios.Load(path)
		if err != nil {
			return err
		}
		res, err := scenarios.Run(sc, nonClosing{sink}, log)
		if err != nil {
			return err
		}
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%s %s: %s\n", status, res.Scenario, res.Summary.Final)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "    %s\n", f)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}

// nonClosing keeps a shared sink open across runs that each close their
// own runner.
type nonClosing struct {
	coremetrics.TelemetrySink
}

func (n nonClosing) RecordGearShift(e coremetrics.GearShiftEvent) error {
	if r, ok := n.TelemetrySink.(coremetrics.GearShiftRecorder); ok {
		return r.RecordGearShift(e)
	}
	return nil
}
