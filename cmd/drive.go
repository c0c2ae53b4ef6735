package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/kilianp07/carsim/app"
	"github.com/kilianp07/carsim/core/dynamics"
	"github.com/kilianp07/carsim/core/model"
	"github.com/kilianp07/carsim/core/pedal"
	"github.com/kilianp07/carsim/infra/logger"
)

// keyHold outlasts the usual terminal auto-repeat delay so a held arrow key
// keeps its pedal pressed.
const keyHold = 600 * time.Millisecond

const barWidth = 30

var driveOpts struct {
	vehicle string
	logFile string
}

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Drive the vehicle from the keyboard",
	Long: `Drive opens a terminal dashboard. Up or w accelerates, Down or s brakes,
space releases both pedals. Esc, q or Ctrl-C quits.`,
	RunE: runDrive,
}

func init() {
	driveCmd.Flags().StringVar(&driveOpts.vehicle, "vehicle", "", "vehicle preset, overrides vehicle.preset")
	driveCmd.Flags().StringVar(&driveOpts.logFile, "log-file", "", "write logs to this file instead of discarding them")
	rootCmd.AddCommand(driveCmd)
}

func runDrive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if driveOpts.vehicle != "" {
		cfg.Vehicle.Preset = driveOpts.vehicle
	}
	cfg.Simulation.DurationSeconds = 0
	if err := cfg.Validate(); err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if driveOpts.logFile != "" {
		f, err := os.OpenFile(driveOpts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger.SetOutput(out)
	defer logger.SetOutput(os.Stdout)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}

	latch := pedal.NewKeyLatch(keyHold)
	input, release, err := withRemotePedals(cfg, pedal.NewRamp(latch, pedal.DefaultRampRate))
	if err != nil {
		screen.Fini()
		return err
	}
	defer release()
	r, err := app.New(cfg, app.WithInput(input))
	if err != nil {
		screen.Fini()
		return err
	}
	dash := newDashboard(screen, latch, r.Integrator)
	r.OnTick(dash.draw)

	ctx, stop := signalContext()
	defer stop()
	runErr := drive(ctx, screen, dash, r)
	closeErr := r.Close()
	screen.Fini()
	if runErr != nil {
		return runErr
	}
	s := r.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "%s | top gear %d | max %.1f KM/H | %.1fs\n",
		s.Final, s.TopGear+1, s.MaxSpeed*3.6, s.Final.Elapsed)
	return closeErr
}

// drive runs the simulation until the driver quits or ctx is done.
func drive(ctx context.Context, screen tcell.Screen, dash *dashboard, r *app.Runner) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case err := <-done:
			return err
		case ev := <-events:
			if dash.handle(ev) {
				cancel()
				return <-done
			}
		}
	}
}

// dashboard draws the vehicle state and force balance and turns key
// presses into pedal commands.
type dashboard struct {
	screen  tcell.Screen
	latch   *pedal.KeyLatch
	vehicle *dynamics.Integrator
	title   string
}

func newDashboard(screen tcell.Screen, latch *pedal.KeyLatch, vehicle *dynamics.Integrator) *dashboard {
	return &dashboard{
		screen:  screen,
		latch:   latch,
		vehicle: vehicle,
		title:   "carsim | " + vehicle.Spec().Name,
	}
}

// handle processes one terminal event and reports whether to quit.
func (d *dashboard) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyUp:
			d.latch.Press(model.PedalAccelerate)
		case tcell.KeyDown:
			d.latch.Press(model.PedalBrake)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case 'w':
				d.latch.Press(model.PedalAccelerate)
			case 's':
				d.latch.Press(model.PedalBrake)
			case ' ':
				d.latch.Press(model.PedalRoll)
			}
		}
	case *tcell.EventResize:
		d.screen.Sync()
	}
	return false
}

func (d *dashboard) draw(s model.Snapshot) {
	engine := d.vehicle.Engine()
	res := d.vehicle.Resistance()
	forces := fmt.Sprintf("torque %.0f Nm | drag %.0f N | rolling %.0f N | net %.0f N",
		engine.Torque(s.EngineRPM)*s.Throttle,
		res.Drag(s.Speed),
		res.Rolling(s.Speed),
		d.vehicle.LastForces().Net,
	)

	d.screen.Clear()
	bold := tcell.StyleDefault.Bold(true)
	d.text(1, 0, d.title, bold)
	d.text(1, 2, s.String(), tcell.StyleDefault.Foreground(tcell.ColorGreen))
	d.text(1, 3, "rpm      "+bar(s.EngineRPM/engine.RedlineRPM()), tcell.StyleDefault.Foreground(tcell.ColorGreen))
	d.text(1, 4, "throttle "+bar(s.Throttle), tcell.StyleDefault.Foreground(tcell.ColorYellow))
	d.text(1, 5, "brake    "+bar(s.Brake), tcell.StyleDefault.Foreground(tcell.ColorRed))
	d.text(1, 7, forces, tcell.StyleDefault)
	d.text(1, 8, fmt.Sprintf("t=%.1fs", s.Elapsed), tcell.StyleDefault)
	d.text(1, 10, "up/w accelerate  down/s brake  space release  esc quit", tcell.StyleDefault.Dim(true))
	d.screen.Show()
}

func (d *dashboard) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		d.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// bar renders a pedal position in [0,1] as a fixed width gauge.
func bar(v float64) string {
	n := int(v*barWidth + 0.5)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", barWidth-n) + "]"
}
