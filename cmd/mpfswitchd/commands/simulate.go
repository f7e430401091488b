package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/driskel/mpf/internal/clock"
	"github.com/driskel/mpf/internal/config"
	"github.com/driskel/mpf/internal/logging"
	"github.com/driskel/mpf/internal/metrics"
	"github.com/driskel/mpf/internal/platform"
	"github.com/driskel/mpf/switchcontroller"
)

var driveInteractive bool

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the controller against a simulated hardware platform",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&driveInteractive, "drive", false, "read \"switch state\" lines from stdin and feed them to the controller")
	rootCmd.AddCommand(simulateCmd)
}

// demoBus is a minimal switchcontroller.EventBus: just enough to let
// Attach register the controller's two lifecycle hooks and have this
// command invoke them, standing in for a full machine framework's event
// bus.
type demoBus struct {
	hooks []demoHook
}

type demoHook struct {
	name     string
	priority int
	fn       func()
}

func (b *demoBus) AddHandler(name string, fn func(), priority int) {
	b.hooks = append(b.hooks, demoHook{name: name, priority: priority, fn: fn})
}

// fire invokes every handler registered for name, highest priority first,
// matching the reference's event-priority ordering.
func (b *demoBus) fire(name string) {
	var matched []demoHook
	for _, h := range b.hooks {
		if h.name == name {
			matched = append(matched, h)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].priority > matched[j].priority })
	for _, h := range matched {
		h.fn()
	}
}

func (b *demoBus) ProcessEventQueue() {}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cmd.OutOrStdout(), cfg.LogLevel)
	reg := prometheus.NewRegistry()
	stats := metrics.New(reg)

	go serveMetrics(cfg.MetricsAddr, reg, log)

	platforms := make(map[string]*platform.Platform)
	clk := clock.NewReal()
	ctrl := switchcontroller.New(clk, switchcontroller.WithLogger(log), switchcontroller.WithStats(stats))

	for _, sc := range cfg.Switches {
		p, ok := platforms[sc.Platform]
		if !ok {
			p = platform.New(sc.Platform)
			platforms[sc.Platform] = p
		}
		sw := platform.NewSwitch(sc.Name, sc.Label, sc.HardwareNumber, p, sc.Invert, float64(sc.RecycleMS)/1000.0)
		if err := ctrl.RegisterSwitch(sw); err != nil {
			return fmt.Errorf("register switch %q: %w", sc.Name, err)
		}
	}

	ctrl.AddMonitor(func(ch switchcontroller.MonitoredChange) {
		log.Infof("switch %s (%s) -> %d", ch.Name, ch.Label, ch.NewState)
		stats.SetTimedQueueDepth(ctrl.Depth())
	})
	stats.SetMonitorCount(ctrl.MonitorCount())

	bus := &demoBus{}
	ctrl.Attach(bus)
	bus.fire("init_phase_2")

	runErr := make(chan error, 1)
	go func() { runErr <- clk.Run(ctx) }()

	bus.fire("machine_reset_phase_3")

	if driveInteractive {
		go driveFromStdin(ctx, cmd, ctrl, clk, log)
	}

	select {
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

// driveFromStdin implements the REPL-style manual-testing surface: each
// input line is "<switch name> <0|1>". Stdin is read on its own goroutine,
// but every parsed transition is handed to clk.ScheduleOnce rather than
// called against ctrl directly, so it runs on the same clock goroutine that
// fires timed-handler callbacks and recycle retries — keeping all
// controller mutation on the single logical tick thread its contract
// requires (see ports.go's Clock doc).
func driveFromStdin(ctx context.Context, cmd *cobra.Command, ctrl *switchcontroller.Controller, clk *clock.Real, log logging.Logger) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			log.Warnf("drive: expected \"<switch> <0|1>\", got %q", scanner.Text())
			continue
		}
		state, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Warnf("drive: invalid state %q: %v", fields[1], err)
			continue
		}

		name := fields[0]
		clk.ScheduleOnce(0, func() {
			if err := ctrl.ProcessSwitch(name, state, true); err != nil {
				log.Warnf("drive: %v", err)
			}
		})
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Infof("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warnf("metrics server stopped: %v", err)
	}
}
