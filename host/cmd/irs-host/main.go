package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"irsbeam/config"
	"irsbeam/core"
	"irsbeam/host/link"
	"irsbeam/host/monitor"
	"irsbeam/host/regs"
	"irsbeam/host/report"
)

var (
	configPath = flag.String("config", "", "JSON configuration file (overrides -profile)")
	profile    = flag.String("profile", config.ProfileSoftPWM, "Built-in profile: "+strings.Join(config.ProfileNames(), ", "))
	backend    = flag.String("backend", "", "Register backend: memory, devfile, link, pca9685")
	device     = flag.String("device", "", "Serial device (link) or register window file (devfile)")
	i2cBus     = flag.String("i2c", "", "I2C bus for the pca9685 backend")
	i2cAddr    = flag.Uint("addr", 0, "I2C address for the pca9685 backend")
	ticks      = flag.Uint64("ticks", 0, "Stop the software PWM after this many ticks (0 runs until interrupted)")
	demoDuties = flag.Bool("demo-duties", false, "Drive the software PWM with the fixed demo duty set")
	monitorAt  = flag.String("monitor", "", "Serve the waveform monitor on this address (e.g. :8080)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

// options are the command line overrides applied on top of the loaded
// configuration.
type options struct {
	ConfigPath string
	Profile    string
	Backend    string
	Device     string
	I2CBus     string
	I2CAddr    uint
	Ticks      uint64
	DemoDuties bool
	Monitor    string
}

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	core.SetDebugWriter(func(s string) { log.Println(s) })
	core.SetDebugEnabled(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		ConfigPath: *configPath,
		Profile:    *profile,
		Backend:    *backend,
		Device:     *device,
		I2CBus:     *i2cBus,
		I2CAddr:    *i2cAddr,
		Ticks:      *ticks,
		DemoDuties: *demoDuties,
		Monitor:    *monitorAt,
	}
	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*config.File, error) {
	var cfg *config.File
	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if cfg, err = config.LoadConfig(data); err != nil {
			return nil, err
		}
	} else {
		var err error
		if cfg, err = config.Profile(opts.Profile); err != nil {
			return nil, err
		}
	}

	if opts.Backend != "" {
		cfg.Emitter.Backend = opts.Backend
	}
	if opts.Device != "" {
		cfg.Emitter.Device = opts.Device
	}
	if opts.I2CBus != "" {
		cfg.Emitter.I2CBus = opts.I2CBus
	}
	if opts.I2CAddr != 0 {
		if opts.I2CAddr > 0x7F {
			return nil, fmt.Errorf("%w: i2c address 0x%x", core.ErrInvalidConfig, opts.I2CAddr)
		}
		cfg.Emitter.I2CAddress = uint8(opts.I2CAddr)
	}
	if opts.Ticks != 0 {
		cfg.Emitter.MaxTicks = opts.Ticks
	}
	if opts.DemoDuties {
		cfg.Emitter.DemoDuties = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, opts options, out io.Writer) (err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	table, err := cfg.Table()
	if err != nil {
		return err
	}
	pipeline, err := core.NewPipeline(cfg.Array, table)
	if err != nil {
		return err
	}
	results := pipeline.Run()

	var hub *monitor.Hub
	if opts.Monitor != "" {
		hub = monitor.NewHub()
		hub.SetResults(results)
		srv := &http.Server{Addr: opts.Monitor, Handler: hub.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("monitor: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err = multierr.Append(err, srv.Shutdown(shutdownCtx))
		}()
		log.Printf("Monitor listening on %s", opts.Monitor)
	}

	be, err := regs.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, be.Close()) }()

	if remote, ok := be.RegisterFile.(*link.Registers); ok {
		version, channels, err := remote.Identify()
		if err != nil {
			return fmt.Errorf("failed to identify controller: %w", err)
		}
		core.DebugPrintln(fmt.Sprintf("[LINK] controller protocol %s, %d channels", version, channels))
		if channels < cfg.Array.ElementCount {
			return fmt.Errorf("%w: controller has %d channels, array has %d",
				core.ErrChannelCount, channels, cfg.Array.ElementCount)
		}
	}

	rep := report.Report{Profile: cfg.Profile, Config: cfg.Array, Results: results}

	switch cfg.Emitter.Mode {
	case config.ModeDirect:
		pwm := core.NewDirectPWM(be, cfg.Emitter.PWMBase)
		if err := pwm.Emit(ctx, core.Duties(results)); err != nil {
			return err
		}
		if cfg.Emitter.Readback {
			if rep.Readback, err = pwm.Readback(len(results)); err != nil {
				return err
			}
		}
		return report.Write(out, rep)

	default:
		if err := report.Write(out, rep); err != nil {
			return err
		}
		soft := &core.SoftPWMEmitter{
			Regs:     be,
			Base:     cfg.Emitter.GPIOBase,
			Offset:   cfg.Emitter.GPIOOffset,
			MaxCount: cfg.Array.MaxCount(),
			MaxTicks: cfg.Emitter.MaxTicks,
		}
		if hub != nil {
			soft.OnPeriod = hub.OnPeriod
		}
		err := soft.Emit(ctx, cfg.Duties(results))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
