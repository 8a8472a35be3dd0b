//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"irsbeam/config"
	"irsbeam/core"
	"irsbeam/protocol"
	"irsbeam/targets/pio"
)

func main() {
	// Disable watchdog on boot to clear any previous state
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	core.SetDebugWriter(func(s string) { println(s) })
	core.SetDebugEnabled(debugAtBoot)

	cfg, err := config.Profile(profileName)
	if err != nil {
		halt("profile: " + err.Error())
	}
	pipeline, err := core.NewPipeline(cfg.Array, nil)
	if err != nil {
		halt("pipeline: " + err.Error())
	}
	results := pipeline.Run()
	core.DebugPrintln("[IRS] pipeline done for " + cfg.Profile)

	switch cfg.Emitter.Mode {
	case config.ModeDirect:
		runDirect(cfg, results)
	default:
		runSoft(cfg, results)
	}
}

// runSoft drives the element pins from a PIO parallel output forever.
func runSoft(cfg *config.File, results []core.ElementResult) {
	out, err := pio.NewParallelOutput(machine.Pin(softPWMBase), uint8(cfg.Array.ElementCount))
	if err != nil {
		halt("pio: " + err.Error())
	}
	core.SetRegisterFile(out)

	soft, err := core.NewSoftPWM(core.MustRegisterFile(), cfg.Emitter.GPIOBase, cfg.Emitter.GPIOOffset,
		cfg.Duties(results), cfg.Array.MaxCount())
	if err != nil {
		halt("soft pwm: " + err.Error())
	}
	if err := soft.Run(context.Background()); err != nil {
		out.Stop()
		halt("soft pwm: " + err.Error())
	}
}

// runDirect writes the duties to hardware PWM channels and then answers
// register requests from the host over USB.
func runDirect(cfg *config.File, results []core.ElementResult) {
	if cfg.Array.ElementCount > maxDirectChannels {
		halt("direct pwm: too many elements for the PWM slices")
	}
	pins := make([]machine.Pin, cfg.Array.ElementCount)
	for i := range pins {
		pins[i] = machine.Pin(i)
	}
	regs := NewPWMRegisters(pins, cfg.Array.MaxCount())
	if err := regs.Configure(directPWMPeriod); err != nil {
		halt("pwm: " + err.Error())
	}
	core.SetRegisterFile(regs)

	pwm := core.NewDirectPWM(core.MustRegisterFile(), cfg.Emitter.PWMBase)
	if err := pwm.Emit(context.Background(), core.Duties(results)); err != nil {
		halt("emit: " + err.Error())
	}

	port := initUSB()
	for {
		err := protocol.Serve(port, regs, len(pins))
		core.DebugPrintln("[IRS] link: " + err.Error())
		time.Sleep(serveRetryMillis * time.Millisecond)
	}
}

// halt reports a fatal error and parks the core.
func halt(msg string) {
	core.Warn(msg)
	for {
		time.Sleep(time.Second)
	}
}
