package config

import (
	"fmt"
	"sort"

	"irsbeam/core"
)

// Profile names for the two reference builds.
const (
	ProfileSoftPWM = "soft-pwm"
	ProfilePWMIP   = "pwm-ip"
)

// Register window layout shared by both reference builds. Bases are byte
// addresses inside the mapped register window; channel registers are 32
// bits wide.
const (
	DefaultPWMBase    = 0x0000
	DefaultGPIOBase   = 0x0100
	DefaultGPIOOffset = 0
)

// DemoDuties is the fixed duty set used to exercise the software PWM
// without running the pipeline. Several values exceed the 1024 max count.
var DemoDuties = []core.DutyCycle{500, 1024, 3072, 512, 3500, 1000, 0, 2500, 500}

// rfDefaults are the constants common to both builds: a nine element
// array of 26 mm cells at 2.4 GHz driven from a 3.3 V supply.
func rfDefaults() core.Config {
	return core.Config{
		ElementCount:     9,
		UnitCellSize:     0.026,
		CarrierFrequency: 2.4e9,
		PropagationSpeed: 3e8,
		FullScaleVoltage: 3.3,
	}
}

var profiles = map[string]func() File{
	ProfileSoftPWM: func() File {
		arr := rfDefaults()
		arr.Transmitter = core.Point{X: -0.5, Y: 0.9}
		arr.Receiver = core.Point{X: 0.2, Y: 0.9}
		arr.AmplifierGain = 6.04
		arr.PWMResolution = 1024
		return File{
			Profile: ProfileSoftPWM,
			Array:   arr,
			Emitter: Emitter{
				Mode:       ModeSoft,
				Backend:    BackendMemory,
				PWMBase:    DefaultPWMBase,
				GPIOBase:   DefaultGPIOBase,
				GPIOOffset: DefaultGPIOOffset,
			},
		}
	},
	ProfilePWMIP: func() File {
		arr := rfDefaults()
		arr.Transmitter = core.Point{X: 0.9, Y: 0.9}
		arr.Receiver = core.Point{X: 0.5, Y: 0.9}
		arr.AmplifierGain = 6.08
		arr.PWMResolution = 65535
		return File{
			Profile: ProfilePWMIP,
			Array:   arr,
			Emitter: Emitter{
				Mode:       ModeDirect,
				Backend:    BackendMemory,
				PWMBase:    DefaultPWMBase,
				GPIOBase:   DefaultGPIOBase,
				GPIOOffset: DefaultGPIOOffset,
				Readback:   true,
			},
		}
	},
}

// Profile returns a fresh copy of a built-in profile.
func Profile(name string) (*File, error) {
	mk, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (have %v)", name, ProfileNames())
	}
	f := mk()
	applyDefaults(&f)
	return &f, nil
}

// ProfileNames lists the built-in profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
