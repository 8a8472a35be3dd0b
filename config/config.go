package config

import (
	"encoding/json"
	"fmt"

	"irsbeam/core"
)

// Emitter modes.
const (
	ModeDirect = "direct"
	ModeSoft   = "soft"
)

// Register file backends.
const (
	BackendMemory  = "memory"
	BackendDevFile = "devfile"
	BackendLink    = "link"
	BackendPCA9685 = "pca9685"
)

// File is the on-disk configuration: a profile name, overrides for the array
// and emitter, and an optional replacement voltage table.
type File struct {
	Profile      string        `json:"profile"`
	Array        core.Config   `json:"array"`
	Emitter      Emitter       `json:"emitter"`
	VoltageTable []core.Sample `json:"voltage_table,omitempty"`
}

// Emitter selects how duty cycles reach hardware.
type Emitter struct {
	Mode    string `json:"mode"`
	Backend string `json:"backend"`

	PWMBase    uint32 `json:"pwm_base"`
	GPIOBase   uint32 `json:"gpio_base"`
	GPIOOffset uint32 `json:"gpio_offset"`

	// Device is the serial port for the link backend or the register
	// window file for the devfile backend.
	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`

	I2CBus      string `json:"i2c_bus,omitempty"`
	I2CAddress  uint8  `json:"i2c_address,omitempty"`
	PWMPeriodNs uint64 `json:"pwm_period_ns,omitempty"`

	// Readback re-reads each direct PWM register after writing it.
	Readback bool `json:"readback"`

	// MaxTicks bounds the software PWM run; 0 runs until cancelled.
	MaxTicks uint64 `json:"max_ticks,omitempty"`

	// DemoDuties drives the software PWM with DemoDuties instead of the
	// pipeline output.
	DemoDuties bool `json:"demo_duties,omitempty"`
}

// LoadConfig parses a JSON configuration. Fields present in the document
// override the named profile (soft-pwm when none is given).
func LoadConfig(jsonData []byte) (*File, error) {
	var header struct {
		Profile string `json:"profile"`
	}
	if err := json.Unmarshal(jsonData, &header); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if header.Profile == "" {
		header.Profile = ProfileSoftPWM
	}

	cfg, err := Profile(header.Profile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *File) {
	if cfg.Emitter.Backend == "" {
		cfg.Emitter.Backend = BackendMemory
	}
	if cfg.Emitter.Baud == 0 {
		cfg.Emitter.Baud = 250000
	}
	if cfg.Emitter.I2CBus == "" {
		cfg.Emitter.I2CBus = "/dev/i2c-1"
	}
	if cfg.Emitter.I2CAddress == 0 {
		cfg.Emitter.I2CAddress = 0x40 // PCA9685 default address
	}
	if cfg.Emitter.PWMPeriodNs == 0 {
		cfg.Emitter.PWMPeriodNs = 1e9 / 1000 // 1 kHz
	}
}

// Validate checks the array and emitter settings.
func (f *File) Validate() error {
	if err := f.Array.Validate(); err != nil {
		return err
	}

	switch f.Emitter.Mode {
	case ModeDirect, ModeSoft:
	default:
		return fmt.Errorf("%w: emitter mode %q", core.ErrInvalidConfig, f.Emitter.Mode)
	}

	switch f.Emitter.Backend {
	case BackendMemory:
	case BackendDevFile, BackendLink:
		if f.Emitter.Device == "" {
			return fmt.Errorf("%w: backend %s needs a device", core.ErrInvalidConfig, f.Emitter.Backend)
		}
	case BackendPCA9685:
		if f.Emitter.Mode != ModeDirect {
			return fmt.Errorf("%w: pca9685 backend only supports direct mode", core.ErrInvalidConfig)
		}
		if f.Array.ElementCount > 16 {
			return fmt.Errorf("%w: pca9685 has 16 channels, array has %d",
				core.ErrInvalidConfig, f.Array.ElementCount)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", core.ErrInvalidConfig, f.Emitter.Backend)
	}

	if len(f.VoltageTable) > 0 {
		if _, err := core.NewVoltageTable(f.VoltageTable); err != nil {
			return err
		}
	}
	return nil
}

// Table returns the configured voltage table, or nil for the measured
// default.
func (f *File) Table() (*core.VoltageTable, error) {
	if len(f.VoltageTable) == 0 {
		return nil, nil
	}
	return core.NewVoltageTable(f.VoltageTable)
}

// Duties returns the duty set the software emitter should run: either the
// pipeline output or the fixed demo set.
func (f *File) Duties(results []core.ElementResult) []core.DutyCycle {
	if f.Emitter.Mode == ModeSoft && f.Emitter.DemoDuties {
		return append([]core.DutyCycle(nil), DemoDuties...)
	}
	return core.Duties(results)
}
