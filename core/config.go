package core

import (
	"errors"
	"math"
)

// MaxChannels is the width of the output register driven by the software PWM.
const MaxChannels = 32

var (
	ErrInvalidConfig = errors.New("invalid array configuration")
	ErrChannelCount  = errors.New("channel count out of range")
)

// ConfigError reports the first field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return ErrInvalidConfig.Error() + ": " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Point is a position in the array plane, in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config describes the reflecting array, the RF link it focuses and the
// drive chain that turns a phase into a PWM count.
type Config struct {
	ElementCount     int     `json:"element_count"`
	UnitCellSize     float64 `json:"unit_cell_size"`
	Transmitter      Point   `json:"transmitter"`
	Receiver         Point   `json:"receiver"`
	CarrierFrequency float64 `json:"carrier_frequency"`
	PropagationSpeed float64 `json:"propagation_speed"`
	AmplifierGain    float64 `json:"amplifier_gain"`
	FullScaleVoltage float64 `json:"full_scale_voltage"`
	PWMResolution    uint16  `json:"pwm_resolution"`
}

// Wavelength returns the carrier wavelength in metres.
func (c Config) Wavelength() float64 {
	return c.PropagationSpeed / c.CarrierFrequency
}

// MaxCount is the duty count that represents a fully-on channel.
func (c Config) MaxCount() uint16 {
	return c.PWMResolution
}

// Validate checks that every value is finite and usable by the pipeline.
func (c Config) Validate() error {
	if c.ElementCount < 1 || c.ElementCount > MaxChannels {
		return &ConfigError{Field: "element_count", Reason: itoa(c.ElementCount) + " not in 1.." + itoa(MaxChannels)}
	}

	fields := []struct {
		name  string
		value float64
		pos   bool
	}{
		{"unit_cell_size", c.UnitCellSize, true},
		{"transmitter.x", c.Transmitter.X, false},
		{"transmitter.y", c.Transmitter.Y, false},
		{"receiver.x", c.Receiver.X, false},
		{"receiver.y", c.Receiver.Y, false},
		{"carrier_frequency", c.CarrierFrequency, true},
		{"propagation_speed", c.PropagationSpeed, true},
		{"amplifier_gain", c.AmplifierGain, true},
		{"full_scale_voltage", c.FullScaleVoltage, true},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: "not finite"}
		}
		if f.pos && f.value <= 0 {
			return &ConfigError{Field: f.name, Reason: "must be positive, got " + ftoa(f.value)}
		}
	}

	if c.PWMResolution == 0 {
		return &ConfigError{Field: "pwm_resolution", Reason: "must be non-zero"}
	}
	return nil
}
