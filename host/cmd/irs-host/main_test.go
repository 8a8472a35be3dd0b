package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"irsbeam/config"
	"irsbeam/core"
)

func TestRunDirectProfile(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{Profile: config.ProfilePWMIP}, &out)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"pwm-ip", "Readback:", "Element 9:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Output missing %q", want)
		}
	}
}

func TestRunSoftProfile(t *testing.T) {
	var out bytes.Buffer
	opts := options{Profile: config.ProfileSoftPWM, Ticks: 2 * 1025, DemoDuties: true}
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.Contains(out.String(), "Readback:") {
		t.Errorf("Soft profile should not print a readback table")
	}
}

func TestRunSoftProfileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := run(ctx, options{Profile: config.ProfileSoftPWM}, &out); err != nil {
		t.Errorf("Expected clean exit on cancellation, got %v", err)
	}
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irs.json")
	doc := `{"profile": "pwm-ip", "array": {"element_count": 4}, "emitter": {"readback": false}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), options{ConfigPath: path}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Elements:     4") || strings.Contains(out.String(), "Readback:") {
		t.Errorf("Config file not applied:\n%s", out.String())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr error
	}{
		{"unknown profile", options{Profile: "nope"}, nil},
		{"devfile without device", options{Profile: config.ProfilePWMIP, Backend: config.BackendDevFile}, core.ErrInvalidConfig},
		{"bad i2c address", options{Profile: config.ProfilePWMIP, Backend: config.BackendPCA9685, I2CAddr: 0x80}, core.ErrInvalidConfig},
		{"pca9685 in soft mode", options{Profile: config.ProfileSoftPWM, Backend: config.BackendPCA9685}, core.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.opts)
			if err == nil {
				t.Fatalf("Expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	cfg, err := loadConfig(options{Profile: config.ProfilePWMIP, Backend: config.BackendLink, Device: "/dev/ttyACM0"})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Emitter.Backend != config.BackendLink || cfg.Emitter.Device != "/dev/ttyACM0" {
		t.Errorf("Overrides not applied: %+v", cfg.Emitter)
	}
}
