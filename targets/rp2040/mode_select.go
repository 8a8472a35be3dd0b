//go:build rp2040

package main

import "irsbeam/config"

// profileName selects the build. Override at link time:
//
//	tinygo flash -target=pico -ldflags="-X main.profileName=pwm-ip" ./targets/rp2040
var profileName = config.ProfileSoftPWM

// Pin assignment. Soft PWM drives consecutive pins from softPWMBase; direct
// PWM uses GP0.. so each element gets its own slice channel (16 max).
const (
	softPWMBase       = 2
	maxDirectChannels = 16
	directPWMPeriod   = 1e9 / 20000 // 20 kHz
	debugAtBoot       = false
	serveRetryMillis  = 100
)
