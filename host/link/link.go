// Package link exposes the register file of a remote array controller over
// the framed serial protocol.
package link

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"

	"irsbeam/host/serial"
	"irsbeam/protocol"
)

// DefaultTimeout bounds each register round trip.
const DefaultTimeout = time.Second

var ErrRemoteFault = errors.New("controller reported a fault")

// Registers is a core.RegisterFile backed by a controller on the other end
// of a serial link.
type Registers struct {
	transport *protocol.HostTransport
	timeout   time.Duration
}

// Open connects to the controller on device.
func Open(device string, baud int) (*Registers, error) {
	cfg := serial.DefaultConfig(device)
	if baud != 0 {
		cfg.Baud = baud
	}
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", device, err)
	}
	return New(port), nil
}

// New wraps an already open link.
func New(port io.ReadWriteCloser) *Registers {
	return &Registers{
		transport: protocol.NewHostTransport(port),
		timeout:   DefaultTimeout,
	}
}

// SetTimeout changes the per-request timeout.
func (r *Registers) SetTimeout(d time.Duration) {
	r.timeout = d
}

// Identify returns the controller's protocol version and channel count.
func (r *Registers) Identify() (string, int, error) {
	id, payload, err := r.transport.Call(protocol.CmdIdentify, nil, r.timeout)
	if err != nil {
		return "", 0, err
	}
	if id != protocol.RespIdentify {
		return "", 0, fmt.Errorf("unexpected response %d to identify", id)
	}

	end := 0
	for end < len(payload) && payload[end] != 0 {
		end++
	}
	if end == len(payload) {
		return "", 0, fmt.Errorf("identify response missing version terminator")
	}
	version := string(payload[:end])
	payload = payload[end+1:]

	channels, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode channel count: %w", err)
	}
	return version, int(channels), nil
}

func (r *Registers) WriteReg(base, offset, value uint32) error {
	id, payload, err := r.transport.Call(protocol.CmdWriteReg, func(output *protocol.FrameBuffer) {
		protocol.EncodeVLQUint(output, base)
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, value)
	}, r.timeout)
	if err != nil {
		return fmt.Errorf("write 0x%x+%d: %w", base, offset, err)
	}
	if id != protocol.RespStatus {
		return fmt.Errorf("write 0x%x+%d: unexpected response %d", base, offset, id)
	}
	return checkStatus(payload)
}

func (r *Registers) ReadReg(base, offset uint32) (uint32, error) {
	id, payload, err := r.transport.Call(protocol.CmdReadReg, func(output *protocol.FrameBuffer) {
		protocol.EncodeVLQUint(output, base)
		protocol.EncodeVLQUint(output, offset)
	}, r.timeout)
	if err != nil {
		return 0, fmt.Errorf("read 0x%x+%d: %w", base, offset, err)
	}

	switch id {
	case protocol.RespRegValue:
		gotBase, err1 := protocol.DecodeVLQUint(&payload)
		gotOffset, err2 := protocol.DecodeVLQUint(&payload)
		value, err3 := protocol.DecodeVLQUint(&payload)
		if err := multierr.Combine(err1, err2, err3); err != nil {
			return 0, fmt.Errorf("read 0x%x+%d: failed to decode response: %w", base, offset, err)
		}
		if gotBase != base || gotOffset != offset {
			return 0, fmt.Errorf("read 0x%x+%d: response for 0x%x+%d", base, offset, gotBase, gotOffset)
		}
		return value, nil
	case protocol.RespStatus:
		if err := checkStatus(payload); err != nil {
			return 0, fmt.Errorf("read 0x%x+%d: %w", base, offset, err)
		}
		return 0, fmt.Errorf("read 0x%x+%d: status without value", base, offset)
	default:
		return 0, fmt.Errorf("read 0x%x+%d: unexpected response %d", base, offset, id)
	}
}

func (r *Registers) Close() error {
	return r.transport.Close()
}

func checkStatus(payload []byte) error {
	status, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return fmt.Errorf("failed to decode status: %w", err)
	}
	if status != protocol.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRemoteFault, status)
	}
	return nil
}
