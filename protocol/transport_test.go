package protocol

import (
	"errors"
	"net"
	"testing"
	"time"
)

type mapRegisters struct {
	values map[[2]uint32]uint32
	fail   bool
}

func newMapRegisters() *mapRegisters {
	return &mapRegisters{values: make(map[[2]uint32]uint32)}
}

func (m *mapRegisters) WriteReg(base, offset, value uint32) error {
	if m.fail {
		return errors.New("bus fault")
	}
	m.values[[2]uint32{base, offset}] = value
	return nil
}

func (m *mapRegisters) ReadReg(base, offset uint32) (uint32, error) {
	if m.fail {
		return 0, errors.New("bus fault")
	}
	return m.values[[2]uint32{base, offset}], nil
}

func decodeResponses(t *testing.T, data []byte) []*Message {
	t.Helper()
	var s FrameScanner
	msgs, left := scanAll(&s, data)
	if left != 0 {
		t.Fatalf("%d undecodable response bytes", left)
	}
	return msgs
}

func TestTransportWriteRead(t *testing.T) {
	regs := newMapRegisters()
	out := &FrameBuffer{}
	tr := NewTransport(out, regs, 9)

	read, err := BuildFrame(0x11, CmdReadReg, func(output *FrameBuffer) {
		EncodeVLQUint(output, 0x100)
		EncodeVLQUint(output, 0)
	})
	if err != nil {
		t.Fatalf("BuildFrame failed: %v", err)
	}
	stream := append(writeRegFrame(t, 0x10, 0x100, 0, 0x1BF), read...)

	tr.Receive(rxFrom(stream))

	if regs.values[[2]uint32{0x100, 0}] != 0x1BF {
		t.Errorf("Register not written: %v", regs.values)
	}

	msgs := decodeResponses(t, out.Bytes())
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(msgs))
	}

	p := msgs[0].Payload
	id, _ := DecodeVLQUint(&p)
	status, _ := DecodeVLQUint(&p)
	if msgs[0].Sequence != 0x10 || id != RespStatus || status != StatusOK {
		t.Errorf("Write response seq=0x%02X id=%d status=%d", msgs[0].Sequence, id, status)
	}

	p = msgs[1].Payload
	id, _ = DecodeVLQUint(&p)
	base, _ := DecodeVLQUint(&p)
	offset, _ := DecodeVLQUint(&p)
	value, _ := DecodeVLQUint(&p)
	if msgs[1].Sequence != 0x11 || id != RespRegValue || base != 0x100 || offset != 0 || value != 0x1BF {
		t.Errorf("Read response seq=0x%02X id=%d %d/%d=0x%X", msgs[1].Sequence, id, base, offset, value)
	}
}

func TestTransportErrorStatus(t *testing.T) {
	testCases := []struct {
		name   string
		frame  func(t *testing.T) []byte
		fail   bool
		status uint32
	}{
		{"register fault", func(t *testing.T) []byte { return writeRegFrame(t, 0x10, 0, 0, 1) }, true, StatusRegisterFault},
		{"unknown command", func(t *testing.T) []byte {
			f, _ := BuildFrame(0x10, 99, nil)
			return f
		}, false, StatusUnknownCommand},
		{"missing arguments", func(t *testing.T) []byte {
			f, _ := BuildFrame(0x10, CmdWriteReg, func(output *FrameBuffer) { EncodeVLQUint(output, 1) })
			return f
		}, false, StatusMalformed},
	}

	for _, tc := range testCases {
		regs := newMapRegisters()
		regs.fail = tc.fail
		out := &FrameBuffer{}
		NewTransport(out, regs, 1).Receive(rxFrom(tc.frame(t)))

		msgs := decodeResponses(t, out.Bytes())
		if len(msgs) != 1 {
			t.Errorf("%s: expected 1 response, got %d", tc.name, len(msgs))
			continue
		}
		p := msgs[0].Payload
		id, _ := DecodeVLQUint(&p)
		status, _ := DecodeVLQUint(&p)
		if id != RespStatus || status != tc.status {
			t.Errorf("%s: got id=%d status=%d, expected status %d", tc.name, id, status, tc.status)
		}
	}
}

func TestHostTransportOverPipe(t *testing.T) {
	host, dev := net.Pipe()
	regs := newMapRegisters()

	served := make(chan error, 1)
	go func() { served <- Serve(dev, regs, 9) }()

	ht := NewHostTransport(host)

	id, _, err := ht.Call(CmdWriteReg, func(output *FrameBuffer) {
		EncodeVLQUint(output, 0)
		EncodeVLQUint(output, 7)
		EncodeVLQUint(output, 65535)
	}, time.Second)
	if err != nil || id != RespStatus {
		t.Fatalf("Write call failed: id=%d err=%v", id, err)
	}

	id, payload, err := ht.Call(CmdIdentify, nil, time.Second)
	if err != nil || id != RespIdentify {
		t.Fatalf("Identify call failed: id=%d err=%v", id, err)
	}
	if string(payload[:len(Version)]) != Version {
		t.Errorf("Unexpected identify payload %v", payload)
	}

	if regs.values[[2]uint32{0, 7}] != 65535 {
		t.Errorf("Register not written through the link: %v", regs.values)
	}

	if err := ht.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	dev.Close()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Errorf("Serve did not stop after the link closed")
	}

	if _, _, err := ht.Call(CmdIdentify, nil, time.Second); err == nil {
		t.Errorf("Expected error calling a closed transport")
	}
}

func TestHostTransportTimeout(t *testing.T) {
	host, dev := net.Pipe()
	defer dev.Close()

	// Swallow requests without answering
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := dev.Read(buf); err != nil {
				return
			}
		}
	}()

	ht := NewHostTransport(host)
	defer ht.Close()

	_, _, err := ht.Call(CmdIdentify, nil, 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestTransportReplyTooLong(t *testing.T) {
	out := &FrameBuffer{}
	tr := NewTransport(out, newMapRegisters(), 1)

	tr.reply(0x15, func(output *FrameBuffer) {
		EncodeVLQUint(output, RespRegValue)
		output.Append(make([]byte, MessageLengthMax)...)
	})

	msgs := decodeResponses(t, out.Bytes())
	if len(msgs) != 1 || msgs[0].Sequence != 0x15 {
		t.Fatalf("Expected one response for seq 0x15, got %d", len(msgs))
	}
	p := msgs[0].Payload
	id, _ := DecodeVLQUint(&p)
	status, _ := DecodeVLQUint(&p)
	if id != RespStatus || status != StatusTooLong {
		t.Errorf("Got id=%d status=%d, expected status %d", id, status, StatusTooLong)
	}
	if tr.Dropped() != 0 {
		t.Errorf("Expected no dropped responses, got %d", tr.Dropped())
	}
}

func TestTransportFlushesFullOutput(t *testing.T) {
	out := &FrameBuffer{}
	out.Append(make([]byte, MessageMax-MessageLengthMax+1)...)
	tr := NewTransport(out, newMapRegisters(), 1)

	flushes := 0
	tr.SetFlushCallback(func() {
		flushes++
		if out.Free() < MessageLengthMax {
			out.Reset()
		}
	})
	tr.Receive(rxFrom(writeRegFrame(t, 0x16, 0, 0, 5)))

	msgs := decodeResponses(t, out.Bytes())
	if len(msgs) != 1 || msgs[0].Sequence != 0x16 {
		t.Errorf("Expected the response after flushing, got %d frames", len(msgs))
	}
	if flushes != 2 {
		t.Errorf("Expected a flush for room plus one per frame, got %d", flushes)
	}

	// Without a flush callback the response is counted as dropped
	out.Reset()
	out.Append(make([]byte, MessageMax)...)
	tr = NewTransport(out, newMapRegisters(), 1)
	tr.Receive(rxFrom(writeRegFrame(t, 0x17, 0, 0, 5)))
	if tr.Dropped() != 1 || out.Len() != MessageMax {
		t.Errorf("Expected one dropped response, got %d (len %d)", tr.Dropped(), out.Len())
	}
}
