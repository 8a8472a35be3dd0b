package protocol

import (
	"io"
	"time"
)

// RegisterAccess is the register space a Transport serves.
type RegisterAccess interface {
	WriteReg(base, offset, value uint32) error
	ReadReg(base, offset uint32) (uint32, error)
}

// Transport is the controller side of the link. It parses request frames,
// applies them to a register space and queues one response per request.
type Transport struct {
	scanner  FrameScanner
	regs     RegisterAccess
	output   *FrameBuffer
	channels uint32

	flushCallback func() // Called after each response frame
	dropped       int
}

// NewTransport creates a Transport answering into output. channels is
// reported by the identify command.
func NewTransport(output *FrameBuffer, regs RegisterAccess, channels int) *Transport {
	return &Transport{
		regs:     regs,
		output:   output,
		channels: uint32(channels),
	}
}

// SetFlushCallback sets a callback that pushes queued responses to the link
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

// Receive processes every complete request frame in input.
func (t *Transport) Receive(input *RxQueue) {
	t.scanner.Scan(input, func(msg *Message) {
		t.respond(msg.Sequence, msg.Payload)
		if t.flushCallback != nil {
			t.flushCallback()
		}
	})
}

func (t *Transport) respond(seq uint8, payload []byte) {
	cmdID, err := DecodeVLQUint(&payload)
	if err != nil {
		t.status(seq, StatusMalformed)
		return
	}

	switch cmdID {
	case CmdWriteReg:
		base, offset, value, err := decodeTriple(&payload)
		if err != nil {
			t.status(seq, StatusMalformed)
			return
		}
		if err := t.regs.WriteReg(base, offset, value); err != nil {
			t.status(seq, StatusRegisterFault)
			return
		}
		t.status(seq, StatusOK)

	case CmdReadReg:
		base, err1 := DecodeVLQUint(&payload)
		offset, err2 := DecodeVLQUint(&payload)
		if err1 != nil || err2 != nil {
			t.status(seq, StatusMalformed)
			return
		}
		value, err := t.regs.ReadReg(base, offset)
		if err != nil {
			t.status(seq, StatusRegisterFault)
			return
		}
		t.reply(seq, func(output *FrameBuffer) {
			EncodeVLQUint(output, RespRegValue)
			EncodeVLQUint(output, base)
			EncodeVLQUint(output, offset)
			EncodeVLQUint(output, value)
		})

	case CmdIdentify:
		t.reply(seq, func(output *FrameBuffer) {
			EncodeVLQUint(output, RespIdentify)
			output.Append([]byte(Version)...)
			output.Append(0)
			EncodeVLQUint(output, t.channels)
		})

	default:
		t.status(seq, StatusUnknownCommand)
	}
}

func (t *Transport) status(seq uint8, code uint32) {
	t.reply(seq, func(output *FrameBuffer) {
		EncodeVLQUint(output, RespStatus)
		EncodeVLQUint(output, code)
	})
}

// reply queues one response frame. A full output is flushed once before
// giving up; a response too long for a frame is answered with
// StatusTooLong so the request still gets exactly one reply.
func (t *Transport) reply(seq uint8, payload func(output *FrameBuffer)) {
	err := EncodeFrame(t.output, seq, payload)
	if err == ErrOutputFull && t.flushCallback != nil {
		t.flushCallback()
		err = EncodeFrame(t.output, seq, payload)
	}
	if err == ErrMessageTooLong {
		err = EncodeFrame(t.output, seq, func(output *FrameBuffer) {
			EncodeVLQUint(output, RespStatus)
			EncodeVLQUint(output, StatusTooLong)
		})
	}
	if err != nil {
		t.dropped++
	}
}

// Dropped counts responses lost because the output could not take them.
func (t *Transport) Dropped() int { return t.dropped }

func decodeTriple(data *[]byte) (a, b, c uint32, err error) {
	if a, err = DecodeVLQUint(data); err != nil {
		return
	}
	if b, err = DecodeVLQUint(data); err != nil {
		return
	}
	c, err = DecodeVLQUint(data)
	return
}

// Serve runs the request loop on port until a read or write fails. Reads
// returning no data back off for a millisecond.
func Serve(port io.ReadWriter, regs RegisterAccess, channels int) error {
	out := &FrameBuffer{}
	input := NewRxQueue(256)
	t := NewTransport(out, regs, channels)

	var writeErr error
	t.SetFlushCallback(func() {
		if writeErr == nil && out.Len() > 0 {
			_, writeErr = port.Write(out.Bytes())
		}
		out.Reset()
	})

	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			input.Write(buf[:n])
			t.Receive(input)
			if writeErr != nil {
				return writeErr
			}
		}
		if err != nil {
			return err
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}
