package protocol

// EncodeFrame appends one frame with sequence seq to output. payload
// writes the frame contents; the length byte is patched afterwards. On
// error output is left as it was.
func EncodeFrame(output *FrameBuffer, seq uint8, payload func(output *FrameBuffer)) error {
	if output.Free() < MessageLengthMax {
		return ErrOutputFull
	}
	start := output.Len()
	output.Append(0, seq)

	if payload != nil {
		payload(output)
	}

	msgLen := output.Len() - start + MessageTrailerSize
	if msgLen > MessageLengthMax {
		output.Truncate(start)
		return ErrMessageTooLong
	}
	frame := output.Bytes()[start:]
	frame[MessagePositionLen] = uint8(msgLen)

	crc := CRC16(frame)
	output.Append(uint8(crc>>8), uint8(crc), MessageValueSync)
	return nil
}

// BuildFrame returns a standalone frame carrying one command.
func BuildFrame(seq uint8, cmdID uint32, args func(output *FrameBuffer)) ([]byte, error) {
	var scratch FrameBuffer
	err := EncodeFrame(&scratch, seq, func(output *FrameBuffer) {
		EncodeVLQUint(output, cmdID)
		if args != nil {
			args(output)
		}
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), scratch.Bytes()...), nil
}

// FrameScanner extracts frames from a byte stream. After a framing or CRC
// error it drops input up to the next sync byte.
type FrameScanner struct {
	unsynced bool
}

// Scan calls fn for every complete frame at the front of input and pops the
// bytes it consumed. A trailing partial frame is left in input.
func (s *FrameScanner) Scan(input *RxQueue, fn func(msg *Message)) {
	data := input.Data()

	for len(data) > 0 {
		if s.unsynced {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			s.unsynced = false
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			s.unsynced = true
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			s.unsynced = true
			continue
		}

		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			s.unsynced = true
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			s.unsynced = true
			continue
		}

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		msg := &Message{
			Length:   uint8(msgLen),
			Sequence: seq,
			Payload:  payload,
			CRC:      frameCRC,
		}
		data = data[msgLen:]

		fn(msg)
	}

	consumed := input.Len() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}
