// Package protocol implements the framed register access protocol spoken
// between the host and the array controller over a serial link.
//
// Every frame is
//
//	len | seq | payload... | crc_hi | crc_lo | 0x7E
//
// where len counts the whole frame, seq is 0x10 | n, and the CRC covers
// len, seq and payload. The payload is one command: a VLQ command ID
// followed by VLQ arguments. The controller answers each request frame with
// exactly one response frame carrying the same sequence byte.
package protocol

import "errors"

// Version is the protocol revision reported by the controller.
const Version = "1"

const (
	MessageMax         = 512 // Scratch output size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	MessageSeqMask = 0x0F
)

// Command and response IDs.
const (
	CmdWriteReg  = 1 // base, offset, value
	CmdReadReg   = 2 // base, offset
	CmdIdentify  = 3 // no arguments
	RespStatus   = 16 // status
	RespRegValue = 17 // base, offset, value
	RespIdentify = 18 // version, channels
)

// Status codes carried by RespStatus.
const (
	StatusOK             = 0
	StatusRegisterFault  = 1
	StatusUnknownCommand = 2
	StatusMalformed      = 3
	StatusTooLong        = 4 // response did not fit in one frame
)

var (
	ErrMessageTooLong = errors.New("message too long")
	ErrOutputFull     = errors.New("output buffer full")
	ErrTimeout        = errors.New("response timeout")
	ErrClosed         = errors.New("transport closed")
)

// Message is one decoded frame.
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// NextSequence advances a sequence byte, staying in the 0x10-0x1F range.
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
