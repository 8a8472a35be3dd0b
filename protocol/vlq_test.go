package protocol

import (
	"testing"
)

func TestVLQRegisterValues(t *testing.T) {
	// Register words use all 32 bits, including values that are negative
	// when viewed as int32.
	testCases := []struct {
		value uint32
		size  int
	}{
		{0, 1},
		{95, 1},
		{96, 2},
		{1024, 2},
		{65535, 3},
		{0x7FFFFFFF, 5},
		{0x80000000, 5},
		{0xFFFFFFFF, 1},
	}

	for _, tc := range testCases {
		var output FrameBuffer
		EncodeVLQUint(&output, tc.value)
		encoded := output.Bytes()

		if len(encoded) != tc.size {
			t.Errorf("Value 0x%X encoded to %d bytes, expected %d", tc.value, len(encoded), tc.size)
		}

		data := encoded
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode 0x%X: %v", tc.value, err)
			continue
		}
		if decoded != tc.value || len(data) != 0 {
			t.Errorf("Decoded 0x%X (%d left), expected 0x%X", decoded, len(data), tc.value)
		}
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	// Test decoding with insufficient data
	data := []byte{0x80} // Continuation byte but no following byte
	_, err := DecodeVLQInt(&data)
	if err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
