//go:build rp2040

package main

import "machine"

// usbPort adapts machine.Serial (USB CDC on the Pico) to io.ReadWriter.
// Read never blocks: it returns whatever is buffered, possibly nothing.
type usbPort struct{}

func initUSB() usbPort {
	machine.Serial.Configure(machine.UARTConfig{})
	return usbPort{}
}

func (usbPort) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		buf[n] = b
		n++
	}
	return n, nil
}

func (usbPort) Write(data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := machine.Serial.Write(data[written:])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}
