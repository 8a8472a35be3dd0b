package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// HostTransport is the host side of the link. Requests are sent one at a
// time; each waits for the response frame with its sequence byte.
type HostTransport struct {
	port io.ReadWriteCloser

	// Serializes Call so only one request is in flight
	callMutex sync.Mutex
	seq       uint8

	scanner     FrameScanner
	inputBuffer *RxQueue

	responseChan chan *Message

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewHostTransport starts reading responses from port.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		seq:          MessageDest,
		inputBuffer:  NewRxQueue(512),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// Call sends one command and returns the payload of its response, with the
// response ID already decoded.
func (t *HostTransport) Call(cmdID uint32, args func(output *FrameBuffer), timeout time.Duration) (uint32, []byte, error) {
	t.callMutex.Lock()
	defer t.callMutex.Unlock()

	seq := t.seq
	t.seq = NextSequence(seq)

	frame, err := BuildFrame(seq, cmdID, args)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build command %d: %w", cmdID, err)
	}

	// Drop responses left over from timed-out calls
	for len(t.responseChan) > 0 {
		<-t.responseChan
	}

	if n, err := t.port.Write(frame); err != nil {
		return 0, nil, fmt.Errorf("failed to write command %d: %w", cmdID, err)
	} else if n != len(frame) {
		return 0, nil, fmt.Errorf("incomplete write: %d/%d bytes", n, len(frame))
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case msg := <-t.responseChan:
			if msg.Sequence != seq {
				continue
			}
			payload := msg.Payload
			respID, err := DecodeVLQUint(&payload)
			if err != nil {
				return 0, nil, fmt.Errorf("failed to decode response ID: %w", err)
			}
			return respID, payload, nil

		case <-deadline.C:
			return 0, nil, fmt.Errorf("command %d seq 0x%02x: %w after %v", cmdID, seq, ErrTimeout, timeout)

		case <-t.stopChan:
			return 0, nil, ErrClosed
		}
	}
}

// readLoop continuously reads from the port and queues decoded frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		n, err := t.port.Read(buffer)
		if n > 0 {
			t.inputBuffer.Write(buffer[:n])
			t.scanner.Scan(t.inputBuffer, t.dispatch)
		}
		if err == nil {
			continue
		}

		select {
		case <-t.stopChan:
			return
		default:
		}
		if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
			return
		}
		// Serial read timeouts surface as EOF; keep polling
		time.Sleep(10 * time.Millisecond)
	}
}

func (t *HostTransport) dispatch(msg *Message) {
	select {
	case t.responseChan <- msg:
	default:
		// Queue full, drop oldest
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the read loop and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}
