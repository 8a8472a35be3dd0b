package protocol

// FrameBuffer accumulates outgoing frames in fixed storage so the
// controller never allocates while answering. Bytes past the end are
// dropped.
type FrameBuffer struct {
	buf [MessageMax]byte
	n   int
}

// Append adds p at the end. It reports false if p did not fit.
func (b *FrameBuffer) Append(p ...byte) bool {
	n := copy(b.buf[b.n:], p)
	b.n += n
	return n == len(p)
}

func (b *FrameBuffer) Len() int { return b.n }

// Free is the number of bytes Append can still take.
func (b *FrameBuffer) Free() int { return len(b.buf) - b.n }

// Bytes returns the buffered frames. The slice aliases the buffer.
func (b *FrameBuffer) Bytes() []byte { return b.buf[:b.n] }

// Truncate discards everything after the first n bytes.
func (b *FrameBuffer) Truncate(n int) {
	if n >= 0 && n < b.n {
		b.n = n
	}
}

func (b *FrameBuffer) Reset() { b.n = 0 }

// RxQueue holds bytes read from the link until whole frames are present.
// Consumed bytes are shifted out so Data is always one contiguous slice.
type RxQueue struct {
	buf []byte
}

// NewRxQueue returns a queue holding at most capacity bytes.
func NewRxQueue(capacity int) *RxQueue {
	return &RxQueue{buf: make([]byte, 0, capacity)}
}

// Write queues as much of p as fits and returns the count taken.
func (q *RxQueue) Write(p []byte) int {
	n := cap(q.buf) - len(q.buf)
	if n > len(p) {
		n = len(p)
	}
	q.buf = append(q.buf, p[:n]...)
	return n
}

func (q *RxQueue) Data() []byte { return q.buf }

func (q *RxQueue) Len() int { return len(q.buf) }

// Pop drops n bytes from the front.
func (q *RxQueue) Pop(n int) {
	if n >= len(q.buf) {
		q.buf = q.buf[:0]
		return
	}
	q.buf = q.buf[:copy(q.buf, q.buf[n:])]
}

func (q *RxQueue) Reset() { q.buf = q.buf[:0] }
