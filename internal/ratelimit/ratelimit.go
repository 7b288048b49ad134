// Package ratelimit throttles data connection streams with a token bucket.
//
// A nil *Limiter means "no limit": NewReader and NewWriter hand back the
// stream they were given, so callers never need to branch on whether a
// limit is configured.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

// Limiter is a token bucket holding at most one second worth of bytes.
// A request larger than the bucket drives the balance negative; the caller
// sleeps until that debt is repaid, so the average rate holds for any
// request size.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // bytes per second
	tokens float64
	last   time.Time
	now    func() time.Time
	sleep  func(time.Duration)
}

// New returns a Limiter allowing bytesPerSecond on average, or nil if
// bytesPerSecond is not positive.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	l := &Limiter{
		rate:  float64(bytesPerSecond),
		now:   time.Now,
		sleep: time.Sleep,
	}
	l.tokens = l.rate
	l.last = l.now()
	return l
}

// Rate returns the configured limit in bytes per second.
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return int64(l.rate)
}

// Wait blocks until n bytes may pass.
func (l *Limiter) Wait(n int) {
	if l == nil || n <= 0 {
		return
	}

	l.mu.Lock()
	l.refill()
	l.tokens -= float64(n)
	debt := -l.tokens
	l.mu.Unlock()

	if debt > 0 {
		l.sleep(time.Duration(debt / l.rate * float64(time.Second)))
	}
}

// refill adds the tokens accrued since the last call. l.mu must be held.
func (l *Limiter) refill() {
	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.rate {
		l.tokens = l.rate
	}
	l.last = now
}

// readChunk and writeChunk keep individual waits short so throughput stays
// smooth instead of arriving in one-second bursts.
const (
	readChunk  = 8 * 1024
	writeChunk = 64 * 1024
)

type reader struct {
	r io.Reader
	l *Limiter
}

// NewReader returns r throttled by l. A nil l returns r unchanged.
func NewReader(r io.Reader, l *Limiter) io.Reader {
	if l == nil {
		return r
	}
	return &reader{r: r, l: l}
}

func (r *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > readChunk {
		p = p[:readChunk]
	}
	r.l.Wait(len(p))
	return r.r.Read(p)
}

type writer struct {
	w io.Writer
	l *Limiter
}

// NewWriter returns w throttled by l. A nil l returns w unchanged.
func NewWriter(w io.Writer, l *Limiter) io.Writer {
	if l == nil {
		return w
	}
	return &writer{w: w, l: l}
}

func (w *writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := written + writeChunk
		if end > len(p) {
			end = len(p)
		}
		chunk := p[written:end]
		w.l.Wait(len(chunk))
		n, err := w.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		if n < len(chunk) {
			// short write underneath; the caller resends the rest
			return written, nil
		}
	}
	return written, nil
}
