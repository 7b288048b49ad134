package ratelimit

import (
	"bytes"
	"testing"
	"time"
)

// fakeClock advances only when the limiter sleeps.
type fakeClock struct {
	t     time.Time
	slept time.Duration
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) sleep(d time.Duration) {
	f.slept += d
	f.t = f.t.Add(d)
}

func newTestLimiter(rate int64) (*Limiter, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	l := New(rate)
	l.now = clk.now
	l.sleep = clk.sleep
	l.last = clk.t
	return l, clk
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		bytesPerSecond int64
		expectNil      bool
	}{
		{"Valid rate", 1024, false},
		{"Zero rate (unlimited)", 0, true},
		{"Negative rate (unlimited)", -1, true},
		{"Very low rate", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.bytesPerSecond)
			if tt.expectNil != (limiter == nil) {
				t.Errorf("New(%d) = %v, expectNil %v", tt.bytesPerSecond, limiter, tt.expectNil)
			}
			if limiter.Rate() != max(tt.bytesPerSecond, 0) {
				t.Errorf("Rate() = %d, want %d", limiter.Rate(), tt.bytesPerSecond)
			}
		})
	}
}

func TestWait_BurstThenThrottle(t *testing.T) {
	t.Parallel()
	l, clk := newTestLimiter(1000)

	// The bucket starts full: one second worth passes without sleeping.
	l.Wait(1000)
	if clk.slept != 0 {
		t.Fatalf("slept %v during initial burst", clk.slept)
	}

	l.Wait(500)
	if clk.slept != 500*time.Millisecond {
		t.Errorf("slept %v, want 500ms", clk.slept)
	}
}

func TestWait_RequestLargerThanRate(t *testing.T) {
	t.Parallel()
	l, clk := newTestLimiter(10)
	l.Wait(10)

	l.Wait(1000)
	if clk.slept != 100*time.Second {
		t.Errorf("slept %v, want 100s", clk.slept)
	}

	// The debt is repaid by the sleep, not forgiven: the next request
	// starts from an empty bucket.
	l.Wait(10)
	if clk.slept != 101*time.Second {
		t.Errorf("slept %v in total, want 101s", clk.slept)
	}
}

func TestWait_AverageRateHoldsForLargeChunks(t *testing.T) {
	t.Parallel()
	const rate = 1000
	l, clk := newTestLimiter(rate)

	var sent int
	for n := 0; n < 4; n++ {
		l.Wait(8192)
		sent += 8192
	}

	// One second of burst is free; every other byte costs 1ms.
	want := time.Duration(sent-rate) * time.Second / rate
	if diff := clk.slept - want; diff < -time.Millisecond || diff > time.Millisecond {
		t.Errorf("slept %v for %d bytes at %d B/s, want %v", clk.slept, sent, rate, want)
	}
}

func TestWait_NilLimiter(t *testing.T) {
	t.Parallel()
	var l *Limiter
	l.Wait(1 << 20)
}

func TestNewReaderWriter_NilPassThrough(t *testing.T) {
	t.Parallel()
	r := bytes.NewReader([]byte("x"))
	if NewReader(r, nil) != r {
		t.Error("expected original reader when limiter is nil")
	}
	var buf bytes.Buffer
	if NewWriter(&buf, nil) != &buf {
		t.Error("expected original writer when limiter is nil")
	}
}

func TestReader_LimitsChunkSize(t *testing.T) {
	t.Parallel()
	l, _ := newTestLimiter(1 << 20)
	data := bytes.Repeat([]byte("a"), 3*readChunk)
	r := NewReader(bytes.NewReader(data), l)

	p := make([]byte, len(data))
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != readChunk {
		t.Errorf("Read() = %d bytes, want %d", n, readChunk)
	}
}

func TestWriter_WritesEverything(t *testing.T) {
	t.Parallel()
	l, clk := newTestLimiter(64 * 1024)
	data := bytes.Repeat([]byte("b"), 2*writeChunk+10)

	var buf bytes.Buffer
	n, err := NewWriter(&buf, l).Write(data)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(data) || !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("wrote %d bytes, want %d", n, len(data))
	}
	if clk.slept == 0 {
		t.Error("expected throttling beyond the initial burst")
	}
}

type halfWriter struct{ bytes.Buffer }

func (h *halfWriter) Write(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:len(p)/2]
	}
	return h.Buffer.Write(p)
}

func TestWriter_ReportsShortWrite(t *testing.T) {
	t.Parallel()
	l, _ := newTestLimiter(1 << 20)
	var hw halfWriter

	n, err := NewWriter(&hw, l).Write([]byte("0123456789"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || hw.String() != "01234" {
		t.Errorf("short write = %d %q, want 5 %q", n, hw.String(), "01234")
	}
}
