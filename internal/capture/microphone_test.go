package capture

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/petems/whisperlab/internal/audio"
	"github.com/petems/whisperlab/internal/metrics"
)

// fakeStream replays canned reads.
type fakeStream struct {
	mu       sync.Mutex
	reads    [][]float32
	overflow []bool
	channels int
	startErr error
	readErr  error
	started  bool
	stopped  bool
	closed   int
}

func (f *fakeStream) Start() error {
	f.started = true
	return f.startErr
}

func (f *fakeStream) Read() ([]float32, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	if len(f.reads) == 0 {
		return nil, false, errors.New("no more reads")
	}
	samples := f.reads[0]
	f.reads = f.reads[1:]
	var overflowed bool
	if len(f.overflow) > 0 {
		overflowed = f.overflow[0]
		f.overflow = f.overflow[1:]
	}
	return samples, overflowed, nil
}

func (f *fakeStream) Channels() int {
	if f.channels == 0 {
		return 1
	}
	return f.channels
}

func (f *fakeStream) Stop() error {
	f.stopped = true
	return nil
}

func (f *fakeStream) Close() error {
	f.closed++
	return nil
}

func openerFor(s *fakeStream, got *StreamConfig) StreamOpener {
	return StreamOpenerFunc(func(cfg StreamConfig) (Stream, error) {
		if got != nil {
			*got = cfg
		}
		return s, nil
	})
}

func TestMicrophoneConstructionHasNoSideEffects(t *testing.T) {
	opened := false
	mic := NewMicrophone(StreamOpenerFunc(func(StreamConfig) (Stream, error) {
		opened = true
		return &fakeStream{}, nil
	}))

	if opened {
		t.Fatal("expected NewMicrophone not to open a stream")
	}
	if _, err := mic.Get(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestMicrophoneOpenConfiguresStream(t *testing.T) {
	stream := &fakeStream{}
	var cfg StreamConfig
	mic := NewMicrophone(openerFor(stream, &cfg), WithWindowSeconds(2), WithDevice("USB Mic"))

	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mic.Close()

	want := StreamConfig{
		DeviceID:        "USB Mic",
		SampleRate:      audio.SampleRate,
		Channels:        1,
		FramesPerBuffer: 2 * audio.SampleRate,
	}
	if cfg != want {
		t.Fatalf("expected stream config %+v, got %+v", want, cfg)
	}
	if !stream.started {
		t.Fatal("expected stream to be started")
	}
	if err := mic.Open(); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestMicrophoneDefaultWindow(t *testing.T) {
	mic := NewMicrophone(openerFor(&fakeStream{}, nil))
	if got := mic.WindowSamples(); got != 80000 {
		t.Fatalf("expected 80000 samples per window, got %d", got)
	}
}

func TestMicrophoneStartFailureClosesStream(t *testing.T) {
	stream := &fakeStream{startErr: errors.New("device busy")}
	mic := NewMicrophone(openerFor(stream, nil))

	if err := mic.Open(); err == nil {
		t.Fatal("expected Open to fail")
	}
	if stream.closed != 1 {
		t.Fatalf("expected stream closed once, got %d", stream.closed)
	}
	if _, err := mic.Get(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen after failed open, got %v", err)
	}
}

func TestMicrophoneOpenFailure(t *testing.T) {
	boom := errors.New("no device")
	mic := NewMicrophone(StreamOpenerFunc(func(StreamConfig) (Stream, error) {
		return nil, boom
	}))
	if err := mic.Open(); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped open error, got %v", err)
	}
}

func TestMicrophoneGet(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	stream := &fakeStream{reads: [][]float32{{0.1, 0.2, 0.3}}}
	mic := NewMicrophone(openerFor(stream, nil), WithMetrics(m))
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mic.Close()

	w, err := mic.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !slices.Equal(w, Window{0.1, 0.2, 0.3}) {
		t.Fatalf("expected window [0.1 0.2 0.3], got %v", w)
	}
	if got := testutil.ToFloat64(m.WindowsCaptured.WithLabelValues(metrics.SourceMicrophone)); got != 1 {
		t.Fatalf("expected 1 captured window, got %v", got)
	}
}

func TestMicrophoneExtractsFirstChannel(t *testing.T) {
	stream := &fakeStream{
		channels: 2,
		reads:    [][]float32{{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}},
	}
	mic := NewMicrophone(openerFor(stream, nil))
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mic.Close()

	w, err := mic.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !slices.Equal(w, Window{0.1, 0.2, 0.3}) {
		t.Fatalf("expected channel 0 [0.1 0.2 0.3], got %v", w)
	}
}

func TestMicrophoneOverflow(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	stream := &fakeStream{
		reads:    [][]float32{{0}, {0.5}},
		overflow: []bool{true, false},
	}
	mic := NewMicrophone(openerFor(stream, nil), WithMetrics(m))
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mic.Close()

	_, err := mic.Get()
	if !errors.Is(err, ErrCaptureOverflow) {
		t.Fatalf("expected ErrCaptureOverflow, got %v", err)
	}
	if errors.Is(err, audio.ErrSampleOverflow) {
		t.Fatal("capture overflow must not match sample overflow")
	}
	if got := testutil.ToFloat64(m.CaptureOverflows); got != 1 {
		t.Fatalf("expected 1 overflow recorded, got %v", got)
	}

	// No automatic retry, but the next call reads again.
	w, err := mic.Get()
	if err != nil {
		t.Fatalf("Get after overflow: %v", err)
	}
	if w[0] != 0.5 {
		t.Fatalf("expected 0.5, got %v", w[0])
	}
}

func TestMicrophoneReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	mic := NewMicrophone(openerFor(&fakeStream{readErr: boom}, nil))
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mic.Close()

	if _, err := mic.Get(); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestMicrophoneClose(t *testing.T) {
	stream := &fakeStream{}
	mic := NewMicrophone(openerFor(stream, nil))

	if err := mic.Close(); err != nil {
		t.Fatalf("Close before Open: %v", err)
	}
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := mic.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mic.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if !stream.stopped || stream.closed != 1 {
		t.Fatalf("expected stream stopped and closed once, got stopped=%v closed=%d", stream.stopped, stream.closed)
	}
	if _, err := mic.Get(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen after Close, got %v", err)
	}
	if err := mic.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	mic.Close()
}

// blockingStream blocks in Read until stopped, and records whether it was
// closed while a read was still in flight.
type blockingStream struct {
	mu           sync.Mutex
	reading      chan struct{}
	release      chan struct{}
	inRead       bool
	stops        int
	closed       int
	closedInRead bool
	releaseOnce  sync.Once
}

func newBlockingStream() *blockingStream {
	return &blockingStream{
		reading: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingStream) Start() error  { return nil }
func (b *blockingStream) Channels() int { return 1 }

func (b *blockingStream) Read() ([]float32, bool, error) {
	b.mu.Lock()
	b.inRead = true
	b.mu.Unlock()
	b.reading <- struct{}{}

	<-b.release

	b.mu.Lock()
	b.inRead = false
	b.mu.Unlock()
	return nil, false, errors.New("stream stopped")
}

func (b *blockingStream) Stop() error {
	b.mu.Lock()
	b.stops++
	b.mu.Unlock()
	b.releaseOnce.Do(func() { close(b.release) })
	return nil
}

func (b *blockingStream) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	if b.inRead {
		b.closedInRead = true
	}
	return nil
}

func TestMicrophoneStopEndsPendingGet(t *testing.T) {
	stream := newBlockingStream()
	mic := NewMicrophone(openerForStream(stream))
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := mic.Get()
		errc <- err
	}()
	<-stream.reading

	if err := mic.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-errc; !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if stream.closed != 0 {
		t.Fatal("Stop must not release the stream")
	}
	if _, err := mic.Get(); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped after Stop, got %v", err)
	}

	if err := mic.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if stream.closed != 1 || stream.stops != 1 {
		t.Fatalf("expected one stop and one close, got stops=%d closed=%d", stream.stops, stream.closed)
	}
}

func TestMicrophoneCloseWaitsForPendingRead(t *testing.T) {
	stream := newBlockingStream()
	mic := NewMicrophone(openerForStream(stream))
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := mic.Get()
		errc <- err
	}()
	<-stream.reading

	if err := mic.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-errc; !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if stream.closedInRead {
		t.Fatal("stream was closed while a read was in flight")
	}
	if stream.closed != 1 {
		t.Fatalf("expected one close, got %d", stream.closed)
	}
}

func openerForStream(s Stream) StreamOpener {
	return StreamOpenerFunc(func(StreamConfig) (Stream, error) { return s, nil })
}

func TestFirstChannelCopiesMono(t *testing.T) {
	in := []float32{0.1, 0.2}
	got := firstChannel(in, 1)
	if &got[0] == &in[0] {
		t.Fatal("expected mono result to be copied into a new slice")
	}
	if !slices.Equal(got, in) {
		t.Fatalf("expected %v, got %v", in, got)
	}
}
