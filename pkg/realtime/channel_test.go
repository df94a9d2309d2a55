package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	incoming chan []byte

	mu      sync.Mutex
	written [][]byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 8),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.incoming:
		return textMessage, data, nil
	case <-c.closed:
		return 0, nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("write on closed conn")
	default:
	}
	c.mu.Lock()
	c.written = append(c.written, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) writtenFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

func (c *fakeConn) deliver(t *testing.T, f Frame) {
	t.Helper()
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	c.incoming <- data
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	errs  []error
	dials []string
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, url)
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(d.conns) == 0 {
		return nil, errors.New("no conn available")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func staticToken(token string) TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestChannelConnectAppendsToken(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	dialer.mu.Lock()
	url := dialer.dials[0]
	dialer.mu.Unlock()
	if !strings.HasSuffix(url, "?token=abc") {
		t.Errorf("dial url = %q, want token query", url)
	}
}

func TestChannelAbortsWithoutToken(t *testing.T) {
	dialer := &fakeDialer{}
	ch := NewChannel("ws://reader/ws", staticToken(""),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Disconnected })

	time.Sleep(20 * time.Millisecond)
	if got := dialer.dialCount(); got != 0 {
		t.Errorf("dial count = %d, want 0 without a token", got)
	}
}

func TestChannelDispatchesByService(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	var mu sync.Mutex
	var qna, library []Frame
	ch.Subscribe(ServiceReaderQnA, func(f Frame) {
		mu.Lock()
		qna = append(qna, f)
		mu.Unlock()
	})
	ch.Subscribe(ServiceLibrary, func(f Frame) {
		mu.Lock()
		library = append(library, f)
		mu.Unlock()
	})

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	conn.deliver(t, Frame{Service: ServiceReaderQnA, Event: EventChunk, Body: json.RawMessage(`"hi"`)})
	conn.deliver(t, Frame{Service: ServiceLibrary, Event: EventProcessingComplete})

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(qna) == 1 && len(library) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if qna[0].Event != EventChunk || qna[0].BodyString() != "hi" {
		t.Errorf("qna frame = %+v", qna[0])
	}
	if library[0].Event != EventProcessingComplete {
		t.Errorf("library frame = %+v", library[0])
	}
}

func TestChannelUnsubscribeRemovesOnlyOwnHandler(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	var mu sync.Mutex
	var first, second int
	unsub := ch.Subscribe(ServiceReaderQnA, func(Frame) {
		mu.Lock()
		first++
		mu.Unlock()
	})
	ch.Subscribe(ServiceReaderQnA, func(Frame) {
		mu.Lock()
		second++
		mu.Unlock()
	})
	unsub()

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	conn.deliver(t, Frame{Service: ServiceReaderQnA, Event: EventChunk})
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return second == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if first != 0 {
		t.Errorf("removed handler fired %d times", first)
	}
}

func TestChannelSendDropsWhenDisconnected(t *testing.T) {
	dialer := &fakeDialer{}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	// Must not panic or queue; the frame is simply gone.
	ch.Send(Frame{Service: ServiceReaderQnA, Event: EventChunk})
}

func TestChannelSendWritesFrame(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	ch.Send(Frame{Service: ServiceReaderQnA, Event: "question", ConversationID: "c1"})

	frames := conn.writtenFrames()
	if len(frames) != 1 {
		t.Fatalf("written frames = %d, want 1", len(frames))
	}
	var f Frame
	if err := json.Unmarshal(frames[0], &f); err != nil {
		t.Fatalf("unmarshal written frame: %v", err)
	}
	if f.Service != ServiceReaderQnA || f.ConversationID != "c1" {
		t.Errorf("written frame = %+v", f)
	}
}

func TestChannelReconnectKeepsSubscriptionsSingular(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{first, second}}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	var mu sync.Mutex
	var got int
	ch.Subscribe(ServiceReaderQnA, func(Frame) {
		mu.Lock()
		got++
		mu.Unlock()
	})

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	// Drop the connection; the channel schedules a reconnect and the
	// existing subscription keeps receiving exactly one delivery per frame.
	first.Close()
	waitFor(t, 3*time.Second, func() bool { return dialer.dialCount() == 2 })
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	second.deliver(t, Frame{Service: ServiceReaderQnA, Event: EventChunk})
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got >= 1
	})

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if got != 1 {
		t.Errorf("handler fired %d times after reconnect, want 1", got)
	}
}

func TestChannelCloseStopsRetries(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	ch.Close()
	waitFor(t, time.Second, func() bool { return ch.State() == Disconnected })

	time.Sleep(50 * time.Millisecond)
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count after close = %d, want 1", got)
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{8, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestWaitConnectedHonorsContext(t *testing.T) {
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(&fakeDialer{}), WithLogger(quietLogger()),
		WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := ch.WaitConnected(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitConnected error = %v, want deadline exceeded", err)
	}
}

func TestWaitConnectedImmediateWhenConnected(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	ch := NewChannel("ws://reader/ws", staticToken("abc"),
		WithDialer(dialer), WithLogger(quietLogger()))
	defer ch.Close()

	ch.Connect(context.Background())
	waitFor(t, time.Second, func() bool { return ch.State() == Connected })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := ch.WaitConnected(ctx); err != nil {
		t.Fatalf("WaitConnected: %v", err)
	}
}
