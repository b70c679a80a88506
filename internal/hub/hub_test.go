package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
	"github.com/budprat/PromptAlchemy/pkg/protocol"
)

type recordedCommand struct {
	conn  interfaces.Conn
	frame []byte
}

// recordingHandler forwards every callback onto channels so tests can wait
// for the hub goroutine without sleeping.
type recordingHandler struct {
	commands    chan recordedCommand
	disconnects chan interfaces.Conn
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		commands:    make(chan recordedCommand, 16),
		disconnects: make(chan interfaces.Conn, 16),
	}
}

func (h *recordingHandler) HandleCommand(conn interfaces.Conn, frame []byte) {
	h.commands <- recordedCommand{conn: conn, frame: frame}
}

func (h *recordingHandler) HandleDisconnect(conn interfaces.Conn) {
	h.disconnects <- conn
}

type nopConn struct{}

func (nopConn) Send(_ []byte) error { return nil }

func (nopConn) SendEvent(_ protocol.Event) error { return nil }

func (nopConn) Close() error { return nil }

func TestDispatchReachesHandlerInOrder(t *testing.T) {
	handler := newRecordingHandler()
	h := NewHub(handler, zap.NewNop())
	require.NoError(t, h.Start(context.Background()))
	defer h.Stop()

	conn := nopConn{}
	frames := [][]byte{[]byte(`{"type":"a"}`), []byte(`{"type":"b"}`), []byte(`{"type":"c"}`)}
	for _, frame := range frames {
		require.NoError(t, h.Dispatch(conn, frame))
	}

	for _, want := range frames {
		select {
		case got := <-handler.commands:
			assert.Equal(t, want, got.frame)
		case <-time.After(time.Second):
			t.Fatal("hub never delivered the command")
		}
	}
}

func TestDisconnectReachesHandler(t *testing.T) {
	handler := newRecordingHandler()
	h := NewHub(handler, zap.NewNop())
	require.NoError(t, h.Start(context.Background()))
	defer h.Stop()

	conn := nopConn{}
	require.NoError(t, h.Disconnect(conn))

	select {
	case got := <-handler.disconnects:
		assert.Equal(t, interfaces.Conn(conn), got)
	case <-time.After(time.Second):
		t.Fatal("hub never delivered the disconnect")
	}
}

func TestDispatchBeforeStart(t *testing.T) {
	h := NewHub(newRecordingHandler(), zap.NewNop())

	assert.ErrorIs(t, h.Dispatch(nopConn{}, []byte(`{}`)), ErrHubNotRunning)
	assert.ErrorIs(t, h.Disconnect(nopConn{}), ErrHubNotRunning)
}

func TestDoubleStartAndDoubleStop(t *testing.T) {
	h := NewHub(newRecordingHandler(), zap.NewNop())

	require.NoError(t, h.Start(context.Background()))
	assert.ErrorIs(t, h.Start(context.Background()), ErrHubAlreadyRunning)

	require.NoError(t, h.Stop())
	assert.ErrorIs(t, h.Stop(), ErrHubNotRunning)
}

func TestDispatchAfterStop(t *testing.T) {
	h := NewHub(newRecordingHandler(), zap.NewNop())
	require.NoError(t, h.Start(context.Background()))
	require.NoError(t, h.Stop())

	assert.ErrorIs(t, h.Dispatch(nopConn{}, []byte(`{}`)), ErrHubNotRunning)
}

func TestContextCancellationStopsLoop(t *testing.T) {
	handler := newRecordingHandler()
	h := NewHub(handler, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.Start(ctx))
	cancel()

	// The loop exits on ctx even though running is still flagged; Stop still
	// cleans up the flag.
	require.NoError(t, h.Stop())
}
