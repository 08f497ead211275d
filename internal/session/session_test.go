package session_test

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/frank2889/MacWinControl/internal/protocol"
	"github.com/frank2889/MacWinControl/internal/screens"
	"github.com/frank2889/MacWinControl/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func testOptions(name string) session.Options {
	return session.Options{
		Name:         name,
		PingInterval: 50 * time.Millisecond,
		IdleTimeout:  time.Second,
		DialTimeout:  time.Second,
	}
}

func TestHandshakeOverLoopback(t *testing.T) {
	hostConnected := make(chan string, 1)
	hostScreens := make(chan screens.Layout, 1)
	host := session.New(testOptions("mac-mini"), session.Handler{
		OnConnected: func(peer string) { hostConnected <- peer },
		OnScreenInfo: func(l screens.Layout) {
			select {
			case hostScreens <- l:
			default:
			}
		},
	})
	host.SetLocalLayout(screens.Layout{Screens: []screens.Rect{
		{X: 0, Y: 0, Width: 3840, Height: 1080, Primary: true},
	}})
	require.NoError(t, host.Listen("127.0.0.1:0"))
	defer host.Close()

	clientConnected := make(chan string, 1)
	clientScreens := make(chan screens.Layout, 1)
	client := session.New(testOptions("DESKTOP-1"), session.Handler{
		OnConnected: func(peer string) { clientConnected <- peer },
		OnScreenInfo: func(l screens.Layout) {
			select {
			case clientScreens <- l:
			default:
			}
		},
	})
	client.SetLocalLayout(screens.Layout{Screens: []screens.Rect{
		{X: 0, Y: 0, Width: 2560, Height: 1440, Primary: true},
	}})
	require.NoError(t, client.Connect(host.Addr().String()))
	defer client.Close()

	assert.Equal(t, "DESKTOP-1", waitFor(t, hostConnected, "host OnConnected"))
	assert.Equal(t, "mac-mini", waitFor(t, clientConnected, "client OnConnected"))

	layout := waitFor(t, hostScreens, "host OnScreenInfo")
	require.Len(t, layout.Screens, 1)
	assert.Equal(t, 2560, layout.Screens[0].Width)

	assert.Equal(t, session.StatusConnected, host.Status())
	assert.Equal(t, session.StatusConnected, client.Status())
	assert.Equal(t, "DESKTOP-1", host.PeerName())

	peerLayout, ok := host.PeerLayout()
	require.True(t, ok)
	assert.Equal(t, screens.Bounds{MinX: 0, MinY: 0, MaxX: 2560, MaxY: 1440}, peerLayout.Bounds())

	// The host answers the client's screen_info with its own layout so the
	// client does not clamp against the fallback bounds.
	hostLayout := waitFor(t, clientScreens, "client OnScreenInfo")
	assert.Equal(t, screens.Bounds{MinX: 0, MinY: 0, MaxX: 3840, MaxY: 1080}, hostLayout.Bounds())
}

func TestMessageRouting(t *testing.T) {
	hostMsgs := make(chan protocol.Message, 16)
	hostConnected := make(chan string, 1)
	host := session.New(testOptions("host"), session.Handler{
		OnConnected: func(peer string) { hostConnected <- peer },
		OnMessage:   func(m protocol.Message) { hostMsgs <- m },
	})
	require.NoError(t, host.Listen("127.0.0.1:0"))
	defer host.Close()

	clientConnected := make(chan string, 1)
	client := session.New(testOptions("client"), session.Handler{
		OnConnected: func(peer string) { clientConnected <- peer },
	})
	require.NoError(t, client.Connect(host.Addr().String()))
	defer client.Close()

	waitFor(t, hostConnected, "host OnConnected")
	waitFor(t, clientConnected, "client OnConnected")

	client.Send(protocol.ModeSwitch{Active: true})
	client.Send(protocol.MouseMove{X: 10, Y: 20, Timestamp: 1})

	assert.Equal(t, protocol.ModeSwitch{Active: true}, waitFor(t, hostMsgs, "mode_switch"))
	assert.Equal(t, protocol.MouseMove{X: 10, Y: 20, Timestamp: 1}, waitFor(t, hostMsgs, "mouse_move"))
}

func TestIdleTimeoutFailsSession(t *testing.T) {
	statuses := make(chan session.Status, 16)
	disconnected := make(chan struct{}, 1)
	host := session.New(session.Options{
		Name:         "host",
		PingInterval: 20 * time.Millisecond,
		IdleTimeout:  150 * time.Millisecond,
	}, session.Handler{
		OnStatus:       func(s session.Status, _ string) { statuses <- s },
		OnDisconnected: func() { disconnected <- struct{}{} },
	})
	require.NoError(t, host.Listen("127.0.0.1:0"))
	defer host.Close()

	// A mute peer: connects and never speaks, never answers pings.
	conn, err := net.Dial("tcp", host.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	sawFailed := false
	deadline := time.After(5 * time.Second)
	for !sawFailed {
		select {
		case s := <-statuses:
			if s == session.StatusFailed {
				sawFailed = true
			}
		case <-deadline:
			t.Fatal("session never failed on idle timeout")
		}
	}

	waitFor(t, disconnected, "OnDisconnected")
	// Host returns to listening for the next peer.
	assert.Eventually(t, func() bool {
		return host.Status() == session.StatusListening
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHostEvictsPreviousPeer(t *testing.T) {
	hostConnected := make(chan string, 4)
	hostDisconnected := make(chan struct{}, 4)
	host := session.New(testOptions("host"), session.Handler{
		OnConnected:    func(peer string) { hostConnected <- peer },
		OnDisconnected: func() { hostDisconnected <- struct{}{} },
	})
	require.NoError(t, host.Listen("127.0.0.1:0"))
	defer host.Close()

	first := session.New(testOptions("first"), session.Handler{})
	require.NoError(t, first.Connect(host.Addr().String()))
	defer first.Close()
	assert.Equal(t, "first", waitFor(t, hostConnected, "first peer"))

	second := session.New(testOptions("second"), session.Handler{})
	require.NoError(t, second.Connect(host.Addr().String()))
	defer second.Close()

	// Evicting the established incumbent is a disconnect like any other:
	// the host observes it before the newcomer's session comes up.
	waitFor(t, hostDisconnected, "eviction OnDisconnected")
	assert.Equal(t, "second", waitFor(t, hostConnected, "second peer"))

	// The evicted client observes the close within its idle window.
	assert.Eventually(t, func() bool {
		return first.Status() != session.StatusConnected
	}, 3*time.Second, 20*time.Millisecond)
}

func TestConcurrentSendsKeepFraming(t *testing.T) {
	host := session.New(testOptions("host"), session.Handler{})
	require.NoError(t, host.Listen("127.0.0.1:0"))
	defer host.Close()

	conn, err := net.Dial("tcp", host.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, `"type":"hello"`)
	_, err = conn.Write([]byte(`{"type":"hello","version":"1.0","name":"raw"}` + "\n"))
	require.NoError(t, err)

	const senders = 8
	const perSender = 50
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				host.Send(protocol.MouseMove{X: n, Y: j, Timestamp: protocol.Now()})
			}
		}(i)
	}
	wg.Wait()

	// Every line must still be one intact JSON object; interleaved writes
	// from racing senders would corrupt the framing.
	moves := 0
	for moves < senders*perSender {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &fields), "corrupt line %q", line)
		if fields["type"] == "mouse_move" {
			moves++
		}
	}
}

func TestSendWithoutConnectionIsSilent(t *testing.T) {
	m := session.New(testOptions("lonely"), session.Handler{})
	// Fire-and-forget: must not panic or block.
	m.Send(protocol.Ping{})
	m.Close()
	m.Close() // idempotent
}
