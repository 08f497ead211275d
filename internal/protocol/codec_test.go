package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/frank2889/MacWinControl/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripTest struct {
	name string
	msg  protocol.Message
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []roundTripTest{
		{"hello", protocol.Hello{Version: "1.0", Name: "DESKTOP-1"}},
		{"connected", protocol.Connected{}},
		{"ping", protocol.Ping{}},
		{"pong", protocol.Pong{}},
		{"mode_switch active", protocol.ModeSwitch{Active: true}},
		{"mode_switch inactive", protocol.ModeSwitch{Active: false}},
		{"mouse_move", protocol.MouseMove{X: 1918, Y: 540, Timestamp: 1700000000000}},
		{"mouse_move at origin", protocol.MouseMove{X: 0, Y: 0, Timestamp: 1700000000001}},
		{
			"mouse_button",
			protocol.MouseButton{Button: protocol.ButtonLeft, Action: protocol.ActionDown, X: 10, Y: 20, Timestamp: 1700000000002},
		},
		{"mouse_scroll", protocol.MouseScroll{DeltaX: -120, DeltaY: 240, Timestamp: 1700000000003}},
		{
			"key with modifiers",
			protocol.Key{
				KeyCode:   65,
				Action:    protocol.ActionDown,
				Modifiers: protocol.Modifiers{Shift: true, Control: true},
				Timestamp: 1700000000004,
			},
		},
		{
			"screen_info",
			protocol.ScreenInfo{Screens: []protocol.Screen{
				{X: 0, Y: 0, Width: 1920, Height: 1080, Primary: true},
				{X: 1920, Y: 0, Width: 1920, Height: 1080},
			}},
		},
		{"error", protocol.Error{Message: "handshake rejected"}},
	}

	for _, item := range testCases {
		t.Run("round-trips "+item.name, func(t *testing.T) {
			raw, err := protocol.Encode(item.msg)
			require.NoError(t, err)
			assert.Equal(t, byte('\n'), raw[len(raw)-1], "encoded message must be newline-terminated")

			var d protocol.Decoder
			msgs := d.Feed(raw)
			require.Len(t, msgs, 1)
			assert.Equal(t, item.msg, msgs[0])
			assert.Equal(t, 0, d.Pending())
		})
	}
}

func TestEncodeTypeField(t *testing.T) {
	raw, err := protocol.Encode(protocol.Hello{Version: "1.0", Name: "mac-mini"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "hello", fields["type"])
	assert.Equal(t, "1.0", fields["version"])
	assert.Equal(t, "mac-mini", fields["name"])
}

func TestDecoderPartialReads(t *testing.T) {
	var d protocol.Decoder

	msgs := d.Feed([]byte(`{"type":"mouse_move","x":100,`))
	assert.Empty(t, msgs)
	assert.Positive(t, d.Pending())

	msgs = d.Feed([]byte("\"y\":200,\"timestamp\":5}\n{\"type\":\"ping\"}\n"))
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.MouseMove{X: 100, Y: 200, Timestamp: 5}, msgs[0])
	assert.Equal(t, protocol.Ping{}, msgs[1])
	assert.Equal(t, 0, d.Pending())
}

func TestDecoderTolerance(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []protocol.Message
	}{
		{
			"malformed line is skipped",
			"{not json}\n{\"type\":\"pong\"}\n",
			[]protocol.Message{protocol.Pong{}},
		},
		{
			"missing type is skipped",
			"{\"x\":1}\n{\"type\":\"connected\"}\n",
			[]protocol.Message{protocol.Connected{}},
		},
		{
			"unknown type survives as Unknown",
			"{\"type\":\"clipboard_sync\",\"data\":\"x\"}\n",
			[]protocol.Message{protocol.Unknown{Type: "clipboard_sync"}},
		},
		{
			"unknown fields on known type are ignored",
			"{\"type\":\"mode_switch\",\"active\":true,\"reason\":\"edge\"}\n",
			[]protocol.Message{protocol.ModeSwitch{Active: true}},
		},
		{
			"missing optional fields default",
			"{\"type\":\"hello\",\"version\":\"1.0\"}\n",
			[]protocol.Message{protocol.Hello{Version: "1.0"}},
		},
		{
			"blank lines are ignored",
			"\n\n{\"type\":\"ping\"}\n",
			[]protocol.Message{protocol.Ping{}},
		},
	}

	for _, item := range testCases {
		t.Run(item.name, func(t *testing.T) {
			var d protocol.Decoder
			assert.Equal(t, item.want, d.Feed([]byte(item.input)))
		})
	}
}
