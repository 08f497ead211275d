package mode_test

import (
	"testing"

	"github.com/frank2889/MacWinControl/internal/mode"
	"github.com/frank2889/MacWinControl/internal/protocol"
	"github.com/frank2889/MacWinControl/internal/screens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateRemoteTransitions(t *testing.T) {
	var changes []mode.State
	s := mode.NewSwitcher(func(st mode.State) { changes = append(changes, st) })

	require.Equal(t, mode.LocalActive, s.State())
	assert.False(t, s.Suppressed())

	require.True(t, s.ActivateRemote(screens.EdgeRight, 3840, 500))
	assert.Equal(t, mode.RemoteActive, s.State())
	assert.True(t, s.Suppressed())

	// A second edge hit while already forwarding is a no-op.
	assert.False(t, s.ActivateRemote(screens.EdgeRight, 3840, 600))

	require.True(t, s.Deactivate())
	assert.Equal(t, mode.LocalActive, s.State())
	assert.False(t, s.Deactivate())

	assert.Equal(t, []mode.State{mode.RemoteActive, mode.LocalActive}, changes)
}

func TestVirtualCursorEntersOppositeSide(t *testing.T) {
	testCases := []struct {
		name    string
		crossed screens.Edge
		x, y    int
		wantX   int
		wantY   int
	}{
		{"right edge enters peer left", screens.EdgeRight, 3840, 500, 5, 500},
		{"left edge enters peer right", screens.EdgeLeft, 0, 500, 1915, 500},
		{"bottom edge enters peer top", screens.EdgeBottom, 800, 1080, 800, 5},
		{"top edge enters peer bottom", screens.EdgeTop, 800, 0, 800, 1075},
	}

	for _, item := range testCases {
		t.Run(item.name, func(t *testing.T) {
			s := mode.NewSwitcher(nil)
			require.True(t, s.ActivateRemote(item.crossed, item.x, item.y))
			x, y, returned := s.Accumulate(0, 0)
			assert.Equal(t, item.wantX, x)
			assert.Equal(t, item.wantY, y)
			assert.False(t, returned)
		})
	}
}

func TestAccumulateClampsToPeerBounds(t *testing.T) {
	s := mode.NewSwitcher(nil)
	s.SetPeerLayout(screens.Layout{Screens: []screens.Rect{{X: 0, Y: 0, Width: 2560, Height: 1440}}})
	require.True(t, s.ActivateRemote(screens.EdgeRight, 3840, 500))

	x, y, _ := s.Accumulate(10000, 10000)
	assert.Equal(t, 2560, x)
	assert.Equal(t, 1440, y)

	x, y, _ = s.Accumulate(0, -20000)
	assert.Equal(t, 2560, x)
	assert.Equal(t, 0, y)
}

func TestOppositeEdgeReturn(t *testing.T) {
	s := mode.NewSwitcher(nil)
	require.True(t, s.ActivateRemote(screens.EdgeRight, 3840, 500))

	// Moving deeper into the peer desktop does not return control.
	_, _, returned := s.Accumulate(300, 0)
	assert.False(t, returned)

	// Coming all the way back to the entry edge does.
	_, _, returned = s.Accumulate(-400, 0)
	assert.True(t, returned)
}

func TestReparkPosition(t *testing.T) {
	local := screens.Bounds{MinX: 0, MinY: 0, MaxX: 3840, MaxY: 1080}

	s := mode.NewSwitcher(nil)
	require.True(t, s.ActivateRemote(screens.EdgeRight, 3840, 500))
	x, y := s.ReparkPosition(local)
	assert.Equal(t, 3740, x)
	assert.Equal(t, 500, y)

	s = mode.NewSwitcher(nil)
	require.True(t, s.ActivateRemote(screens.EdgeTop, 800, 0))
	x, y = s.ReparkPosition(local)
	assert.Equal(t, 800, x)
	assert.Equal(t, 100, y)
}

func TestForceLocalResetsEverything(t *testing.T) {
	s := mode.NewSwitcher(nil)
	require.True(t, s.ActivateRemote(screens.EdgeRight, 3840, 500))
	s.SetPeerControls(false)
	s.ForceLocal()

	assert.Equal(t, mode.LocalActive, s.State())
	assert.False(t, s.PeerControls())

	// Idempotent from LocalActive.
	s.ForceLocal()
	assert.Equal(t, mode.LocalActive, s.State())
}

func TestPeerControlClaimRejectedWhileForwarding(t *testing.T) {
	s := mode.NewSwitcher(nil)
	require.True(t, s.ActivateRemote(screens.EdgeRight, 3840, 500))

	s.SetPeerControls(true)
	assert.False(t, s.PeerControls())

	require.True(t, s.Deactivate())
	s.SetPeerControls(true)
	assert.True(t, s.PeerControls())
	s.SetPeerControls(false)
	assert.False(t, s.PeerControls())
}

func TestEscapeChord(t *testing.T) {
	ctrlAlt := protocol.Modifiers{Control: true, Alt: true}

	assert.True(t, mode.IsEscapeChord(mode.EscapeKeyCode, ctrlAlt))
	assert.False(t, mode.IsEscapeChord('N', ctrlAlt))
	assert.False(t, mode.IsEscapeChord(mode.EscapeKeyCode, protocol.Modifiers{Control: true}))
	assert.False(t, mode.IsEscapeChord(mode.EscapeKeyCode, protocol.Modifiers{Control: true, Alt: true, Shift: true}))
	assert.False(t, mode.IsEscapeChord(mode.EscapeKeyCode, protocol.Modifiers{Control: true, Alt: true, Meta: true}))
}

// TestSingleSideForwardsAcrossInterleavings drives two switchers as a
// connected pair, delivering each side's mode_switch announcements in
// every relative order, and checks that both sides never forward at once.
func TestSingleSideForwardsAcrossInterleavings(t *testing.T) {
	type message struct {
		to     int
		active bool
	}

	bothForwarding := func(a, b *mode.Switcher) bool {
		return a.State() == mode.RemoteActive && b.State() == mode.RemoteActive
	}

	// Side 0 takes control, returns it, then side 1 takes control. Each
	// transition queues an announcement to the peer; deliveries are
	// shuffled by delaying them a varying number of steps.
	for delay := range 4 {
		sides := [2]*mode.Switcher{mode.NewSwitcher(nil), mode.NewSwitcher(nil)}
		var queue []message

		deliver := func() {
			if len(queue) == 0 {
				return
			}
			m := queue[0]
			queue = queue[1:]
			sides[m.to].SetPeerControls(m.active)
		}

		step := 0
		act := func(fn func()) {
			fn()
			step++
			if step >= delay {
				deliver()
			}
			assert.False(t, bothForwarding(sides[0], sides[1]), "delay %d step %d", delay, step)
		}

		act(func() {
			if sides[0].ActivateRemote(screens.EdgeRight, 100, 100) {
				queue = append(queue, message{to: 1, active: true})
			}
		})
		act(func() {
			if sides[0].Deactivate() {
				queue = append(queue, message{to: 1, active: false})
			}
		})
		act(func() {
			// Side 1 only crosses its edge once its own input works again,
			// which is after it saw side 0 release control or never saw the
			// claim at all. A side that believes the peer controls it has a
			// suppressed cursor and cannot generate an edge hit.
			if !sides[1].PeerControls() {
				if sides[1].ActivateRemote(screens.EdgeLeft, 0, 100) {
					queue = append(queue, message{to: 0, active: true})
				}
			}
		})
		for len(queue) > 0 {
			deliver()
			assert.False(t, bothForwarding(sides[0], sides[1]), "delay %d drain", delay)
		}
	}
}
