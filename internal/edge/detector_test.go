package edge_test

import (
	"testing"

	"github.com/frank2889/MacWinControl/internal/edge"
	"github.com/frank2889/MacWinControl/internal/screens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSampler replays a fixed sequence of cursor positions.
type scriptedSampler struct {
	samples [][2]int
	i       int
}

func (s *scriptedSampler) CursorPosition() (int, int, bool) {
	if s.i >= len(s.samples) {
		last := s.samples[len(s.samples)-1]
		return last[0], last[1], true
	}
	p := s.samples[s.i]
	s.i++
	return p[0], p[1], true
}

func newDetector(sampler *scriptedSampler, hits *[]edge.Hit) *edge.Detector {
	bounds := screens.Bounds{MinX: 0, MinY: 0, MaxX: 3840, MaxY: 1080}
	return edge.NewDetector(
		sampler,
		func() screens.Bounds { return bounds },
		func(h edge.Hit) { *hits = append(*hits, h) },
		edge.Config{Threshold: 2, RequiredHits: 3},
	)
}

func TestDebounceRequiresThreeOutwardSamples(t *testing.T) {
	testCases := []struct {
		name     string
		samples  [][2]int
		wantHits int
	}{
		{
			"two samples at the edge do not fire",
			[][2]int{{3839, 500}, {3840, 500}},
			0,
		},
		{
			"three outward samples fire exactly once",
			[][2]int{{3839, 500}, {3840, 500}, {3841, 500}},
			1,
		},
		{
			"fourth sample does not fire again",
			[][2]int{{3838, 500}, {3839, 500}, {3840, 500}, {3841, 500}},
			1,
		},
		{
			"stationary cursor at the edge never fires",
			[][2]int{{3840, 500}, {3840, 500}, {3840, 500}, {3840, 500}},
			0,
		},
		{
			"inward motion resets the streak",
			[][2]int{{3839, 500}, {3840, 500}, {3837, 500}, {3838, 500}},
			0,
		},
		{
			"leaving the edge resets the streak",
			[][2]int{{3839, 500}, {3840, 500}, {100, 500}, {3839, 500}, {3840, 500}},
			0,
		},
		{
			"six outward samples fire twice",
			[][2]int{
				{3835, 500}, {3836, 500}, {3838, 500}, {3839, 500}, {3840, 500}, {3841, 500},
			},
			// 3835/3836 are off-edge with threshold 2; the streak starts at 3838.
			1,
		},
	}

	for _, item := range testCases {
		t.Run(item.name, func(t *testing.T) {
			var hits []edge.Hit
			sampler := &scriptedSampler{samples: item.samples}
			d := newDetector(sampler, &hits)
			for range item.samples {
				d.Poll()
			}
			assert.Len(t, hits, item.wantHits)
		})
	}
}

func TestHitCarriesEdgeAndBounds(t *testing.T) {
	var hits []edge.Hit
	sampler := &scriptedSampler{samples: [][2]int{{3839, 500}, {3840, 500}, {3841, 500}}}
	d := newDetector(sampler, &hits)
	for range 3 {
		d.Poll()
	}

	require.Len(t, hits, 1)
	assert.Equal(t, screens.EdgeRight, hits[0].Edge)
	assert.Equal(t, 3841, hits[0].X)
	assert.Equal(t, screens.Bounds{MinX: 0, MinY: 0, MaxX: 3840, MaxY: 1080}, hits[0].Bounds)
}

func TestLeftEdgeOutwardMotion(t *testing.T) {
	var hits []edge.Hit
	sampler := &scriptedSampler{samples: [][2]int{{2, 300}, {1, 300}, {0, 300}}}
	d := newDetector(sampler, &hits)
	for range 3 {
		d.Poll()
	}

	require.Len(t, hits, 1)
	assert.Equal(t, screens.EdgeLeft, hits[0].Edge)
}

func TestDisabledDetectorNeverFires(t *testing.T) {
	var hits []edge.Hit
	sampler := &scriptedSampler{samples: [][2]int{{3839, 500}, {3840, 500}, {3841, 500}}}
	d := newDetector(sampler, &hits)
	d.SetEnabled(false)
	for range 3 {
		d.Poll()
	}
	assert.Empty(t, hits)

	// Re-enabling starts a fresh streak rather than resuming a stale one.
	d.SetEnabled(true)
	sampler.samples = append(sampler.samples, [2]int{3842, 500}, [2]int{3843, 500})
	d.Poll()
	d.Poll()
	assert.Empty(t, hits)
}

func TestZeroBoundsNeverFire(t *testing.T) {
	var hits []edge.Hit
	sampler := &scriptedSampler{samples: [][2]int{{0, 0}, {0, 0}, {0, 0}}}
	d := edge.NewDetector(
		sampler,
		func() screens.Bounds { return screens.Bounds{} },
		func(h edge.Hit) { hits = append(hits, h) },
		edge.Config{Threshold: 2, RequiredHits: 3},
	)
	for range 3 {
		d.Poll()
	}
	assert.Empty(t, hits)
}
