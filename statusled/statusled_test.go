package statusled

import (
	"machine"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ov2640cam/camcore"
)

func recordingWriter(calls *[][]byte) func(machine.Pin, byte) bool {
	var cur []byte
	return func(_ machine.Pin, b byte) bool {
		cur = append(cur, b)
		if len(cur) == 3 {
			*calls = append(*calls, cur)
			cur = nil
		}
		return true
	}
}

func TestOnFrameMapsStateToColor(t *testing.T) {
	c := qt.New(t)

	var writes [][]byte
	d := New(machine.NoPin, recordingWriter(&writes))

	d.OnFrame("capturing", camcore.Stats{})
	c.Assert(writes, qt.HasLen, 1)
	c.Assert(writes[0], qt.DeepEquals, []byte{colorCapturing.G, colorCapturing.R, colorCapturing.B})

	d.OnFrame("idle", camcore.Stats{})
	c.Assert(writes[1], qt.DeepEquals, []byte{colorIdle.G, colorIdle.R, colorIdle.B})
}

func TestOnFrameFlagsNewBadFrame(t *testing.T) {
	c := qt.New(t)

	var writes [][]byte
	d := New(machine.NoPin, recordingWriter(&writes))

	d.OnFrame("capturing", camcore.Stats{FramesBad: 0})
	d.OnFrame("capturing", camcore.Stats{FramesBad: 1})
	c.Assert(writes[1], qt.DeepEquals, []byte{colorBad.G, colorBad.R, colorBad.B})

	// A repeat report with the same FramesBad count must not re-flag.
	d.OnFrame("capturing", camcore.Stats{FramesBad: 1})
	c.Assert(writes[2], qt.DeepEquals, []byte{colorCapturing.G, colorCapturing.R, colorCapturing.B})
}
