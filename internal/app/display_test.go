package app

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/headtrack/internal/fusion"
	"github.com/relabs-tech/headtrack/internal/orientation"
)

func renderToBuffer(t *testing.T, snap fusion.Snapshot, have bool) []byte {
	t.Helper()
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	renderStatus(img, snap, have)
	out := make([]byte, len(img.Pix))
	copy(out, img.Pix)
	return out
}

func TestRenderStatus(t *testing.T) {
	t.Parallel()

	blank := make([]byte, 1024)

	t.Run("waiting screen before first snapshot", func(t *testing.T) {
		t.Parallel()
		buf := renderToBuffer(t, fusion.Snapshot{}, false)
		assert.NotEqual(t, blank, buf, "waiting screen should draw text")
	})

	t.Run("pose screen draws pixels", func(t *testing.T) {
		t.Parallel()
		snap := fusion.Snapshot{
			Estimate: orientation.Estimate{
				Pose: orientation.Pose{Roll: 1.5, Pitch: -3.2, Yaw: 42.0},
				T:    12.5,
			},
			Stationary: true,
		}
		buf := renderToBuffer(t, snap, true)
		assert.NotEqual(t, blank, buf)
	})

	t.Run("status line reflects tracker state", func(t *testing.T) {
		t.Parallel()
		base := fusion.Snapshot{
			Estimate: orientation.Estimate{
				Pose: orientation.Pose{Roll: 1.5, Pitch: -3.2, Yaw: 42.0},
			},
		}

		still := base
		still.Stationary = true
		cal := base
		cal.Calibrating = true
		cal.CalProgress = 0.5

		stillBuf := renderToBuffer(t, still, true)
		calBuf := renderToBuffer(t, cal, true)
		moving := renderToBuffer(t, base, true)

		require.False(t, bytes.Equal(stillBuf, calBuf),
			"calibration must take priority over stillness on the status line")
		assert.False(t, bytes.Equal(stillBuf, moving))
	})
}
