package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/xscreen/internal/overlay"
	"github.com/bryanchriswhite/xscreen/internal/window/windowtest"
)

// newSurface returns an overlay whose clock advances a second per event,
// so no motion is throttled
func newSurface(t *testing.T, b *windowtest.Fake) *overlay.Overlay {
	t.Helper()

	now := time.Unix(1700000000, 0)
	opts := overlay.DefaultOptions()
	opts.ShowSize = false
	opts.Sleep = func(time.Duration) {}
	opts.Now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	ov, err := overlay.New(b, opts)
	require.NoError(t, err)
	t.Cleanup(func() { ov.Close() })
	return ov
}

// newThrottledSurface returns an overlay whose clock reads base+offsets[i]
// for the i-th event, throttling motion at the default 60 Hz
func newThrottledSurface(t *testing.T, b *windowtest.Fake, offsets ...time.Duration) *overlay.Overlay {
	t.Helper()

	base := time.Unix(1700000000, 0)
	i := 0
	opts := overlay.DefaultOptions()
	opts.ShowSize = false
	opts.Sleep = func(time.Duration) {}
	opts.Now = func() time.Time {
		require.Less(t, i, len(offsets), "clock read more often than expected")
		now := base.Add(offsets[i])
		i++
		return now
	}

	ov, err := overlay.New(b, opts)
	require.NoError(t, err)
	t.Cleanup(func() { ov.Close() })
	return ov
}
