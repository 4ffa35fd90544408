// internal/editor/gesture/trajectory_test.go
package gesture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dropzone/internal/editor/gesture"
)

func TestTrajectory(t *testing.T) {
	start := gesture.Vector2D{X: 10, Y: 0}
	end := gesture.Vector2D{X: 10, Y: 90}

	t.Run("straight line with eased spacing", func(t *testing.T) {
		path := gesture.Trajectory(start, end, 3, 0)
		require.Len(t, path, 3)
		for _, p := range path {
			assert.InDelta(t, 10, p.X, 1e-9)
		}
		assert.InDelta(t, 90*4.0/27.0, path[0].Y, 1e-9)
		assert.InDelta(t, 90*(1-4.0/54.0), path[1].Y, 1e-9)
		assert.Equal(t, end, path[2])
	})

	t.Run("bend pulls the path sideways", func(t *testing.T) {
		path := gesture.Trajectory(start, end, 5, 0.3)
		require.Len(t, path, 5)
		assert.Less(t, path[2].X, 10.0)
		assert.Equal(t, end, path[4])
	})

	t.Run("progress is monotonic", func(t *testing.T) {
		path := gesture.Trajectory(start, end, 20, 0)
		for i := 1; i < len(path); i++ {
			assert.GreaterOrEqual(t, path[i].Y, path[i-1].Y)
		}
	})

	t.Run("degenerate input collapses to the end point", func(t *testing.T) {
		assert.Equal(t, []gesture.Vector2D{end}, gesture.Trajectory(start, end, 0, 0))
		assert.Equal(t, []gesture.Vector2D{end}, gesture.Trajectory(start, end, 1, 0))
		near := gesture.Vector2D{X: 10.5, Y: 0}
		assert.Equal(t, []gesture.Vector2D{near}, gesture.Trajectory(start, near, 10, 0))
	})
}

func TestVector(t *testing.T) {
	v := gesture.Vector2D{X: 3, Y: 4}
	assert.Equal(t, 5.0, v.Mag())
	assert.Equal(t, gesture.Vector2D{X: 0.6, Y: 0.8}, v.Normalize())
	assert.Equal(t, gesture.Vector2D{}, gesture.Vector2D{}.Normalize())
	assert.Equal(t, gesture.Vector2D{X: -4, Y: 3}, v.Perp())
	assert.Equal(t, 5.0, gesture.Vector2D{}.Dist(v))
	assert.Equal(t, gesture.Vector2D{X: 2, Y: 2}, v.Sub(gesture.Vector2D{X: 1, Y: 2}))
}
