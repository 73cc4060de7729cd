package canvas

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

func penStroke() *models.Stroke {
	return &models.Stroke{
		Tool:   models.ToolPen,
		Color:  "#ff0000",
		Width:  3,
		Points: []models.Point{{X: 1, Y: 1}},
	}
}

func TestBeginOverwritesPriorStroke(t *testing.T) {
	st := NewStrokeStage()

	first := penStroke()
	st.Begin("u1", first)

	second := &models.Stroke{Tool: models.ToolRect, StartPos: &models.Point{X: 5, Y: 5}}
	st.Begin("u1", second)

	got := st.Commit("u1")
	require.Same(t, second, got, "a stroke-start always wins over the previous unfinished stroke")
	require.False(t, st.Has("u1"))
}

func TestAppendPointsWithoutBeginIsNoop(t *testing.T) {
	st := NewStrokeStage()

	require.False(t, st.AppendPoints("ghost", []models.Point{{X: 1, Y: 2}}))
	require.False(t, st.Extend("ghost", models.Point{X: 3, Y: 4}))
	require.Nil(t, st.Commit("ghost"))
}

func TestAppendPointsExtendsInPlace(t *testing.T) {
	st := NewStrokeStage()
	st.Begin("u1", penStroke())

	require.True(t, st.AppendPoints("u1", []models.Point{{X: 2, Y: 2}, {X: 3, Y: 3}}))

	got := st.Commit("u1")
	require.NotNil(t, got)
	// Point order defines rendering order and must be preserved.
	require.Equal(t, []models.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}, got.Points)
}

func TestExtendMovesShapeEnd(t *testing.T) {
	st := NewStrokeStage()
	st.Begin("u1", &models.Stroke{Tool: models.ToolLine, StartPos: &models.Point{X: 0, Y: 0}})

	require.True(t, st.Extend("u1", models.Point{X: 10, Y: 5}))
	require.True(t, st.Extend("u1", models.Point{X: 20, Y: 9}))

	got := st.Commit("u1")
	require.NotNil(t, got.EndPos)
	require.Equal(t, models.Point{X: 20, Y: 9}, *got.EndPos)
}

func TestDiscardNeverPromotes(t *testing.T) {
	st := NewStrokeStage()
	st.Begin("u1", penStroke())

	st.Discard("u1")
	require.Nil(t, st.Commit("u1"))
}

func TestDiscardAll(t *testing.T) {
	st := NewStrokeStage()
	st.Begin("u1", penStroke())
	st.Begin("u2", penStroke())
	require.Equal(t, 2, st.Len())

	st.DiscardAll()
	require.Equal(t, 0, st.Len())
	require.Nil(t, st.Commit("u1"))
	require.Nil(t, st.Commit("u2"))
}
