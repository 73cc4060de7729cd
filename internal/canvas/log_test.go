package canvas

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

func op(author string) *models.Operation {
	return models.NewDrawOperation(&models.Stroke{
		Tool:   models.ToolPen,
		Color:  "#000000",
		Width:  2,
		Points: []models.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}, author)
}

func TestAppendAdvancesCursor(t *testing.T) {
	l := NewOperationLog(0)
	require.Equal(t, -1, l.Cursor())
	require.Equal(t, 0, l.Len())

	l.Append(op("u1"))
	require.Equal(t, 0, l.Cursor())

	l.Append(op("u1"))
	require.Equal(t, 1, l.Cursor())
	require.Len(t, l.Visible(), 2)
}

func TestAppendTruncatesForwardHistory(t *testing.T) {
	l := NewOperationLog(0)
	a, b, c, d := op("u1"), op("u1"), op("u1"), op("u2")

	l.Append(a)
	l.Append(b)
	l.Append(c)
	require.Equal(t, 2, l.Cursor())

	require.True(t, l.Undo())
	require.Equal(t, 1, l.Cursor())

	l.Append(d)
	require.Equal(t, []*models.Operation{a, b, d}, l.All())
	require.Equal(t, 2, l.Cursor())

	// The truncated branch is gone for good.
	require.False(t, l.Redo())
}

func TestAppendAfterFullUndoReplacesEverything(t *testing.T) {
	l := NewOperationLog(0)
	a := op("u1")
	l.Append(a)

	require.True(t, l.Undo())
	require.Equal(t, -1, l.Cursor())

	b := op("u3")
	l.Append(b)
	require.Equal(t, []*models.Operation{b}, l.All())
	require.Equal(t, 0, l.Cursor())
	require.False(t, l.Redo())
}

func TestTrimPreservesCursorSemantics(t *testing.T) {
	l := NewOperationLog(2)
	a, b, c := op("u1"), op("u1"), op("u1")

	l.Append(a)
	l.Append(b)
	l.Append(c)

	require.Equal(t, []*models.Operation{b, c}, l.All())
	// Cursor decreased by exactly the trimmed count: it still points at c.
	require.Equal(t, 1, l.Cursor())
}

func TestUndoRedoBoundaries(t *testing.T) {
	l := NewOperationLog(0)

	require.False(t, l.Undo(), "undo on empty log must fail")
	require.Equal(t, -1, l.Cursor())

	l.Append(op("u1"))
	require.False(t, l.Redo(), "redo at the tip must fail")
	require.Equal(t, 0, l.Cursor())

	require.True(t, l.Undo())
	require.True(t, l.Redo())
	require.Equal(t, 0, l.Cursor())
}

func TestClearResets(t *testing.T) {
	l := NewOperationLog(0)
	l.Append(op("u1"))
	l.Append(op("u2"))

	l.Clear()
	require.Equal(t, -1, l.Cursor())
	require.Empty(t, l.All())
	require.Empty(t, l.Visible())
}

func TestVisibleSliceLaw(t *testing.T) {
	// For any sequence of mutators: visible == all[0..cursor] and
	// -1 <= cursor <= len(all)-1.
	rng := rand.New(rand.NewSource(42))
	l := NewOperationLog(16)

	check := func(step int) {
		all := l.All()
		cursor := l.Cursor()
		require.GreaterOrEqual(t, cursor, -1, "step %d", step)
		require.LessOrEqual(t, cursor, len(all)-1, "step %d", step)

		visible := l.Visible()
		require.Len(t, visible, cursor+1, "step %d", step)
		require.Equal(t, all[:cursor+1], visible, "step %d", step)
	}

	for i := 0; i < 2000; i++ {
		switch rng.Intn(5) {
		case 0, 1:
			l.Append(op(fmt.Sprintf("u%d", rng.Intn(4))))
		case 2:
			l.Undo()
		case 3:
			l.Redo()
		case 4:
			if rng.Intn(10) == 0 {
				l.Clear()
			}
		}
		check(i)
	}
}

func TestRestoreClampsCursor(t *testing.T) {
	l := NewOperationLog(0)
	ops := []*models.Operation{op("u1"), op("u1")}

	l.Restore(ops, 5)
	require.Equal(t, 1, l.Cursor())

	l.Restore(ops, -7)
	require.Equal(t, -1, l.Cursor())
	require.Len(t, l.All(), 2)
}

func TestRestoreRespectsMaxHistory(t *testing.T) {
	l := NewOperationLog(2)
	ops := []*models.Operation{op("a"), op("b"), op("c"), op("d")}

	l.Restore(ops, 3)
	require.Equal(t, 2, l.Len())
	require.Equal(t, 1, l.Cursor())
	require.Equal(t, ops[2:], l.All())
}
