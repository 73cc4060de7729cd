package canvas

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

func TestJoinAssignsPaletteColors(t *testing.T) {
	r := NewRoom("r1", 0)

	m1, ok := r.Join("u1")
	require.True(t, ok)
	m2, ok := r.Join("u2")
	require.True(t, ok)
	require.NotEqual(t, m1.Color, m2.Color)

	// Re-joining keeps the assigned color.
	again, ok := r.Join("u1")
	require.True(t, ok)
	require.Equal(t, m1.Color, again.Color)
	require.Equal(t, 2, r.MemberCount())
}

func TestDuplicateConnectionsShareOneMember(t *testing.T) {
	r := NewRoom("r1", 0)

	m1, ok := r.Join("u1")
	require.True(t, ok)
	m2, ok := r.Join("u1") // second tab, same user id
	require.True(t, ok)
	require.Same(t, m1, m2)
	require.Equal(t, 1, r.MemberCount())

	r.BeginStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})

	// One connection drops; the user is still present and the staged
	// stroke stays with the surviving connection.
	require.False(t, r.Leave("u1"))
	require.Equal(t, 1, r.MemberCount())
	require.True(t, r.HasActiveStroke("u1"))

	// Last connection out removes the member and discards the stroke.
	require.True(t, r.Leave("u1"))
	require.Equal(t, 0, r.MemberCount())
	require.False(t, r.HasActiveStroke("u1"))
}

func TestRetireOnlyWhenEmpty(t *testing.T) {
	r := NewRoom("r1", 0)

	_, ok := r.Join("u1")
	require.True(t, ok)
	require.False(t, r.Retire(), "an occupied room cannot be retired")

	require.True(t, r.Leave("u1"))
	require.True(t, r.Retire())

	// A retired room refuses every join; the caller must fetch a fresh
	// room from the registry.
	_, ok = r.Join("u2")
	require.False(t, ok)
	require.Equal(t, 0, r.MemberCount())
}

func TestCommitStrokePrefersFinalSnapshot(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")

	r.BeginStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})

	final := &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}
	op, ok := r.CommitStroke("u1", final)
	require.True(t, ok)
	require.Equal(t, "u1", op.AuthorID)
	require.Equal(t, "u1", op.Stroke.AuthorID)
	require.Len(t, op.Stroke.Points, 2)

	// The staged record was consumed.
	require.False(t, r.HasActiveStroke("u1"))

	visible, cursor := r.Snapshot()
	require.Len(t, visible, 1)
	require.Equal(t, 0, cursor)
}

func TestCommitStrokeFallsBackToStaged(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")

	r.BeginStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})
	r.ExtendStroke("u1", []models.Point{{X: 2, Y: 2}}, nil)

	op, ok := r.CommitStroke("u1", nil)
	require.True(t, ok)
	require.Len(t, op.Stroke.Points, 2)
}

func TestCommitWithNothingStagedIsNoop(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")

	_, ok := r.CommitStroke("u1", nil)
	require.False(t, ok)

	visible, cursor := r.Snapshot()
	require.Empty(t, visible)
	require.Equal(t, -1, cursor)
}

func TestCommittedOperationIsImmutable(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")

	final := &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}}
	op, ok := r.CommitStroke("u1", final)
	require.True(t, ok)

	// Mutating the caller's stroke after commit must not leak into
	// the committed snapshot.
	final.Points = append(final.Points, models.Point{X: 9, Y: 9})
	require.Len(t, op.Stroke.Points, 1)
}

func TestLeaveDiscardsActiveStroke(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")
	r.Join("u2")

	r.BeginStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})
	require.True(t, r.HasActiveStroke("u1"))

	r.Leave("u1")
	require.False(t, r.HasActiveStroke("u1"))
	require.Equal(t, 1, r.MemberCount())

	// No operation attributable to the abandoned stroke ever lands.
	all, cursor := r.History()
	require.Empty(t, all)
	require.Equal(t, -1, cursor)
}

func TestClearResetsHistoryAndStage(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")
	r.Join("u2")

	_, ok := r.CommitStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})
	require.True(t, ok)
	r.BeginStroke("u2", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 2, Y: 2}}})

	r.Clear()

	all, cursor := r.History()
	require.Empty(t, all)
	require.Equal(t, -1, cursor)
	// The mid-flight stroke was discarded, not promoted.
	require.False(t, r.HasActiveStroke("u2"))
	_, ok = r.CommitStroke("u2", nil)
	require.False(t, ok)
}

func TestUndoRedoReportNoopAtBounds(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")

	ok, all, cursor := r.Undo()
	require.False(t, ok)
	require.Empty(t, all)
	require.Equal(t, -1, cursor)

	_, committed := r.CommitStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})
	require.True(t, committed)

	ok, _, _ = r.Redo()
	require.False(t, ok)

	ok, _, cursor = r.Undo()
	require.True(t, ok)
	require.Equal(t, -1, cursor)

	ok, _, cursor = r.Redo()
	require.True(t, ok)
	require.Equal(t, 0, cursor)
}

func TestEnsureHydratedRunsOnce(t *testing.T) {
	r := NewRoom("r1", 0)

	calls := 0
	load := func() (*models.RoomRecord, error) {
		calls++
		return &models.RoomRecord{
			RoomID: "r1",
			Operations: []*models.Operation{
				models.NewDrawOperation(&models.Stroke{Tool: models.ToolPen}, "u1"),
			},
			Cursor: 0,
		}, nil
	}

	r.EnsureHydrated(load)
	r.EnsureHydrated(load)
	require.Equal(t, 1, calls)

	visible, cursor := r.Snapshot()
	require.Len(t, visible, 1)
	require.Equal(t, 0, cursor)
}

func TestDirtyFlagLifecycle(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")
	require.False(t, r.ConsumeDirty(), "join alone does not dirty the log")

	_, ok := r.CommitStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})
	require.True(t, ok)
	require.True(t, r.ConsumeDirty())
	require.False(t, r.ConsumeDirty(), "consume clears the flag")

	r.MarkDirty()
	require.True(t, r.ConsumeDirty())
}

// The end-to-end room scenario: three members, commit, undo by another
// member, a new stroke truncating the undone branch, failed redo.
func TestSharedHistoryScenario(t *testing.T) {
	r := NewRoom("r1", 0)
	r.Join("u1")
	r.Join("u2")
	r.Join("u3")

	op0, ok := r.CommitStroke("u1", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 1, Y: 1}}})
	require.True(t, ok)

	visible, cursor := r.Snapshot()
	require.Equal(t, []*models.Operation{op0}, visible)
	require.Equal(t, 0, cursor)

	// Member 2 undoes: op0 is retained in forward history.
	ok, all, cursor := r.Undo()
	require.True(t, ok)
	require.Equal(t, []*models.Operation{op0}, all)
	require.Equal(t, -1, cursor)

	// Member 3 draws: with cursor=-1 the truncation point is index 0,
	// so op0 is destroyed and the new operation stands alone.
	op1, ok := r.CommitStroke("u3", &models.Stroke{Tool: models.ToolPen, Points: []models.Point{{X: 5, Y: 5}}})
	require.True(t, ok)

	all, cursor = r.History()
	require.Equal(t, []*models.Operation{op1}, all)
	require.Equal(t, 0, cursor)

	// Member 1's redo now fails.
	ok, _, _ = r.Redo()
	require.False(t, ok)
}
