package models

// Point is a single coordinate on the canvas. Point order inside a
// free-path stroke is meaningful and must never be reordered.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tool identifies the drawing tool that produced a stroke.
type Tool string

const (
	ToolPen     Tool = "pen"     // free path: ordered points
	ToolLine    Tool = "line"    // shape: start/end
	ToolRect    Tool = "rect"    // shape: start/end
	ToolEllipse Tool = "ellipse" // shape: start/end
	ToolText    Tool = "text"    // anchor point + text payload
)

// Stroke is one drawing action. Which fields are populated depends on
// the tool: free-path strokes carry Points, shape strokes carry
// StartPos/EndPos, text strokes carry StartPos plus Text/FontSize.
type Stroke struct {
	Tool     Tool    `json:"tool"`
	AuthorID string  `json:"authorId"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`

	Points   []Point `json:"points,omitempty"`
	StartPos *Point  `json:"startPos,omitempty"`
	EndPos   *Point  `json:"endPos,omitempty"`

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`

	// Client-supplied timestamp. Carried for display only; ordering
	// always follows server arrival order.
	Timestamp int64 `json:"ts,omitempty"`
}

// Clone returns a deep copy so a committed snapshot can never be
// mutated through the staging record it was promoted from.
func (s *Stroke) Clone() *Stroke {
	if s == nil {
		return nil
	}
	c := *s
	if s.Points != nil {
		c.Points = make([]Point, len(s.Points))
		copy(c.Points, s.Points)
	}
	if s.StartPos != nil {
		p := *s.StartPos
		c.StartPos = &p
	}
	if s.EndPos != nil {
		p := *s.EndPos
		c.EndPos = &p
	}
	return &c
}
