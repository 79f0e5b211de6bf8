package lane

// TrackerState is the state carried from one frame to the next. The zero
// value has no lanes and no anchor.
type TrackerState struct {
	Left  Line
	Right Line
	// Previous is the most recent non-degenerate lane seen on either side.
	// It anchors the hysteresis of the steering target and is never used as
	// a stand-in for a missing lane.
	Previous Line
}

// SetLanes replaces the current lanes, leaving the anchor untouched.
func (s *TrackerState) SetLanes(l Lanes) {
	s.Left = l.Left
	s.Right = l.Right
}

// Lanes returns the current lane pair.
func (s *TrackerState) Lanes() Lanes {
	return Lanes{Left: s.Left, Right: s.Right}
}

// Reset clears all tracked state.
func (s *TrackerState) Reset() {
	*s = TrackerState{}
}
