package rex

// Selection tracks the session's cursor and an optional anchored range in
// the buffer's logical coordinate space. Either end may be the larger one;
// Range normalizes. A Selection registered with Buffer.Track is remapped
// atomically with every mutation, so its offsets are never stale.
type Selection struct {
	anchor int64
	cursor int64
	active bool
}

// Cursor returns the active offset.
func (s *Selection) Cursor() int64 { return s.cursor }

// Anchor returns the anchored offset. Meaningful only while Active.
func (s *Selection) Anchor() int64 { return s.anchor }

// Active reports whether a selection range is in effect.
func (s *Selection) Active() bool { return s.active }

// MoveTo collapses the selection and places cursor and anchor at off.
func (s *Selection) MoveTo(off int64) {
	s.cursor = off
	s.anchor = off
	s.active = false
}

// ExtendTo moves the cursor while keeping the anchor, activating the
// selection range.
func (s *Selection) ExtendTo(off int64) {
	s.cursor = off
	s.active = true
}

// StartAt anchors a new selection at off without moving the cursor
// semantics: both ends start at off and the range grows with ExtendTo.
func (s *Selection) StartAt(off int64) {
	s.anchor = off
	s.cursor = off
	s.active = true
}

// Clear collapses the selection to the cursor position.
func (s *Selection) Clear() {
	s.anchor = s.cursor
	s.active = false
}

// Range returns the normalized half-open range [start, end) covered by the
// selection. When inactive, the range is empty at the cursor.
func (s *Selection) Range() (start, end int64) {
	if !s.active {
		return s.cursor, s.cursor
	}
	if s.anchor <= s.cursor {
		return s.anchor, s.cursor
	}
	return s.cursor, s.anchor
}

// adjust remaps both tracked offsets for a mutation of delta bytes at off.
// Inserts shift every offset at or after off; deletes collapse offsets
// strictly inside the removed range to off and shift later offsets back.
func (s *Selection) adjust(off, delta int64) {
	s.cursor = remapOffset(s.cursor, off, delta)
	s.anchor = remapOffset(s.anchor, off, delta)
}

func remapOffset(pos, off, delta int64) int64 {
	if delta >= 0 {
		if pos >= off {
			return pos + delta
		}
		return pos
	}
	end := off - delta // deletion of -delta bytes covers [off, end)
	switch {
	case pos <= off:
		return pos
	case pos >= end:
		return pos + delta
	default:
		return off
	}
}
