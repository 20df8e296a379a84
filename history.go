package rex

// RevisionID identifies a document state. It increases monotonically over
// new edits and is restored by undo/redo, so comparing revisions is a safe
// way to detect unsaved changes.
type RevisionID uint64

// editKind distinguishes the user-visible mutation an editRecord captures.
type editKind uint8

const (
	editInsert editKind = iota
	editDelete
	editOverwrite
	editReplace
)

// editRecord is a reversible description of one document mutation: the
// pieces at [index, index+len(removed)) were replaced by inserted. Both
// slices are kept verbatim, so applying then inverting a record restores
// the exact prior piece sequence, not merely equal bytes.
type editRecord struct {
	kind  editKind
	off   int64 // logical offset of the mutation
	delta int64 // length change: positive insert, negative delete, 0 overwrite

	index    int
	removed  []piece
	inserted []piece

	before RevisionID
	after  RevisionID
}

// history holds the undo and redo stacks. The redo stack is cleared
// whenever a new edit is applied directly; replaying history after
// branching is never attempted.
type history struct {
	undo  []editRecord
	redo  []editRecord
	limit int // max undo depth; 0 means unbounded
}

// push records a freshly applied edit, evicting the oldest undo entries
// past the configured depth limit.
func (h *history) push(rec editRecord) {
	h.undo = append(h.undo, rec)
	h.redo = h.redo[:0]
	if h.limit > 0 && len(h.undo) > h.limit {
		n := len(h.undo) - h.limit
		h.undo = append(h.undo[:0:0], h.undo[n:]...)
	}
}

// popUndo moves the newest undo entry to the redo stack and returns it.
func (h *history) popUndo() (editRecord, bool) {
	if len(h.undo) == 0 {
		return editRecord{}, false
	}
	rec := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, rec)
	return rec, true
}

// popRedo moves the newest redo entry back to the undo stack and returns it.
func (h *history) popRedo() (editRecord, bool) {
	if len(h.redo) == 0 {
		return editRecord{}, false
	}
	rec := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, rec)
	return rec, true
}

func (h *history) undoDepth() int { return len(h.undo) }
func (h *history) redoDepth() int { return len(h.redo) }
