package rex

import (
	"fmt"
	"io"
)

// saveChunkSize bounds the memory used when streaming the document out.
const saveChunkSize = 64 * 1024

// Buffer is the edit buffer: a sequence of pieces composed over a read-only
// ByteSource, exposing a single logical byte sequence. Every mutation is
// recorded as a reversible editRecord, and tracked selections are remapped
// atomically with each mutation.
//
// A Buffer is owned by a single editing session; it is not safe for
// concurrent use.
type Buffer struct {
	src    ByteSource
	pieces []piece
	starts []int64 // starts[i] is the logical offset of pieces[i]
	length int64

	hist     history
	rev      RevisionID
	nextRev  RevisionID
	savedRev RevisionID

	sels []*Selection
}

// NewBuffer creates a Buffer over src. The initial document content is the
// full source, represented by a single original piece.
func NewBuffer(src ByteSource) *Buffer {
	b := &Buffer{src: src}
	if src.Len() > 0 {
		b.pieces = []piece{originalPiece(0, src.Len())}
	}
	b.reindex(0)
	return b
}

// SetHistoryLimit caps the undo depth. Older entries are evicted first.
// A limit of 0 keeps history unbounded.
func (b *Buffer) SetHistoryLimit(n int) {
	if n < 0 {
		n = 0
	}
	b.hist.limit = n
}

// Len returns the current logical document length.
func (b *Buffer) Len() int64 { return b.length }

// Source returns the underlying byte source.
func (b *Buffer) Source() ByteSource { return b.src }

// Revision returns the identifier of the current document state.
func (b *Buffer) Revision() RevisionID { return b.rev }

// UndoDepth returns the number of edits that can be undone.
func (b *Buffer) UndoDepth() int { return b.hist.undoDepth() }

// RedoDepth returns the number of edits that can be redone.
func (b *Buffer) RedoDepth() int { return b.hist.redoDepth() }

// IsDirty reports whether the document differs from the last save point.
// Saving resets dirtiness without clearing history, and undoing back to
// the saved revision makes the buffer clean again.
func (b *Buffer) IsDirty() bool { return b.rev != b.savedRev }

// MarkSaved records the current revision as the save point.
func (b *Buffer) MarkSaved() { b.savedRev = b.rev }

// Track registers a selection for offset remapping on every mutation.
func (b *Buffer) Track(s *Selection) {
	b.sels = append(b.sels, s)
}

// Untrack removes a previously tracked selection.
func (b *Buffer) Untrack(s *Selection) {
	for i, t := range b.sels {
		if t == s {
			b.sels = append(b.sels[:i], b.sels[i+1:]...)
			return
		}
	}
}

// ReadRange returns the n bytes starting at logical offset off. A read of
// length 0 succeeds at any offset up to and including Len.
func (b *Buffer) ReadRange(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n > b.length {
		return nil, ErrOutOfRange
	}
	out := make([]byte, n)
	if err := b.readInto(out, off); err != nil {
		return nil, err
	}
	return out, nil
}

// readInto fills p from logical offset off. Bounds are already validated.
func (b *Buffer) readInto(p []byte, off int64) error {
	if len(p) == 0 {
		return nil
	}
	idx, rel := b.locate(off)
	filled := 0
	for filled < len(p) {
		pc := b.pieces[idx]
		take := pc.len() - rel
		if rem := int64(len(p) - filled); take > rem {
			take = rem
		}
		dst := p[filled : filled+int(take)]
		if pc.origin == pieceOriginal {
			if err := b.src.ReadAt(dst, pc.srcOff+rel); err != nil {
				return err
			}
		} else {
			copy(dst, pc.data[rel:rel+take])
		}
		filled += int(take)
		rel = 0
		idx++
	}
	return nil
}

// Insert places bytes at logical offset off, shifting everything after it.
// Inserting at Len appends. An empty insert is a no-op.
func (b *Buffer) Insert(off int64, bytes []byte) error {
	if off < 0 || off > b.length {
		return ErrOutOfRange
	}
	if len(bytes) == 0 {
		return nil
	}

	idx, rel := b.locateInsert(off)
	var rec editRecord
	switch {
	case rel == 0 && idx > 0 && b.pieces[idx-1].origin == pieceInserted:
		// Boundary insert right after an inserted piece: merge, so that
		// repeated typing does not grow the piece count.
		prev := b.pieces[idx-1]
		rec = editRecord{
			kind:     editInsert,
			index:    idx - 1,
			removed:  []piece{prev},
			inserted: []piece{mergeInserted(prev, bytes)},
		}
	case rel == 0:
		rec = editRecord{
			kind:     editInsert,
			index:    idx,
			inserted: []piece{insertedPiece(bytes)},
		}
	default:
		p := b.pieces[idx]
		rec = editRecord{
			kind:    editInsert,
			index:   idx,
			removed: []piece{p},
			inserted: []piece{
				p.cut(0, rel),
				insertedPiece(bytes),
				p.cut(rel, p.len()),
			},
		}
	}
	rec.off = off
	rec.delta = int64(len(bytes))
	b.commit(rec)
	return nil
}

// Delete removes the n bytes starting at logical offset off. The removed
// piece slice is recorded verbatim, so undo restores it exactly.
func (b *Buffer) Delete(off, n int64) error {
	if off < 0 || n < 0 || off+n > b.length {
		return ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	index, removed, kept := b.carve(off, n, nil)
	b.commit(editRecord{
		kind:     editDelete,
		off:      off,
		delta:    -n,
		index:    index,
		removed:  removed,
		inserted: kept,
	})
	return nil
}

// Overwrite replaces the len(bytes) bytes at off in place, leaving the
// document length unchanged. It is semantically a delete followed by an
// insert, recorded as one compound record so a single undo reverses both.
func (b *Buffer) Overwrite(off int64, bytes []byte) error {
	n := int64(len(bytes))
	if off < 0 || off+n > b.length {
		return ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	index, removed, kept := b.carve(off, n, bytes)
	b.commit(editRecord{
		kind:     editOverwrite,
		off:      off,
		index:    index,
		removed:  removed,
		inserted: kept,
	})
	return nil
}

// Replace substitutes the n bytes at off with bytes, which need not be the
// same length. Removal and insertion are one edit record, so a single undo
// reverts both. With n == 0 it is an insert; with no bytes it is a delete.
func (b *Buffer) Replace(off, n int64, bytes []byte) error {
	if off < 0 || n < 0 || off+n > b.length {
		return ErrOutOfRange
	}
	if n == 0 {
		return b.Insert(off, bytes)
	}
	if len(bytes) == 0 {
		return b.Delete(off, n)
	}
	index, removed, kept := b.carve(off, n, bytes)
	b.commit(editRecord{
		kind:     editReplace,
		off:      off,
		delta:    int64(len(bytes)) - n,
		index:    index,
		removed:  removed,
		inserted: kept,
	})
	return nil
}

// carve computes the splice that removes the range [off, off+n): the pieces
// to take out, and the replacement sequence holding the trimmed boundary
// remnants. When repl is non-nil an inserted piece with those bytes is
// placed between the remnants, turning the carve into an overwrite.
func (b *Buffer) carve(off, n int64, repl []byte) (index int, removed, kept []piece) {
	idx, rel := b.locate(off)
	index = idx

	if rel > 0 {
		kept = append(kept, b.pieces[idx].cut(0, rel))
	}
	if repl != nil {
		kept = append(kept, insertedPiece(repl))
	}
	remaining := n
	for remaining > 0 {
		p := b.pieces[idx]
		removed = append(removed, p)
		avail := p.len() - rel
		if avail > remaining {
			kept = append(kept, p.cut(rel+remaining, p.len()))
			remaining = 0
		} else {
			remaining -= avail
		}
		rel = 0
		idx++
	}
	return index, removed, kept
}

// Undo reverses the most recent edit, restoring the exact prior piece
// sequence. It fails with ErrNothingToUndo when the undo stack is empty.
func (b *Buffer) Undo() (EditInfo, error) {
	rec, ok := b.hist.popUndo()
	if !ok {
		return EditInfo{}, ErrNothingToUndo
	}
	b.splice(rec.index, len(rec.inserted), rec.removed)
	b.rev = rec.before
	b.remapAll(rec.off, -rec.delta)
	b.verify(-rec.delta)
	return EditInfo{Off: rec.off, Delta: -rec.delta}, nil
}

// Redo re-applies the most recently undone edit. It fails with
// ErrNothingToRedo when the redo stack is empty.
func (b *Buffer) Redo() (EditInfo, error) {
	rec, ok := b.hist.popRedo()
	if !ok {
		return EditInfo{}, ErrNothingToRedo
	}
	b.splice(rec.index, len(rec.removed), rec.inserted)
	b.rev = rec.after
	b.remapAll(rec.off, rec.delta)
	b.verify(rec.delta)
	return EditInfo{Off: rec.off, Delta: rec.delta}, nil
}

// EditInfo describes the document region touched by an applied or
// reverted mutation.
type EditInfo struct {
	Off   int64
	Delta int64
}

// WriteTo streams the full document to w in bounded chunks, so peak memory
// is independent of document length. On failure the buffer is untouched and
// the caller decides what to do with the partially written sink.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	chunk := make([]byte, saveChunkSize)
	var written int64
	for off := int64(0); off < b.length; {
		n := b.length - off
		if n > saveChunkSize {
			n = saveChunkSize
		}
		if err := b.readInto(chunk[:n], off); err != nil {
			return written, err
		}
		wn, err := w.Write(chunk[:n])
		written += int64(wn)
		if err != nil {
			return written, err
		}
		off += n
	}
	return written, nil
}

// commit applies a freshly built record: splice, revision bump, history
// push (clearing redo), selection remap, and the length invariant check.
func (b *Buffer) commit(rec editRecord) {
	b.nextRev++
	rec.before = b.rev
	rec.after = b.nextRev

	b.splice(rec.index, len(rec.removed), rec.inserted)
	b.rev = rec.after
	b.hist.push(rec)
	b.remapAll(rec.off, rec.delta)
	b.verify(rec.delta)
}

// splice replaces pieces[i : i+removeCount] with repl. The previous slice
// is left intact for any editRecord that references it.
func (b *Buffer) splice(i, removeCount int, repl []piece) {
	next := make([]piece, 0, len(b.pieces)-removeCount+len(repl))
	next = append(next, b.pieces[:i]...)
	next = append(next, repl...)
	next = append(next, b.pieces[i+removeCount:]...)
	b.pieces = next
	b.reindex(i)
}

// reindex recomputes cumulative starts from piece index from onward and
// refreshes the cached length. The prefix before from is unchanged.
func (b *Buffer) reindex(from int) {
	if len(b.starts) < len(b.pieces) {
		grown := make([]int64, len(b.pieces))
		copy(grown, b.starts)
		b.starts = grown
	} else {
		b.starts = b.starts[:len(b.pieces)]
	}
	var off int64
	if from > 0 {
		off = b.starts[from-1] + b.pieces[from-1].len()
	}
	for i := from; i < len(b.pieces); i++ {
		b.starts[i] = off
		off += b.pieces[i].len()
	}
	if n := len(b.pieces); n > 0 {
		b.length = b.starts[n-1] + b.pieces[n-1].len()
	} else {
		b.length = 0
	}
}

// locate finds the piece containing logical offset off (off < Len) by
// binary search over the cumulative starts, returning the piece index and
// the offset within it.
func (b *Buffer) locate(off int64) (idx int, rel int64) {
	lo, hi := 0, len(b.pieces)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.starts[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, off - b.starts[lo]
}

// locateInsert is locate extended to off == Len, which maps to the
// position one past the final piece.
func (b *Buffer) locateInsert(off int64) (idx int, rel int64) {
	if off == b.length {
		return len(b.pieces), 0
	}
	return b.locate(off)
}

// remapAll adjusts every tracked selection for a mutation of delta bytes
// at off. Negative delta is a deletion of -delta bytes.
func (b *Buffer) remapAll(off, delta int64) {
	for _, s := range b.sels {
		s.adjust(off, delta)
	}
}

// verify panics if the piece sequence no longer sums to the expected
// length. This only fires on a programming error in the splice logic.
func (b *Buffer) verify(delta int64) {
	var sum int64
	for _, p := range b.pieces {
		if p.len() <= 0 {
			panic(fmt.Sprintf("rex: zero-length piece in document (len %d)", p.len()))
		}
		sum += p.len()
	}
	if sum != b.length {
		panic(fmt.Sprintf("rex: piece length sum %d != document length %d after delta %d",
			sum, b.length, delta))
	}
}
