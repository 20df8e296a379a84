package rex

import (
	"bytes"
	"math/rand"
	"testing"
)

func newTestBuffer(t *testing.T, data string) *Buffer {
	t.Helper()
	return NewBuffer(NewMemSource("test", []byte(data)))
}

func contentOf(t *testing.T, b *Buffer) string {
	t.Helper()
	data, err := b.ReadRange(0, b.Len())
	if err != nil {
		t.Fatalf("ReadRange over full document failed: %v", err)
	}
	return string(data)
}

func TestNewBufferEmpty(t *testing.T) {
	b := newTestBuffer(t, "")
	if b.Len() != 0 {
		t.Errorf("Expected empty buffer, got length %d", b.Len())
	}
	data, err := b.ReadRange(0, 0)
	if err != nil {
		t.Fatalf("ReadRange(0, 0) failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty read, got %d bytes", len(data))
	}
}

func TestNewBufferFromSource(t *testing.T) {
	b := newTestBuffer(t, "Hello, World!")
	if b.Len() != 13 {
		t.Errorf("Expected 13 bytes, got %d", b.Len())
	}
	if got := contentOf(t, b); got != "Hello, World!" {
		t.Errorf("Expected %q, got %q", "Hello, World!", got)
	}
}

func TestReadRangeBounds(t *testing.T) {
	b := newTestBuffer(t, "0123456789")

	// Zero-length read at Len succeeds.
	data, err := b.ReadRange(10, 0)
	if err != nil {
		t.Errorf("ReadRange(Len, 0) failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty read, got %d bytes", len(data))
	}

	for _, c := range []struct {
		off, n int64
	}{
		{-1, 1},
		{0, -1},
		{5, 6},
		{11, 0},
	} {
		if _, err := b.ReadRange(c.off, c.n); err != ErrOutOfRange {
			t.Errorf("ReadRange(%d, %d): expected ErrOutOfRange, got %v", c.off, c.n, err)
		}
	}
}

func TestInsertDeleteScenario(t *testing.T) {
	b := newTestBuffer(t, "0123456789")

	if err := b.Insert(5, []byte("XY")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if got := contentOf(t, b); got != "01234XY56789" {
		t.Errorf("After insert: expected %q, got %q", "01234XY56789", got)
	}
	if b.Len() != 12 {
		t.Errorf("Expected length 12, got %d", b.Len())
	}

	if err := b.Delete(2, 4); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := contentOf(t, b); got != "0156789" {
		t.Errorf("After delete: expected %q, got %q", "0156789", got)
	}

	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := contentOf(t, b); got != "01234XY56789" {
		t.Errorf("After first undo: expected %q, got %q", "01234XY56789", got)
	}

	if _, err := b.Undo(); err != nil {
		t.Fatalf("Second undo failed: %v", err)
	}
	if got := contentOf(t, b); got != "0123456789" {
		t.Errorf("After second undo: expected %q, got %q", "0123456789", got)
	}

	if _, err := b.Undo(); err != ErrNothingToUndo {
		t.Errorf("Expected ErrNothingToUndo, got %v", err)
	}
}

func TestInsertBoundaries(t *testing.T) {
	b := newTestBuffer(t, "abc")

	if err := b.Insert(3, []byte("!")); err != nil {
		t.Fatalf("Insert at end failed: %v", err)
	}
	if err := b.Insert(0, []byte(">")); err != nil {
		t.Fatalf("Insert at start failed: %v", err)
	}
	if got := contentOf(t, b); got != ">abc!" {
		t.Errorf("Expected %q, got %q", ">abc!", got)
	}

	if err := b.Insert(6, []byte("x")); err != ErrOutOfRange {
		t.Errorf("Insert past end: expected ErrOutOfRange, got %v", err)
	}
	if err := b.Insert(-1, []byte("x")); err != ErrOutOfRange {
		t.Errorf("Insert at -1: expected ErrOutOfRange, got %v", err)
	}

	// Empty insert is a no-op and records nothing.
	depth := b.UndoDepth()
	if err := b.Insert(2, nil); err != nil {
		t.Errorf("Empty insert failed: %v", err)
	}
	if b.UndoDepth() != depth {
		t.Errorf("Empty insert recorded an edit")
	}
}

func TestDeleteAllAndUndo(t *testing.T) {
	b := newTestBuffer(t, "0123456789")
	before := append([]piece(nil), b.pieces...)

	if err := b.Delete(0, b.Len()); err != nil {
		t.Fatalf("Delete all failed: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Expected empty document, got length %d", b.Len())
	}

	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := contentOf(t, b); got != "0123456789" {
		t.Errorf("Expected restored content, got %q", got)
	}
	if !samePieces(b.pieces, before) {
		t.Errorf("Undo did not restore the exact piece sequence")
	}
}

func TestUndoRestoresPieceSequence(t *testing.T) {
	b := newTestBuffer(t, "The quick brown fox")

	snapshots := [][]piece{append([]piece(nil), b.pieces...)}
	ops := []func() error{
		func() error { return b.Insert(4, []byte("very ")) },
		func() error { return b.Delete(0, 4) },
		func() error { return b.Overwrite(5, []byte("QUICK")) },
		func() error { return b.Insert(b.Len(), []byte(" jumps")) },
		func() error { return b.Delete(2, 7) },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("Op %d failed: %v", i, err)
		}
		snapshots = append(snapshots, append([]piece(nil), b.pieces...))
	}

	for i := len(ops); i > 0; i-- {
		if _, err := b.Undo(); err != nil {
			t.Fatalf("Undo %d failed: %v", i, err)
		}
		if !samePieces(b.pieces, snapshots[i-1]) {
			t.Errorf("Undo to state %d: piece sequence differs", i-1)
		}
	}

	for i := 0; i < len(ops); i++ {
		if _, err := b.Redo(); err != nil {
			t.Fatalf("Redo %d failed: %v", i, err)
		}
		if !samePieces(b.pieces, snapshots[i+1]) {
			t.Errorf("Redo to state %d: piece sequence differs", i+1)
		}
	}
}

func TestOverwrite(t *testing.T) {
	b := newTestBuffer(t, "0123456789")

	if err := b.Overwrite(3, []byte("abc")); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	if got := contentOf(t, b); got != "012abc6789" {
		t.Errorf("Expected %q, got %q", "012abc6789", got)
	}
	if b.Len() != 10 {
		t.Errorf("Overwrite changed length to %d", b.Len())
	}

	// One compound record, one undo.
	if b.UndoDepth() != 1 {
		t.Errorf("Expected 1 undo entry, got %d", b.UndoDepth())
	}
	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := contentOf(t, b); got != "0123456789" {
		t.Errorf("Expected restored content, got %q", got)
	}

	if err := b.Overwrite(8, []byte("abc")); err != ErrOutOfRange {
		t.Errorf("Overwrite past end: expected ErrOutOfRange, got %v", err)
	}
}

func TestReplace(t *testing.T) {
	b := newTestBuffer(t, "0123456789")

	// Growing replacement at the tail.
	if err := b.Replace(8, 2, []byte("abcd")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if got := contentOf(t, b); got != "01234567abcd" {
		t.Errorf("Expected %q, got %q", "01234567abcd", got)
	}
	if b.UndoDepth() != 1 {
		t.Errorf("Expected 1 undo entry, got %d", b.UndoDepth())
	}
	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := contentOf(t, b); got != "0123456789" {
		t.Errorf("Expected restored content, got %q", got)
	}

	// Shrinking replacement.
	if err := b.Replace(2, 6, []byte("_")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if got := contentOf(t, b); got != "01_89" {
		t.Errorf("Expected %q, got %q", "01_89", got)
	}

	if err := b.Replace(4, 2, []byte("x")); err != ErrOutOfRange {
		t.Errorf("Replace past end: expected ErrOutOfRange, got %v", err)
	}
}

func TestTypingMergesPieces(t *testing.T) {
	b := newTestBuffer(t, "")
	for _, c := range []byte("hello world") {
		if err := b.Insert(b.Len(), []byte{c}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if got := contentOf(t, b); got != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", got)
	}
	// Consecutive typing coalesces into the preceding inserted piece.
	if len(b.pieces) != 1 {
		t.Errorf("Expected 1 piece after sequential typing, got %d", len(b.pieces))
	}
}

func TestDirtyTracking(t *testing.T) {
	b := newTestBuffer(t, "data")
	if b.IsDirty() {
		t.Error("Fresh buffer should be clean")
	}

	if err := b.Insert(0, []byte("x")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !b.IsDirty() {
		t.Error("Buffer should be dirty after edit")
	}

	b.MarkSaved()
	if b.IsDirty() {
		t.Error("Buffer should be clean after MarkSaved")
	}
	if b.UndoDepth() != 1 {
		t.Error("Saving must not clear history")
	}

	// Undoing past the save point makes the buffer dirty again; redoing
	// back to it makes it clean.
	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if !b.IsDirty() {
		t.Error("Buffer should be dirty after undoing past save point")
	}
	if _, err := b.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if b.IsDirty() {
		t.Error("Buffer should be clean after redoing back to save point")
	}
}

func TestRevisionsNeverReused(t *testing.T) {
	b := newTestBuffer(t, "data")

	if err := b.Insert(0, []byte("a")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	r1 := b.Revision()
	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if err := b.Insert(0, []byte("b")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if b.Revision() == r1 {
		t.Errorf("Revision %d reused after undo + new edit", r1)
	}
}

func TestRedoClearedByNewEdit(t *testing.T) {
	b := newTestBuffer(t, "data")

	if err := b.Insert(0, []byte("a")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if b.RedoDepth() != 1 {
		t.Fatalf("Expected 1 redo entry, got %d", b.RedoDepth())
	}

	if err := b.Insert(0, []byte("b")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if b.RedoDepth() != 0 {
		t.Errorf("New edit should clear redo, got depth %d", b.RedoDepth())
	}
	if _, err := b.Redo(); err != ErrNothingToRedo {
		t.Errorf("Expected ErrNothingToRedo, got %v", err)
	}
}

func TestHistoryLimit(t *testing.T) {
	b := newTestBuffer(t, "")
	b.SetHistoryLimit(3)

	for i := 0; i < 5; i++ {
		if err := b.Insert(0, []byte("zz")); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
		// Keep pieces distinct so eviction is observable.
		if err := b.Insert(0, []byte("q")); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}
	if b.UndoDepth() != 3 {
		t.Errorf("Expected undo depth capped at 3, got %d", b.UndoDepth())
	}

	undone := 0
	for {
		if _, err := b.Undo(); err != nil {
			break
		}
		undone++
	}
	if undone != 3 {
		t.Errorf("Expected exactly 3 undos, got %d", undone)
	}
}

// TestReferenceModel drives the buffer and a plain byte slice through the
// same random edit script and checks they agree at every step.
func TestReferenceModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	seed := make([]byte, 512)
	rng.Read(seed)
	b := NewBuffer(NewMemSource("ref", seed))
	model := append([]byte(nil), seed...)

	randBytes := func() []byte {
		p := make([]byte, 1+rng.Intn(8))
		rng.Read(p)
		return p
	}

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(5); {
		case op == 0 || len(model) == 0: // insert
			off := int64(rng.Intn(len(model) + 1))
			p := randBytes()
			if err := b.Insert(off, p); err != nil {
				t.Fatalf("Step %d: Insert(%d) failed: %v", step, off, err)
			}
			model = append(model[:off:off], append(append([]byte(nil), p...), model[off:]...)...)
		case op == 1: // delete
			off := int64(rng.Intn(len(model)))
			n := int64(1 + rng.Intn(len(model)-int(off)))
			if err := b.Delete(off, n); err != nil {
				t.Fatalf("Step %d: Delete(%d, %d) failed: %v", step, off, n, err)
			}
			model = append(model[:off:off], model[off+n:]...)
		case op == 2: // overwrite
			off := int64(rng.Intn(len(model)))
			p := randBytes()
			if int(off)+len(p) > len(model) {
				p = p[:len(model)-int(off)]
			}
			if len(p) == 0 {
				continue
			}
			if err := b.Overwrite(off, p); err != nil {
				t.Fatalf("Step %d: Overwrite(%d) failed: %v", step, off, err)
			}
			copy(model[off:], p)
		case op == 3: // undo + redo round trip
			if _, err := b.Undo(); err == nil {
				if _, err := b.Redo(); err != nil {
					t.Fatalf("Step %d: Redo after Undo failed: %v", step, err)
				}
			}
		default: // read a random window
			if len(model) == 0 {
				continue
			}
			off := int64(rng.Intn(len(model)))
			n := int64(rng.Intn(len(model) - int(off) + 1))
			got, err := b.ReadRange(off, n)
			if err != nil {
				t.Fatalf("Step %d: ReadRange(%d, %d) failed: %v", step, off, n, err)
			}
			if !bytes.Equal(got, model[off:off+n]) {
				t.Fatalf("Step %d: window [%d, %d) diverged", step, off, off+n)
			}
		}

		if b.Len() != int64(len(model)) {
			t.Fatalf("Step %d: length %d, model %d", step, b.Len(), len(model))
		}
	}

	got, err := b.ReadRange(0, b.Len())
	if err != nil {
		t.Fatalf("Final ReadRange failed: %v", err)
	}
	if !bytes.Equal(got, model) {
		t.Fatal("Final content diverged from reference model")
	}
}

func TestWriteTo(t *testing.T) {
	b := newTestBuffer(t, "0123456789")
	if err := b.Insert(5, []byte("XY")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != 12 {
		t.Errorf("Expected 12 bytes written, got %d", n)
	}
	if out.String() != "01234XY56789" {
		t.Errorf("Expected %q, got %q", "01234XY56789", out.String())
	}
}

func TestWriteToLargeDocument(t *testing.T) {
	// Larger than one save chunk, so streaming covers multiple writes.
	seed := make([]byte, 3*saveChunkSize/2)
	rand.New(rand.NewSource(7)).Read(seed)
	b := NewBuffer(NewMemSource("large", seed))
	if err := b.Insert(int64(len(seed)/2), []byte("marker")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != b.Len() {
		t.Errorf("Expected %d bytes written, got %d", b.Len(), n)
	}
	want, _ := b.ReadRange(0, b.Len())
	if !bytes.Equal(out.Bytes(), want) {
		t.Error("Streamed output differs from ReadRange")
	}
}

func TestTrackedSelectionRemap(t *testing.T) {
	b := newTestBuffer(t, "0123456789")
	s := &Selection{}
	b.Track(s)
	s.MoveTo(7)

	if err := b.Insert(3, []byte("ab")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if s.Cursor() != 9 {
		t.Errorf("Expected cursor 9 after insert before it, got %d", s.Cursor())
	}

	if err := b.Delete(0, 2); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Cursor() != 7 {
		t.Errorf("Expected cursor 7 after delete before it, got %d", s.Cursor())
	}

	// Undo remaps back.
	if _, err := b.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if s.Cursor() != 9 {
		t.Errorf("Expected cursor 9 after undo, got %d", s.Cursor())
	}

	b.Untrack(s)
	if err := b.Delete(0, 5); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Cursor() != 9 {
		t.Errorf("Untracked selection moved to %d", s.Cursor())
	}
}
