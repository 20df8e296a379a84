package rex

// pieceOrigin tags where a piece's bytes live.
type pieceOrigin uint8

const (
	// pieceOriginal references a range of the byte source.
	pieceOriginal pieceOrigin = iota

	// pieceInserted owns its bytes outright.
	pieceInserted
)

// piece is an immutable contiguous run of logical bytes. Edits build new
// piece sequences; a piece is never modified after creation, which is what
// makes undo records exact. A piece of length 0 is never stored.
type piece struct {
	origin pieceOrigin
	srcOff int64  // offset into the byte source (pieceOriginal only)
	data   []byte // owned bytes (pieceInserted only)
	length int64
}

// originalPiece references n source bytes starting at srcOff.
func originalPiece(srcOff, n int64) piece {
	return piece{origin: pieceOriginal, srcOff: srcOff, length: n}
}

// insertedPiece copies b into an owned piece, so callers may reuse b.
func insertedPiece(b []byte) piece {
	owned := make([]byte, len(b))
	copy(owned, b)
	return piece{origin: pieceInserted, data: owned, length: int64(len(owned))}
}

func (p piece) len() int64 { return p.length }

// cut returns the sub-run [from, to) of p. The caller guarantees
// 0 <= from < to <= p.len(); the result is always non-empty.
func (p piece) cut(from, to int64) piece {
	if p.origin == pieceOriginal {
		return piece{origin: pieceOriginal, srcOff: p.srcOff + from, length: to - from}
	}
	return piece{origin: pieceInserted, data: p.data[from:to:to], length: to - from}
}

// mergeInserted returns a single inserted piece holding p's bytes followed
// by b. Used to bound piece-count growth under repeated typing. The result
// shares no storage with p or b.
func mergeInserted(p piece, b []byte) piece {
	merged := make([]byte, 0, int(p.length)+len(b))
	merged = append(merged, p.data...)
	merged = append(merged, b...)
	return piece{origin: pieceInserted, data: merged, length: int64(len(merged))}
}

// samePiece reports structural equality. Inserted pieces compare by content,
// original pieces by source range.
func samePiece(a, b piece) bool {
	if a.origin != b.origin || a.length != b.length {
		return false
	}
	if a.origin == pieceOriginal {
		return a.srcOff == b.srcOff
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

// samePieces reports structural equality of two piece sequences.
func samePieces(a, b []piece) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !samePiece(a[i], b[i]) {
			return false
		}
	}
	return true
}
