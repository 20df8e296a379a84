package rex

import "bytes"

// findChunkSize is the window size used when scanning the document.
// Windows overlap by len(needle)-1 bytes so matches spanning a window
// boundary are still found.
const findChunkSize = 64 * 1024

// Find searches for needle starting at logical offset from, wrapping
// around to the start of the document. It returns the offset of the first
// match, ErrNotFound when no match exists, or ErrOutOfRange for a bad
// starting offset.
func (b *Buffer) Find(from int64, needle []byte) (int64, error) {
	if from < 0 || from > b.length {
		return 0, ErrOutOfRange
	}
	if len(needle) == 0 || int64(len(needle)) > b.length {
		return 0, ErrNotFound
	}

	pos, err := b.scan(from, b.length, needle)
	if err == nil || err != ErrNotFound {
		return pos, err
	}

	// Wrap: rescan from the top, far enough past `from` to catch a match
	// that straddles it.
	limit := from + int64(len(needle)) - 1
	if limit > b.length {
		limit = b.length
	}
	return b.scan(0, limit, needle)
}

// scan searches [from, to) in overlapping chunks.
func (b *Buffer) scan(from, to int64, needle []byte) (int64, error) {
	n := int64(len(needle))
	for pos := from; pos+n <= to; pos += findChunkSize {
		window := int64(findChunkSize) + n - 1
		if pos+window > to {
			window = to - pos
		}
		data, err := b.ReadRange(pos, window)
		if err != nil {
			return 0, err
		}
		if i := bytes.Index(data, needle); i >= 0 {
			return pos + int64(i), nil
		}
	}
	return 0, ErrNotFound
}
