package rex

// Clipboard holds the last copied or cut byte range as an owned buffer.
// Once captured, the bytes have no relationship to the source document:
// they survive edits, undo, and redo, and outlive any single document.
type Clipboard struct {
	data []byte
}

// HasData reports whether the clipboard holds bytes.
func (c *Clipboard) HasData() bool { return len(c.data) > 0 }

// Len returns the number of bytes held.
func (c *Clipboard) Len() int64 { return int64(len(c.data)) }

// Copy captures the range [start, end) of b as an owned copy.
func (c *Clipboard) Copy(b *Buffer, start, end int64) error {
	if start < 0 || end < start || end > b.Len() {
		return ErrOutOfRange
	}
	data, err := b.ReadRange(start, end-start)
	if err != nil {
		return err
	}
	c.data = data
	return nil
}

// Cut captures the range [start, end) and deletes it from b. The deletion
// is one edit record, so a single undo restores the document while the
// clipboard keeps its copy.
func (c *Clipboard) Cut(b *Buffer, start, end int64) error {
	if err := c.Copy(b, start, end); err != nil {
		return err
	}
	return b.Delete(start, end-start)
}

// Paste inserts the held bytes at off and returns how many were inserted.
// Pasting from an empty clipboard is a no-op reported as (0, nil).
func (c *Clipboard) Paste(b *Buffer, off int64) (int64, error) {
	if len(c.data) == 0 {
		return 0, nil
	}
	if err := b.Insert(off, c.data); err != nil {
		return 0, err
	}
	return int64(len(c.data)), nil
}
