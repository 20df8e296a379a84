package rex

// Cell is one byte slot of the visible window, prepared for the display
// layer. The slot one past the end of the document is included when
// visible, so the cursor can be drawn there; it carries no byte.
type Cell struct {
	Offset   int64
	Byte     byte
	HasByte  bool
	Cursor   bool
	Selected bool
}

// Row is one display line of cells, starting at Offset.
type Row struct {
	Offset int64
	Cells  []Cell
}

// Viewport selects the visible window of a document. It holds no bytes
// itself; Render materializes the window through the buffer on demand.
// It knows nothing about colors or terminal drawing.
type Viewport struct {
	Top  int64 // offset of the first visible byte, always a row multiple
	Cols int
	Rows int
}

// NewViewport creates a viewport of the given geometry.
func NewViewport(cols, rows int) *Viewport {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Viewport{Cols: cols, Rows: rows}
}

// Follow scrolls the window the minimal amount needed to keep cursor
// visible.
func (v *Viewport) Follow(cursor int64) {
	cols := int64(v.Cols)
	rowStart := cursor - cursor%cols
	if cursor < v.Top {
		v.Top = rowStart
	}
	if cursor >= v.Top+cols*int64(v.Rows) {
		v.Top = rowStart - cols*int64(v.Rows-1)
	}
	if v.Top < 0 {
		v.Top = 0
	}
}

// Render materializes the visible window via the buffer, marking cursor
// and selection membership on each cell.
func (v *Viewport) Render(b *Buffer, sel *Selection) ([]Row, error) {
	cols := int64(v.Cols)
	length := b.Len()

	start := v.Top
	if start > length {
		start = length - length%cols
	}
	end := start + cols*int64(v.Rows)
	if end > length {
		end = length
	}
	var data []byte
	if end > start {
		var err error
		data, err = b.ReadRange(start, end-start)
		if err != nil {
			return nil, err
		}
	}

	selStart, selEnd := sel.Range()
	cursor := sel.Cursor()

	rows := make([]Row, 0, v.Rows)
	for r := 0; r < v.Rows; r++ {
		rowOff := start + int64(r)*cols
		if rowOff > length {
			break
		}
		row := Row{Offset: rowOff, Cells: make([]Cell, 0, v.Cols)}
		for c := int64(0); c < cols; c++ {
			off := rowOff + c
			if off > length {
				break
			}
			cell := Cell{
				Offset:   off,
				Cursor:   off == cursor,
				Selected: sel.Active() && off >= selStart && off < selEnd,
			}
			if off < length {
				cell.Byte = data[off-start]
				cell.HasByte = true
			}
			// The slot at exactly length is the append position; it is
			// kept only so the cursor can rest there.
			if off == length && off != cursor {
				break
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
		if rowOff+cols > length {
			break
		}
	}
	return rows, nil
}

// PrintableByte maps a byte to its character-pane representation:
// printable ASCII stays itself, everything else becomes a dot.
func PrintableByte(b byte) rune {
	if b >= 0x20 && b < 0x7F {
		return rune(b)
	}
	return '.'
}
