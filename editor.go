package rex

import (
	"fmt"
	"io"
)

// CommandKind identifies one of the closed set of logical commands the
// dispatcher accepts. Anything richer (key bindings, multi-keystroke hex
// composition) is the input layer's job to translate down to these.
type CommandKind uint8

const (
	CmdMoveLeft CommandKind = iota
	CmdMoveRight
	CmdMoveUp
	CmdMoveDown
	CmdPageUp
	CmdPageDown
	CmdLineStart
	CmdLineEnd
	CmdGoto // Offset

	CmdInsert // Bytes; honors insert/overwrite mode
	CmdDeleteForward
	CmdDeleteBackward
	CmdDeleteSelection

	CmdCopy
	CmdCut
	CmdPaste

	CmdUndo
	CmdRedo

	CmdToggleInsertMode
	CmdToggleSelection

	CmdFind // Bytes
	CmdSave
	CmdSaveAs // Path
)

// Command is one logical editor command with its arguments.
type Command struct {
	Kind   CommandKind
	Bytes  []byte
	Offset int64
	Path   string
}

// Result reports the outcome of a command. Err is nil on success; Status
// always carries a human-readable reason either way. A failed command
// leaves cursor, selection, and document unchanged.
type Result struct {
	Status string
	Err    error
}

// SessionOptions configures a new editing session. At most one of Path and
// Data may be set; with neither, the session starts on an empty document.
type SessionOptions struct {
	Path       string
	Data       []byte
	Filesystem Filesystem
	Config     Config
}

// Editor is the command dispatcher: it owns the buffer, selection,
// clipboard, and file path of one editing session and translates logical
// commands into their operations. One command is fully applied, including
// history bookkeeping and selection remapping, before the next is
// accepted; there is no concurrent mutation.
type Editor struct {
	buf  *Buffer
	sel  *Selection
	clip *Clipboard
	fs   Filesystem
	cfg  Config

	path       string
	insertMode bool

	// Geometry for vertical movement, updated by the display layer.
	cols int64
	rows int64

	statusLog []string
}

// NewEditor opens an editing session.
func NewEditor(opts SessionOptions) (*Editor, error) {
	if opts.Path != "" && opts.Data != nil {
		return nil, ErrMultipleSources
	}
	fs := opts.Filesystem
	if fs == nil {
		fs = LocalFilesystem{}
	}

	var src ByteSource
	switch {
	case opts.Path != "":
		s, err := fs.OpenSource(opts.Path)
		if err != nil {
			return nil, err
		}
		src = s
	case opts.Data != nil:
		src = NewMemSource("untitled", opts.Data)
	default:
		src = NewMemSource("untitled", nil)
	}

	buf := NewBuffer(src)
	buf.SetHistoryLimit(opts.Config.HistoryLimit)
	sel := &Selection{}
	buf.Track(sel)

	return &Editor{
		buf:  buf,
		sel:  sel,
		clip: &Clipboard{},
		fs:   fs,
		cfg:  opts.Config,
		path: opts.Path,
		cols: 16,
		rows: 24,
	}, nil
}

// Close releases the session's byte source.
func (e *Editor) Close() error {
	if c, ok := e.buf.Source().(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Buffer returns the session's edit buffer.
func (e *Editor) Buffer() *Buffer { return e.buf }

// Selection returns the session's cursor/selection state.
func (e *Editor) Selection() *Selection { return e.sel }

// Clipboard returns the session's clipboard.
func (e *Editor) Clipboard() *Clipboard { return e.clip }

// Path returns the file path the session saves to, if any.
func (e *Editor) Path() string { return e.path }

// InsertMode reports whether typed bytes insert rather than overwrite.
func (e *Editor) InsertMode() bool { return e.insertMode }

// Config returns the session configuration.
func (e *Editor) Config() Config { return e.cfg }

// LastStatus returns the most recent status line.
func (e *Editor) LastStatus() string {
	if len(e.statusLog) == 0 {
		return ""
	}
	return e.statusLog[len(e.statusLog)-1]
}

// StatusLog returns every status line recorded this session.
func (e *Editor) StatusLog() []string { return e.statusLog }

// SetGeometry tells the dispatcher how many byte columns and rows the
// display shows, which defines vertical and page movement.
func (e *Editor) SetGeometry(cols, rows int) {
	if cols > 0 {
		e.cols = int64(cols)
	}
	if rows > 0 {
		e.rows = int64(rows)
	}
}

// Do applies one logical command and reports the outcome.
func (e *Editor) Do(cmd Command) Result {
	switch cmd.Kind {
	case CmdMoveLeft:
		return e.moveBy(-1)
	case CmdMoveRight:
		return e.moveBy(1)
	case CmdMoveUp:
		return e.moveBy(-e.cols)
	case CmdMoveDown:
		return e.moveBy(e.cols)
	case CmdPageUp:
		return e.moveBy(-e.cols * e.rows)
	case CmdPageDown:
		return e.moveBy(e.cols * e.rows)
	case CmdLineStart:
		return e.moveBy(-(e.sel.Cursor() % e.cols))
	case CmdLineEnd:
		col := e.sel.Cursor() % e.cols
		return e.moveBy(e.cols - 1 - col)
	case CmdGoto:
		return e.moveTo(cmd.Offset)

	case CmdInsert:
		return e.write(cmd.Bytes)
	case CmdDeleteForward:
		return e.deleteAtCursor(false)
	case CmdDeleteBackward:
		return e.deleteAtCursor(true)
	case CmdDeleteSelection:
		return e.deleteSelection()

	case CmdCopy:
		return e.copySelection(false)
	case CmdCut:
		return e.copySelection(true)
	case CmdPaste:
		return e.paste()

	case CmdUndo:
		return e.undo()
	case CmdRedo:
		return e.redo()

	case CmdToggleInsertMode:
		e.insertMode = !e.insertMode
		if e.insertMode {
			return e.ok("insert mode")
		}
		return e.ok("overwrite mode")
	case CmdToggleSelection:
		return e.toggleSelection()

	case CmdFind:
		return e.find(cmd.Bytes)
	case CmdSave:
		return e.save(e.path)
	case CmdSaveAs:
		return e.save(cmd.Path)
	}
	return e.fail(fmt.Errorf("unknown command %d", cmd.Kind), "unknown command")
}

// Dirty reports whether unsaved edits exist.
func (e *Editor) Dirty() bool { return e.buf.IsDirty() }

func (e *Editor) ok(format string, args ...interface{}) Result {
	return Result{Status: e.status(format, args...)}
}

func (e *Editor) fail(err error, format string, args ...interface{}) Result {
	return Result{Status: e.status(format, args...), Err: err}
}

func (e *Editor) status(format string, args ...interface{}) string {
	s := fmt.Sprintf(format, args...)
	e.statusLog = append(e.statusLog, s)
	return s
}

func (e *Editor) clamp(off int64) int64 {
	if off < 0 {
		return 0
	}
	if off > e.buf.Len() {
		return e.buf.Len()
	}
	return off
}

// placeCursor moves to off, extending the selection when one is active and
// collapsing otherwise.
func (e *Editor) placeCursor(off int64) {
	off = e.clamp(off)
	if e.sel.Active() {
		e.sel.ExtendTo(off)
	} else {
		e.sel.MoveTo(off)
	}
}

func (e *Editor) moveBy(delta int64) Result {
	e.placeCursor(e.sel.Cursor() + delta)
	return Result{}
}

func (e *Editor) moveTo(off int64) Result {
	e.placeCursor(off)
	return e.ok("moved to 0x%X", e.sel.Cursor())
}

// write applies typed bytes at the cursor. A selection is replaced first.
// In overwrite mode bytes replace in place, spilling into an append when
// the write runs past the end of the document.
func (e *Editor) write(bytes []byte) Result {
	if len(bytes) == 0 {
		return e.ok("nothing to write")
	}
	if e.sel.Active() {
		if r := e.deleteSelection(); r.Err != nil {
			return r
		}
	}

	off := e.sel.Cursor()
	if e.insertMode {
		if err := e.buf.Insert(off, bytes); err != nil {
			return e.fail(err, "insert failed: %v", err)
		}
		// Tracked cursor was shifted to the end of the insertion.
		return e.ok("inserted % X at 0x%X", bytes, off)
	}

	// One record even when the write runs past the end, so a single undo
	// reverts the whole keystroke.
	over := e.buf.Len() - off
	if over > int64(len(bytes)) {
		over = int64(len(bytes))
	}
	var err error
	if over > 0 {
		err = e.buf.Replace(off, over, bytes)
	} else {
		err = e.buf.Insert(off, bytes)
	}
	if err != nil {
		return e.fail(err, "overwrite failed: %v", err)
	}
	e.placeCursor(off + int64(len(bytes)))
	return e.ok("wrote % X at 0x%X", bytes, off)
}

func (e *Editor) deleteAtCursor(backward bool) Result {
	if e.sel.Active() {
		return e.deleteSelection()
	}
	off := e.sel.Cursor()
	if backward {
		if off == 0 {
			return e.ok("nothing to delete")
		}
		off--
	} else if off == e.buf.Len() {
		return e.ok("nothing to delete")
	}
	if err := e.buf.Delete(off, 1); err != nil {
		return e.fail(err, "delete failed: %v", err)
	}
	return e.ok("deleted byte at 0x%X", off)
}

func (e *Editor) deleteSelection() Result {
	if !e.sel.Active() {
		return e.fail(ErrNoSelection, "no selection")
	}
	start, end := e.sel.Range()
	if start == end {
		e.sel.Clear()
		return e.ok("empty selection")
	}
	if err := e.buf.Delete(start, end-start); err != nil {
		return e.fail(err, "delete failed: %v", err)
	}
	// Remapping collapsed both ends to start; drop the active flag too.
	e.sel.Clear()
	return e.ok("deleted %d bytes at 0x%X", end-start, start)
}

func (e *Editor) copySelection(cut bool) Result {
	if !e.sel.Active() {
		return e.fail(ErrNoSelection, "no selection")
	}
	start, end := e.sel.Range()
	if start == end {
		return e.fail(ErrNoSelection, "empty selection")
	}
	if cut {
		if err := e.clip.Cut(e.buf, start, end); err != nil {
			return e.fail(err, "cut failed: %v", err)
		}
		e.sel.Clear()
		return e.ok("cut %d bytes", e.clip.Len())
	}
	if err := e.clip.Copy(e.buf, start, end); err != nil {
		return e.fail(err, "copy failed: %v", err)
	}
	e.sel.Clear()
	return e.ok("copied %d bytes", e.clip.Len())
}

func (e *Editor) paste() Result {
	if !e.clip.HasData() {
		return e.ok("clipboard is empty")
	}
	n, err := e.clip.Paste(e.buf, e.sel.Cursor())
	if err != nil {
		return e.fail(err, "paste failed: %v", err)
	}
	// Tracked cursor was shifted past the pasted bytes.
	return e.ok("pasted %d bytes", n)
}

func (e *Editor) undo() Result {
	info, err := e.buf.Undo()
	if err != nil {
		return e.fail(err, "nothing to undo")
	}
	e.sel.MoveTo(e.clamp(info.Off))
	return e.ok("undo (%d left)", e.buf.UndoDepth())
}

func (e *Editor) redo() Result {
	info, err := e.buf.Redo()
	if err != nil {
		return e.fail(err, "nothing to redo")
	}
	e.sel.MoveTo(e.clamp(info.Off + info.Delta))
	return e.ok("redo (%d left)", e.buf.RedoDepth())
}

func (e *Editor) toggleSelection() Result {
	if e.sel.Active() {
		e.sel.Clear()
		return e.ok("selection off")
	}
	e.sel.StartAt(e.sel.Cursor())
	return e.ok("selection from 0x%X", e.sel.Anchor())
}

func (e *Editor) find(needle []byte) Result {
	if len(needle) == 0 {
		return e.fail(ErrNotFound, "empty search")
	}
	from := e.clamp(e.sel.Cursor() + 1)
	pos, err := e.buf.Find(from, needle)
	if err == ErrNotFound {
		return e.fail(err, "not found")
	}
	if err != nil {
		return e.fail(err, "search failed: %v", err)
	}
	e.placeCursor(pos)
	return e.ok("found at 0x%X", pos)
}

func (e *Editor) save(path string) Result {
	if path == "" {
		return e.fail(ErrNoPath, "no file name")
	}
	if err := SaveTo(e.fs, e.buf, path); err != nil {
		return e.fail(err, "save failed, document unsaved: %v", err)
	}
	e.path = path
	return e.ok("saved %d bytes to %s", e.buf.Len(), path)
}
