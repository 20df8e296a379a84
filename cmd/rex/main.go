// Command rex is a terminal hex editor. It decodes keystrokes into the
// editor core's logical commands and draws the viewport it materializes.
//
// Usage:
//
//	rex [file]
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dbrodie/rex"
)

type pane int

const (
	paneHex pane = iota
	paneASCII
)

type promptKind int

const (
	promptNone promptKind = iota
	promptGoto
	promptFind
	promptSave
)

type app struct {
	screen tcell.Screen
	ed     *rex.Editor
	view   *rex.Viewport
	cfg    rex.Config

	pane          pane
	pendingNibble int // buffered high nibble while typing hex, -1 if none

	prompt      promptKind
	promptText  string
	promptInput string

	quitArmed bool
	status    string
}

func main() {
	if len(os.Args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: rex [file]")
		os.Exit(2)
	}

	cfg, err := rex.LoadConfig(rex.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rex: %v (using defaults)\n", err)
	}

	opts := rex.SessionOptions{Config: cfg}
	if len(os.Args) == 2 {
		opts.Path = os.Args[1]
	}
	ed, err := rex.NewEditor(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rex: %v\n", err)
		os.Exit(1)
	}
	defer ed.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rex: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "rex: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	a := &app{
		screen:        screen,
		ed:            ed,
		view:          rex.NewViewport(16, 24),
		cfg:           cfg,
		pendingNibble: -1,
		status:        "Ctrl-Q quit  Ctrl-S save  Ctrl-G goto  Ctrl-F find",
	}
	a.layout()
	a.run()
}

func (a *app) run() {
	for {
		a.draw()
		switch ev := a.screen.PollEvent().(type) {
		case *tcell.EventResize:
			a.layout()
			a.screen.Sync()
		case *tcell.EventKey:
			if !a.handleKey(ev) {
				return
			}
		}
	}
}

// layout recomputes the byte geometry from the screen size, in the manner
// of a classic hex view: 3 cells per byte for the hex pane plus 1 for the
// character pane when shown, and an offset gutter.
func (a *app) layout() {
	w, h := a.screen.Size()
	cells := 3
	if a.cfg.ShowASCII {
		cells = 4
	}
	avail := w - a.gutterWidth()
	cols := avail / cells
	if a.cfg.LineWidth > 0 && a.cfg.LineWidth < cols {
		cols = a.cfg.LineWidth
	}
	if cols < 1 {
		cols = 1
	}
	rows := h - 1 // status bar
	if rows < 1 {
		rows = 1
	}
	a.view.Cols = cols
	a.view.Rows = rows
	a.ed.SetGeometry(cols, rows)
}

func (a *app) gutterWidth() int {
	if !a.cfg.ShowLineNum {
		return 0
	}
	return 9 // 8 hex digits + space
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	if a.prompt != promptNone {
		a.handlePromptKey(ev)
		return true
	}

	if ev.Key() != tcell.KeyCtrlQ {
		a.quitArmed = false
	}

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		if a.ed.Dirty() && !a.quitArmed {
			a.quitArmed = true
			a.status = "unsaved changes; Ctrl-Q again to discard and quit"
			return true
		}
		return false

	case tcell.KeyLeft:
		a.do(rex.Command{Kind: rex.CmdMoveLeft})
	case tcell.KeyRight:
		a.do(rex.Command{Kind: rex.CmdMoveRight})
	case tcell.KeyUp:
		a.do(rex.Command{Kind: rex.CmdMoveUp})
	case tcell.KeyDown:
		a.do(rex.Command{Kind: rex.CmdMoveDown})
	case tcell.KeyPgUp:
		a.do(rex.Command{Kind: rex.CmdPageUp})
	case tcell.KeyPgDn:
		a.do(rex.Command{Kind: rex.CmdPageDown})
	case tcell.KeyHome:
		a.do(rex.Command{Kind: rex.CmdLineStart})
	case tcell.KeyEnd:
		a.do(rex.Command{Kind: rex.CmdLineEnd})

	case tcell.KeyDelete:
		a.do(rex.Command{Kind: rex.CmdDeleteForward})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.do(rex.Command{Kind: rex.CmdDeleteBackward})

	case tcell.KeyInsert:
		a.do(rex.Command{Kind: rex.CmdToggleInsertMode})
	case tcell.KeyCtrlSpace:
		a.do(rex.Command{Kind: rex.CmdToggleSelection})

	case tcell.KeyCtrlC:
		a.do(rex.Command{Kind: rex.CmdCopy})
	case tcell.KeyCtrlX:
		a.do(rex.Command{Kind: rex.CmdCut})
	case tcell.KeyCtrlV:
		a.do(rex.Command{Kind: rex.CmdPaste})

	case tcell.KeyCtrlZ:
		a.do(rex.Command{Kind: rex.CmdUndo})
	case tcell.KeyCtrlR:
		a.do(rex.Command{Kind: rex.CmdRedo})

	case tcell.KeyCtrlS:
		if a.ed.Path() == "" {
			a.openPrompt(promptSave, "Save as: ")
		} else {
			a.do(rex.Command{Kind: rex.CmdSave})
		}
	case tcell.KeyCtrlG:
		a.openPrompt(promptGoto, "Goto: ")
	case tcell.KeyCtrlF:
		a.openPrompt(promptFind, "Find (hex or text): ")

	case tcell.KeyTab:
		if a.cfg.ShowASCII {
			if a.pane == paneHex {
				a.pane = paneASCII
			} else {
				a.pane = paneHex
			}
			a.pendingNibble = -1
		}

	case tcell.KeyRune:
		a.handleRune(ev.Rune())
	}
	return true
}

// handleRune performs the multi-keystroke composition the core excludes:
// in the hex pane two digits build one byte, which is only dispatched as a
// command once complete.
func (a *app) handleRune(r rune) {
	if a.pane == paneASCII {
		if r >= 0x20 && r < 0x7F {
			a.do(rex.Command{Kind: rex.CmdInsert, Bytes: []byte{byte(r)}})
		}
		return
	}

	nibble := hexDigit(r)
	if nibble < 0 {
		return
	}
	if a.pendingNibble < 0 {
		a.pendingNibble = nibble
		a.status = fmt.Sprintf("pending %X_", nibble)
		return
	}
	b := byte(a.pendingNibble<<4 | nibble)
	a.pendingNibble = -1
	a.do(rex.Command{Kind: rex.CmdInsert, Bytes: []byte{b}})
}

func hexDigit(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}

func (a *app) do(cmd rex.Command) {
	res := a.ed.Do(cmd)
	if res.Status != "" {
		a.status = res.Status
	}
	a.view.Follow(a.ed.Selection().Cursor())
}

func (a *app) openPrompt(kind promptKind, text string) {
	a.prompt = kind
	a.promptText = text
	a.promptInput = ""
	a.pendingNibble = -1
}

func (a *app) handlePromptKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.prompt = promptNone
		a.status = "cancelled"
	case tcell.KeyEnter:
		kind, input := a.prompt, a.promptInput
		a.prompt = promptNone
		a.commitPrompt(kind, input)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.promptInput) > 0 {
			a.promptInput = a.promptInput[:len(a.promptInput)-1]
		}
	case tcell.KeyRune:
		a.promptInput += string(ev.Rune())
	}
}

func (a *app) commitPrompt(kind promptKind, input string) {
	switch kind {
	case promptGoto:
		off, err := strconv.ParseInt(strings.TrimSpace(input), 0, 64)
		if err != nil {
			a.status = "bad offset: " + input
			return
		}
		a.do(rex.Command{Kind: rex.CmdGoto, Offset: off})
	case promptFind:
		needle := parseNeedle(input)
		if len(needle) == 0 {
			a.status = "empty search"
			return
		}
		a.do(rex.Command{Kind: rex.CmdFind, Bytes: needle})
	case promptSave:
		path := strings.TrimSpace(input)
		if path == "" {
			a.status = "empty path"
			return
		}
		a.do(rex.Command{Kind: rex.CmdSaveAs, Path: path})
	}
}

// parseNeedle interprets the search input as hex bytes when possible
// ("de ad be ef" or "deadbeef"), otherwise as literal text.
func parseNeedle(input string) []byte {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if compact == "" {
		return nil
	}
	if len(compact)%2 == 0 {
		bytes := make([]byte, 0, len(compact)/2)
		ok := true
		for i := 0; i+1 < len(compact) && ok; i += 2 {
			hi, lo := hexDigit(rune(compact[i])), hexDigit(rune(compact[i+1]))
			if hi < 0 || lo < 0 {
				ok = false
				break
			}
			bytes = append(bytes, byte(hi<<4|lo))
		}
		if ok {
			return bytes
		}
	}
	return []byte(strings.TrimSpace(input))
}

var (
	styleDefault = tcell.StyleDefault
	styleSel     = tcell.StyleDefault.Reverse(true)
	styleBar     = tcell.StyleDefault.Reverse(true)
	styleGutter  = tcell.StyleDefault.Dim(true)
)

func (a *app) draw() {
	a.screen.Clear()

	rows, err := a.view.Render(a.ed.Buffer(), a.ed.Selection())
	if err != nil {
		a.status = err.Error()
	}

	gutter := a.gutterWidth()
	hexStart := gutter
	asciiStart := hexStart + a.view.Cols*3

	cursorX, cursorY := -1, -1
	for y, row := range rows {
		if a.cfg.ShowLineNum {
			puts(a.screen, 0, y, styleGutter, fmt.Sprintf("%08X", row.Offset))
		}
		for i, cell := range row.Cells {
			hx := hexStart + i*3
			style := styleDefault
			if cell.Selected || (cell.Cursor && a.pane == paneASCII) {
				style = styleSel
			}
			if cell.HasByte {
				puts(a.screen, hx, y, style, fmt.Sprintf("%02X", cell.Byte))
			} else {
				puts(a.screen, hx, y, style, "  ")
			}
			if cell.Cursor && a.pane == paneHex {
				cursorX, cursorY = hx, y
			}

			if a.cfg.ShowASCII {
				style = styleDefault
				if cell.Selected || (cell.Cursor && a.pane == paneHex) {
					style = styleSel
				}
				ch := ' '
				if cell.HasByte {
					ch = rex.PrintableByte(cell.Byte)
				}
				puts(a.screen, asciiStart+i, y, style, string(ch))
				if cell.Cursor && a.pane == paneASCII {
					cursorX, cursorY = asciiStart+i, y
				}
			}
		}
	}

	a.drawStatusBar()

	if a.prompt != promptNone {
		_, h := a.screen.Size()
		line := a.promptText + a.promptInput
		puts(a.screen, 0, h-1, styleDefault, line)
		a.screen.ShowCursor(len(line), h-1)
	} else if cursorX >= 0 {
		a.screen.ShowCursor(cursorX, cursorY)
	} else {
		a.screen.HideCursor()
	}

	a.screen.Show()
}

func (a *app) drawStatusBar() {
	w, h := a.screen.Size()
	if a.prompt != promptNone {
		return
	}
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, h-1, ' ', nil, styleBar)
	}
	puts(a.screen, 0, h-1, styleBar, a.status)

	mode := "OVR"
	if a.ed.InsertMode() {
		mode = "INS"
	}
	if a.ed.Selection().Active() {
		mode = "SEL"
	}
	dirty := " "
	if a.ed.Dirty() {
		dirty = "*"
	}
	right := fmt.Sprintf("%s pos 0x%X/%d undo %d %s",
		dirty, a.ed.Selection().Cursor(), a.ed.Buffer().Len(),
		a.ed.Buffer().UndoDepth(), mode)
	if len(right) < w {
		puts(a.screen, w-len(right), h-1, styleBar, right)
	}
}

func puts(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}
