// Package editor models the text-editing surface the mention resolver and
// the token estimator observe. Positions count runes, not bytes.
package editor

import (
	"strings"
	"sync"
)

type Position struct {
	Line   int
	Column int
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Reader is the read side of an editor.
type Reader interface {
	Cursor() Position
	Text(from, to Position) string
}

// Buffer is the capability the mention resolver needs from an editor widget.
type Buffer interface {
	Reader
	Replace(from, to Position, text string)
	Focus()
}

// TextBuffer is an in-memory Buffer. It is safe for concurrent use.
type TextBuffer struct {
	mu      sync.Mutex
	lines   [][]rune
	cursor  Position
	focused bool
}

func NewTextBuffer(value string) *TextBuffer {
	b := &TextBuffer{}
	b.SetValue(value)
	return b
}

func (b *TextBuffer) SetValue(value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = splitLines(value)
	last := len(b.lines) - 1
	b.cursor = Position{Line: last, Column: len(b.lines[last])}
}

func (b *TextBuffer) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

func (b *TextBuffer) Cursor() Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// SetCursor moves the cursor, clamped to the buffer.
func (b *TextBuffer) SetCursor(p Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = b.clamp(p)
}

func (b *TextBuffer) Text(from, to Position) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	from, to = b.clamp(from), b.clamp(to)
	if to.Before(from) {
		return ""
	}
	if from.Line == to.Line {
		return string(b.lines[from.Line][from.Column:to.Column])
	}
	var sb strings.Builder
	sb.WriteString(string(b.lines[from.Line][from.Column:]))
	for l := from.Line + 1; l < to.Line; l++ {
		sb.WriteByte('\n')
		sb.WriteString(string(b.lines[l]))
	}
	sb.WriteByte('\n')
	sb.WriteString(string(b.lines[to.Line][:to.Column]))
	return sb.String()
}

// Replace swaps the range for text and leaves the cursor right after it.
func (b *TextBuffer) Replace(from, to Position, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replace(from, to, text)
}

func (b *TextBuffer) replace(from, to Position, text string) {
	from, to = b.clamp(from), b.clamp(to)
	if to.Before(from) {
		from, to = to, from
	}
	head := append([]rune{}, b.lines[from.Line][:from.Column]...)
	tail := append([]rune{}, b.lines[to.Line][to.Column:]...)

	inserted := splitLines(text)
	last := len(inserted) - 1
	cursor := Position{Line: from.Line + last, Column: len(inserted[last])}
	if last == 0 {
		cursor.Column += len(head)
	}

	inserted[0] = append(head, inserted[0]...)
	inserted[last] = append(inserted[last], tail...)

	lines := make([][]rune, 0, len(b.lines)-(to.Line-from.Line)+last)
	lines = append(lines, b.lines[:from.Line]...)
	lines = append(lines, inserted...)
	lines = append(lines, b.lines[to.Line+1:]...)
	b.lines = lines
	b.cursor = cursor
}

// Insert types text at the cursor.
func (b *TextBuffer) Insert(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replace(b.cursor, b.cursor, text)
}

// Backspace deletes the rune before the cursor, joining lines at column 0.
func (b *TextBuffer) Backspace() {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cursor
	switch {
	case c.Column > 0:
		b.replace(Position{c.Line, c.Column - 1}, c, "")
	case c.Line > 0:
		prev := Position{c.Line - 1, len(b.lines[c.Line-1])}
		b.replace(prev, c, "")
	}
}

func (b *TextBuffer) Focus() {
	b.mu.Lock()
	b.focused = true
	b.mu.Unlock()
}

func (b *TextBuffer) Blur() {
	b.mu.Lock()
	b.focused = false
	b.mu.Unlock()
}

func (b *TextBuffer) Focused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused
}

func (b *TextBuffer) clamp(p Position) Position {
	if p.Line < 0 {
		return Position{}
	}
	if p.Line >= len(b.lines) {
		last := len(b.lines) - 1
		return Position{Line: last, Column: len(b.lines[last])}
	}
	if p.Column < 0 {
		p.Column = 0
	}
	if p.Column > len(b.lines[p.Line]) {
		p.Column = len(b.lines[p.Line])
	}
	return p
}

func splitLines(s string) [][]rune {
	raw := strings.Split(s, "\n")
	lines := make([][]rune, len(raw))
	for i, l := range raw {
		lines[i] = []rune(l)
	}
	return lines
}
