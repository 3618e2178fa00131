package literal

import (
	"fmt"

	"fortio.org/safecast"
)

// cursor is a byte position in the input.
type cursor struct {
	src []byte
	off uint32
	lim uint32
}

func newCursor(src []byte) cursor {
	lim, err := safecast.Conv[uint32](len(src))
	if err != nil {
		panic(fmt.Errorf("literal input overflow: %w", err))
	}
	return cursor{src: src, lim: lim}
}

func (c *cursor) eof() bool { return c.off >= c.lim }

// peek returns the current byte, or 0 at the end.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.off]
}

// peek2 returns the current and the next byte.
func (c *cursor) peek2() (b0, b1 byte, ok bool) {
	if c.off+1 >= c.lim {
		return 0, 0, false
	}
	return c.src[c.off], c.src[c.off+1], true
}

// bump advances one byte.
func (c *cursor) bump() byte {
	if c.eof() {
		return 0
	}
	b := c.src[c.off]
	c.off++
	return b
}

type mark uint32

func (c *cursor) mark() mark { return mark(c.off) }

func (c *cursor) spanFrom(m mark) Span {
	return Span{Start: uint32(m), End: c.off}
}

func (c *cursor) text(sp Span) string { return string(c.src[sp.Start:sp.End]) }
