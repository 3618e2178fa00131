package literal

import (
	"unicode"
	"unicode/utf8"
)

// Scanner splits literal text into tokens. Whitespace is skipped; invalid
// input produces Invalid tokens and the scan continues.
type Scanner struct {
	cur  cursor
	look *Token // one-token lookahead
}

// NewScanner creates a scanner over src.
func NewScanner(src string) *Scanner {
	return &Scanner{cur: newCursor([]byte(src))}
}

// Next returns the next token. After the end it always returns EOF.
func (s *Scanner) Next() Token {
	if s.look != nil {
		tok := *s.look
		s.look = nil
		return tok
	}
	s.skipSpace()
	if s.cur.eof() {
		return Token{Kind: EOF, Span: s.cur.spanFrom(s.cur.mark())}
	}

	ch := s.cur.peek()
	switch {
	case ch == 'b':
		if b0, b1, ok := s.cur.peek2(); ok && b0 == 'b' && b1 == '"' {
			start := s.cur.mark()
			s.cur.bump()
			return s.scanQuoted(start, '"', BytesLit)
		}
		return s.scanIdent()
	case isIdentStartByte(ch) || ch >= utf8.RuneSelf:
		return s.scanIdent()
	case isDec(ch):
		return s.scanNumber()
	case ch == '"':
		return s.scanQuoted(s.cur.mark(), '"', StringLit)
	case ch == '\'':
		return s.scanQuoted(s.cur.mark(), '\'', CharLit)
	}
	return s.scanPunct()
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() Token {
	t := s.Next()
	s.look = &t
	return t
}

func (s *Scanner) skipSpace() {
	for !s.cur.eof() {
		switch s.cur.peek() {
		case ' ', '\t', '\n', '\r':
			s.cur.bump()
		default:
			return
		}
	}
}

func (s *Scanner) emit(kind Kind, start mark) Token {
	sp := s.cur.spanFrom(start)
	return Token{Kind: kind, Span: sp, Text: s.cur.text(sp)}
}

func (s *Scanner) scanIdent() Token {
	start := s.cur.mark()
	for !s.cur.eof() {
		b := s.cur.peek()
		if b < utf8.RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			s.cur.bump()
			continue
		}
		r, sz := utf8.DecodeRune(s.cur.src[s.cur.off:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		for n := 0; n < sz; n++ {
			s.cur.bump()
		}
	}
	if s.cur.mark() == start {
		s.cur.bump()
		return s.emit(Invalid, start)
	}
	return s.emit(Ident, start)
}

// 123, 1_000, 0b..., 0o..., 0x..., 1.5, 1e-3, 2.5e+10
func (s *Scanner) scanNumber() Token {
	start := s.cur.mark()
	kind := IntLit

	if s.cur.peek() == '0' {
		if _, b1, ok := s.cur.peek2(); ok {
			switch b1 {
			case 'b', 'B', 'o', 'O', 'x', 'X':
				s.cur.bump()
				s.cur.bump()
				for isHex(s.cur.peek()) || s.cur.peek() == '_' {
					s.cur.bump()
				}
				return s.emit(IntLit, start)
			}
		}
	}

	for isDec(s.cur.peek()) || s.cur.peek() == '_' {
		s.cur.bump()
	}
	if b0, b1, ok := s.cur.peek2(); ok && b0 == '.' && isDec(b1) {
		kind = FloatLit
		s.cur.bump()
		for isDec(s.cur.peek()) || s.cur.peek() == '_' {
			s.cur.bump()
		}
	}
	if b := s.cur.peek(); b == 'e' || b == 'E' {
		kind = FloatLit
		s.cur.bump()
		if b := s.cur.peek(); b == '+' || b == '-' {
			s.cur.bump()
		}
		if !isDec(s.cur.peek()) {
			return s.emit(Invalid, start)
		}
		for isDec(s.cur.peek()) {
			s.cur.bump()
		}
	}
	return s.emit(kind, start)
}

// scanQuoted reads up to the closing quote; escapes are only skipped here
// and decoded by the reader.
func (s *Scanner) scanQuoted(start mark, quote byte, kind Kind) Token {
	s.cur.bump() // opening quote
	for !s.cur.eof() {
		b := s.cur.bump()
		switch b {
		case quote:
			return s.emit(kind, start)
		case '\\':
			s.cur.bump()
		case '\n':
			return s.emit(Invalid, start)
		}
	}
	return s.emit(Invalid, start)
}

var punct = map[byte]Kind{
	':': Colon, ',': Comma, '.': Dot, '-': Minus,
	'(': LParen, ')': RParen, '[': LBracket, ']': RBracket,
	'{': LBrace, '}': RBrace, '<': Lt, '>': Gt,
}

func (s *Scanner) scanPunct() Token {
	start := s.cur.mark()
	k, ok := punct[s.cur.bump()]
	if !ok {
		return s.emit(Invalid, start)
	}
	return s.emit(k, start)
}

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
