package literal

// Kind is the category of a literal token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	Ident
	IntLit
	FloatLit
	StringLit // "..."
	CharLit   // '.'
	BytesLit  // b"..."
	Colon
	Comma
	Dot
	Minus
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Lt
	Gt
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case IntLit:
		return "integer"
	case FloatLit:
		return "float"
	case StringLit:
		return "string"
	case CharLit:
		return "char"
	case BytesLit:
		return "bytes"
	case Colon:
		return "':'"
	case Comma:
		return "','"
	case Dot:
		return "'.'"
	case Minus:
		return "'-'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case Lt:
		return "'<'"
	case Gt:
		return "'>'"
	default:
		return "invalid token"
	}
}

// Span is a byte range of the input.
type Span struct {
	Start, End uint32
}

// Token is one scanned token. Text is the exact source slice.
type Token struct {
	Kind Kind
	Span Span
	Text string
}
