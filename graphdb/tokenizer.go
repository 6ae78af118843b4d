package graphdb

import (
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// TokenType classifies a lexeme produced by the Tokenizer.
type TokenType int

const (
	TokEOF TokenType = iota
	TokIdent
	TokNumber
	TokString
	TokKeyword
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokColon
	TokComma
	TokDot
	TokDotDot
	TokEquals
	TokNotEquals
	TokLess
	TokLessEq
	TokGreater
	TokGreaterEq
	TokArrowRight // ->
	TokArrowLeft  // <-
	TokDash       // -
	TokPlus
	TokStar
	TokSlash
	TokPercent
	TokRegexMatch // =~
)

// keywords recognized case-insensitively. Clause/operator keywords are
// tagged TokKeyword; the parser disambiguates context (e.g. WITH as a
// clause vs. part of STARTS WITH/ENDS WITH) by lookahead.
var keywords = map[string]struct{}{
	"MATCH": {}, "WHERE": {}, "CREATE": {}, "RETURN": {}, "WITH": {},
	"ORDER": {}, "BY": {}, "SKIP": {}, "LIMIT": {}, "DISTINCT": {}, "AS": {},
	"AND": {}, "OR": {}, "NOT": {}, "CONTAINS": {}, "STARTS": {}, "ENDS": {},
	"ASC": {}, "DESC": {}, "TRUE": {}, "FALSE": {}, "NULL": {}, "SET": {}, "DELETE": {}, "DETACH": {},
}

// Token is one lexeme: its type, raw/canonicalized text, and byte
// offset in the source (used for ParseError reporting).
type Token struct {
	Type TokenType
	Text string
	Pos  int
}

// Tokenizer turns a Cypher query string into a flat token stream.
// Grounded on the teacher's tokenizer.go character-dispatch loop,
// generalized to the full operator/literal set spec.md §4.4 requires.
type Tokenizer struct {
	input  string
	pos    int
	tokens []Token
	log    *logrus.Entry
}

// NewTokenizer constructs a Tokenizer over the given query text.
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input, log: logrus.WithField("component", "Tokenizer")}
}

// Tokenize scans the entire input and returns the token list, always
// terminated with a TokEOF token.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			t.pos++
		case c == '(':
			t.emit(TokLParen, "(", 1)
		case c == ')':
			t.emit(TokRParen, ")", 1)
		case c == '{':
			t.emit(TokLBrace, "{", 1)
		case c == '}':
			t.emit(TokRBrace, "}", 1)
		case c == '[':
			t.emit(TokLBracket, "[", 1)
		case c == ']':
			t.emit(TokRBracket, "]", 1)
		case c == ':':
			t.emit(TokColon, ":", 1)
		case c == ',':
			t.emit(TokComma, ",", 1)
		case c == '+':
			t.emit(TokPlus, "+", 1)
		case c == '*':
			t.emit(TokStar, "*", 1)
		case c == '/':
			t.emit(TokSlash, "/", 1)
		case c == '%':
			t.emit(TokPercent, "%", 1)
		case c == '.':
			if t.peekAt(1) == '.' {
				t.emit(TokDotDot, "..", 2)
			} else {
				t.emit(TokDot, ".", 1)
			}
		case c == '=':
			if t.peekAt(1) == '~' {
				t.emit(TokRegexMatch, "=~", 2)
			} else {
				t.emit(TokEquals, "=", 1)
			}
		case c == '<':
			switch t.peekAt(1) {
			case '>':
				t.emit(TokNotEquals, "<>", 2)
			case '=':
				t.emit(TokLessEq, "<=", 2)
			case '-':
				t.emit(TokArrowLeft, "<-", 2)
			default:
				t.emit(TokLess, "<", 1)
			}
		case c == '>':
			if t.peekAt(1) == '=' {
				t.emit(TokGreaterEq, ">=", 2)
			} else {
				t.emit(TokGreater, ">", 1)
			}
		case c == '-':
			if t.peekAt(1) == '>' {
				t.emit(TokArrowRight, "->", 2)
			} else {
				t.emit(TokDash, "-", 1)
			}
		case c == '"' || c == '\'':
			if err := t.scanString(c); err != nil {
				return nil, err
			}
		case unicode.IsDigit(rune(c)):
			t.scanNumber()
		case unicode.IsLetter(rune(c)) || c == '_':
			t.scanIdentOrKeyword()
		default:
			return nil, newParseError(t.pos, "unexpected character %q", c)
		}
	}
	t.tokens = append(t.tokens, Token{Type: TokEOF, Text: "", Pos: t.pos})
	return t.tokens, nil
}

func (t *Tokenizer) peekAt(offset int) byte {
	if t.pos+offset >= len(t.input) {
		return 0
	}
	return t.input[t.pos+offset]
}

func (t *Tokenizer) emit(typ TokenType, text string, width int) {
	t.tokens = append(t.tokens, Token{Type: typ, Text: text, Pos: t.pos})
	t.pos += width
}

func (t *Tokenizer) scanString(quote byte) error {
	start := t.pos
	t.pos++ // consume opening quote
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == '\\' && t.pos+1 < len(t.input) {
			sb.WriteByte(unescape(t.input[t.pos+1]))
			t.pos += 2
			continue
		}
		if c == quote {
			t.pos++
			t.tokens = append(t.tokens, Token{Type: TokString, Text: sb.String(), Pos: start})
			return nil
		}
		sb.WriteByte(c)
		t.pos++
	}
	return newParseError(start, "unterminated string literal")
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func (t *Tokenizer) scanNumber() {
	start := t.pos
	for t.pos < len(t.input) && unicode.IsDigit(rune(t.input[t.pos])) {
		t.pos++
	}
	if t.pos < len(t.input) && t.input[t.pos] == '.' && t.peekAt(1) != '.' && t.pos+1 < len(t.input) && unicode.IsDigit(rune(t.input[t.pos+1])) {
		t.pos++
		for t.pos < len(t.input) && unicode.IsDigit(rune(t.input[t.pos])) {
			t.pos++
		}
	}
	t.tokens = append(t.tokens, Token{Type: TokNumber, Text: t.input[start:t.pos], Pos: start})
}

func (t *Tokenizer) scanIdentOrKeyword() {
	start := t.pos
	for t.pos < len(t.input) && (unicode.IsLetter(rune(t.input[t.pos])) || unicode.IsDigit(rune(t.input[t.pos])) || t.input[t.pos] == '_') {
		t.pos++
	}
	text := t.input[start:t.pos]
	upper := strings.ToUpper(text)
	if _, ok := keywords[upper]; ok {
		t.tokens = append(t.tokens, Token{Type: TokKeyword, Text: upper, Pos: start})
		return
	}
	t.tokens = append(t.tokens, Token{Type: TokIdent, Text: text, Pos: start})
}
