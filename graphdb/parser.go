package graphdb

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Parser is a recursive-descent parser over the Token stream produced
// by Tokenizer, generalized from the teacher's parser.go cursor-based
// expect/accept style to the full grammar of spec.md §4.4: multi-hop
// and variable-length patterns, AND/OR/NOT with precedence, WITH,
// ORDER BY, SKIP, LIMIT, DISTINCT, aggregate and scalar functions.
type Parser struct {
	tokens []Token
	pos    int
	log    *logrus.Entry
}

// NewParser constructs a Parser over an already-tokenized query.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, log: logrus.WithField("component", "Parser")}
}

func (p *Parser) cur() Token  { return p.tokens[p.pos] }
func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

// accept consumes and returns true if the current token matches typ
// and (for keywords) text.
func (p *Parser) accept(typ TokenType, text string) bool {
	t := p.cur()
	if t.Type != typ {
		return false
	}
	if text != "" && t.Text != text {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(typ TokenType, text string) (Token, error) {
	t := p.cur()
	if t.Type != typ || (text != "" && t.Text != text) {
		return Token{}, newParseError(t.Pos, "expected %q, found %q", text, t.Text)
	}
	return p.advance(), nil
}

func (p *Parser) isKeyword(text string) bool {
	t := p.cur()
	return t.Type == TokKeyword && t.Text == text
}

// Parse parses one full query.
func (p *Parser) Parse() (*Query, error) {
	q := &Query{}

	for {
		switch {
		case p.isKeyword("MATCH"):
			m, err := p.matchClause()
			if err != nil {
				return nil, err
			}
			q.Match = m
		case p.isKeyword("WHERE"):
			w, err := p.whereClause()
			if err != nil {
				return nil, err
			}
			q.Where = w
		case p.isKeyword("CREATE"):
			c, err := p.createClause()
			if err != nil {
				return nil, err
			}
			q.Create = c
		case p.isKeyword("SET"):
			s, err := p.setClause()
			if err != nil {
				return nil, err
			}
			q.Set = s
		case p.isKeyword("DELETE") || p.isKeyword("DETACH"):
			d, err := p.deleteClause()
			if err != nil {
				return nil, err
			}
			q.Delete = d
		case p.isKeyword("WITH"):
			w, err := p.withClause()
			if err != nil {
				return nil, err
			}
			q.With = w
		case p.isKeyword("RETURN"):
			r, err := p.returnClause()
			if err != nil {
				return nil, err
			}
			q.Return = r
		case p.isKeyword("ORDER"):
			terms, err := p.orderByClause()
			if err != nil {
				return nil, err
			}
			q.OrderBy = terms
		case p.isKeyword("SKIP"):
			p.advance()
			n, err := p.expectInt()
			if err != nil {
				return nil, err
			}
			q.Skip = &n
		case p.isKeyword("LIMIT"):
			p.advance()
			n, err := p.expectInt()
			if err != nil {
				return nil, err
			}
			q.Limit = &n
		case p.cur().Type == TokEOF:
			return q, nil
		default:
			return nil, newParseError(p.cur().Pos, "unexpected token %q", p.cur().Text)
		}
	}
}

func (p *Parser) expectInt() (int64, error) {
	t := p.cur()
	if t.Type != TokNumber {
		return 0, newParseError(t.Pos, "expected integer, found %q", t.Text)
	}
	p.advance()
	n, err := strconv.ParseInt(t.Text, 10, 64)
	if err != nil {
		return 0, newParseError(t.Pos, "invalid integer %q", t.Text)
	}
	return n, nil
}

func (p *Parser) matchClause() (*MatchClause, error) {
	p.advance() // MATCH
	patterns, err := p.patternList()
	if err != nil {
		return nil, err
	}
	return &MatchClause{Patterns: patterns}, nil
}

func (p *Parser) whereClause() (*WhereClause, error) {
	p.advance() // WHERE
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &WhereClause{Condition: expr}, nil
}

func (p *Parser) createClause() (*CreateClause, error) {
	p.advance() // CREATE
	patterns, err := p.patternList()
	if err != nil {
		return nil, err
	}
	return &CreateClause{Patterns: patterns}, nil
}

func (p *Parser) setClause() (*SetClause, error) {
	p.advance() // SET
	var items []SetItem
	for {
		varTok, err := p.expect(TokIdent, "")
		if err != nil {
			return nil, err
		}
		if p.accept(TokColon, "") {
			label, err := p.expect(TokIdent, "")
			if err != nil {
				return nil, err
			}
			items = append(items, SetItem{Variable: varTok.Text, Label: label.Text})
		} else {
			if _, err := p.expect(TokDot, ""); err != nil {
				return nil, err
			}
			key, err := p.expect(TokIdent, "")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokEquals, ""); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, SetItem{Variable: varTok.Text, Key: key.Text, Value: val})
		}
		if !p.accept(TokComma, "") {
			break
		}
	}
	return &SetClause{Assignments: items}, nil
}

func (p *Parser) deleteClause() (*DeleteClause, error) {
	detach := p.accept(TokKeyword, "DETACH")
	if _, err := p.expect(TokKeyword, "DELETE"); err != nil {
		return nil, err
	}
	var vars []string
	for {
		tok, err := p.expect(TokIdent, "")
		if err != nil {
			return nil, err
		}
		vars = append(vars, tok.Text)
		if !p.accept(TokComma, "") {
			break
		}
	}
	return &DeleteClause{Variables: vars, Detach: detach}, nil
}

func (p *Parser) withClause() (*WithClause, error) {
	p.advance() // WITH
	distinct := p.accept(TokKeyword, "DISTINCT")
	items, err := p.returnItemList()
	if err != nil {
		return nil, err
	}
	w := &WithClause{Items: items, Distinct: distinct}
	if p.isKeyword("WHERE") {
		wc, err := p.whereClause()
		if err != nil {
			return nil, err
		}
		w.Where = wc.Condition
	}
	if p.isKeyword("ORDER") {
		terms, err := p.orderByClause()
		if err != nil {
			return nil, err
		}
		w.OrderBy = terms
	}
	if p.isKeyword("SKIP") {
		p.advance()
		n, err := p.expectInt()
		if err != nil {
			return nil, err
		}
		w.Skip = &n
	}
	if p.isKeyword("LIMIT") {
		p.advance()
		n, err := p.expectInt()
		if err != nil {
			return nil, err
		}
		w.Limit = &n
	}
	return w, nil
}

func (p *Parser) returnClause() (*ReturnClause, error) {
	p.advance() // RETURN
	distinct := p.accept(TokKeyword, "DISTINCT")
	items, err := p.returnItemList()
	if err != nil {
		return nil, err
	}
	return &ReturnClause{Items: items, Distinct: distinct}, nil
}

func (p *Parser) returnItemList() ([]ReturnItem, error) {
	var items []ReturnItem
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		alias := ""
		if p.accept(TokKeyword, "AS") {
			tok, err := p.expect(TokIdent, "")
			if err != nil {
				return nil, err
			}
			alias = tok.Text
		}
		items = append(items, ReturnItem{Expr: expr, Alias: alias})
		if !p.accept(TokComma, "") {
			break
		}
	}
	return items, nil
}

func (p *Parser) orderByClause() ([]OrderTerm, error) {
	p.advance() // ORDER
	if _, err := p.expect(TokKeyword, "BY"); err != nil {
		return nil, err
	}
	var terms []OrderTerm
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		if p.accept(TokKeyword, "DESC") {
			desc = true
		} else {
			p.accept(TokKeyword, "ASC")
		}
		terms = append(terms, OrderTerm{Expr: expr, Descending: desc})
		if !p.accept(TokComma, "") {
			break
		}
	}
	return terms, nil
}

// patternList parses a comma-separated list of path patterns.
func (p *Parser) patternList() ([]PathPattern, error) {
	var patterns []PathPattern
	for {
		pat, err := p.pathPattern()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pat)
		if !p.accept(TokComma, "") {
			break
		}
	}
	return patterns, nil
}

// pathPattern parses `(a)-[r:T]->(b)-[r2]-(c)...`.
func (p *Parser) pathPattern() (PathPattern, error) {
	var pat PathPattern
	node, err := p.nodePattern()
	if err != nil {
		return pat, err
	}
	pat.Nodes = append(pat.Nodes, node)

	for p.cur().Type == TokDash || p.cur().Type == TokArrowLeft {
		rel, err := p.relPattern()
		if err != nil {
			return pat, err
		}
		pat.Rels = append(pat.Rels, rel)
		n, err := p.nodePattern()
		if err != nil {
			return pat, err
		}
		pat.Nodes = append(pat.Nodes, n)
	}
	return pat, nil
}

func (p *Parser) nodePattern() (NodePattern, error) {
	var np NodePattern
	if _, err := p.expect(TokLParen, ""); err != nil {
		return np, err
	}
	if p.cur().Type == TokIdent {
		np.Variable = p.advance().Text
	}
	for p.accept(TokColon, "") {
		label, err := p.expect(TokIdent, "")
		if err != nil {
			return np, err
		}
		np.Labels = append(np.Labels, label.Text)
	}
	if p.cur().Type == TokLBrace {
		props, err := p.propertyMap()
		if err != nil {
			return np, err
		}
		np.Properties = props
	}
	if _, err := p.expect(TokRParen, ""); err != nil {
		return np, err
	}
	return np, nil
}

func (p *Parser) relPattern() (RelPattern, error) {
	var rel RelPattern
	leftArrow := p.accept(TokArrowLeft, "")
	if !leftArrow {
		if _, err := p.expect(TokDash, ""); err != nil {
			return rel, err
		}
	}

	hasBracket := p.accept(TokLBracket, "")
	if hasBracket {
		if p.cur().Type == TokIdent {
			rel.Variable = p.advance().Text
		}
		for p.accept(TokColon, "") {
			typ, err := p.expect(TokIdent, "")
			if err != nil {
				return rel, err
			}
			rel.Types = append(rel.Types, typ.Text)
			for p.accept(TokKeyword, "OR") {
				typ2, err := p.expect(TokIdent, "")
				if err != nil {
					return rel, err
				}
				rel.Types = append(rel.Types, typ2.Text)
			}
		}
		if p.cur().Type == TokStar {
			vl, err := p.varLength()
			if err != nil {
				return rel, err
			}
			rel.VarLength = vl
		}
		if p.cur().Type == TokLBrace {
			props, err := p.propertyMap()
			if err != nil {
				return rel, err
			}
			rel.Properties = props
		}
		if _, err := p.expect(TokRBracket, ""); err != nil {
			return rel, err
		}
	}

	if leftArrow {
		if _, err := p.expect(TokDash, ""); err != nil {
			return rel, err
		}
		rel.Direction = DirLeft
		return rel, nil
	}
	if p.accept(TokArrowRight, "") {
		rel.Direction = DirRight
		return rel, nil
	}
	if _, err := p.expect(TokDash, ""); err != nil {
		return rel, err
	}
	rel.Direction = DirEither
	return rel, nil
}

// varLength parses `*`, `*n`, `*n..m`, `*..m` after the `*` token. A
// bare `*` gets maxVarLengthHops as its upper bound here, at parse
// time. `*n..` with no upper bound is rejected, as is any upper bound
// above maxVarLengthHops.
func (p *Parser) varLength() (*VarLength, error) {
	star := p.advance() // consume '*'
	vl := &VarLength{Min: 1, Max: maxVarLengthHops}
	if p.cur().Type != TokNumber && p.cur().Type != TokDotDot {
		return vl, nil
	}
	if p.cur().Type == TokNumber {
		n, err := p.expectInt()
		if err != nil {
			return nil, err
		}
		vl.Min = int(n)
		vl.Max = int(n)
	}
	if p.accept(TokDotDot, "") {
		if p.cur().Type == TokNumber {
			n, err := p.expectInt()
			if err != nil {
				return nil, err
			}
			vl.Max = int(n)
		} else {
			return nil, newParseError(star.Pos, "variable-length path missing upper bound (max %d hops)", maxVarLengthHops)
		}
	}
	if vl.Max > maxVarLengthHops {
		return nil, newParseError(star.Pos, "variable-length path upper bound %d exceeds maximum of %d", vl.Max, maxVarLengthHops)
	}
	return vl, nil
}

func (p *Parser) propertyMap() (map[string]Expr, error) {
	if _, err := p.expect(TokLBrace, ""); err != nil {
		return nil, err
	}
	props := make(map[string]Expr)
	if p.cur().Type == TokRBrace {
		p.advance()
		return props, nil
	}
	for {
		key, err := p.expect(TokIdent, "")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon, ""); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		props[key.Text] = val
		if !p.accept(TokComma, "") {
			break
		}
	}
	if _, err := p.expect(TokRBrace, ""); err != nil {
		return nil, err
	}
	return props, nil
}

// --- expression grammar: OR > AND > NOT > comparison > additive > multiplicative > unary > primary ---

func (p *Parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(TokKeyword, "OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.accept(TokKeyword, "AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.accept(TokKeyword, "NOT") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[TokenType]string{
	TokEquals: "=", TokNotEquals: "<>", TokLess: "<", TokLessEq: "<=",
	TokGreater: ">", TokGreaterEq: ">=", TokRegexMatch: "=~",
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.cur().Type]; ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: op, Left: left, Right: right}, nil
	}
	if p.isKeyword("CONTAINS") {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: "CONTAINS", Left: left, Right: right}, nil
	}
	if p.isKeyword("STARTS") {
		p.advance()
		if _, err := p.expect(TokKeyword, "WITH"); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: "STARTS WITH", Left: left, Right: right}, nil
	}
	if p.isKeyword("ENDS") {
		p.advance()
		if _, err := p.expect(TokKeyword, "WITH"); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: "ENDS WITH", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == TokPlus || p.cur().Type == TokDash {
		op := "+"
		if p.cur().Type == TokDash {
			op = "-"
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == TokStar || p.cur().Type == TokSlash || p.cur().Type == TokPercent {
		op := map[TokenType]string{TokStar: "*", TokSlash: "/", TokPercent: "%"}[p.cur().Type]
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.accept(TokDash, "") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch t.Type {
	case TokNumber:
		p.advance()
		if strings.Contains(t.Text, ".") {
			f, err := strconv.ParseFloat(t.Text, 64)
			if err != nil {
				return nil, newParseError(t.Pos, "invalid float %q", t.Text)
			}
			return LiteralExpr{Value: FloatValue(f)}, nil
		}
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, newParseError(t.Pos, "invalid integer %q", t.Text)
		}
		return LiteralExpr{Value: IntValue(n)}, nil
	case TokString:
		p.advance()
		return LiteralExpr{Value: StringValue(t.Text)}, nil
	case TokKeyword:
		switch t.Text {
		case "TRUE":
			p.advance()
			return LiteralExpr{Value: BoolValue(true)}, nil
		case "FALSE":
			p.advance()
			return LiteralExpr{Value: BoolValue(false)}, nil
		case "NULL":
			p.advance()
			return LiteralExpr{Value: Null}, nil
		}
		return nil, newParseError(t.Pos, "unexpected keyword %q in expression", t.Text)
	case TokLBracket:
		p.advance()
		var elems []Expr
		if p.cur().Type != TokRBracket {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if !p.accept(TokComma, "") {
					break
				}
			}
		}
		if _, err := p.expect(TokRBracket, ""); err != nil {
			return nil, err
		}
		return ListExpr{Elements: elems}, nil
	case TokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, ""); err != nil {
			return nil, err
		}
		return e, nil
	case TokIdent:
		name := p.advance().Text
		if p.cur().Type == TokLParen {
			return p.parseFunctionCall(name)
		}
		if p.accept(TokDot, "") {
			key, err := p.expect(TokIdent, "")
			if err != nil {
				return nil, err
			}
			return PropertyExpr{Variable: name, Key: key.Text}, nil
		}
		return VariableExpr{Name: name}, nil
	default:
		return nil, newParseError(t.Pos, "unexpected token %q", t.Text)
	}
}

func (p *Parser) parseFunctionCall(name string) (Expr, error) {
	p.advance() // '('
	distinct := p.accept(TokKeyword, "DISTINCT")
	var args []Expr
	if p.cur().Type == TokStar {
		// COUNT(*)
		p.advance()
		args = append(args, VariableExpr{Name: "*"})
	} else if p.cur().Type != TokRParen {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.accept(TokComma, "") {
				break
			}
		}
	}
	if _, err := p.expect(TokRParen, ""); err != nil {
		return nil, err
	}
	return FunctionCallExpr{Name: strings.ToUpper(name), Args: args, Distinct: distinct}, nil
}

// ParseQuery tokenizes and parses a Cypher query string in one step.
func ParseQuery(query string) (*Query, error) {
	tokens, err := NewTokenizer(query).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}
