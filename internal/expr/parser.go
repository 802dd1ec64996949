package expr

import (
	"strconv"
)

// Parse compiles a predictor expression into an AST.
// Returns an EvaluationError with code SYNTAX on malformed input.
func Parse(src string) (Node, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, NewEvaluationError(ErrCodeSyntax, "unexpected %q at offset %d", p.tok.text, p.tok.pos)
	}
	return n, nil
}

// parser is a recursive-descent parser with standard precedence:
// add < mul < unary < power < postfix (call, index).
// Exponentiation is right-associative.
type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.tok.kind != kind {
		return NewEvaluationError(ErrCodeSyntax, "expected %s at offset %d, got %q", what, p.tok.pos, p.tok.text)
	}
	return p.advance()
}

func (p *parser) parseAdd() (Node, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := OpAdd
		if p.tok.kind == tokMinus {
			op = OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMul() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash {
		op := OpMul
		if p.tok.kind == tokSlash {
			op = OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.tok.kind == tokMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Operand: operand}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokCaret {
		if err := p.advance(); err != nil {
			return nil, err
		}
		// Right-associative: a^b^c parses as a^(b^c).
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: OpPow, Left: base, Right: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tokLParen:
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			n = &CallNode{Target: n, Args: args}
		case tokLBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, "]"); err != nil {
				return nil, err
			}
			n = &IndexNode{Target: n, Index: idx}
		default:
			return n, nil
		}
	}
}

func (p *parser) parseArgs() ([]CallArg, error) {
	var args []CallArg
	if p.tok.kind == tokRParen {
		return args, nil
	}
	for {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind != tokComma {
			return args, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

// parseArg handles both positional and named (name = expr) arguments.
func (p *parser) parseArg() (CallArg, error) {
	if p.tok.kind == tokIdent {
		name := p.tok.text
		// Peek for "=" by saving lexer state is unnecessary: "=" can only
		// occur as a named-argument separator in this grammar.
		save := *p.lex
		saveTok := p.tok
		if err := p.advance(); err != nil {
			return CallArg{}, err
		}
		if p.tok.kind == tokAssign {
			if err := p.advance(); err != nil {
				return CallArg{}, err
			}
			val, err := p.parseAdd()
			if err != nil {
				return CallArg{}, err
			}
			return CallArg{Name: name, Expr: val}, nil
		}
		// Not a named argument: rewind and parse as expression.
		*p.lex = save
		p.tok = saveTok
	}
	val, err := p.parseAdd()
	if err != nil {
		return CallArg{}, err
	}
	return CallArg{Expr: val}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, NewEvaluationError(ErrCodeSyntax, "bad number %q at offset %d", p.tok.text, p.tok.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &NumberNode{Value: v}, nil
	case tokString:
		s := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &StringNode{Value: s}, nil
	case tokIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &IdentNode{Name: name}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, NewEvaluationError(ErrCodeSyntax, "unexpected %q at offset %d", p.tok.text, p.tok.pos)
	}
}
