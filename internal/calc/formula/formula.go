// Package formula — ограниченный вычислитель арифметических формул.
// Поддерживает только арифметику, сравнения, логические связки и тернарный
// оператор над именованными параметрами. Никакого eval: выражение
// разбирается вручную, любой посторонний символ — ошибка разбора.
package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrFormulaEvaluation = errors.New("ошибка вычисления формулы")

// Evaluate вычисляет выражение над контекстом параметров и возвращает число.
// Один и тот же контекст всегда даёт один и тот же результат.
func Evaluate(expr string, params map[string]any) (float64, error) {
	v, err := eval(expr, params)
	if err != nil {
		return 0, err
	}
	switch v.kind {
	case kindNumber:
		return v.num, nil
	case kindBool:
		// Булев результат числовой формулы — скорее всего перепутали
		// формулу количества с условием включения.
		return 0, fmt.Errorf("%w: выражение %q вернуло не число", ErrFormulaEvaluation, expr)
	default:
		return 0, fmt.Errorf("%w: выражение %q вернуло не число", ErrFormulaEvaluation, expr)
	}
}

// EvaluateCondition вычисляет булево выражение (условие включения
// компонента). Числовой результат трактуется как "не ноль".
func EvaluateCondition(expr string, params map[string]any) (bool, error) {
	v, err := eval(expr, params)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func eval(expr string, params map[string]any) (value, error) {
	if strings.TrimSpace(expr) == "" {
		return value{}, fmt.Errorf("%w: пустое выражение", ErrFormulaEvaluation)
	}

	p, err := newParser(expr)
	if err != nil {
		return value{}, err
	}

	n, err := p.parseExpr()
	if err != nil {
		return value{}, err
	}
	if !p.atEOF() {
		return value{}, fmt.Errorf("%w: лишние символы в конце выражения %q", ErrFormulaEvaluation, expr)
	}

	return n.eval(params)
}

// --- значения ---

type valueKind int

const (
	kindNumber valueKind = iota
	kindString
	kindBool
)

type value struct {
	kind valueKind
	num  float64
	str  string
	b    bool
}

func numberValue(f float64) value { return value{kind: kindNumber, num: f} }
func stringValue(s string) value  { return value{kind: kindString, str: s} }
func boolValue(b bool) value      { return value{kind: kindBool, b: b} }

func truthy(v value) bool {
	switch v.kind {
	case kindBool:
		return v.b
	case kindNumber:
		return v.num != 0
	default:
		return v.str != ""
	}
}

// --- лексер ---

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokString
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func lex(expr string) ([]token, error) {
	var toks []token
	runes := []rune(expr)
	i := 0

	for i < len(runes) {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			text := string(runes[i:j])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: некорректное число %q", ErrFormulaEvaluation, text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: num})
			i = j

		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j

		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("%w: незакрытая строка", ErrFormulaEvaluation)
			}
			toks = append(toks, token{kind: tokString, text: string(runes[i+1 : j])})
			i = j + 1

		case strings.ContainsRune("+-*/()?:<>=!&|", r):
			// Жадно снимаем многосимвольные операторы: === !== == != >= <= && ||
			j := i
			for j < len(runes) && strings.ContainsRune("=!<>&|", runes[j]) && j-i < 3 {
				j++
			}
			if j > i {
				op := string(runes[i:j])
				switch op {
				case "===", "!==", "==", "!=", ">=", "<=", "&&", "||", ">", "<", "!":
					toks = append(toks, token{kind: tokOp, text: op})
					i = j
					continue
				}
				// ">" в составе ">=" уже снят выше; одиночные < > ! тоже.
				// Всё остальное из этого набора (например одиночное "=") — запрещено.
				if len(op) == 1 && strings.ContainsRune("<>!", runes[i]) {
					toks = append(toks, token{kind: tokOp, text: op})
					i = j
					continue
				}
				return nil, fmt.Errorf("%w: недопустимый оператор %q", ErrFormulaEvaluation, op)
			}
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++

		default:
			// Посторонний символ — сразу отказ, формула не вычисляется.
			return nil, fmt.Errorf("%w: недопустимый символ %q", ErrFormulaEvaluation, string(r))
		}
	}

	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

// --- парсер (рекурсивный спуск) ---

type parser struct {
	toks []token
	pos  int
}

func newParser(expr string) (*parser, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.cur()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

// parseExpr: тернарный оператор — самый низкий приоритет
func (p *parser) parseExpr() (node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if _, ok := p.acceptOp("?"); !ok {
		return cond, nil
	}

	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOp(":"); !ok {
		return nil, fmt.Errorf("%w: ожидалось ':' в тернарном операторе", ErrFormulaEvaluation)
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &condNode{cond: cond, then: then, els: els}, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "||", x: left, y: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left, nil
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "&&", x: left, y: right}
	}
}

func (p *parser) parseEquality() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("===", "!==", "==", "!=")
		if !ok {
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, x: left, y: right}
	}
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp(">=", "<=", ">", "<")
		if !ok {
			return left, nil
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, x: left, y: right}
	}
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, x: left, y: right}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, x: left, y: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.acceptOp("-", "!"); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode(t.num), nil
	case tokString:
		return stringNode(t.text), nil
	case tokIdent:
		return identNode(t.text), nil
	case tokOp:
		if t.text == "(" {
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, fmt.Errorf("%w: не закрыта скобка", ErrFormulaEvaluation)
			}
			return inner, nil
		}
	}
	return nil, fmt.Errorf("%w: неожиданный токен %q", ErrFormulaEvaluation, t.text)
}

// --- AST ---

type node interface {
	eval(params map[string]any) (value, error)
}

type numberNode float64

func (n numberNode) eval(map[string]any) (value, error) { return numberValue(float64(n)), nil }

type stringNode string

func (n stringNode) eval(map[string]any) (value, error) { return stringValue(string(n)), nil }

type identNode string

func (n identNode) eval(params map[string]any) (value, error) {
	raw, ok := params[string(n)]
	if !ok {
		return value{}, fmt.Errorf("%w: неизвестный идентификатор %q", ErrFormulaEvaluation, string(n))
	}
	switch v := raw.(type) {
	case float64:
		return numberValue(v), nil
	case float32:
		return numberValue(float64(v)), nil
	case int:
		return numberValue(float64(v)), nil
	case int64:
		return numberValue(float64(v)), nil
	case string:
		return stringValue(v), nil
	case bool:
		return boolValue(v), nil
	default:
		return value{}, fmt.Errorf("%w: параметр %q имеет неподдерживаемый тип %T", ErrFormulaEvaluation, string(n), raw)
	}
}

type unaryNode struct {
	op string
	x  node
}

func (n *unaryNode) eval(params map[string]any) (value, error) {
	v, err := n.x.eval(params)
	if err != nil {
		return value{}, err
	}
	switch n.op {
	case "-":
		if v.kind != kindNumber {
			return value{}, fmt.Errorf("%w: унарный минус применим только к числу", ErrFormulaEvaluation)
		}
		return numberValue(-v.num), nil
	case "!":
		return boolValue(!truthy(v)), nil
	}
	return value{}, fmt.Errorf("%w: неизвестный оператор %q", ErrFormulaEvaluation, n.op)
}

type binaryNode struct {
	op   string
	x, y node
}

func (n *binaryNode) eval(params map[string]any) (value, error) {
	// && и || вычисляем лениво, как в исходных формулах
	if n.op == "&&" || n.op == "||" {
		l, err := n.x.eval(params)
		if err != nil {
			return value{}, err
		}
		if n.op == "&&" && !truthy(l) {
			return boolValue(false), nil
		}
		if n.op == "||" && truthy(l) {
			return boolValue(true), nil
		}
		r, err := n.y.eval(params)
		if err != nil {
			return value{}, err
		}
		return boolValue(truthy(r)), nil
	}

	l, err := n.x.eval(params)
	if err != nil {
		return value{}, err
	}
	r, err := n.y.eval(params)
	if err != nil {
		return value{}, err
	}

	switch n.op {
	case "===", "==":
		return equals(l, r)
	case "!==", "!=":
		v, err := equals(l, r)
		if err != nil {
			return value{}, err
		}
		return boolValue(!v.b), nil
	}

	if l.kind != kindNumber || r.kind != kindNumber {
		return value{}, fmt.Errorf("%w: оператор %q применим только к числам", ErrFormulaEvaluation, n.op)
	}

	switch n.op {
	case "+":
		return numberValue(l.num + r.num), nil
	case "-":
		return numberValue(l.num - r.num), nil
	case "*":
		return numberValue(l.num * r.num), nil
	case "/":
		if r.num == 0 {
			return value{}, fmt.Errorf("%w: деление на ноль", ErrFormulaEvaluation)
		}
		return numberValue(l.num / r.num), nil
	case ">":
		return boolValue(l.num > r.num), nil
	case "<":
		return boolValue(l.num < r.num), nil
	case ">=":
		return boolValue(l.num >= r.num), nil
	case "<=":
		return boolValue(l.num <= r.num), nil
	}

	return value{}, fmt.Errorf("%w: неизвестный оператор %q", ErrFormulaEvaluation, n.op)
}

func equals(l, r value) (value, error) {
	if l.kind == kindNumber && r.kind == kindNumber {
		return boolValue(l.num == r.num), nil
	}
	if l.kind == kindString && r.kind == kindString {
		return boolValue(l.str == r.str), nil
	}
	if l.kind == kindBool && r.kind == kindBool {
		return boolValue(l.b == r.b), nil
	}
	return value{}, fmt.Errorf("%w: сравнение значений разных типов", ErrFormulaEvaluation)
}

type condNode struct {
	cond, then, els node
}

func (n *condNode) eval(params map[string]any) (value, error) {
	c, err := n.cond.eval(params)
	if err != nil {
		return value{}, err
	}
	// Невыбранная ветка не вычисляется, чтобы "w > 0 ? x / w : 0"
	// не падал на делении на ноль.
	if truthy(c) {
		return n.then.eval(params)
	}
	return n.els.eval(params)
}
