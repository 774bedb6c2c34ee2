// Package naming builds and checks hierarchical names such as
// "top.alu.carry[3]". Tokens are separated by dots and may carry one or more
// bracketed indices.
package naming

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Name is a parsed hierarchical name.
type Name struct {
	Tokens []Token
}

// Token is one level of a name.
type Token struct {
	Elem  string
	Index []int
}

// String rebuilds the name.
func (n Name) String() string {
	parts := make([]string, len(n.Tokens))
	for i, t := range n.Tokens {
		parts[i] = t.String()
	}

	return strings.Join(parts, ".")
}

// Parent returns the name without its last token.
func (n Name) Parent() Name {
	if len(n.Tokens) == 0 {
		return n
	}

	return Name{Tokens: n.Tokens[:len(n.Tokens)-1]}
}

// String rebuilds the token.
func (t Token) String() string {
	var b strings.Builder

	b.WriteString(t.Elem)

	for _, i := range t.Index {
		b.WriteString("[")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("]")
	}

	return b.String()
}

// Parse splits a name into tokens and checks every token.
func Parse(name string) (Name, error) {
	raw := strings.Split(name, ".")
	n := Name{Tokens: make([]Token, len(raw))}

	for i, s := range raw {
		t, err := parseToken(s)
		if err != nil {
			return Name{}, errors.Wrapf(err, "name %q", name)
		}

		n.Tokens[i] = t
	}

	return n, nil
}

func parseToken(s string) (Token, error) {
	elem, rest, _ := strings.Cut(s, "[")
	if err := elemMustBeValid(elem); err != nil {
		return Token{}, err
	}

	t := Token{Elem: elem}

	if rest == "" && !strings.Contains(s, "[") {
		return t, nil
	}

	for _, idx := range strings.Split("["+rest, "[")[1:] {
		digits, ok := strings.CutSuffix(idx, "]")
		if !ok || strings.ContainsAny(digits, "[]") {
			return Token{}, errors.Errorf("unmatched bracket in %q", s)
		}

		i, err := strconv.Atoi(digits)
		if err != nil || i < 0 {
			return Token{}, errors.Errorf("index %q is not a natural number", digits)
		}

		t.Index = append(t.Index, i)
	}

	return t, nil
}

func elemMustBeValid(elem string) error {
	if elem == "" {
		return errors.New("empty element")
	}

	for i, c := range elem {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '_'):
		default:
			return errors.Errorf("invalid character %q in %q", c, elem)
		}
	}

	return nil
}

// Validate returns an error if name is not a valid hierarchical name.
func Validate(name string) error {
	_, err := Parse(name)
	return err
}

// MustBeValid panics if name is not a valid hierarchical name.
func MustBeValid(name string) {
	if err := Validate(name); err != nil {
		panic(err)
	}
}

// Join builds a name from a parent name and an element name.
func Join(parent, elem string) string {
	if parent == "" {
		return elem
	}

	return parent + "." + elem
}

// JoinIndex builds a name from a parent name, an element name and indices.
func JoinIndex(parent, elem string, index ...int) string {
	return Join(parent, Token{Elem: elem, Index: index}.String())
}
