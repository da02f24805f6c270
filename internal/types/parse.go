package types

import (
	"fmt"
	"strings"
	"unicode"
)

var primitiveNames = map[string]DType{
	"g":  General,
	"v":  Vac,
	"b":  Bit,
	"i1": I1,
	"i2": I2,
	"i4": I4,
	"i8": I8,
	"ia": IA,
	"u1": U1,
	"u2": U2,
	"u4": U4,
	"u8": U8,
	"r4": R4,
	"r8": R8,
	"s":  Text,
}

// Parse parses the textual form produced by DType.String.
func Parse(src string) (DType, error) {
	p := &typeParser{src: src}
	t, err := p.parseType()
	if err != nil {
		return DType{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return DType{}, fmt.Errorf("type %q: unexpected %q at offset %d", src, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with constant inputs.
func MustParse(src string) DType {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("type %q: expected %q at offset %d", p.src, c, p.pos)
	}
	p.pos++
	return nil
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parseType() (DType, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return DType{}, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			t = Sequence(t)
		case '?':
			p.pos++
			t = t.ToOpt()
		case '[':
			p.pos++
			rank := 0
			for p.peek() == '*' {
				p.pos++
				rank++
				if p.peek() != ',' {
					break
				}
				p.pos++
			}
			if err := p.expect(']'); err != nil {
				return DType{}, err
			}
			t = Tensor(t, rank)
		default:
			return t, nil
		}
	}
}

func (p *typeParser) parsePrimary() (DType, error) {
	switch p.peek() {
	case '{':
		p.pos++
		var fields []Field
		for p.peek() != '}' {
			name := p.ident()
			if name == "" {
				return DType{}, fmt.Errorf("type %q: expected field name at offset %d", p.src, p.pos)
			}
			if err := p.expect(':'); err != nil {
				return DType{}, err
			}
			ft, err := p.parseType()
			if err != nil {
				return DType{}, err
			}
			fields = append(fields, Field{Name: name, Type: ft})
			if p.peek() == ',' {
				p.pos++
			}
		}
		p.pos++
		return Record(fields...), nil
	case '(':
		p.pos++
		var slots []DType
		for p.peek() != ')' {
			st, err := p.parseType()
			if err != nil {
				return DType{}, err
			}
			slots = append(slots, st)
			if p.peek() == ',' {
				p.pos++
			}
		}
		p.pos++
		return Tuple(slots...), nil
	}
	name := strings.ToLower(p.ident())
	if t, ok := primitiveNames[name]; ok {
		return t, nil
	}
	return DType{}, fmt.Errorf("type %q: unknown type name %q", p.src, name)
}
