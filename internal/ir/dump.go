package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders n on one line. Scopes are labelled name$k, where k counts
// scopes in order of first appearance, so structurally equivalent trees
// built by different binding runs dump identically.
//
// Constants carry their type (1:i8, "a":s, null:i4?). Scope slots of calls
// are written label: arg, inverted operands of Add and Mul are prefixed with
// - and / respectively, and an index scope is shown in brackets after the
// operator path.
func Dump(n Node) string {
	d := &dumper{labels: make(map[*Scope]string)}
	d.node(n)
	return d.sb.String()
}

// DumpTyped renders n followed by its type.
func DumpTyped(n Node) string {
	return Dump(n) + " : " + n.Type().String()
}

type dumper struct {
	sb     strings.Builder
	labels map[*Scope]string
	anon   bool
}

func (d *dumper) label(s *Scope) string {
	if l, ok := d.labels[s]; ok {
		return l
	}
	name := s.Name()
	if name == "" || d.anon {
		name = "_"
	}
	l := name + "$" + strconv.Itoa(len(d.labels)+1)
	d.labels[s] = l
	return l
}

func (d *dumper) write(parts ...string) {
	for _, p := range parts {
		d.sb.WriteString(p)
	}
}

func (d *dumper) list(nodes []Node) {
	for i, c := range nodes {
		if i > 0 {
			d.write(", ")
		}
		d.node(c)
	}
}

func (d *dumper) node(n Node) {
	switch v := n.(type) {
	case *Constant:
		d.write(FormatValue(v.Value), ":", v.Type().String())
	case *Default:
		d.write("default:", v.Type().String())
	case *Error:
		d.write("error:", v.Type().String())
	case *Missing:
		d.write("missing:", v.Type().String())
	case *Namespace:
		d.write("ns(", v.Path, ")")
	case *ScopeRef:
		d.write(d.label(v.Scope))
	case *Global:
		d.write(v.Name)
	case *GetField:
		d.node(v.Record)
		d.write(".", v.Name)
	case *GetSlot:
		d.node(v.Tuple)
		d.write(".", strconv.Itoa(v.Slot))
	case *Index:
		d.node(v.Tensor)
		d.write("[")
		d.list(v.Indices)
		d.write("]")
	case *Cast:
		d.write("Cast(")
		d.node(v.Arg)
		d.write("):", v.Type().String())
	case *Unary:
		d.write(v.Op.String(), "(")
		d.node(v.Arg)
		d.write(")")
	case *Binary:
		d.write(v.Op.String(), "(")
		d.node(v.Left)
		d.write(", ")
		d.node(v.Right)
		d.write(")")
	case *Variadic:
		d.write(v.Op.String(), "(")
		for i, a := range v.Args {
			if i > 0 {
				d.write(", ")
			}
			if v.Inverted[i] {
				if v.Op == VarMul {
					d.write("/")
				} else {
					d.write("-")
				}
			}
			d.node(a)
		}
		d.write(")")
	case *Compare:
		d.write("Cmp(")
		for i, a := range v.Args {
			if i > 0 {
				d.write(" ", v.Links[i-1].Op.String(), " ")
			}
			d.node(a)
		}
		d.write(")")
	case *If:
		d.write("If(")
		d.list(v.Children())
		d.write(")")
	case *SequenceLit:
		d.write("[")
		d.list(v.Items)
		d.write("]")
		if len(v.Items) == 0 {
			d.write(":", v.Type().String())
		}
	case *TupleLit:
		d.write("(")
		d.list(v.Items)
		if len(v.Items) == 1 {
			d.write(",")
		}
		d.write(")")
	case *RecordLit:
		d.write("{")
		for i, nm := range v.Names {
			if i > 0 {
				d.write(", ")
			}
			d.write(nm, ": ")
			d.node(v.Values[i])
		}
		d.write("}")
	case *TensorLit:
		dims := make([]string, len(v.Shape))
		for i, s := range v.Shape {
			dims[i] = strconv.Itoa(s)
		}
		d.write("Tensor[", strings.Join(dims, ","), "](")
		d.list(v.Items)
		d.write(")")
	case *Call:
		d.write(v.Op.Path())
		if v.Index != nil {
			d.write("[#", d.label(v.Index), "]")
		}
		d.write("(")
		for i, a := range v.Args {
			if i > 0 {
				d.write(", ")
			}
			if s := v.Scopes[i]; s != nil {
				d.write(d.label(s), ": ")
			}
			d.node(a)
		}
		d.write(")")
	case *GroupBy:
		d.write("GroupBy(", d.label(v.Scope), ": ")
		d.node(v.Source)
		d.write(", ")
		d.node(v.Key)
		d.write(")")
	case *SetFields:
		d.write("SetFields(", d.label(v.Scope), ": ")
		d.node(v.Record)
		for i, nm := range v.Names {
			d.write(", ", nm, ": ")
			d.node(v.Values[i])
		}
		d.write(")")
	default:
		d.write(fmt.Sprintf("<%T>", n))
	}
}
