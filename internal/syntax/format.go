package syntax

import (
	"strconv"
	"strings"
)

// Format renders n with every operator application parenthesized, so the
// output shows how the input was grouped.
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *IntLit:
		sb.WriteString(v.Value.String())
	case *FloatLit:
		sb.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
	case *TextLit:
		sb.WriteString(strconv.Quote(v.Value))
	case *BoolLit:
		sb.WriteString(strconv.FormatBool(v.Value))
	case *NullLit:
		sb.WriteString("null")
	case *Name:
		sb.WriteString(v.Path())
	case *IndexRef:
		sb.WriteString("#" + v.Name)
	case *Field:
		format(sb, v.Record)
		sb.WriteString("." + v.Name)
	case *Index:
		format(sb, v.Tensor)
		sb.WriteString("[")
		list(sb, v.Indices)
		sb.WriteString("]")
	case *Call:
		if v.Pipe {
			format(sb, v.Args[0].Value)
			sb.WriteString("->")
		}
		sb.WriteString(v.Path + "(")
		args := v.Args
		if v.Pipe {
			args = args[1:]
		}
		for i, a := range args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if a.Directive != DirectiveNone {
				sb.WriteString("[" + a.Directive.String() + "] ")
			}
			if a.Name != "" {
				sb.WriteString(a.Name + ": ")
			}
			format(sb, a.Value)
		}
		sb.WriteString(")")
	case *Unary:
		sb.WriteString("(" + v.Op)
		if v.Op == "not" {
			sb.WriteString(" ")
		}
		format(sb, v.Arg)
		sb.WriteString(")")
	case *Binary:
		sb.WriteString("(")
		format(sb, v.Left)
		sb.WriteString(" " + v.Op + " ")
		format(sb, v.Right)
		sb.WriteString(")")
	case *Compare:
		sb.WriteString("(")
		for i, a := range v.Args {
			if i > 0 {
				sb.WriteString(" " + v.Ops[i-1] + " ")
			}
			format(sb, a)
		}
		sb.WriteString(")")
	case *SequenceLit:
		sb.WriteString("[")
		list(sb, v.Items)
		sb.WriteString("]")
	case *TupleLit:
		sb.WriteString("(")
		list(sb, v.Items)
		if len(v.Items) == 1 {
			sb.WriteString(",")
		}
		sb.WriteString(")")
	case *RecordLit:
		sb.WriteString("{")
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name + ": ")
			format(sb, f.Value)
		}
		sb.WriteString("}")
	}
}

func list(sb *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}
		format(sb, n)
	}
}
