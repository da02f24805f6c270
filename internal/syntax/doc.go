// Package syntax defines the parse trees consumed by the binder and a small
// parser producing them from text.
//
// Grammar, loosest binding first:
//
//	expr    = expr ("or" | "xor") expr
//	        | expr "and" expr
//	        | expr cmp expr { cmp expr }      comparison chains
//	        | expr ("&" | "++") expr
//	        | expr ("+" | "-") expr
//	        | expr ("*" | "/") expr
//	        | ("-" | "not") expr
//	        | postfix
//	postfix = primary { "." ident | "(" args ")" | "->" path [ "(" args ")" ] | "[" exprs "]" }
//	arg     = [ "[with]" | "[guard]" ] [ ident ":" ] expr
//	primary = int | float | text | true | false | null | ident | "#" [ident]
//	        | "(" expr ")" | "(" exprs ")" | "[" exprs "]" | "{" ident ":" expr, ... "}"
//
// Every node carries a process-unique ID and its source Range.
package syntax
