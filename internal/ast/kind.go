package ast

// Kind tags a node with its grammar production. Names follow the Ruby
// parser gem vocabulary so patterns read like RuboCop's.
type Kind string

const (
	KindSend   Kind = "send"
	KindCSend  Kind = "csend"
	KindBlock  Kind = "block"
	KindLambda Kind = "lambda"

	KindArgs      Kind = "args"
	KindArg       Kind = "arg"
	KindOptArg    Kind = "optarg"
	KindRestArg   Kind = "restarg"
	KindKwArg     Kind = "kwarg"
	KindKwOptArg  Kind = "kwoptarg"
	KindKwRestArg Kind = "kwrestarg"
	KindBlockArg  Kind = "blockarg"
	KindShadowArg Kind = "shadowarg"
	KindMlhs      Kind = "mlhs"

	KindSym    Kind = "sym"
	KindDSym   Kind = "dsym"
	KindStr    Kind = "str"
	KindDStr   Kind = "dstr"
	KindXStr   Kind = "xstr"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindRegexp Kind = "regexp"
	KindTrue   Kind = "true"
	KindFalse  Kind = "false"
	KindNil    Kind = "nil"
	KindSelf   Kind = "self"
	KindArray  Kind = "array"
	KindHash   Kind = "hash"
	KindPair   Kind = "pair"
	KindIRange Kind = "irange"
	KindERange Kind = "erange"

	KindLvar  Kind = "lvar"
	KindIvar  Kind = "ivar"
	KindCvar  Kind = "cvar"
	KindGvar  Kind = "gvar"
	KindConst Kind = "const"

	KindLvasgn  Kind = "lvasgn"
	KindIvasgn  Kind = "ivasgn"
	KindCvasgn  Kind = "cvasgn"
	KindGvasgn  Kind = "gvasgn"
	KindCasgn   Kind = "casgn"
	KindOpAsgn  Kind = "op_asgn"
	KindOrAsgn  Kind = "or_asgn"
	KindAndAsgn Kind = "and_asgn"
	KindMasgn   Kind = "masgn"

	KindAnd     Kind = "and"
	KindOr      Kind = "or"
	KindIf      Kind = "if"
	KindWhile   Kind = "while"
	KindUntil   Kind = "until"
	KindCase    Kind = "case"
	KindWhen    Kind = "when"
	KindReturn  Kind = "return"
	KindBreak   Kind = "break"
	KindNext    Kind = "next"
	KindYield   Kind = "yield"
	KindSuper   Kind = "super"
	KindZSuper  Kind = "zsuper"
	KindDefined Kind = "defined?"

	KindBegin     Kind = "begin"
	KindKwBegin   Kind = "kwbegin"
	KindDef       Kind = "def"
	KindDefs      Kind = "defs"
	KindClass     Kind = "class"
	KindSClass    Kind = "sclass"
	KindModule    Kind = "module"
	KindIndex     Kind = "index"
	KindSplat     Kind = "splat"
	KindKwSplat   Kind = "kwsplat"
	KindBlockPass Kind = "block_pass"
)

// IsCall reports whether k is a method invocation.
func (k Kind) IsCall() bool {
	return k == KindSend || k == KindCSend
}

// IsArgument reports whether k is one of the parameter kinds found inside args.
func (k Kind) IsArgument() bool {
	switch k {
	case KindArg, KindOptArg, KindRestArg, KindKwArg, KindKwOptArg,
		KindKwRestArg, KindBlockArg, KindShadowArg, KindMlhs:
		return true
	}
	return false
}

// IsLiteral reports whether k is a leaf literal kind.
func (k Kind) IsLiteral() bool {
	switch k {
	case KindSym, KindStr, KindInt, KindFloat, KindTrue, KindFalse, KindNil:
		return true
	}
	return false
}

// OpensScope reports whether k starts a new local-variable scope.
func (k Kind) OpensScope() bool {
	switch k {
	case KindDef, KindDefs, KindClass, KindSClass, KindModule:
		return true
	}
	return false
}
