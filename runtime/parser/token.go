package parser

import "github.com/aledsdavies/teng/core/source"

// TokKind names one level-2 token kind.
type TokKind int

const (
	TokEOF TokKind = iota
	TokInvalid

	// Literals
	TokInt
	TokReal
	TokString
	TokRegex
	TokIdent

	// Keywords
	TokKwTeng
	TokKwFrag
	TokKwEndfrag
	TokKwIf
	TokKwElseif
	TokKwElse
	TokKwEndif
	TokKwSet
	TokKwFormat
	TokKwEndformat
	TokKwCtype
	TokKwEndctype
	TokKwInclude
	TokKwCase
	TokKwDefault
	TokKwDebug
	TokKwBytecode

	// Punctuation/operators
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent
	TokPlusPlus // ++  (string concat)
	TokAmp
	TokPipe
	TokCaret
	TokTilde
	TokEqEq
	TokNotEq
	TokGtEq
	TokLtEq
	TokGt
	TokLt
	TokMatch    // =~
	TokNotMatch // !~
	TokAndAnd
	TokOrOr
	TokBang
	TokKwEq // eq digraph
	TokKwNe // ne digraph
	TokKwAnd
	TokKwOr
	TokKwNot
	TokLBracket
	TokRBracket
	TokLParen
	TokRParen
	TokDot
	TokColon
	TokQuestion
	TokAssign
	TokComma
)

var keywords = map[string]TokKind{
	"teng":      TokKwTeng,
	"frag":      TokKwFrag,
	"endfrag":   TokKwEndfrag,
	"if":        TokKwIf,
	"elif":      TokKwElseif,
	"elseif":    TokKwElseif,
	"else":      TokKwElse,
	"endif":     TokKwEndif,
	"set":       TokKwSet,
	"format":    TokKwFormat,
	"endformat": TokKwEndformat,
	"ctype":     TokKwCtype,
	"endctype":  TokKwEndctype,
	"include":   TokKwInclude,
	"case":      TokKwCase,
	"default":   TokKwDefault,
	"debug":     TokKwDebug,
	"bytecode":  TokKwBytecode,
	"eq":        TokKwEq,
	"ne":        TokKwNe,
	"and":       TokKwAnd,
	"or":        TokKwOr,
	"not":       TokKwNot,
}

// Token is one level-2 lexical token.
type Token struct {
	Kind TokKind
	Text string // identifier/keyword spelling, or raw literal text
	Int  int64
	Real float64
	Str  string // unescaped string-literal payload, or regex source
	Pos  source.Position
}
