package parser

import (
	"github.com/aledsdavies/teng/core/value"
	"github.com/dlclark/regexp2"
)

// compileRegexProgram compiles a regex literal's pattern into a
// *regexp2.Regexp (the regex value's Program field, which every consumer —
// OpRegexMatch/OpRegexNMatch in runtime/interp/step.go, regex_replace in
// runtime/builtins/strings.go — expects to already be compiled). Only the
// flags regexp2 has a direct equivalent for are
// applied at compile time (i/m/x); g (global) and e (eval replacement)
// are consumed at the call site instead (regex_replace's count
// argument), and A (anchored) / D (dollar-end-only) / U (ungreedy) have
// no grounded mapping in the retrieved corpus, so literals using them
// compile with their base semantics unchanged — see DESIGN.md.
func compileRegexProgram(pattern string, flags value.RegexFlags) (*regexp2.Regexp, error) {
	var opts regexp2.RegexOptions
	if flags.I {
		opts |= regexp2.IgnoreCase
	}
	if flags.M {
		opts |= regexp2.Multiline
	}
	if flags.X {
		opts |= regexp2.IgnorePatternWhitespace
	}
	return regexp2.Compile(pattern, opts)
}
