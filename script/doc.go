// Package script is a small line-oriented interpreter whose call stack can be
// sampled while it runs.
//
// A script is a sequence of function definitions:
//
//	# comments start with a hash
//	def main(n):
//	    let total = work(n) + work(n / 2)
//	    lazy cheap = spin(10)
//	    report(cheap)
//	    return total
//
//	def work(n):
//	    spin(n * 1000)
//	    return n <= 1 ? 1 : n * work(n - 1)
//
// A header "def name(params):" starts at column zero and every statement
// of its body is indented. A statement is one of
//
//	let NAME = EXPR     bind a local
//	lazy NAME = EXPR    bind a promise evaluated on first force(NAME)
//	return [EXPR]       leave the function
//	EXPR                evaluate for side effects
//
// Expressions are [expr-lang] expressions. User functions and the native
// builtins spin(n), sleep(ms) and force(v) are callable from any expression.
//
// The interpreter keeps an explicit frame stack, one frame per active call
// holding the line being executed, and implements [stack.Source] over it.
// Native builtins push frames without a source position. A sample taken
// while a promise is forced carries [stack.HazardDeferred]: the promise runs
// inside whichever function forced it, so that function appears as the
// caller of the promised work.
//
// [expr-lang]: https://expr-lang.org
package script
