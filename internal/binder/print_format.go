package binder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/token"
	"github.com/runebind/runebind/internal/typesystem"
)

// formatParser validates a print statement's format string against the
// successive argument datatypes (spec.md §4.4 "print", §6 "Print format
// grammar") and rewrites each numeric conversion to embed the argument's
// actual width, e.g. `%i` -> `%i32`, for the code generator to consume.
type formatParser struct {
	runes []rune
	pos   int
	tok   token.Token
	errs  *diagnostics.Bag
}

// validatePrintFormat walks format once, consuming one of args per
// top-level `%` conversion, and returns the rewritten format string.
func validatePrintFormat(format string, args []typesystem.Datatype, tok token.Token, errs *diagnostics.Bag) string {
	p := &formatParser{runes: []rune(format), tok: tok, errs: errs}
	var out strings.Builder
	argIdx := 0
	for p.pos < len(p.runes) {
		c := p.runes[p.pos]
		if c != '%' {
			out.WriteRune(c)
			p.pos++
			continue
		}
		p.pos++
		if p.pos < len(p.runes) && p.runes[p.pos] == '%' {
			out.WriteString("%%")
			p.pos++
			continue
		}
		if argIdx >= len(args) {
			p.errf("too few arguments for print format")
			out.WriteByte('%')
			continue
		}
		out.WriteByte('%')
		out.WriteString(p.parseSpec(args[argIdx]))
		argIdx++
	}
	if argIdx < len(args) {
		p.errf("too many arguments for print format")
	}
	return out.String()
}

// parseSpec parses one conversion (the part right after '%') and validates
// it against dt, returning the rewritten conversion text. It recurses for
// the `[...]`/`(...)` compound forms, validating each element against the
// array's Elem or the tuple's corresponding Elems entry.
func (p *formatParser) parseSpec(dt typesystem.Datatype) string {
	if p.pos >= len(p.runes) {
		p.errf("truncated print format conversion")
		return ""
	}
	c := p.runes[p.pos]
	p.pos++
	switch c {
	case 'b':
		p.expectKind(dt, func(d typesystem.Datatype) bool { _, ok := d.(*typesystem.Bool); return ok }, "b", "bool")
		p.checkNotSecret(dt)
		return "b"

	case 's':
		p.expectKind(dt, func(d typesystem.Datatype) bool { _, ok := d.(*typesystem.StringT); return ok }, "s", "string")
		p.checkNotSecret(dt)
		return "s"

	case 'f':
		p.expectKind(dt, func(d typesystem.Datatype) bool { _, ok := d.(*typesystem.Float); return ok }, "f", "float")
		p.checkNotSecret(dt)
		return "f"

	case 'i', 'u', 'x':
		wantSigned := c == 'i'
		width, hasWidth := p.readWidth()
		ai, ok := dt.(*typesystem.Integer)
		if !ok {
			p.errf("%%%c requires an integer argument, got %s", c, dt.String())
			return string(c)
		}
		p.checkNotSecret(dt)
		if c != 'x' && ai.Signed != wantSigned {
			p.errf("%%%c requires a %s integer, got %s", c, signedness(wantSigned), dt.String())
		}
		if hasWidth && width != ai.Width {
			p.errf("%%%c%d does not match argument width %d", c, width, ai.Width)
		}
		return fmt.Sprintf("%c%d", c, ai.Width)

	case '[':
		arr, ok := dt.(*typesystem.Array)
		if !ok {
			p.errf("%%[...] requires an array argument, got %s", dt.String())
			p.skipUntil(']')
			return "[]"
		}
		inner := p.parseSpec(arr.Elem)
		p.expectRune(']')
		return "[" + inner + "]"

	case '(':
		tup, ok := dt.(*typesystem.Tuple)
		if !ok {
			p.errf("%%(...) requires a tuple argument, got %s", dt.String())
			p.skipUntil(')')
			return "()"
		}
		var parts []string
		for i := 0; p.pos < len(p.runes) && p.runes[p.pos] != ')'; i++ {
			if i > 0 {
				p.expectRune(',')
			}
			var elem typesystem.Datatype = &typesystem.None{}
			if i < len(tup.Elems) {
				elem = tup.Elems[i]
			} else {
				p.errf("print format has more tuple conversions than the tuple has elements")
			}
			parts = append(parts, p.parseSpec(elem))
		}
		p.expectRune(')')
		return "(" + strings.Join(parts, ",") + ")"

	default:
		p.errf("unknown print format conversion %%%c", c)
		return string(c)
	}
}

func (p *formatParser) expectKind(dt typesystem.Datatype, is func(typesystem.Datatype) bool, conv, want string) {
	if !is(dt) {
		p.errf("%%%s requires a %s argument, got %s", conv, want, dt.String())
	}
}

func (p *formatParser) checkNotSecret(dt typesystem.Datatype) {
	if typesystem.IsSecret(dt) {
		p.errs.Add(diagnostics.New(diagnostics.ErrSecretViolation, p.tok, "secret values may not be printed"))
	}
}

func (p *formatParser) readWidth() (uint, bool) {
	start := p.pos
	for p.pos < len(p.runes) && p.runes[p.pos] >= '0' && p.runes[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	n, _ := strconv.Atoi(string(p.runes[start:p.pos]))
	return uint(n), true
}

func (p *formatParser) expectRune(r rune) {
	if p.pos < len(p.runes) && p.runes[p.pos] == r {
		p.pos++
		return
	}
	p.errf("expected %q in print format", r)
}

func (p *formatParser) skipUntil(r rune) {
	for p.pos < len(p.runes) && p.runes[p.pos] != r {
		p.pos++
	}
	if p.pos < len(p.runes) {
		p.pos++
	}
}

func (p *formatParser) errf(format string, args ...any) {
	p.errs.Add(diagnostics.Newf(diagnostics.ErrTypeMismatch, p.tok, format, args...))
}
