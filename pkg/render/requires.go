package render

import (
	"sort"
	"strings"
	"unicode"
)

// reservedWords are template-language keywords, tag names, and builtins that
// never resolve against the render context.
var reservedWords = map[string]struct{}{
	"if": {}, "elif": {}, "else": {}, "endif": {},
	"for": {}, "endfor": {}, "in": {}, "empty": {}, "reversed": {},
	"include": {}, "extends": {}, "block": {}, "endblock": {},
	"set": {}, "with": {}, "endwith": {}, "macro": {}, "endmacro": {},
	"autoescape": {}, "endautoescape": {}, "off": {}, "on": {},
	"not": {}, "and": {}, "or": {},
	"true": {}, "false": {}, "none": {}, "nil": {},
	"True": {}, "False": {}, "None": {},
	"forloop": {},
}

// requiredVariables scans a template body and returns the sorted set of
// root context names it references. A template's variable references are its
// implicit interface: the engine refuses to render when any of them is
// absent from the context, rather than silently emitting an empty
// substitution.
//
// Names bound by the template itself ({% for x in ... %}, {% set x = ... %})
// are excluded, as are filter names and string/number literals. Only the
// root of a dotted chain counts: `credit_config.discount_rate` requires
// `credit_config`.
func requiredVariables(body []byte) []string {
	text := string(body)
	bound := map[string]struct{}{}
	needed := map[string]struct{}{}

	for _, tag := range extractTags(text) {
		expr := tag.content
		if tag.block {
			fields := strings.Fields(expr)
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case "for":
				// {% for x in expr %} or {% for k, v in expr %} binds the
				// loop names; only the range expression resolves against
				// the context.
				if idx := strings.Index(expr, " in "); idx >= 0 {
					for _, name := range strings.Split(expr[len("for"):idx], ",") {
						bound[strings.TrimSpace(name)] = struct{}{}
					}
					expr = expr[idx+len(" in "):]
				}
			case "set":
				// {% set x = expr %}
				if idx := strings.Index(expr, "="); idx >= 0 {
					bound[strings.TrimSpace(expr[len("set"):idx])] = struct{}{}
					expr = expr[idx+1:]
				}
			case "include", "extends", "block", "endblock", "autoescape", "endautoescape":
				continue
			}
		}
		for _, name := range rootIdentifiers(expr) {
			needed[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(needed))
	for name := range needed {
		if _, isBound := bound[name]; isBound {
			continue
		}
		if _, isReserved := reservedWords[name]; isReserved {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type templateTag struct {
	content string
	block   bool
}

// extractTags pulls the contents of every {{ ... }} and {% ... %} tag.
func extractTags(text string) []templateTag {
	var tags []templateTag
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		var close string
		var block bool
		switch text[i+1] {
		case '{':
			close = "}}"
		case '%':
			close = "%}"
			block = true
		default:
			continue
		}
		end := strings.Index(text[i+2:], close)
		if end < 0 {
			break
		}
		tags = append(tags, templateTag{content: text[i+2 : i+2+end], block: block})
		i += 2 + end + 1
	}
	return tags
}

// rootIdentifiers returns identifiers that start a dotted lookup chain in an
// expression, skipping filter names, string literals, and attribute access.
func rootIdentifiers(expr string) []string {
	var names []string
	runes := []rune(expr)
	// prev is the last significant (non-space) rune seen before the current
	// token. A name after '.' is attribute access, after '|' a filter name.
	prev := rune(0)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Skip string literals entirely.
		if r == '"' || r == '\'' {
			quote := r
			for i++; i < len(runes) && runes[i] != quote; i++ {
			}
			prev = 0
			continue
		}

		if identStart(r) {
			start := i
			for i < len(runes) && identPart(runes[i]) {
				i++
			}
			if prev != '.' && prev != '|' {
				names = append(names, string(runes[start:i]))
			}
			i--
			prev = 0
			continue
		}

		// Digits start numeric literals; consume so "1.5" does not register
		// a dotted chain.
		if unicode.IsDigit(r) {
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			i--
			prev = 0
			continue
		}

		if !unicode.IsSpace(r) {
			prev = r
		}
	}
	return names
}

func identStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func identPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
