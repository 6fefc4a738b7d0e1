package output

import (
	"fmt"
	"strings"
)

// checkPythonStructure runs a lightweight structural check over generated
// Python source: delimiters must balance outside strings and comments, and
// string literals must terminate. It is not a parser; it catches the class
// of breakage template composition can introduce (a fragment spliced into
// the middle of a call, an unterminated literal from a bad substitution).
func checkPythonStructure(source []byte) error {
	text := string(source)
	var stack []rune
	line := 1

	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case '\n':
			line++
			i++
		case '#':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case '\'', '"':
			end, lines, err := skipString(text, i)
			if err != nil {
				return fmt.Errorf("unterminated string literal starting on line %d", line)
			}
			line += lines
			i = end
		case '(', '[', '{':
			stack = append(stack, closerFor(rune(c)))
			i++
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != rune(c) {
				return fmt.Errorf("unbalanced %q on line %d", c, line)
			}
			stack = stack[:len(stack)-1]
			i++
		default:
			i++
		}
	}

	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q at end of file", stack[len(stack)-1])
	}
	return nil
}

func closerFor(open rune) rune {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// skipString consumes a Python string literal starting at i and returns the
// index past it plus the number of newlines crossed. Handles single/double
// quotes, triple quotes, and backslash escapes.
func skipString(text string, i int) (int, int, error) {
	quote := text[i]
	triple := strings.HasPrefix(text[i:], strings.Repeat(string(quote), 3))

	delim := string(quote)
	start := i + 1
	if triple {
		delim = strings.Repeat(string(quote), 3)
		start = i + 3
	}

	lines := 0
	for j := start; j < len(text); j++ {
		switch {
		case text[j] == '\\':
			j++
		case text[j] == '\n':
			if !triple {
				return 0, 0, fmt.Errorf("newline in single-quoted string")
			}
			lines++
		case strings.HasPrefix(text[j:], delim):
			return j + len(delim), lines, nil
		}
	}
	return 0, 0, fmt.Errorf("unterminated string")
}
