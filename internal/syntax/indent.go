package syntax

import "strings"

// indentLevel is one entry of the indentation stack. col counts a tab as
// advancing to the next multiple of 8, alt counts it as one column; the
// two must agree on every comparison or the indentation mixes tabs and
// spaces ambiguously.
type indentLevel struct {
	col, alt int
}

// checkIndentation follows the logical lines of src the way the Python
// tokenizer does and returns the first indentation error: a block header
// without an indented body, an unexpected indent, a dedent to a column no
// enclosing block uses, or inconsistent tabs and spaces. Blank lines,
// comment-only lines and lines inside brackets, strings or after a
// backslash continuation carry no indentation.
func checkIndentation(src []byte) *ParseError {
	stack := []indentLevel{{}}
	lines := strings.Split(string(src), "\n")

	var (
		depth       int
		quote       string
		continued   bool
		last        byte
		expectBlock bool
		start       int // first line of the current logical line
		prevStart   int // first line of the previous logical line
	)

	for i, line := range lines {
		lineNo := i + 1
		line = strings.TrimSuffix(line, "\r")
		pos := 0

		if quote == "" && depth == 0 && !continued {
			level, n := measureIndent(line)
			if rest := line[n:]; rest == "" || rest[0] == '#' {
				continue
			}

			prevStart = start
			if perr := pushIndent(&stack, level, expectBlock); perr != nil {
				perr.Line = lineNo
				perr.from = max(prevStart, 1)
				return perr
			}
			expectBlock = false
			last = 0
			start = lineNo
			pos = n
		}

		continued = false
		escapedEOL := false
		for j := pos; j < len(line); j++ {
			c := line[j]
			if quote != "" {
				switch {
				case c == '\\':
					if j == len(line)-1 {
						escapedEOL = true
					}
					j++
				case strings.HasPrefix(line[j:], quote):
					j += len(quote) - 1
					quote = ""
					last = c
				}
				continue
			}

			switch c {
			case '#':
				j = len(line)
			case '\'', '"':
				quote = string(c)
				if triple := strings.Repeat(quote, 3); strings.HasPrefix(line[j:], triple) {
					quote = triple
					j += 2
				}
				last = c
			case '(', '[', '{':
				depth++
				last = c
			case ')', ']', '}':
				if depth > 0 {
					depth--
				}
				last = c
			case '\\':
				if j == len(line)-1 {
					continued = true
				} else {
					last = c
				}
			case ' ', '\t', '\f', '\r':
			default:
				last = c
			}
		}

		// An unterminated single-quoted string ends with its line; the
		// parser reports it.
		if len(quote) == 1 && !escapedEOL {
			quote = ""
		}

		if quote == "" && depth == 0 && !continued && last == ':' {
			expectBlock = true
		}
	}

	if expectBlock {
		return &ParseError{Line: max(len(lines), start+1), Msg: "expected an indented block", from: start}
	}
	return nil
}

// measureIndent returns the indentation of line and the number of leading
// whitespace bytes. A form feed resets the column.
func measureIndent(line string) (indentLevel, int) {
	var level indentLevel
	n := 0
	for ; n < len(line); n++ {
		switch line[n] {
		case ' ':
			level.col++
			level.alt++
		case '\t':
			level.col = (level.col/8 + 1) * 8
			level.alt++
		case '\f':
			level = indentLevel{}
		default:
			return level, n
		}
	}
	return level, n
}

// pushIndent applies the indentation of a new logical line to stack.
func pushIndent(stack *[]indentLevel, level indentLevel, expectBlock bool) *ParseError {
	top := (*stack)[len(*stack)-1]

	switch {
	case expectBlock:
		if level.col <= top.col {
			return &ParseError{Msg: "expected an indented block"}
		}
		if level.alt <= top.alt {
			return tabError()
		}
		*stack = append(*stack, level)

	case level.col > top.col:
		return &ParseError{Msg: "unexpected indent"}

	case level.col == top.col:
		if level.alt != top.alt {
			return tabError()
		}

	default:
		for len(*stack) > 1 && level.col < (*stack)[len(*stack)-1].col {
			*stack = (*stack)[:len(*stack)-1]
		}
		top = (*stack)[len(*stack)-1]
		if level.col != top.col {
			return &ParseError{Msg: "unindent does not match any outer indentation level"}
		}
		if level.alt != top.alt {
			return tabError()
		}
	}
	return nil
}

func tabError() *ParseError {
	return &ParseError{Msg: "inconsistent use of tabs and spaces in indentation"}
}
