package shell

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed command line.
type ParseError struct {
	Message string
	Pos     int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Message)
}

// Parse splits a raw command line into an argument vector and reports
// whether the job should run in the background (trailing &). Quoted
// substrings (single or double) form a single argument. Redirection
// tokens pass through untouched; stripping them is the launcher's
// business.
func Parse(line string) ([]string, bool, error) {
	var argv []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	flush := func() {
		if current.Len() > 0 {
			argv = append(argv, current.String())
			current.Reset()
		}
	}

	for _, char := range line {
		switch {
		case char == '\'' || char == '"':
			if !inQuote {
				inQuote = true
				quoteChar = char
			} else if char == quoteChar {
				inQuote = false
				argv = append(argv, current.String())
				current.Reset()
			} else {
				current.WriteRune(char)
			}

		case (char == ' ' || char == '\t' || char == '\n') && !inQuote:
			flush()

		default:
			current.WriteRune(char)
		}
	}

	if inQuote {
		return nil, false, &ParseError{Message: "unclosed quote", Pos: len(line)}
	}
	flush()

	// A trailing & marks a background job, whether it stands alone
	// or is glued to the last word.
	bg := false
	if n := len(argv); n > 0 {
		if argv[n-1] == "&" {
			argv = argv[:n-1]
			bg = true
		} else if strings.HasSuffix(argv[n-1], "&") {
			argv[n-1] = strings.TrimSuffix(argv[n-1], "&")
			bg = true
		}
	}

	return argv, bg, nil
}
