package vm

import "strings"

// Tokenize strips "#" comments, splits each line on whitespace and
// commas, and hands Assemble a per-line token vector. It does not
// expand macros; callers that need that should run their own
// preprocessing pass over the source before calling Tokenize.
func Tokenize(source string) [][]string {
	rawLines := strings.Split(source, "\n")
	out := make([][]string, 0, len(rawLines))

	for _, line := range rawLines {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.ReplaceAll(line, ",", " ")
		tokens := strings.Fields(line)
		out = append(out, tokens)
	}

	return out
}
