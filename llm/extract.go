package llm

import "strings"

// ExtractJSON extracts the first balanced JSON object from text. Models often
// wrap structured answers in prose or markdown fences; this scans for the
// first '{' and returns the substring up to its matching '}', tracking string
// literals and escapes. Returns "" when no balanced object exists.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escape {
			escape = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escape = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return ""
}
