package versioning

import (
	"strings"
	"unicode"
)

type diffOp int

const (
	diffEqual diffOp = iota
	diffDelete
	diffInsert
)

type diffPart struct {
	op   diffOp
	text string
}

// CompareText renders a word-level diff of two prose bodies as inline
// styled spans for human review. Both inputs are HTML-escaped before
// wrapping so user-authored markup can never leak into the output.
func CompareText(oldText, newText string) string {
	parts := diffWords(tokenize(oldText), tokenize(newText))

	var b strings.Builder
	for _, part := range parts {
		color := "transparent"
		decoration := "none"
		weight := "normal"
		switch part.op {
		case diffInsert:
			color = "#dcfce7"
			weight = "bold"
		case diffDelete:
			color = "#fee2e2"
			decoration = "line-through"
		}
		b.WriteString(`<span style="background-color: `)
		b.WriteString(color)
		b.WriteString(`; text-decoration: `)
		b.WriteString(decoration)
		b.WriteString(`; font-weight: `)
		b.WriteString(weight)
		b.WriteString(`">`)
		b.WriteString(escapeHTML(part.text))
		b.WriteString(`</span>`)
	}
	return b.String()
}

// tokenize splits text into alternating word and whitespace tokens so
// the diff granularity is words, not characters or lines.
func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	currentSpace := false
	for _, r := range s {
		isSpace := unicode.IsSpace(r)
		if current.Len() > 0 && isSpace != currentSpace {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		currentSpace = isSpace
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// diffWords computes an LCS-based token diff and merges adjacent
// tokens of the same kind into one part.
func diffWords(a, b []string) []diffPart {
	n, m := len(a), len(b)
	// lcs[i][j] = length of the LCS of a[i:] and b[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var parts []diffPart
	appendPart := func(op diffOp, text string) {
		if text == "" {
			return
		}
		if len(parts) > 0 && parts[len(parts)-1].op == op {
			parts[len(parts)-1].text += text
			return
		}
		parts = append(parts, diffPart{op: op, text: text})
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			appendPart(diffEqual, a[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			appendPart(diffDelete, a[i])
			i++
		default:
			appendPart(diffInsert, b[j])
			j++
		}
	}
	for ; i < n; i++ {
		appendPart(diffDelete, a[i])
	}
	for ; j < m; j++ {
		appendPart(diffInsert, b[j])
	}
	return parts
}

func escapeHTML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
	return r.Replace(s)
}
