package diagram

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/docgen-mcp/internal/llm"
)

// validStarts are the diagram headers accepted by Validate
var validStarts = []string{
	"graph", "flowchart", "sequenceDiagram", "classDiagram",
	"erDiagram", "stateDiagram", "pie", "gantt",
}

var closers = map[rune]rune{']': '[', '}': '{', ')': '('}

var (
	suspiciousID  = regexp.MustCompile(`\bid\s*=\s*['"][^'"]*['"]\s*]`)
	unquotedLabel = regexp.MustCompile(`\[([^"\[\]]*[(){}\[\]][^"\[\]]*)\]`)
	looseArrow    = regexp.MustCompile(`(\w+)\s*-+>\s*(\w+)`)
)

var nodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\w+\[`),
	regexp.MustCompile(`\b\w+\{`),
	regexp.MustCompile(`\b\w+\(`),
	regexp.MustCompile(`participant\s+\w+`),
	regexp.MustCompile(`class\s+\w+`),
}

// Clean strips a surrounding markdown fence from model output
func Clean(text string) string {
	return llm.StripFences(text)
}

// Validate performs a structural check of Mermaid source. It accepts the
// known diagram headers and requires balanced brackets.
func Validate(code string) (bool, []string) {
	if strings.TrimSpace(code) == "" {
		return false, []string{"Empty diagram"}
	}

	var errs []string

	first, _, _ := strings.Cut(code, "\n")
	first = strings.TrimSpace(first)
	known := false
	for _, s := range validStarts {
		if strings.HasPrefix(first, s) {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, fmt.Sprintf("Invalid diagram start: %s", truncateRunes(first, 50)))
	}

	var stack []rune
scan:
	for _, r := range code {
		switch r {
		case '[', '{', '(':
			stack = append(stack, r)
		case ']', '}', ')':
			if len(stack) == 0 {
				errs = append(errs, "Unbalanced closing bracket")
				break scan
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if open != closers[r] {
				errs = append(errs, "Mismatched brackets")
				break scan
			}
		}
	}
	if len(stack) > 0 {
		errs = append(errs, "Unclosed brackets")
	}

	if suspiciousID.MatchString(code) {
		errs = append(errs, "Possible invalid node syntax")
	}

	return len(errs) == 0, errs
}

// AutoFix quotes labels containing brackets and normalizes arrows
func AutoFix(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		line = unquotedLabel.ReplaceAllString(line, `["$1"]`)
		line = looseArrow.ReplaceAllString(line, `$1 --> $2`)
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// CountNodes approximates the number of distinct nodes in a diagram
func CountNodes(code string) int {
	nodes := make(map[string]struct{})
	for _, p := range nodePatterns {
		for _, m := range p.FindAllString(code, -1) {
			id := strings.TrimRight(m, "[{(")
			id = strings.TrimPrefix(id, "participant")
			id = strings.TrimPrefix(id, "class")
			nodes[strings.TrimSpace(id)] = struct{}{}
		}
	}
	return len(nodes)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
