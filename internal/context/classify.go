package context

import (
	"regexp"
	"strings"
)

// ContentClass is the structured result of classifying a turn's content.
// The compactor uses it to decide how to summarize assistant turns; keeping
// the classification here keeps it testable apart from any text formatting.
type ContentClass struct {
	// HasFencedCode reports a fenced code block (``` marker) in the content.
	HasFencedCode bool

	// HasFormula reports a spreadsheet formula (a line starting with "=").
	HasFormula bool

	// CellRefs lists A1-style cell references and ranges found in the
	// content, in order of first appearance, deduplicated.
	CellRefs []string
}

// IsCodeSolution reports whether the content carries a code or formula
// solution rather than prose.
func (c ContentClass) IsCodeSolution() bool {
	return c.HasFencedCode || c.HasFormula
}

var cellRefPattern = regexp.MustCompile(`\b[A-Z]{1,3}[1-9][0-9]{0,6}(?::[A-Z]{1,3}[1-9][0-9]{0,6})?\b`)

// Classify inspects turn content and returns its structured classification.
func Classify(content string) ContentClass {
	var class ContentClass

	class.HasFencedCode = strings.Contains(content, "```")

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "=") {
			class.HasFormula = true
			break
		}
	}

	seen := make(map[string]bool)
	for _, ref := range cellRefPattern.FindAllString(content, -1) {
		if !seen[ref] {
			seen[ref] = true
			class.CellRefs = append(class.CellRefs, ref)
		}
	}
	return class
}
