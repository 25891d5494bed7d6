package context

import (
	"strings"
	"text/template"

	"github.com/user/sheetpilot/internal/types"
)

// systemPrompt is the template for the session's system turn. It is rendered
// once when a session's first turn arrives, and re-rendered by compaction so
// the model always sees the current spreadsheet context.
const systemPrompt = `You are an expert coding assistant specialized in Excel/Google Sheets automation and programming tasks.

Current spreadsheet context:
{{.MetadataBlock}}

Your expertise includes:
- Excel formula generation (VLOOKUP, INDEX/MATCH, SUMIF, PIVOT, etc.)
- VBA/Visual Basic programming
- Google Apps Script
- Data analysis and manipulation
- Financial and investment banking calculations
- JavaScript for web automation

Always provide:
1. Clear, working code solutions
2. Step-by-step explanations
3. Specific cell references and ranges
4. Copy-paste ready formulas
5. Error handling considerations

Focus on practical, production-ready solutions that integrate seamlessly with spreadsheet environments.
{{- if .Summary}}

Summary of the earlier conversation:
{{.Summary}}
{{- end}}`

// PromptData is the data passed to the system prompt template.
type PromptData struct {
	MetadataBlock string
	Summary       string
}

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPrompt))

// BuildSystemPrompt renders the system turn content from the caller's current
// metadata and an optional compaction summary. Rendering is deterministic for
// identical inputs.
func BuildSystemPrompt(metadata types.Metadata, summary string) string {
	var sb strings.Builder
	data := PromptData{
		MetadataBlock: RenderMetadata(metadata),
		Summary:       summary,
	}
	// The template is static and the data is plain strings; execution cannot fail.
	_ = systemPromptTmpl.Execute(&sb, data)
	return sb.String()
}

// NewSystemTurn builds the synthetic system turn injected on a session's
// first append and regenerated during compaction.
func NewSystemTurn(metadata types.Metadata, summary string) types.Turn {
	return types.Turn{Role: types.RoleSystem, Content: BuildSystemPrompt(metadata, summary)}
}
