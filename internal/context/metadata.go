package context

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/sheetpilot/internal/types"
)

// noMetadataMarker is rendered in place of the metadata block when the caller
// supplied no context. The model must always see a well-formed block, so this
// is an explicit marker rather than an empty field.
const noMetadataMarker = "No spreadsheet data available"

var htmlTagPattern = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)

// RenderMetadata serializes caller metadata into the block embedded in the
// system prompt. Keys are emitted in sorted order so the rendering is
// deterministic. String values that look like HTML fragments (the extension
// scrapes sheet DOM) are converted to markdown before inclusion.
func RenderMetadata(metadata types.Metadata) string {
	if len(metadata) == 0 {
		return noMetadataMarker
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(renderValue(metadata[k]))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderValue(v any) string {
	switch val := v.(type) {
	case string:
		if htmlTagPattern.MatchString(val) {
			if md, err := htmltomarkdown.ConvertString(val); err == nil {
				return strings.TrimSpace(md)
			}
		}
		return val
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
