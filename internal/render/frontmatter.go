package render

import (
	"strings"

	"github.com/starford/granola-sync/internal/models"
)

// NoteURL is the canonical link for a document in the Granola web app.
const NoteURL = "https://notes.granola.ai/d/"

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// metadataBlock writes the fixed fields followed by the custom properties.
func (r *Renderer) metadataBlock(doc models.Document, displayTitle string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("granola_id: " + doc.ID() + "\n")
	b.WriteString("title: " + quote(displayTitle) + "\n")
	b.WriteString("granola_url: " + NoteURL + doc.ID() + "\n")
	if v := doc.CreatedAt(); v != "" {
		b.WriteString("created_at: " + v + "\n")
	}
	if v := doc.UpdatedAt(); v != "" {
		b.WriteString("updated_at: " + v + "\n")
	}

	for _, prop := range r.settings.CustomProperties {
		name := strings.TrimSpace(prop.Name)
		if name == "" || strings.TrimSpace(prop.Value) == "" {
			continue
		}
		value := r.expander.Expand(prop.Value, doc)
		tokens := splitTokens(value)
		switch {
		case len(tokens) > 1:
			b.WriteString(name + ":\n")
			for _, tok := range tokens {
				b.WriteString("  - " + quote(tok) + "\n")
			}
		case strings.TrimSpace(value) != "":
			b.WriteString(name + ": " + quote(strings.TrimSpace(value)) + "\n")
		}
	}
	b.WriteString("---\n")
	return b.String()
}

// splitTokens splits on commas and drops empty pieces.
func splitTokens(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
