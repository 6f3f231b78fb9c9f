// Package render turns a document record into the text of a Markdown note.
package render

import (
	"strings"

	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/placeholder"
	"github.com/starford/granola-sync/internal/richtext"
	"github.com/starford/granola-sync/internal/settings"
)

// TranscriptHeading introduces the raw transcript section.
const TranscriptHeading = "## Full Transcript"

// Renderer renders documents under one settings snapshot. It holds no
// mutable state and is safe for concurrent use.
type Renderer struct {
	settings settings.Settings
	expander *placeholder.Expander
}

// New creates a Renderer. A nil expander gets one using cfg.DateFormat.
func New(cfg settings.Settings, exp *placeholder.Expander) *Renderer {
	if exp == nil {
		exp = placeholder.New(cfg.DateFormat)
	}
	return &Renderer{settings: cfg.Clone(), expander: exp}
}

// Title returns the display and sanitized titles for doc.
func (r *Renderer) Title(doc models.Document) (display, sanitized string) {
	return BuildTitle(doc, r.settings, r.expander)
}

// Render builds the metadata block and body for doc.
func (r *Renderer) Render(doc models.Document) models.RenderedNote {
	display, sanitized := r.Title(doc)

	var body strings.Builder
	body.WriteString("# " + sanitized + "\n\n")
	if content := StructuredContent(doc); strings.TrimSpace(content) != "" {
		body.WriteString(strings.TrimRight(content, "\n"))
		body.WriteString("\n\n")
	}
	if r.settings.IncludeFullTranscript {
		if transcript := doc.Transcript(); strings.TrimSpace(transcript) != "" {
			body.WriteString(TranscriptHeading + "\n\n")
			body.WriteString(transcript)
			body.WriteString("\n")
		}
	}

	return models.RenderedNote{
		Filename:      sanitized,
		DisplayTitle:  display,
		MetadataBlock: r.metadataBlock(doc, display),
		Body:          body.String(),
	}
}

// StructuredContent renders the last viewed panel when it holds a "doc"
// tree, otherwise the notes tree, otherwise nothing.
func StructuredContent(doc models.Document) string {
	if panel := models.MapField(doc.Map("last_viewed_panel"), "content"); panel != nil {
		if t, _ := panel["type"].(string); t == richtext.TypeDoc {
			return richtext.Render(richtext.FromValue(panel))
		}
	}
	if notes := doc.Map("notes"); notes != nil {
		return richtext.Render(richtext.FromValue(notes))
	}
	return ""
}
