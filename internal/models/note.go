// Package models defines the domain types shared by the sync pipeline.
package models

import "time"

// Note is a Markdown file read back from the vault.
type Note struct {
	Path        string         `json:"path"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Title       string         `json:"title,omitempty"`
	Links       []string       `json:"links,omitempty"`
	Checksum    string         `json:"checksum"`
	// EditedSinceSync is set when the file differs from what the last pass wrote.
	EditedSinceSync bool `json:"edited_since_sync"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenderedNote is the output of rendering one document.
type RenderedNote struct {
	// Filename is the sanitized title without directory or extension.
	Filename      string `json:"filename"`
	DisplayTitle  string `json:"display_title"`
	MetadataBlock string `json:"metadata_block"`
	Body          string `json:"body"`
}

// Content joins the metadata block and the body into the final file text.
func (n RenderedNote) Content() string {
	return n.MetadataBlock + n.Body
}
