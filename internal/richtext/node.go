// Package richtext converts the editor's structured document tree into Markdown.
package richtext

import (
	"log/slog"

	"github.com/spf13/cast"
)

// Node types with dedicated rendering. Anything else recurses into its children.
const (
	TypeDoc        = "doc"
	TypeHeading    = "heading"
	TypeParagraph  = "paragraph"
	TypeBulletList = "bulletList"
	TypeListItem   = "listItem"
	TypeText       = "text"
)

// Node is one element of a content tree.
type Node struct {
	Type    string         `json:"type"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// FromValue builds a Node from decoded JSON. Values that are not objects
// yield nil; fields of the wrong type are treated as absent.
func FromValue(v any) *Node {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	n := &Node{}
	n.Type, _ = m["type"].(string)
	n.Text, _ = m["text"].(string)
	n.Attrs, _ = m["attrs"].(map[string]any)

	if raw, present := m["content"]; present {
		children, isSlice := raw.([]any)
		if !isSlice {
			slog.Debug("richtext: content is not an array", "type", n.Type)
			return n
		}
		n.Content = make([]*Node, 0, len(children))
		for _, c := range children {
			if child := FromValue(c); child != nil {
				n.Content = append(n.Content, child)
			}
		}
	}
	return n
}

// Level returns the heading level from attrs.level, defaulting to 1.
func (n *Node) Level() int {
	if n == nil || n.Attrs == nil {
		return 1
	}
	raw, ok := n.Attrs["level"]
	if !ok {
		return 1
	}
	level, err := cast.ToIntE(raw)
	if err != nil || level < 1 {
		return 1
	}
	return level
}
