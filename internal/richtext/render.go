package richtext

import "strings"

// Render converts the tree rooted at root into Markdown. A nil root or a
// root without a content array renders as the empty string.
func Render(root *Node) string {
	if root == nil || root.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, child := range root.Content {
		writeNode(&b, child, 0)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	switch n.Type {
	case TypeHeading:
		b.WriteString(strings.Repeat("#", n.Level()))
		b.WriteString(" ")
		b.WriteString(inlineText(n))
		b.WriteString("\n\n")
	case TypeParagraph:
		b.WriteString(inlineText(n))
		b.WriteString("\n\n")
	case TypeBulletList:
		lines := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item == nil || item.Type != TypeListItem {
				continue
			}
			if line := listItemLine(item, depth); line != "" {
				lines = append(lines, line)
			}
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	case TypeText:
		b.WriteString(n.Text)
	default:
		for _, child := range n.Content {
			writeNode(b, child, depth)
		}
	}
}

// listItemLine flattens one list item into a bullet line. Only the direct
// text leaves of the item's direct paragraph children are kept; nested lists
// and inline wrappers are dropped.
func listItemLine(item *Node, depth int) string {
	var b strings.Builder
	for _, child := range item.Content {
		if child == nil || child.Type != TypeParagraph {
			continue
		}
		for _, leaf := range child.Content {
			if leaf != nil && leaf.Type == TypeText {
				b.WriteString(leaf.Text)
			}
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return strings.Repeat("  ", depth) + "- " + b.String()
}

// inlineText renders the children of n without block separators.
func inlineText(n *Node) string {
	var b strings.Builder
	for _, child := range n.Content {
		writeNode(&b, child, 0)
	}
	return b.String()
}
