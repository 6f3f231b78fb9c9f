// Package parser reads synced notes back: metadata block, heading and the
// people linked from them.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Result holds the output of parsing a note.
type Result struct {
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Body        string         `json:"body"`
	// Heading is the text of the first "# " line of the body.
	Heading    string   `json:"heading,omitempty"`
	Title      string   `json:"title,omitempty"`
	DocumentID string   `json:"document_id,omitempty"`
	Links      []string `json:"links,omitempty"`
}

// Parse splits data into metadata and body and collects wikilinks from both.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	heading := firstHeading(body)

	r := &Result{
		Frontmatter: fm,
		Body:        body,
		Heading:     heading,
		Title:       heading,
		Links:       extractLinks(append(frontmatterStrings(fm), body)...),
	}
	if t, ok := fm["title"].(string); ok && t != "" {
		r.Title = t
	}
	if id, ok := fm["granola_id"]; ok && id != nil {
		r.DocumentID = fmt.Sprint(id)
	}
	return r, nil
}

// splitFrontmatter separates the leading --- block from the body. Missing
// delimiters or invalid YAML leave everything in the body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// frontmatterStrings flattens scalar and list string values.
func frontmatterStrings(fm map[string]any) []string {
	var out []string
	for _, v := range fm {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// extractLinks returns de-duplicated wikilink targets, dropping aliases.
// Texts are scanned in order; frontmatter map order is not stable, so
// callers should not rely on the order of links found there.
func extractLinks(texts ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, text := range texts {
		for _, m := range wikilinkRe.FindAllStringSubmatch(text, -1) {
			target, _, _ := strings.Cut(m[1], "|")
			target = strings.TrimSpace(target)
			if target == "" {
				continue
			}
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			out = append(out, target)
		}
	}
	return out
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
