package render

import (
	"regexp"
	"strings"

	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/placeholder"
	"github.com/starford/granola-sync/internal/settings"
)

var (
	bracketStripper = strings.NewReplacer("(", "", ")", "", "[", "", "]", "", "{", "", "}", "")
	hostileReplacer = strings.NewReplacer(
		"/", "-", `\`, "-", "+", "-", "*", "-", "#", "-",
		"|", "-", ":", "-", `"`, "-", "<", "-", ">", "-", "?", "-",
	)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// BuildTitle returns the display title (with any prefix or suffix applied)
// and its sanitized form, which is used both as the file stem and as the
// note's top-level heading.
func BuildTitle(doc models.Document, cfg settings.Settings, exp *placeholder.Expander) (display, sanitized string) {
	display = doc.Title()
	switch cfg.TitleFormat {
	case settings.TitleFormatPrefix:
		if cfg.TitlePrefix != "" {
			display = exp.ExpandDate(cfg.TitlePrefix, doc) + " " + display
		}
	case settings.TitleFormatSuffix:
		if cfg.TitleSuffix != "" {
			display = display + " " + exp.ExpandDate(cfg.TitleSuffix, doc)
		}
	}
	sanitized = Sanitize(display)
	if sanitized == "" {
		sanitized = "Untitled"
	}
	return display, sanitized
}

// Sanitize makes s safe to use as a file name.
func Sanitize(s string) string {
	s = bracketStripper.Replace(s)
	s = hostileReplacer.Replace(s)
	s = strings.Trim(strings.TrimSpace(s), ".")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
