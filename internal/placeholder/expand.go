// Package placeholder expands {attendees}, {participants} and {date} inside
// user-configured strings.
package placeholder

import (
	"strings"
	"time"

	"github.com/starford/granola-sync/internal/attendee"
	"github.com/starford/granola-sync/internal/models"
)

const (
	TokenAttendees    = "{attendees}"
	TokenParticipants = "{participants}"
	TokenDate         = "{date}"

	NoAttendees    = "No attendees"
	NoParticipants = "No participants"
)

// Expander substitutes placeholders for one configured date pattern.
// Now is called whenever a document has no usable creation date; nil means time.Now.
type Expander struct {
	DateFormat string
	Now        func() time.Time
}

func New(dateFormat string) *Expander {
	return &Expander{DateFormat: dateFormat, Now: time.Now}
}

// Expand substitutes at most one placeholder family. The attendee family
// wins over {date}; when it applies both {attendees} and {participants} are
// replaced in the same pass.
func (e *Expander) Expand(template string, doc models.Document) string {
	switch {
	case strings.Contains(template, TokenAttendees), strings.Contains(template, TokenParticipants):
		names := attendee.Resolve(doc)
		if len(names) == 0 {
			return strings.NewReplacer(TokenAttendees, NoAttendees, TokenParticipants, NoParticipants).Replace(template)
		}
		joined := Links(names)
		return strings.NewReplacer(TokenAttendees, joined, TokenParticipants, joined).Replace(template)
	case strings.Contains(template, TokenDate):
		return e.ExpandDate(template, doc)
	default:
		return template
	}
}

// ExpandDate replaces only {date}, with the document's creation date.
func (e *Expander) ExpandDate(template string, doc models.Document) string {
	if !strings.Contains(template, TokenDate) {
		return template
	}
	date := FormatDateString(doc.CreatedAt(), e.DateFormat, e.now())
	return strings.ReplaceAll(template, TokenDate, date)
}

func (e *Expander) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Links wraps every name in wiki-link brackets and joins them with ", ".
func Links(names []string) string {
	links := make([]string, len(names))
	for i, n := range names {
		links[i] = "[[" + n + "]]"
	}
	return strings.Join(links, ", ")
}
