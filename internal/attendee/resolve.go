// Package attendee resolves the ordered, de-duplicated list of people who
// took part in a meeting from the several shapes a document may carry.
package attendee

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/granola-sync/internal/models"
)

// candidate is one name proposed by an extractor. When trackEmail is set the
// email is checked against, and then added to, the seen-email set before the
// name is considered.
type candidate struct {
	name       string
	email      string
	trackEmail bool
}

type extractor struct {
	name string
	fn   func(models.Document) []candidate
	// fallback extractors only run when nothing has been resolved yet.
	fallback bool
}

var extractors = []extractor{
	{name: "creator", fn: creator},
	{name: "people.attendees", fn: peopleAttendees},
	{name: "calendar", fn: calendarAttendees},
	{name: "participants", fn: participants, fallback: true},
}

// Resolve returns display names in first-seen order with exact-string
// de-duplication. Missing or malformed fields contribute nothing.
func Resolve(doc models.Document) []string {
	var (
		names      []string
		seenNames  = make(map[string]bool)
		seenEmails = make(map[string]bool)
	)
	for _, ex := range extractors {
		if ex.fallback && len(names) > 0 {
			continue
		}
		for _, c := range ex.fn(doc) {
			if c.trackEmail && c.email != "" {
				if seenEmails[c.email] {
					continue
				}
				seenEmails[c.email] = true
			}
			if c.name == "" || seenNames[c.name] {
				continue
			}
			seenNames[c.name] = true
			names = append(names, c.name)
		}
	}
	return names
}

func creator(doc models.Document) []candidate {
	c := models.MapField(doc.Map("people"), "creator")
	if c == nil {
		return nil
	}
	if name := personName(c); name != "" {
		return []candidate{{name: name}}
	}
	return nil
}

func peopleAttendees(doc models.Document) []candidate {
	var out []candidate
	for _, raw := range models.SliceField(doc.Map("people"), "attendees") {
		a, ok := raw.(map[string]any)
		if !ok {
			slog.Debug("attendee: skipping non-object attendee", "document_id", doc.ID())
			continue
		}
		name := personName(a)
		if name == "" {
			name = nameFromEmailLocalPart(models.StringField(a, "email"))
		}
		if name != "" {
			out = append(out, candidate{name: name})
		}
	}
	return out
}

func calendarAttendees(doc models.Document) []candidate {
	var out []candidate
	for _, raw := range models.SliceField(doc.Map("google_calendar_event"), "attendees") {
		a, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		email := models.StringField(a, "email")
		if email == "" {
			continue
		}
		out = append(out, candidate{
			name:       strings.TrimSpace(models.StringField(a, "displayName")),
			email:      email,
			trackEmail: true,
		})
	}
	return out
}

func participants(doc models.Document) []candidate {
	var out []candidate
	for _, raw := range doc.Slice("participants") {
		switch p := raw.(type) {
		case string:
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, candidate{name: s})
			}
		case map[string]any:
			if name := firstString(p, "name", "displayName", "fullName"); name != "" {
				out = append(out, candidate{name: name})
				continue
			}
			email := models.StringField(p, "email")
			if email == "" {
				email = models.StringField(p, "mail")
			}
			formatted := FormatEmailAsName(email)
			if formatted == "" {
				continue
			}
			out = append(out, candidate{
				name:       "[[" + formatted + "]]",
				email:      email,
				trackEmail: true,
			})
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(models.StringField(m, k)); s != "" {
			return s
		}
	}
	return ""
}

// personName picks the first usable name of a person object: name, then
// details.person.name.fullName, then givenName and familyName combined,
// then givenName alone.
func personName(p map[string]any) string {
	if n := strings.TrimSpace(models.StringField(p, "name")); n != "" {
		return n
	}
	if n := strings.TrimSpace(models.Path(p, "details", "person", "name", "fullName")); n != "" {
		return n
	}
	given := strings.TrimSpace(models.Path(p, "details", "person", "name", "givenName"))
	family := strings.TrimSpace(models.Path(p, "details", "person", "name", "familyName"))
	if given != "" && family != "" {
		return given + " " + family
	}
	return given
}

// nameFromEmailLocalPart turns "jane.doe@x.com" into "jane doe".
func nameFromEmailLocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return ""
	}
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)
	return strings.Join(strings.Fields(local), " ")
}

// FormatEmailAsName converts the local part of an email address into a
// capitalised display name: "jane.doe-smith@x.com" becomes "Jane Doe Smith".
// Input without an "@" is returned unchanged.
func FormatEmailAsName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	local = strings.NewReplacer(".", " ", "-", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
