package attendee

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/granola-sync/internal/models"
)

func doc(t *testing.T, raw string) models.Document {
	t.Helper()
	d, err := models.ParseDocument([]byte(raw))
	require.NoError(t, err)
	return d
}

func TestResolveCreatorFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		creator string
		want    []string
	}{
		{"name", `{"name":"Ann Lee"}`, []string{"Ann Lee"}},
		{"full name", `{"details":{"person":{"name":{"fullName":"Ann Lee"}}}}`, []string{"Ann Lee"}},
		{"given and family", `{"details":{"person":{"name":{"givenName":"Ann","familyName":"Lee"}}}}`, []string{"Ann Lee"}},
		{"given only", `{"details":{"person":{"name":{"givenName":"Ann"}}}}`, []string{"Ann"}},
		{"nothing usable", `{"email":"ann@x.com"}`, nil},
		{"wrong type", `"Ann"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(t, `{"id":"1","people":{"creator":`+tt.creator+`}}`)
			assert.Equal(t, tt.want, Resolve(d))
		})
	}
}

func TestResolveAttendeeEmailLocalPart(t *testing.T) {
	d := doc(t, `{"people":{"attendees":[{"email":"jane_doe.smith@x.com"},{"name":"Bob"},42]}}`)
	assert.Equal(t, []string{"jane doe smith", "Bob"}, Resolve(d))
}

func TestResolveMergesSourcesWithoutDuplicates(t *testing.T) {
	d := doc(t, `{
		"people": {
			"creator": {"name": "Alice"},
			"attendees": [{"name": "Alice"}, {"name": "Bob", "email": "bob@x.com"}]
		},
		"google_calendar_event": {
			"attendees": [
				{"email": "bob@x.com", "displayName": "Bob"},
				{"email": "carol@x.com", "displayName": "Carol"},
				{"email": "carol@x.com", "displayName": "Carol Again"},
				{"displayName": "No Email"}
			]
		}
	}`)

	got := Resolve(d)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, got)

	seen := map[string]bool{}
	for _, n := range got {
		assert.False(t, seen[n], "duplicate name %q", n)
		seen[n] = true
	}
}

func TestResolveParticipantsOnlyWhenOthersEmpty(t *testing.T) {
	t.Run("participants used when people and calendar are empty", func(t *testing.T) {
		d := doc(t, `{
			"people": {"attendees": []},
			"participants": ["Dan", {"displayName": "Eve"}, {"email": "frank.o-neil@x.com"}, "Dan"]
		}`)
		assert.Equal(t, []string{"Dan", "Eve", "[[Frank O Neil]]"}, Resolve(d))
	})

	t.Run("participants ignored when people resolves", func(t *testing.T) {
		base := `{"people":{"creator":{"name":"Alice"}},"google_calendar_event":{"attendees":[{"email":"b@x.com","displayName":"Bob"}]},"participants":%s}`
		clean := doc(t, fmt.Sprintf(base, `["Zed"]`))
		corrupt := doc(t, fmt.Sprintf(base, `[{"bogus":true}, 17, null, "Mallory"]`))

		assert.Equal(t, []string{"Alice", "Bob"}, Resolve(clean))
		assert.Equal(t, Resolve(clean), Resolve(corrupt))
	})

	t.Run("emails seen in the calendar are not re-added", func(t *testing.T) {
		d := doc(t, `{
			"google_calendar_event": {"attendees": [{"email": "gina@x.com"}]},
			"participants": [{"email": "gina@x.com"}, {"mail": "hal@x.com"}]
		}`)
		assert.Equal(t, []string{"[[Hal]]"}, Resolve(d))
	})

	t.Run("emails without a local part are dropped", func(t *testing.T) {
		d := doc(t, `{"participants": [{"email": "@x.com"}, {"email": "ivy@x.com"}]}`)
		assert.Equal(t, []string{"[[Ivy]]"}, Resolve(d))
	})
}

func TestResolveEmptyDocument(t *testing.T) {
	assert.Empty(t, Resolve(models.Document{}))
	assert.Empty(t, Resolve(doc(t, `{"people":"x","participants":{"a":1}}`)))
}

func TestFormatEmailAsName(t *testing.T) {
	tests := map[string]string{
		"jane.doe-smith@x.com": "Jane Doe Smith",
		"JOHN@x.com":           "John",
		"a..b@x.com":           "A B",
		"not-an-email":         "not-an-email",
		"@x.com":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatEmailAsName(in), in)
	}
}
