// Package settings holds the user-facing sync configuration and the live,
// persisted copy of it shared by the sync service and the control surfaces.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/granola-sync/internal/placeholder"
)

// Title formats.
const (
	TitleFormatNone   = "none"
	TitleFormatPrefix = "prefix"
	TitleFormatSuffix = "suffix"
)

// CustomProperty is one user-defined metadata field. Value may contain placeholders.
type CustomProperty struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Settings controls how documents are turned into notes.
type Settings struct {
	SyncDirectory         string           `yaml:"sync_directory" json:"syncDirectory"`
	AuthKeyPath           string           `yaml:"auth_key_path" json:"authKeyPath"`
	SkipExistingNotes     bool             `yaml:"skip_existing_notes" json:"skipExistingNotes"`
	NotesToSync           int              `yaml:"notes_to_sync" json:"notesToSync"`
	TitleFormat           string           `yaml:"title_format" json:"titleFormat"`
	TitlePrefix           string           `yaml:"title_prefix" json:"titlePrefix"`
	TitleSuffix           string           `yaml:"title_suffix" json:"titleSuffix"`
	IncludeFullTranscript bool             `yaml:"include_full_transcript" json:"includeFullTranscript"`
	DateFormat            string           `yaml:"date_format" json:"dateFormat"`
	AutoSyncInterval      int              `yaml:"auto_sync_interval" json:"autoSyncInterval"`
	CustomProperties      []CustomProperty `yaml:"custom_properties" json:"customProperties"`
}

// Defaults returns the settings a fresh installation starts with.
func Defaults() Settings {
	return Settings{
		SyncDirectory:    "Granola",
		NotesToSync:      1,
		TitleFormat:      TitleFormatNone,
		DateFormat:       placeholder.DefaultDateFormat,
		CustomProperties: []CustomProperty{},
	}
}

// Validate normalises empty enum fields and checks the rest.
func (s *Settings) Validate() error {
	if s.TitleFormat == "" {
		s.TitleFormat = TitleFormatNone
	}
	if s.DateFormat == "" {
		s.DateFormat = placeholder.DefaultDateFormat
	}
	return validation.ValidateStruct(s,
		validation.Field(&s.NotesToSync, validation.Required, validation.Min(1)),
		validation.Field(&s.TitleFormat, validation.In(TitleFormatNone, TitleFormatPrefix, TitleFormatSuffix)),
		validation.Field(&s.AutoSyncInterval, validation.Min(0)),
		validation.Field(&s.CustomProperties, validation.By(uniqueNames)),
	)
}

func uniqueNames(value any) error {
	props, _ := value.([]CustomProperty)
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		if seen[p.Name] {
			return errors.New("duplicate custom property " + p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.CustomProperties = append([]CustomProperty(nil), s.CustomProperties...)
	return out
}

// Limit is the number of documents inspected per pass.
func (s Settings) Limit() int {
	if s.NotesToSync < 1 {
		return 1
	}
	return s.NotesToSync
}

// AutoSyncEvery returns the scheduler period, zero when disabled.
func (s Settings) AutoSyncEvery() time.Duration {
	if s.AutoSyncInterval <= 0 {
		return 0
	}
	return time.Duration(s.AutoSyncInterval) * time.Minute
}

// CredentialsPath returns AuthKeyPath, or the desktop app's default token file.
func (s Settings) CredentialsPath() string {
	if s.AuthKeyPath != "" {
		return s.AuthKeyPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "Granola", "supabase.json")
}

// UpsertCustomProperty updates the property with the same name in place or
// appends a new one.
func (s *Settings) UpsertCustomProperty(name, value string) {
	name = strings.TrimSpace(name)
	for i := range s.CustomProperties {
		if s.CustomProperties[i].Name == name {
			s.CustomProperties[i].Value = value
			return
		}
	}
	s.CustomProperties = append(s.CustomProperties, CustomProperty{Name: name, Value: value})
}

// RemoveCustomProperty deletes the named property and reports whether it existed.
func (s *Settings) RemoveCustomProperty(name string) bool {
	for i, p := range s.CustomProperties {
		if p.Name == name {
			s.CustomProperties = append(s.CustomProperties[:i], s.CustomProperties[i+1:]...)
			return true
		}
	}
	return false
}
