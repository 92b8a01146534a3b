package project

import (
	"strings"
	"time"
)

// ConfigFileName is the per-project configuration file written by Create.
const ConfigFileName = "bereshit.json"

// Defaults for a freshly created project configuration.
const (
	DefaultConfigVersion = "1.0.0"
	DefaultProjectType   = "bereshit"
	DefaultTheme         = "dark"
	DefaultLanguage      = "pt-BR"
)

// TimestampLayout is the format of CreatedAt and LastModified. The fraction
// is always nine digits so that UTC timestamps order correctly as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Project is a registry entry.
type Project struct {
	// ID is the unique project identifier (UUID). Immutable after creation.
	ID string `json:"id" yaml:"id"`

	// Name is the display name chosen by the user.
	Name string `json:"name" yaml:"name"`

	// Path is the absolute filesystem location of the project directory.
	Path string `json:"path" yaml:"path"`

	// CreatedAt is when the project was created (RFC 3339, UTC, TimestampLayout).
	CreatedAt string `json:"created_at" yaml:"created_at"`

	// LastModified equals CreatedAt at creation. No operation updates it.
	LastModified string `json:"last_modified" yaml:"last_modified"`

	// Description is optional free text; nil serializes as null.
	Description *string `json:"description" yaml:"description"`

	// Config mirrors the bereshit.json written into the project directory.
	Config ProjectConfig `json:"config" yaml:"config"`
}

// ProjectConfig holds per-project settings.
type ProjectConfig struct {
	Version     string          `json:"version" yaml:"version"`
	ProjectType string          `json:"project_type" yaml:"project_type"`
	Settings    ProjectSettings `json:"settings" yaml:"settings"`
}

// ProjectSettings holds editor preferences for a project.
type ProjectSettings struct {
	AutoSave bool   `json:"auto_save" yaml:"auto_save"`
	Theme    string `json:"theme" yaml:"theme"`
	Language string `json:"language" yaml:"language"`
}

// DefaultConfig returns the configuration written for new projects.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Version:     DefaultConfigVersion,
		ProjectType: DefaultProjectType,
		Settings: ProjectSettings{
			AutoSave: true,
			Theme:    DefaultTheme,
			Language: DefaultLanguage,
		},
	}
}

// DescriptionText returns the description or "" when absent.
func (p Project) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// CreatedTime parses CreatedAt. Any RFC 3339 value is accepted, including
// records written with a shorter fraction. The zero time is returned if it is
// malformed.
func (p Project) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Description returns a description pointer, treating blank text as absent.
func Description(text string) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &text
}
