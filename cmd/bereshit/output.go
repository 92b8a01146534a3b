package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/BeFlock/bereshit/internal/project"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const tableTimeLayout = "2006-01-02 15:04:05"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

// writeProjects renders a project list in the given format.
func writeProjects(w io.Writer, format string, projects []project.Project) error {
	if projects == nil {
		projects = []project.Project{}
	}
	if format != formatTable {
		return writeValue(w, format, projects)
	}

	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, "No projects registered.")
		return err
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.ID, p.Name, p.Path, createdLabel(p), p.DescriptionText()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "NAME", "PATH", "CREATED", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col == 3:
				return dimStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// createdLabel renders CreatedAt in local time, or verbatim when it does not
// parse.
func createdLabel(p project.Project) string {
	t := p.CreatedTime()
	if t.IsZero() {
		return p.CreatedAt
	}
	return t.Local().Format(tableTimeLayout)
}

// writeProject renders one project. The table format lists its fields.
func writeProject(w io.Writer, format string, p project.Project) error {
	if format != formatTable {
		return writeValue(w, format, p)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Rows(
			[]string{"id", p.ID},
			[]string{"name", p.Name},
			[]string{"path", p.Path},
			[]string{"created_at", p.CreatedAt},
			[]string{"last_modified", p.LastModified},
			[]string{"description", p.DescriptionText()},
			[]string{"version", p.Config.Version},
			[]string{"project_type", p.Config.ProjectType},
			[]string{"auto_save", fmt.Sprintf("%t", p.Config.Settings.AutoSave)},
			[]string{"theme", p.Config.Settings.Theme},
			[]string{"language", p.Config.Settings.Language},
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// writeValue encodes v as indented JSON or YAML.
func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
}

func formatFlagUsage() string {
	return "output format: " + strings.Join([]string{formatTable, formatJSON, formatYAML}, ", ")
}
