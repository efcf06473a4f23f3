// Package report renders command results for the terminal or for other
// programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/drupaldbg/internal/backup"
	"github.com/thoreinstein/drupaldbg/internal/drupal"
	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats returns the accepted format names.
func Formats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML), string(FormatTOML)}
}

// ParseFormat validates a format name. The empty string yields FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidArgument,
			"unknown format %q (valid: %s)", s, strings.Join(Formats(), ", "))
	}
}

// Reporter formats and writes results.
type Reporter struct {
	out    io.Writer
	format Format
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer, format Format) *Reporter {
	if format == "" {
		format = FormatText
	}
	return &Reporter{out: out, format: format}
}

// SiteList is the structured form of a site search.
type SiteList struct {
	Root  string   `json:"root" yaml:"root" toml:"root"`
	Sites []string `json:"sites" yaml:"sites" toml:"sites"`
}

// Sites writes the result of a site search. Text output is one directory per
// line, or a notice when nothing was found.
func (r *Reporter) Sites(root string, sites []string) error {
	if r.format != FormatText {
		if sites == nil {
			sites = []string{}
		}
		return r.encode(SiteList{Root: root, Sites: sites})
	}

	if len(sites) == 0 {
		fmt.Fprintf(r.out, "No Drupal sites found under %s\n", root)
		return nil
	}
	for _, site := range sites {
		fmt.Fprintln(r.out, site)
	}
	return nil
}

// DebugSummary is the structured form of an enable-debugging run.
type DebugSummary struct {
	Site     string          `json:"site" yaml:"site" toml:"site"`
	BackupID string          `json:"backup_id,omitempty" yaml:"backup_id,omitempty" toml:"backup_id,omitempty"`
	Settings *SettingsChange `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty"`
	Services *ServicesChange `json:"services,omitempty" yaml:"services,omitempty" toml:"services,omitempty"`
	Errors   []string        `json:"errors,omitempty" yaml:"errors,omitempty" toml:"errors,omitempty"`
}

// SettingsChange summarizes the settings step.
type SettingsChange struct {
	Path     string   `json:"path" yaml:"path" toml:"path"`
	Created  bool     `json:"created" yaml:"created" toml:"created"`
	Appended []string `json:"appended" yaml:"appended" toml:"appended"`

	OpenTagAdded bool `json:"open_tag_added,omitempty" yaml:"open_tag_added,omitempty" toml:"open_tag_added,omitempty"`
}

// ServicesChange summarizes the services step.
type ServicesChange struct {
	Path     string   `json:"path" yaml:"path" toml:"path"`
	Created  bool     `json:"created" yaml:"created" toml:"created"`
	Added    []string `json:"added" yaml:"added" toml:"added"`
	Kept     []string `json:"kept" yaml:"kept" toml:"kept"`
	Replaced []string `json:"replaced" yaml:"replaced" toml:"replaced"`
}

// Summarize converts a drupal.Report and the error returned with it.
func Summarize(rep *drupal.Report, runErr error) DebugSummary {
	var s DebugSummary
	if rep == nil {
		return s
	}
	s.Site = rep.SiteDir
	s.BackupID = rep.BackupID

	if rep.Settings != nil && rep.Settings.Complete {
		s.Settings = &SettingsChange{
			Path:     rep.Settings.Path,
			Created:  rep.Settings.Created,
			Appended: orEmpty(rep.Settings.Appended),

			OpenTagAdded: rep.Settings.OpenTagAdded,
		}
	}
	if rep.Services != nil && rep.Services.Written {
		s.Services = &ServicesChange{
			Path:     rep.Services.Path,
			Created:  rep.Services.Created,
			Added:    orEmpty(rep.Services.Added),
			Kept:     orEmpty(rep.Services.Kept),
			Replaced: orEmpty(rep.Services.Replaced),
		}
	}
	if runErr != nil {
		for _, err := range flatten(runErr) {
			s.Errors = append(s.Errors, err.Error())
		}
	}
	return s
}

// Debugging writes the outcome of an enable-debugging run.
func (r *Reporter) Debugging(rep *drupal.Report, runErr error) error {
	summary := Summarize(rep, runErr)
	if r.format != FormatText {
		return r.encode(summary)
	}

	if summary.BackupID != "" {
		r.line(color.FgHiBlack, "•", "backed up existing files as %s", summary.BackupID)
	}

	if st := summary.Settings; st != nil {
		switch {
		case st.Created:
			r.line(color.FgGreen, "✓", "created %s with %d debug line(s)", st.Path, len(st.Appended))
		case st.OpenTagAdded:
			r.line(color.FgYellow, "⚠", "added missing <?php tag and %d debug line(s) to %s", len(st.Appended), st.Path)
		case len(st.Appended) > 0:
			r.line(color.FgGreen, "✓", "appended %d debug line(s) to %s", len(st.Appended), st.Path)
		default:
			r.line(color.FgHiBlack, "•", "%s already up to date", st.Path)
		}
	}

	if sv := summary.Services; sv != nil {
		verb := "updated"
		if sv.Created {
			verb = "created"
		}
		r.line(color.FgGreen, "✓", "%s %s%s", verb, sv.Path, keyList(" added: ", sv.Added)+keyList(" replaced: ", sv.Replaced))
		if len(sv.Kept) > 0 {
			r.line(color.FgYellow, "⚠", "kept existing %s (use --merge-policy fragment to overwrite)", strings.Join(sv.Kept, ", "))
		}
	}

	for _, msg := range summary.Errors {
		r.line(color.FgRed, "✗", "%s", msg)
	}
	return nil
}

// BackupEntry is the structured form of one backup.
type BackupEntry struct {
	ID        string    `json:"id" yaml:"id" toml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" toml:"created_at"`
	Files     []string  `json:"files" yaml:"files" toml:"files"`
}

// BackupList is the structured form of a backup listing.
type BackupList struct {
	Site    string        `json:"site" yaml:"site" toml:"site"`
	Backups []BackupEntry `json:"backups" yaml:"backups" toml:"backups"`
}

// Backups writes the backups of site, newest first.
func (r *Reporter) Backups(site string, manifests []backup.Manifest) error {
	list := BackupList{Site: site, Backups: make([]BackupEntry, 0, len(manifests))}
	for _, m := range manifests {
		list.Backups = append(list.Backups, BackupEntry{ID: m.ID, CreatedAt: m.CreatedAt, Files: m.FileNames()})
	}

	if r.format != FormatText {
		return r.encode(list)
	}

	if len(list.Backups) == 0 {
		fmt.Fprintf(r.out, "No backups for %s\n", site)
		return nil
	}
	for _, b := range list.Backups {
		fmt.Fprintf(r.out, "%s  %s  %s\n",
			color.CyanString(b.ID),
			b.CreatedAt.Local().Format(time.DateTime),
			strings.Join(b.Files, ", "))
	}
	return nil
}

func (r *Reporter) line(c color.Attribute, icon, format string, args ...any) {
	fmt.Fprintf(r.out, "%s %s\n", color.New(c).Sprint(icon), fmt.Sprintf(format, args...))
}

func (r *Reporter) encode(v any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encoding JSON")
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encoding YAML")
		}
		return errors.Wrap(enc.Close(), "encoding YAML")
	case FormatTOML:
		return errors.Wrap(toml.NewEncoder(r.out).Encode(v), "encoding TOML")
	default:
		return errors.Newf("format %q cannot encode structured output", r.format)
	}
}

func keyList(label string, keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return " (" + strings.TrimSpace(label) + " " + strings.Join(keys, ", ") + ")"
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// flatten splits errors joined with errors.Join.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
