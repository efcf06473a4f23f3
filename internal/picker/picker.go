// Package picker lets the user choose a site directory interactively with
// a fuzzy finder.
package picker

import (
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/drupaldbg/internal/errors"
)

// ErrAborted indicates the user closed the finder without choosing.
var ErrAborted = errors.New("site selection aborted")

// ErrNoChoices indicates there was nothing to choose from.
var ErrNoChoices = errors.New("no sites to choose from")

// FindFunc matches fuzzyfinder.Find for a slice of strings.
type FindFunc func(items []string, label func(i int) string, opts ...fuzzyfinder.Option) (int, error)

// Picker selects one site directory.
type Picker struct {
	find    FindFunc
	preview func(site string) string
}

// Option configures a Picker.
type Option func(*Picker)

// WithFind replaces the terminal fuzzy finder.
func WithFind(f FindFunc) Option {
	return func(p *Picker) {
		if f != nil {
			p.find = f
		}
	}
}

// WithPreview shows preview(site) next to the highlighted site.
func WithPreview(preview func(site string) string) Option {
	return func(p *Picker) {
		p.preview = preview
	}
}

// New creates a Picker backed by go-fuzzyfinder.
func New(opts ...Option) *Picker {
	p := &Picker{
		find: func(items []string, label func(i int) string, opts ...fuzzyfinder.Option) (int, error) {
			return fuzzyfinder.Find(items, label, opts...)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pick returns the chosen site. A single site is returned without
// prompting.
func (p *Picker) Pick(sites []string) (string, error) {
	switch len(sites) {
	case 0:
		return "", ErrNoChoices
	case 1:
		return sites[0], nil
	}

	var opts []fuzzyfinder.Option
	opts = append(opts, fuzzyfinder.WithPromptString("site> "))
	if p.preview != nil {
		opts = append(opts, fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i < 0 || i >= len(sites) {
				return ""
			}
			return p.preview(sites[i])
		}))
	}

	idx, err := p.find(sites, func(i int) string { return sites[i] }, opts...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", ErrAborted
		}
		return "", errors.Wrap(err, "interactive site selection failed")
	}
	if idx < 0 || idx >= len(sites) {
		return "", errors.Newf("site selection returned index %d of %d", idx, len(sites))
	}

	return sites[idx], nil
}
