package drupal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/pkg/fileutil"
)

// LocalServicesFileName is the YAML services override written into each site.
const LocalServicesFileName = "services.local.yml"

// debugServicesYAML enables Twig debugging and cacheability headers and
// registers the null cache backend referenced by the settings directives.
const debugServicesYAML = `parameters:
  http.response.debug_cacheability_headers: true
  twig.config:
    cache: false
    debug: true
    auto_reload: true
services:
  cache.backend.null:
    class: Drupal\Core\Cache\NullBackendFactory
`

// debugFragment is debugServicesYAML parsed once. Merges clone its nodes.
var debugFragment = mustParseMapping(debugServicesYAML)

// MergePolicy decides which side wins when a top-level key exists both in
// services.local.yml and in the debug fragment.
type MergePolicy string

const (
	// MergeExistingWins keeps the developer's value for colliding keys.
	MergeExistingWins MergePolicy = "existing"

	// MergeFragmentWins replaces colliding keys with the debug fragment.
	MergeFragmentWins MergePolicy = "fragment"
)

// DefaultMergePolicy does not clobber manual edits.
const DefaultMergePolicy = MergeExistingWins

// MergePolicies returns the accepted policy names.
func MergePolicies() []string {
	return []string{string(MergeExistingWins), string(MergeFragmentWins)}
}

// ParseMergePolicy converts a policy name. The empty string yields
// DefaultMergePolicy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMergePolicy, nil
	case MergeExistingWins:
		return MergeExistingWins, nil
	case MergeFragmentWins:
		return MergeFragmentWins, nil
	default:
		return "", errors.Wrapf(ErrInvalidMergePolicy, "%q (valid: %s)", s, strings.Join(MergePolicies(), ", "))
	}
}

// MergeResult is the outcome of merging the debug fragment into a services
// document.
type MergeResult struct {
	// Document is the merged YAML document, ready to encode.
	Document *yaml.Node

	// Added lists fragment keys that were absent and have been inserted.
	Added []string

	// Kept lists colliding keys whose existing value was kept.
	Kept []string

	// Replaced lists colliding keys overwritten by the fragment.
	Replaced []string
}

// MergeServices merges the debug fragment into the YAML document in
// existing. Only top-level keys are considered: a colliding key is resolved
// as a whole according to policy, never merged recursively.
//
// A replaced value keeps its anchor so aliases to it still resolve. An
// anchor nested inside a replaced value and aliased elsewhere returns
// ErrParse, since writing the file would leave a dangling alias.
//
// Existing keys keep their order and comments; inserted fragment keys follow
// in fragment order. Empty, whitespace-only, comment-only and null documents
// count as an empty mapping. Anything else that is not a mapping returns
// ErrParse.
func MergeServices(existing []byte, policy MergePolicy) (*MergeResult, error) {
	doc, root, err := loadMapping(existing)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		index[root.Content[i].Value] = i + 1
	}

	result := &MergeResult{Document: doc}
	for i := 0; i+1 < len(debugFragment.Content); i += 2 {
		key, value := debugFragment.Content[i], debugFragment.Content[i+1]

		if idx, ok := index[key.Value]; ok {
			if policy == MergeFragmentWins {
				repl, err := replaceValue(doc, root.Content[idx], value)
				if err != nil {
					return nil, errors.Wrapf(err, "replacing %q", key.Value)
				}
				root.Content[idx] = repl
				result.Replaced = append(result.Replaced, key.Value)
			} else {
				result.Kept = append(result.Kept, key.Value)
			}
			continue
		}

		root.Content = append(root.Content, cloneNode(key), cloneNode(value))
		result.Added = append(result.Added, key.Value)
	}

	return result, nil
}

// ServicesResult describes what EnsureServicesOverrides wrote.
type ServicesResult struct {
	// Path is the services.local.yml that was written.
	Path string

	// Created is true when the file did not exist before.
	Created bool

	// Written is true once the merged document is on disk.
	Written bool

	MergeResult
}

// EnsureServicesOverrides merges the debug fragment into
// siteDir/services.local.yml using the Debugger's merge policy and rewrites
// the file in full. Malformed YAML returns ErrParse and leaves the file
// untouched; I/O failures are marked ErrFileAccess.
func (d *Debugger) EnsureServicesOverrides(siteDir string) (*ServicesResult, error) {
	file := filepath.Join(siteDir, LocalServicesFileName)
	result := &ServicesResult{Path: file}

	perm := settingsFilePerm
	var existing []byte

	info, err := d.fs.Stat(file)
	switch {
	case err == nil:
		perm = info.Mode().Perm()
		existing, err = fileutil.ReadFileWithLimit(d.fs, file)
		if err != nil {
			return result, fileAccessError(err, "reading %s", file)
		}
	case os.IsNotExist(err):
		result.Created = true
	default:
		return result, fileAccessError(err, "checking %s", file)
	}

	merged, err := MergeServices(existing, d.policy)
	if err != nil {
		return result, errors.Wrapf(err, "merging %s", file)
	}
	result.MergeResult = *merged

	if err := fileutil.AtomicWriteYAML(d.fs, file, merged.Document, perm); err != nil {
		return result, fileAccessError(err, "writing %s", file)
	}
	result.Written = true

	if len(merged.Kept) > 0 {
		d.logger.Info("kept existing services keys", "path", file, "keys", strings.Join(merged.Kept, ","))
	}
	d.logger.Info("wrote services file", "path", file,
		"added", len(merged.Added), "replaced", len(merged.Replaced), "policy", string(d.policy))

	return result, nil
}

// loadMapping parses data into a document node and returns it together with
// its top-level mapping, creating both when data holds no content.
func loadMapping(data []byte) (*yaml.Node, *yaml.Node, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, parseError(err, "parsing services YAML")
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if doc.Kind != yaml.DocumentNode {
		return nil, nil, errors.Wrapf(ErrParse, "unexpected YAML node kind %d", doc.Kind)
	}

	empty := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{empty}
		return &doc, empty, nil
	}

	root := doc.Content[0]
	switch {
	case root.Kind == yaml.MappingNode:
		return &doc, root, nil
	case root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null":
		empty.HeadComment = root.HeadComment
		empty.FootComment = root.FootComment
		doc.Content[0] = empty
		return &doc, empty, nil
	default:
		return nil, nil, errors.Wrapf(ErrParse, "services YAML must be a mapping, got %s", kindName(root))
	}
}

// replaceValue returns a clone of value to stand in for old inside doc.
func replaceValue(doc, old, value *yaml.Node) (*yaml.Node, error) {
	repl := cloneNode(value)
	repl.Anchor = old.Anchor

	nested := make(map[string]bool)
	for _, child := range old.Content {
		collectAnchors(child, nested)
	}
	if name := aliasOutside(doc, old, nested); name != "" {
		return nil, errors.Wrapf(ErrParse, "anchor &%s is used outside the replaced value", name)
	}
	return repl, nil
}

func collectAnchors(n *yaml.Node, into map[string]bool) {
	if n.Anchor != "" {
		into[n.Anchor] = true
	}
	for _, child := range n.Content {
		collectAnchors(child, into)
	}
}

// aliasOutside returns the first anchor in names referenced by an alias in n
// but outside skip, or "".
func aliasOutside(n, skip *yaml.Node, names map[string]bool) string {
	if n == skip || len(names) == 0 {
		return ""
	}
	if n.Kind == yaml.AliasNode && names[n.Value] {
		return n.Value
	}
	for _, child := range n.Content {
		if name := aliasOutside(child, skip, names); name != "" {
			return name
		}
	}
	return ""
}

func mustParseMapping(s string) *yaml.Node {
	_, root, err := loadMapping([]byte(s))
	if err != nil {
		panic(err)
	}
	return root
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Alias = cloneNode(n.Alias)
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unexpected node"
	}
}
