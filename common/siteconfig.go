package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Field is a single key to set in the site config
type Field struct {
	Key   string
	Value any
}

// ChangeKind tells what Patch did with a field
type ChangeKind int

const (
	PatchReplaced ChangeKind = iota
	PatchAppended
	// PatchSkipped marks a key that had no line and may not be appended
	PatchSkipped
)

func (k ChangeKind) String() string {
	return [...]string{"replaced", "appended", "skipped"}[k]
}

// PatchChange records the outcome for one field
type PatchChange struct {
	Key  string
	Kind ChangeKind
	Line string
}

// SiteConfig is the site configuration file held as plain text, so
// comments and layout survive patching.
type SiteConfig struct {
	fs   afero.Fs
	Path string
	Text string
}

// LoadSiteConfig reads the whole site config file
func LoadSiteConfig(fs afero.Fs, path string) (*SiteConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site config: %w", err)
	}

	return &SiteConfig{fs: fs, Path: path, Text: string(data)}, nil
}

// Apply patches the text in memory
func (c *SiteConfig) Apply(fields []Field, appendable []string) []PatchChange {
	var changes []PatchChange
	c.Text, changes = Patch(c.Text, fields, appendable)
	return changes
}

// Save writes the text back in one go
func (c *SiteConfig) Save() error {
	if err := afero.WriteFile(c.fs, c.Path, []byte(c.Text), 0644); err != nil {
		return fmt.Errorf("failed to write site config: %w", err)
	}
	return nil
}

// Valid reports whether the text still parses as YAML
func (c *SiteConfig) Valid() error {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(c.Text), &doc); err != nil {
		return fmt.Errorf("site config is not valid yaml: %w", err)
	}
	return nil
}

// Patch sets every field on its own "key: value" line. The first line
// matching the key is replaced; a key without a line is appended only
// when listed in appendable and "key:" appears nowhere in the text.
// Fields are applied in order on the progressively updated text.
func Patch(text string, fields []Field, appendable []string) (string, []PatchChange) {
	changes := make([]PatchChange, 0, len(fields))

	for _, f := range fields {
		line := f.Key + ": " + FormatValue(f.Value)
		re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(f.Key) + `\s*:.*$`)

		if loc := re.FindStringIndex(text); loc != nil {
			text = text[:loc[0]] + line + text[loc[1]:]
			changes = append(changes, PatchChange{Key: f.Key, Kind: PatchReplaced, Line: line})
			continue
		}

		if lo.Contains(appendable, f.Key) && !strings.Contains(text, f.Key+":") {
			text += "\n" + line
			changes = append(changes, PatchChange{Key: f.Key, Kind: PatchAppended, Line: line})
			continue
		}

		changes = append(changes, PatchChange{Key: f.Key, Kind: PatchSkipped})
	}

	return text, changes
}

// FormatValue renders a value for a config line. Strings holding a colon,
// a newline or a double quote are JSON-quoted, other strings stay bare.
// Empty and nil values become "".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return `""`
	case string:
		if val == "" {
			return `""`
		}
		if strings.ContainsAny(val, ":\n\"") {
			return quote(val)
		}
		return val
	case bool:
		if !val {
			return `""`
		}
		return "true"
	case int:
		if val == 0 {
			return `""`
		}
	case float64:
		if val == 0 {
			return `""`
		}
	}
	return fmt.Sprint(v)
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Sprintf("%q", s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
