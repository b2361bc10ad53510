package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

// ErrUnknownStyle indicates a preset name missing from the style file.
var ErrUnknownStyle = errors.New("unknown style preset")

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// StylePresets is the YAML style file:
//
//	default: midnight
//	presets:
//	  midnight:
//	    palette: ["#0b132b", "#1c2541", "#5bc0be"]
//	    font: IBM Plex Sans
//	    mood: calm technical
type StylePresets struct {
	Default string                  `yaml:"default"`
	Presets map[string]domain.Style `yaml:"presets"`
}

// LoadStylePresets parses path, rejecting unknown fields and invalid colors.
func LoadStylePresets(path string) (*StylePresets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading style file: %w", err)
	}

	var p StylePresets
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing style file %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid style file %s: %w", path, err)
	}
	return &p, nil
}

func (p *StylePresets) validate() error {
	if len(p.Presets) == 0 {
		return errors.New("no presets defined")
	}
	if p.Default != "" {
		if _, ok := p.Presets[p.Default]; !ok {
			return fmt.Errorf("default %q: %w", p.Default, ErrUnknownStyle)
		}
	}
	for name, s := range p.Presets {
		for _, c := range s.Palette {
			if !hexColor.MatchString(c) {
				return fmt.Errorf("preset %q: color %q is not a hex color", name, c)
			}
		}
	}
	return nil
}

// Names returns the preset names in sorted order.
func (p *StylePresets) Names() []string {
	names := make([]string, 0, len(p.Presets))
	for n := range p.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named preset merged over domain.DefaultStyle. An empty
// name selects the file default, or the built-in style when there is none.
func (p *StylePresets) Resolve(name string) (domain.Style, error) {
	if name == "" {
		name = p.Default
	}
	if name == "" {
		return domain.DefaultStyle(), nil
	}
	s, ok := p.Presets[name]
	if !ok {
		return domain.Style{}, fmt.Errorf("%q: %w", name, ErrUnknownStyle)
	}
	return s.Merge(domain.DefaultStyle()), nil
}

// ResolveStyle loads the configured style file, if any, and resolves the
// configured preset.
func (c Config) ResolveStyle() (domain.Style, error) {
	if c.StyleFile == "" {
		if c.Style != "" {
			return domain.Style{}, fmt.Errorf("style %q requested without BANANADECK_STYLE_FILE", c.Style)
		}
		return domain.DefaultStyle(), nil
	}
	presets, err := LoadStylePresets(c.StyleFile)
	if err != nil {
		return domain.Style{}, err
	}
	return presets.Resolve(c.Style)
}
