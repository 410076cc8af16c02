package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type NamedOption struct {
	Key  string
	Name string
}

// Catalog is the read-only lookup over platforms, presets and option pools.
// It is built once and never mutated afterwards, so concurrent reads are safe.
type Catalog struct {
	platforms map[Platform]Profile
	presets   map[string]Preset
	pools     map[string][]string
}

func Default() *Catalog {
	c := &Catalog{
		platforms: make(map[Platform]Profile, len(platformTable)),
		presets:   make(map[string]Preset, len(presetTable)),
		pools:     make(map[string][]string, len(defaultPools)),
	}
	for key, p := range platformTable {
		p = cloneProfile(p)
		p.Key = key
		p.QualityEmphasis = len(p.QualityTokens) > 0
		c.platforms[key] = p
	}
	for key, p := range presetTable {
		p = clonePreset(p)
		p.Key = key
		c.presets[key] = p
	}
	for key, pool := range defaultPools {
		c.pools[key] = append([]string(nil), pool...)
	}
	return c
}

type overrideFile struct {
	Platforms map[string]platformOverride `yaml:"platforms"`
	Pools     map[string][]string         `yaml:"pools"`
}

type platformOverride struct {
	Name            *string  `yaml:"name"`
	MaxWords        *int     `yaml:"max_words"`
	MaxTokens       *int     `yaml:"max_tokens"`
	Creativity      *string  `yaml:"creativity"`
	QualityEmphasis *bool    `yaml:"quality_emphasis"`
	QualityTokens   []string `yaml:"quality_tokens"`
	RequiredTokens  []string `yaml:"required_tokens"`
	Avoid           []string `yaml:"avoid"`
	Negative        *string  `yaml:"negative"`
}

// Load returns the default catalog patched with the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (*Catalog, error) {
	c := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	if err := c.apply(raw); err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) apply(raw []byte) error {
	var file overrideFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}

	for name, o := range file.Platforms {
		key, ok := ParsePlatform(name)
		if !ok {
			return fmt.Errorf("unknown platform %q", name)
		}
		p := c.platforms[key]
		if o.Name != nil {
			p.Name = *o.Name
		}
		if o.MaxWords != nil && *o.MaxWords > 0 {
			p.MaxWords = *o.MaxWords
		}
		if o.MaxTokens != nil && *o.MaxTokens > 0 {
			p.MaxTokens = *o.MaxTokens
		}
		if o.Creativity != nil {
			if CreativityTier(*o.Creativity) < 0 {
				return fmt.Errorf("platform %s: unknown creativity level %q", name, *o.Creativity)
			}
			p.Creativity = *o.Creativity
		}
		if o.QualityEmphasis != nil {
			p.QualityEmphasis = *o.QualityEmphasis
		}
		if o.QualityTokens != nil {
			p.QualityTokens = append([]string(nil), o.QualityTokens...)
		}
		if o.RequiredTokens != nil {
			p.RequiredTokens = append([]string(nil), o.RequiredTokens...)
		}
		if o.Avoid != nil {
			p.Avoid = append([]string(nil), o.Avoid...)
		}
		if o.Negative != nil {
			p.Negative = *o.Negative
		}
		c.platforms[key] = p
	}

	for key, extra := range file.Pools {
		if _, ok := c.pools[key]; !ok {
			return fmt.Errorf("unknown pool %q", key)
		}
		c.pools[key] = uniq(append(c.pools[key], extra...))
	}
	return nil
}

// Platform falls back to the default platform for unknown keys.
func (c *Catalog) Platform(key string) Profile {
	if k, ok := ParsePlatform(key); ok {
		return cloneProfile(c.platforms[k])
	}
	return cloneProfile(c.platforms[DefaultPlatform])
}

// Preset falls back to "custom" for unknown keys.
func (c *Catalog) Preset(key string) Preset {
	key = strings.ToLower(strings.TrimSpace(key))
	if p, ok := c.presets[key]; ok {
		return clonePreset(p)
	}
	return clonePreset(c.presets[DefaultPreset])
}

func (c *Catalog) Pool(key string) []string {
	return append([]string(nil), c.pools[key]...)
}

func (c *Catalog) Platforms() []NamedOption {
	out := make([]NamedOption, 0, len(platformOrder))
	for _, key := range platformOrder {
		if p, ok := c.platforms[key]; ok {
			out = append(out, NamedOption{Key: string(key), Name: p.Name})
		}
	}
	return out
}

func (c *Catalog) Presets() []NamedOption {
	out := make([]NamedOption, 0, len(presetOrder))
	for _, key := range presetOrder {
		if p, ok := c.presets[key]; ok {
			out = append(out, NamedOption{Key: key, Name: p.Description})
		}
	}
	return out
}

// Negative builds the negative prompt: platform base, platform-required
// negatives, video negatives for video flows, preset negatives, then user
// additions. Duplicates are dropped case-insensitively, first one wins.
func (c *Catalog) Negative(profile Profile, preset Preset, custom []string) string {
	var parts []string
	parts = append(parts, splitList(profile.Negative)...)
	parts = append(parts, profile.RequiredNegative...)
	if profile.Flow == FlowVideo {
		parts = append(parts, videoNegatives...)
	}
	parts = append(parts, preset.Negatives...)
	parts = append(parts, custom...)
	return strings.Join(uniq(parts), ", ")
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
