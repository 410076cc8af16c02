// Package settings turns raw control values into resolved settings with a
// provenance tag per key.
package settings

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"prompt-enhancer/internal/catalog"
)

type Source int

const (
	SourceNone Source = iota
	SourceUser
	SourceRandom
	SourceAuto
	SourcePlatform
)

var sourceNames = map[Source]string{
	SourceNone:     "none",
	SourceUser:     "user",
	SourceRandom:   "random",
	SourceAuto:     "auto",
	SourcePlatform: "platform",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

const (
	ValueAuto   = "auto"
	ValueRandom = "random"
	ValueNone   = "none"

	AutoDisplay = "auto (LLM decides)"
)

// Keys listed here take any text; their pool only feeds random draws and
// mention inference.
var openKeys = map[string]bool{
	catalog.ArtStyle:   true,
	catalog.GenreStyle: true,
}

type Setting struct {
	Key    string
	Raw    string
	Value  string
	Source Source
}

// Concrete reports whether the setting carries a value that may be stated
// to the LLM as a requirement.
func (s Setting) Concrete() bool {
	if s.Value == "" {
		return false
	}
	switch s.Source {
	case SourceUser, SourceRandom, SourcePlatform:
		return true
	}
	return false
}

func (s Setting) Display() string {
	switch s.Source {
	case SourceAuto:
		return AutoDisplay
	case SourceNone:
		return ValueNone
	}
	return s.Value
}

func Label(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type Pools interface {
	Pool(key string) []string
}

type Resolution struct {
	order    []string
	settings map[string]Setting
	Notes    []string
}

func (r Resolution) Get(key string) (Setting, bool) {
	s, ok := r.settings[key]
	return s, ok
}

func (r Resolution) All() []Setting {
	out := make([]Setting, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.settings[k])
	}
	return out
}

// Scene returns the concrete settings that describe the image itself, in
// control order. Platform settings and the creativity level are excluded.
func (r Resolution) Scene() []Setting {
	var out []Setting
	for _, s := range r.All() {
		if catalog.IsPlatformKey(s.Key) || s.Key == catalog.CreativeRandomness {
			continue
		}
		if s.Concrete() {
			out = append(out, s)
		}
	}
	return out
}

func (r Resolution) Deferred() []Setting {
	var out []Setting
	for _, s := range r.All() {
		if s.Source == SourceAuto {
			out = append(out, s)
		}
	}
	return out
}

func (r Resolution) Value(key string) string {
	return r.settings[key].Value
}

// Creativity is the effective creativity level, or "" when excluded.
func (r Resolution) Creativity() string {
	return r.settings[catalog.CreativeRandomness].Value
}

func (r Resolution) Provenance() map[string]string {
	out := make(map[string]string, len(r.settings))
	for k, s := range r.settings {
		out[k] = s.Source.String()
	}
	return out
}

func (r *Resolution) set(s Setting) {
	if _, ok := r.settings[s.Key]; !ok {
		r.order = append(r.order, s.Key)
	}
	r.settings[s.Key] = s
}

func (r *Resolution) notef(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Resolve maps each supplied control to exactly one Setting. Random draws
// come from rng only, once per key. Platform keys are always filled from
// the profile, whatever was supplied, and an unsupplied creativity level
// takes the platform default.
func Resolve(raw map[string]string, profile catalog.Profile, pools Pools, rng *rand.Rand) Resolution {
	res := Resolution{settings: make(map[string]Setting, len(raw)+len(catalog.PlatformKeys))}

	for _, key := range orderedKeys(raw) {
		value := strings.TrimSpace(raw[key])
		switch {
		case catalog.IsPlatformKey(key):
			res.notef("%s is fixed by the platform; %q ignored", Label(key), value)
		case key == catalog.CreativeRandomness:
			res.set(resolveCreativity(&res, value, profile, pools, rng))
		case !knownControl(key):
			res.set(Setting{Key: key, Raw: value, Source: SourceNone})
			res.notef("unknown control %q ignored", key)
		default:
			res.set(resolveControl(&res, key, value, pools.Pool(key), rng))
		}
	}

	if _, ok := res.settings[catalog.CreativeRandomness]; !ok {
		res.set(Setting{Key: catalog.CreativeRandomness, Value: profile.Creativity, Source: SourcePlatform})
	}
	res.set(Setting{Key: catalog.LengthMode, Value: profile.OptimalLength, Source: SourcePlatform})
	res.set(Setting{Key: catalog.DetailMode, Value: profile.DetailMode, Source: SourcePlatform})
	res.set(Setting{Key: catalog.QualityEmphasis, Value: strconv.FormatBool(profile.QualityEmphasis), Source: SourcePlatform})
	return res
}

func resolveControl(res *Resolution, key, value string, pool []string, rng *rand.Rand) Setting {
	s := Setting{Key: key, Raw: value}
	switch strings.ToLower(value) {
	case "", ValueAuto:
		s.Source = SourceAuto
	case ValueNone:
		s.Source = SourceNone
	case ValueRandom:
		if len(pool) == 0 {
			res.notef("%s has no option pool; random treated as auto", Label(key))
			s.Source = SourceAuto
			break
		}
		s.Value = pool[rng.IntN(len(pool))]
		s.Source = SourceRandom
	default:
		if canonical, ok := match(value, pool); ok {
			s.Value = canonical
			s.Source = SourceUser
			break
		}
		if openKeys[key] || len(pool) == 0 {
			s.Value = value
			s.Source = SourceUser
			break
		}
		res.notef("%s: unknown option %q, left to the LLM", Label(key), value)
		s.Source = SourceAuto
	}
	return s
}

func resolveCreativity(res *Resolution, value string, profile catalog.Profile, pools Pools, rng *rand.Rand) Setting {
	s := Setting{Key: catalog.CreativeRandomness, Raw: value}
	switch strings.ToLower(value) {
	case ValueNone:
		s.Source = SourceNone
	case ValueRandom:
		pool := pools.Pool(catalog.CreativeRandomness)
		if len(pool) > 0 {
			s.Value = pool[rng.IntN(len(pool))]
			s.Source = SourceRandom
			break
		}
		fallthrough
	case "", ValueAuto:
		s.Value = profile.Creativity
		s.Source = SourcePlatform
	default:
		lvl := strings.ToLower(value)
		if catalog.CreativityTier(lvl) < 0 {
			res.notef("Creative Randomness: unknown level %q, using platform default %s", value, profile.Creativity)
			s.Value = profile.Creativity
			s.Source = SourcePlatform
			break
		}
		s.Value = lvl
		s.Source = SourceUser
	}
	return s
}

func match(value string, pool []string) (string, bool) {
	if alias, ok := catalog.Aliases[strings.ToLower(value)]; ok {
		value = alias
	}
	for _, opt := range pool {
		if strings.EqualFold(opt, value) {
			return opt, true
		}
	}
	return "", false
}

func knownControl(key string) bool {
	for _, k := range catalog.ControlKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// orderedKeys yields known controls in catalog order, then the rest sorted.
func orderedKeys(raw map[string]string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, k := range catalog.ControlKeys() {
		if _, ok := raw[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range raw {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
