package settings

import (
	"fmt"

	"prompt-enhancer/internal/catalog"
)

var clauseTemplates = map[string]string{
	catalog.CameraAngle:     "shot from %s",
	catalog.Composition:     "composed with %s",
	catalog.LightingSource:  "lit by %s",
	catalog.LightingQuality: "with %s lighting",
	catalog.TimeOfDay:       "set during %s",
	catalog.Weather:         "under %s weather",
	catalog.ArtStyle:        "in %s style",
	catalog.GenreStyle:      "with a %s mood",
	catalog.ColorMood:       "in %s colors",
	catalog.DetailLevel:     "with %s detail",
	catalog.SubjectFraming:  "framed as a %s",
	catalog.SubjectPose:     "subject %s",
	catalog.CameraMovement:  "%s",
	catalog.Lens:            "captured through a %s",
}

// Clause renders a concrete scene setting as a short phrase, e.g.
// "set during dusk". Deferred and excluded settings have no clause.
func Clause(s Setting) (string, bool) {
	if !s.Concrete() {
		return "", false
	}
	tmpl, ok := clauseTemplates[s.Key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(tmpl, s.Value), true
}

// ClauseTemplate exposes the raw template so callers can check a text for
// any rendering of key.
func ClauseTemplate(key string) (string, bool) {
	tmpl, ok := clauseTemplates[key]
	return tmpl, ok
}

func (r Resolution) Clauses() []string {
	var out []string
	for _, s := range r.Scene() {
		if c, ok := Clause(s); ok {
			out = append(out, c)
		}
	}
	return out
}
