package compiler

import (
	"math/rand/v2"

	"prompt-enhancer/internal/catalog"
)

// Embellishment instructions per creativity tier. The lowest tier has none.
var brainstorms = map[string][]string{
	"balanced": {
		"Add one small, believable detail that gives the scene a sense of story.",
		"Introduce a subtle secondary element in the background that complements the subject.",
		"Give the atmosphere one unexpected but fitting sensory touch, such as a scent-suggesting haze or drifting particles.",
	},
	"bold": {
		"Invent a brief moment of action happening just before or after this scene and hint at it visually.",
		"Place the subject in a more striking variation of its setting while keeping it recognisable.",
		"Add a dramatic environmental element, like weather or light breaking through, that raises the stakes.",
		"Give the scene an unusual but coherent colour accent that becomes a focal point.",
	},
	"wild": {
		"Reimagine the setting as something surprising, for example a miniature world, a flooded city or a floating island, while keeping the subject intact.",
		"Blend the scene with an unexpected second genre and let that collision shape the details.",
		"Invent a short surreal twist, such as impossible scale or gravity, and describe it vividly.",
		"Turn one ordinary object in the scene into something fantastical that interacts with the subject.",
	},
}

// Brainstorm picks one embellishment for level, or "" for the lowest tier
// and unknown levels.
func Brainstorm(level string, rng *rand.Rand) string {
	if catalog.CreativityTier(level) <= 0 {
		return ""
	}
	pool := brainstorms[level]
	if len(pool) == 0 || rng == nil {
		return ""
	}
	return pool[rng.IntN(len(pool))]
}
