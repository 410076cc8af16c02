package reference

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"
	"strings"

	_ "golang.org/x/image/webp"
)

// Heuristics are cheap tonal and compositional descriptors computed from
// pixels. Width and Height are kept for orientation only and never leave
// this package as text.
type Heuristics struct {
	Width       int
	Height      int
	Orientation string
	Brightness  string
	Contrast    string
	Texture     string
	Palette     []string
	Temperature string
	Genre       string
}

// Decode reads JPEG, PNG, GIF or WebP bytes.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode reference image: %w", err)
	}
	return img, format, nil
}

const maxSamplesPerSide = 160

type namedColor struct {
	name    string
	r, g, b float64
}

var namedColors = []namedColor{
	{"black", 10, 10, 10},
	{"white", 245, 245, 245},
	{"gray", 128, 128, 128},
	{"red", 200, 30, 30},
	{"orange", 240, 140, 20},
	{"yellow", 240, 220, 40},
	{"green", 40, 160, 60},
	{"teal", 0, 128, 128},
	{"blue", 30, 60, 200},
	{"navy", 20, 30, 90},
	{"purple", 120, 50, 160},
	{"pink", 240, 130, 180},
	{"brown", 120, 75, 40},
	{"beige", 220, 200, 160},
}

type bucket struct {
	n       int
	r, g, b float64
}

func Analyze(img image.Image) Heuristics {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	h0 := Heuristics{Width: w, Height: h, Orientation: orientation(w, h)}
	if w == 0 || h == 0 {
		h0.Brightness, h0.Contrast, h0.Texture, h0.Temperature = "balanced", "low contrast", "smooth", "neutral"
		return h0
	}

	step := max(1, max(w, h)/maxSamplesPerSide)
	cols := (w + step - 1) / step
	rows := (h + step - 1) / step
	luma := make([]float64, cols*rows)

	buckets := make(map[int]*bucket)
	var sumL, sumR, sumB float64
	n := 0
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			r16, g16, b16, _ := img.At(bounds.Min.X+i*step, bounds.Min.Y+j*step).RGBA()
			r, g, b := float64(r16>>8), float64(g16>>8), float64(b16>>8)
			l := (0.299*r + 0.587*g + 0.114*b) / 255
			luma[j*cols+i] = l
			sumL += l
			sumR += r
			sumB += b
			n++

			key := int(r)>>6<<4 | int(g)>>6<<2 | int(b)>>6
			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.n++
			bk.r += r
			bk.g += g
			bk.b += b
		}
	}

	mean := sumL / float64(n)
	var variance float64
	for _, l := range luma {
		variance += (l - mean) * (l - mean)
	}
	std := math.Sqrt(variance / float64(n))

	edges := 0
	pairs := 0
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			l := luma[j*cols+i]
			if i+1 < cols && j+1 < rows {
				d := math.Abs(l-luma[j*cols+i+1]) + math.Abs(l-luma[(j+1)*cols+i])
				if d > 0.1 {
					edges++
				}
				pairs++
			}
		}
	}
	edgeDensity := 0.0
	if pairs > 0 {
		edgeDensity = float64(edges) / float64(pairs)
	}

	h0.Brightness = brightnessTier(mean)
	h0.Contrast = contrastTier(std)
	h0.Texture = textureTier(edgeDensity)
	h0.Palette = palette(buckets, 3)
	h0.Temperature = temperature((sumR - sumB) / float64(n) / 255)
	h0.Genre = genreHint(h0)
	return h0
}

func orientation(w, h int) string {
	if h == 0 {
		return "square"
	}
	ratio := float64(w) / float64(h)
	switch {
	case ratio > 1.3:
		return "landscape"
	case ratio < 0.77:
		return "portrait"
	default:
		return "square"
	}
}

func brightnessTier(mean float64) string {
	switch {
	case mean > 0.7:
		return "bright"
	case mean > 0.4:
		return "balanced"
	default:
		return "dark"
	}
}

func contrastTier(std float64) string {
	switch {
	case std > 0.25:
		return "high contrast"
	case std > 0.12:
		return "medium contrast"
	default:
		return "low contrast"
	}
}

func textureTier(density float64) string {
	switch {
	case density > 0.2:
		return "highly textured"
	case density > 0.08:
		return "moderately textured"
	default:
		return "smooth"
	}
}

func temperature(warmth float64) string {
	switch {
	case warmth > 0.06:
		return "warm"
	case warmth < -0.06:
		return "cool"
	default:
		return "neutral"
	}
}

// palette maps the k most populated colour buckets to their nearest named
// colours, most common first, without repeats.
func palette(buckets map[int]*bucket, k int) []string {
	type entry struct {
		key int
		b   *bucket
	}
	entries := make([]entry, 0, len(buckets))
	for key, b := range buckets {
		entries = append(entries, entry{key, b})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].b.n != entries[j].b.n {
			return entries[i].b.n > entries[j].b.n
		}
		return entries[i].key < entries[j].key
	})

	var out []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if len(out) == k {
			break
		}
		n := float64(e.b.n)
		name := nearestColor(e.b.r/n, e.b.g/n, e.b.b/n)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func nearestColor(r, g, b float64) string {
	best := namedColors[0].name
	bestDist := math.MaxFloat64
	for _, c := range namedColors {
		d := (r-c.r)*(r-c.r) + (g-c.g)*(g-c.g) + (b-c.b)*(b-c.b)
		if d < bestDist {
			best, bestDist = c.name, d
		}
	}
	return best
}

func genreHint(h Heuristics) string {
	hasAny := func(names ...string) bool {
		for _, p := range h.Palette {
			for _, n := range names {
				if p == n {
					return true
				}
			}
		}
		return false
	}

	switch {
	case h.Brightness == "dark" && h.Contrast == "high contrast":
		return "noir"
	case h.Contrast == "high contrast" && hasAny("purple", "pink", "teal"):
		return "cyberpunk"
	case h.Brightness == "dark":
		return "dramatic"
	case h.Brightness == "bright" && h.Contrast == "low contrast":
		return "minimalist"
	case h.Temperature == "warm" && h.Contrast != "high contrast" && hasAny("brown", "beige", "orange"):
		return "vintage"
	case h.Contrast == "high contrast":
		return "cinematic"
	default:
		return "documentary"
	}
}

func framing(orientation string) string {
	switch orientation {
	case "landscape":
		return "wide horizontal framing"
	case "portrait":
		return "tall vertical framing"
	default:
		return "balanced, centred framing"
	}
}

// notes turns heuristics into per-category text.
func (h Heuristics) notes() map[Category]string {
	out := map[Category]string{
		Lighting:    fmt.Sprintf("%s, %s lighting", h.Brightness, h.Contrast),
		Composition: framing(h.Orientation),
		Mood:        fmt.Sprintf("%s, %s atmosphere", h.Brightness, h.Temperature),
		Texture:     fmt.Sprintf("%s surfaces", h.Texture),
		Style:       fmt.Sprintf("%s, %s rendering", h.Texture, h.Contrast),
		Genre:       fmt.Sprintf("%s feel", h.Genre),
	}
	if len(h.Palette) > 0 {
		out[Palette] = fmt.Sprintf("palette of %s, %s temperature", joinAnd(h.Palette), h.Temperature)
	}
	return out
}

func (h Heuristics) summary() string {
	parts := []string{framing(h.Orientation), h.Brightness + " " + h.Contrast + " image"}
	if len(h.Palette) > 0 {
		parts = append(parts, "dominated by "+joinAnd(h.Palette))
	}
	parts = append(parts, h.Temperature+" tones", h.Genre+" feel")
	return strings.Join(parts, ", ")
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
