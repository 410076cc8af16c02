package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitByBytes(t *testing.T) {
	cases := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"exact split", "abcdef", 3, []string{"abc", "def"}},
		{"keeps runes whole", "ééé", 3, []string{"é", "é", "é"}},
		{"no limit", "abc", 0, []string{"abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitByBytes(tc.text, tc.max))
		})
	}
}

func TestTruncateByBytes(t *testing.T) {
	assert.Equal(t, "ab", truncateByBytes("abc", 2))
	assert.Equal(t, "é", truncateByBytes("éé", 3))
	assert.Equal(t, "abc", truncateByBytes("abc", 10))
}

func TestMimeOf(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16))

	assert.Equal(t, "image/webp", mimeOf("image/webp; charset=binary", nil))
	assert.Equal(t, "image/png", mimeOf("application/octet-stream", png))
	assert.Equal(t, "image/jpeg", mimeOf("", []byte{0x00, 0x01, 0x02}))
}

func TestNewKeyboardSkipsEmptyRows(t *testing.T) {
	kb := NewKeyboard(
		[]Button{{Text: "Flux", Data: "platform:flux"}, {Text: "SDXL", Data: "platform:sdxl"}},
		nil,
		[]Button{{Text: "Close", Data: "close"}},
	)
	assert.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "platform:sdxl", *kb.InlineKeyboard[0][1].CallbackData)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
