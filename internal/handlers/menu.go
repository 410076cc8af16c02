package handlers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/session"
	"prompt-enhancer/internal/telegram"
)

const (
	callbackPrefix = "pe"
	buttonsPerRow  = 2
)

// callbackData encodes an inline button payload bound to its owner, so
// nobody else in a group chat can press it.
func callbackData(ownerID int64, action string, args ...string) string {
	parts := append([]string{callbackPrefix, strconv.FormatInt(ownerID, 10), action}, args...)
	return strings.Join(parts, ":")
}

func (h *Handler) handleCallback(q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(q.Data), ":")
	if len(parts) < 3 || parts[0] != callbackPrefix {
		return nil
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		h.tg.AnswerCallback(q.ID, "This menu belongs to someone else.")
		return nil
	}

	action, args := parts[2], parts[3:]
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID
	scope := session.Scope(chatID, ownerID)
	username := q.From.UserName

	var (
		notice string
		kb     = mainKeyboard(ownerID)
	)
	switch action {
	case "menu":
		if len(args) > 0 {
			kb = h.submenu(ownerID, args[0])
		}
	case "platform":
		if len(args) > 0 {
			notice, err = h.setPlatform(scope, username, args[0])
		}
	case "preset":
		if len(args) > 0 {
			notice, err = h.setPreset(scope, username, args[0])
		}
	case "creativity":
		if len(args) > 0 {
			notice, err = h.setControl(scope, username, catalog.CreativeRandomness, args[0])
		}
	case "reset":
		h.sessions.Clear(scope)
		notice = "Settings reset"
	default:
		return nil
	}
	if err != nil {
		notice = err.Error()
	}

	h.tg.AnswerCallback(q.ID, notice)
	prefs := h.sessions.Snapshot(scope, username)
	return h.tg.EditTextWithKeyboard(chatID, msgID, h.settingsText(prefs), kb)
}

func (h *Handler) submenu(ownerID int64, name string) telegram.Keyboard {
	switch name {
	case "platform":
		return h.platformKeyboard(ownerID)
	case "preset":
		return h.presetKeyboard(ownerID)
	case "creativity":
		return creativityKeyboard(ownerID)
	default:
		return mainKeyboard(ownerID)
	}
}

func mainKeyboard(ownerID int64) telegram.Keyboard {
	return telegram.NewKeyboard(
		[]telegram.Button{
			{Text: "🎯 Platform", Data: callbackData(ownerID, "menu", "platform")},
			{Text: "🎨 Preset", Data: callbackData(ownerID, "menu", "preset")},
		},
		[]telegram.Button{
			{Text: "🎲 Creativity", Data: callbackData(ownerID, "menu", "creativity")},
			{Text: "♻️ Reset", Data: callbackData(ownerID, "reset")},
		},
	)
}

func (h *Handler) platformKeyboard(ownerID int64) telegram.Keyboard {
	var buttons []telegram.Button
	for _, o := range h.catalog.Platforms() {
		buttons = append(buttons, telegram.Button{Text: o.Name, Data: callbackData(ownerID, "platform", o.Key)})
	}
	return withBack(ownerID, buttons)
}

func (h *Handler) presetKeyboard(ownerID int64) telegram.Keyboard {
	var buttons []telegram.Button
	for _, o := range h.catalog.Presets() {
		buttons = append(buttons, telegram.Button{Text: o.Key, Data: callbackData(ownerID, "preset", o.Key)})
	}
	return withBack(ownerID, buttons)
}

func creativityKeyboard(ownerID int64) telegram.Keyboard {
	var buttons []telegram.Button
	for _, level := range []string{"auto", "subtle", "balanced", "bold", "wild", "none"} {
		buttons = append(buttons, telegram.Button{Text: level, Data: callbackData(ownerID, "creativity", level)})
	}
	return withBack(ownerID, buttons)
}

func withBack(ownerID int64, buttons []telegram.Button) telegram.Keyboard {
	var rows [][]telegram.Button
	for len(buttons) > 0 {
		n := min(buttonsPerRow, len(buttons))
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	rows = append(rows, []telegram.Button{{Text: "⬅️ Back", Data: callbackData(ownerID, "menu", "main")}})
	return telegram.NewKeyboard(rows...)
}

func (h *Handler) settingsText(p session.Prefs) string {
	profile := h.catalog.Platform(p.Platform)

	var b strings.Builder
	b.WriteString("⚙️ Current settings\n\n")
	fmt.Fprintf(&b, "Platform: %s\n", profile.Name)
	fmt.Fprintf(&b, "Preset: %s\n", orNone(p.Preset))
	creativity := p.Controls[catalog.CreativeRandomness]
	if creativity == "" {
		creativity = "platform default (" + profile.Creativity + ")"
	}
	fmt.Fprintf(&b, "Creativity: %s\n", creativity)
	for i, d := range p.Directives {
		if d == "" {
			d = "auto"
		}
		fmt.Fprintf(&b, "Reference %d: %s\n", i+1, d)
	}
	fmt.Fprintf(&b, "Seed: %d (%s)\n", p.Seed, p.SeedMode)
	fmt.Fprintf(&b, "Keywords: %s\n", orNone(strings.Join(p.Keywords, ", ")))
	fmt.Fprintf(&b, "Extra negatives: %s\n", orNone(strings.Join(p.Negatives, ", ")))

	var pinned []string
	for k, v := range p.Controls {
		if k == catalog.CreativeRandomness {
			continue
		}
		pinned = append(pinned, k+" = "+v)
	}
	sort.Strings(pinned)
	b.WriteString("Pinned controls: ")
	if len(pinned) == 0 {
		b.WriteString("none (all auto)")
	} else {
		b.WriteString("\n  " + strings.Join(pinned, "\n  "))
	}
	return b.String()
}
