package handlers

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/export"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/seed"
	"prompt-enhancer/internal/session"
)

const helpText = "🎬 Prompt Enhancer\n\n" +
	"Send a short idea and I turn it into a full prompt for your image or video model.\n" +
	"Send a photo (or an album of two) with a caption to use them as references.\n\n" +
	"Commands:\n" +
	"/platform <key> - target model\n" +
	"/preset <key> - style preset\n" +
	"/creativity <subtle|balanced|bold|wild> - how far the LLM may go\n" +
	"/directive <1|2> <key> - how a reference photo is used\n" +
	"/set <control> <value|auto> - pin a setting\n" +
	"/seed <n> [fixed|randomize|increment|decrement]\n" +
	"/keywords <a, b> - tokens forced into the prompt\n" +
	"/negative <a, b> - extra negative terms\n" +
	"/settings - current settings menu\n" +
	"/save - last result as a file\n" +
	"/reset - forget everything"

func (h *Handler) handleCommand(chatID, userID int64, scope, username string, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText)
	case "platform":
		if args == "" {
			return h.tg.SendTextWithKeyboard(chatID, "Choose a platform:", h.platformKeyboard(userID))
		}
		return h.reply(chatID, h.setPlatform(scope, username, args))
	case "preset":
		if args == "" {
			return h.tg.SendTextWithKeyboard(chatID, "Choose a preset:", h.presetKeyboard(userID))
		}
		return h.reply(chatID, h.setPreset(scope, username, args))
	case "creativity":
		if args == "" {
			return h.tg.SendTextWithKeyboard(chatID, "Choose a creativity level:", creativityKeyboard(userID))
		}
		return h.reply(chatID, h.setControl(scope, username, catalog.CreativeRandomness, args))
	case "directive":
		return h.reply(chatID, h.setDirective(scope, username, args))
	case "set":
		key, value, _ := strings.Cut(args, " ")
		if key == "" {
			return h.tg.SendText(chatID, "Usage: /set <control> <value|auto>\nControls: "+strings.Join(catalog.ControlKeys(), ", "))
		}
		return h.reply(chatID, h.setControl(scope, username, key, value))
	case "seed":
		return h.reply(chatID, h.setSeed(scope, username, args))
	case "keywords":
		h.sessions.Update(scope, username, func(p *session.Prefs) { p.Keywords = export.ParseKeywords(args) })
		return h.tg.SendText(chatID, "✅ Keywords: "+orNone(strings.Join(export.ParseKeywords(args), ", ")))
	case "negative":
		h.sessions.Update(scope, username, func(p *session.Prefs) { p.Negatives = export.ParseKeywords(args) })
		return h.tg.SendText(chatID, "✅ Extra negatives: "+orNone(strings.Join(export.ParseKeywords(args), ", ")))
	case "settings":
		prefs := h.sessions.Snapshot(scope, username)
		return h.tg.SendTextWithKeyboard(chatID, h.settingsText(prefs), mainKeyboard(userID))
	case "save":
		return h.save(chatID, scope)
	case "reset":
		h.sessions.Clear(scope)
		h.last.Delete(scope)
		return h.tg.SendText(chatID, "✅ Settings and history cleared.")
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

// reply sends a ✅ line on success and a ❌ line with the error otherwise.
func (h *Handler) reply(chatID int64, text string, err error) error {
	if err != nil {
		return h.tg.SendText(chatID, "❌ "+err.Error())
	}
	return h.tg.SendText(chatID, "✅ "+text)
}

func (h *Handler) setPlatform(scope, username, value string) (string, error) {
	key, ok := catalog.ParsePlatform(value)
	if !ok {
		return "", fmt.Errorf("unknown platform %q. Options: %s", value, strings.Join(optionKeys(h.catalog.Platforms()), ", "))
	}
	h.sessions.Update(scope, username, func(p *session.Prefs) { p.Platform = string(key) })
	return "Platform: " + h.catalog.Platform(string(key)).Name, nil
}

func (h *Handler) setPreset(scope, username, value string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if !slices.Contains(optionKeys(h.catalog.Presets()), key) {
		return "", fmt.Errorf("unknown preset %q. Options: %s", value, strings.Join(optionKeys(h.catalog.Presets()), ", "))
	}
	h.sessions.Update(scope, username, func(p *session.Prefs) { p.Preset = key })
	return "Preset: " + key, nil
}

func (h *Handler) setControl(scope, username, key, value string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if !slices.Contains(catalog.ControlKeys(), key) {
		return "", fmt.Errorf("unknown control %q", key)
	}
	if key == catalog.CreativeRandomness && !validCreativity(value) {
		return "", fmt.Errorf("unknown creativity level %q", value)
	}

	h.sessions.Update(scope, username, func(p *session.Prefs) {
		if value == "" || strings.EqualFold(value, "auto") {
			delete(p.Controls, key)
			return
		}
		p.Controls[key] = value
	})
	if value == "" || strings.EqualFold(value, "auto") {
		return key + ": auto", nil
	}
	return key + ": " + value, nil
}

func (h *Handler) setDirective(scope, username, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", fmt.Errorf("usage: /directive <1|2> <key>. Keys: %s", strings.Join(reference.DirectiveKeys(), ", "))
	}
	slot, err := strconv.Atoi(fields[0])
	if err != nil || slot < 1 || slot > reference.MaxReferences {
		return "", fmt.Errorf("reference slot must be 1 or %d", reference.MaxReferences)
	}
	raw := strings.Join(fields[1:], " ")
	d := reference.ParseDirective(raw)
	if d == reference.DirectiveAuto && !strings.EqualFold(raw, "auto") {
		return "", fmt.Errorf("unknown directive %q. Keys: %s", raw, strings.Join(reference.DirectiveKeys(), ", "))
	}

	h.sessions.Update(scope, username, func(p *session.Prefs) { p.Directives[slot-1] = d.String() })
	return fmt.Sprintf("Reference %d: %s", slot, d.Config().Label), nil
}

func (h *Handler) setSeed(scope, username, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", fmt.Errorf("usage: /seed <n> [fixed|randomize|increment|decrement]")
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("seed must be a number")
	}
	mode := seed.Fixed
	if len(fields) > 1 {
		mode = seed.ParseMode(fields[1])
	}
	n = seed.Clamp(n)

	h.sessions.Update(scope, username, func(p *session.Prefs) {
		p.Seed = n
		p.SeedMode = mode
	})
	return fmt.Sprintf("Seed: %d (%s)", n, mode), nil
}

func (h *Handler) save(chatID int64, scope string) error {
	res, ok := h.lastResult(scope)
	if !ok {
		return h.tg.SendText(chatID, "❌ Nothing to save yet. Send a prompt first.")
	}
	now := h.now()
	body := export.Format(res, now)
	return h.tg.SendDocument(chatID, export.FileName(res.Original, now), []byte(body), "Saved prompt")
}

func validCreativity(value string) bool {
	switch v := strings.ToLower(value); v {
	case "", "auto", "none":
		return true
	default:
		return catalog.CreativityTier(v) >= 0
	}
}

func optionKeys(opts []catalog.NamedOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Key
	}
	return out
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
