package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/enhancer"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/mediagroup"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/session"
	"prompt-enhancer/internal/telegram"
)

const lastResultTTL = time.Hour

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	SendTyping(chatID int64)
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.Keyboard) error
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb telegram.Keyboard) error
	AnswerCallback(callbackID, text string)
	SendDocument(chatID int64, name string, data []byte, caption string) error
	DownloadImage(ctx context.Context, fileID string) (llm.Image, error)
}

type Enhancer interface {
	Enhance(ctx context.Context, req enhancer.Request) enhancer.Result
}

type Options struct {
	Telegram Messenger
	Enhancer Enhancer
	Catalog  *catalog.Catalog
	Sessions *session.Store
	Logger   *slog.Logger
	// Now is the clock used for export timestamps. Nil means time.Now.
	Now func() time.Time
}

type Handler struct {
	tg         Messenger
	enh        Enhancer
	catalog    *catalog.Catalog
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
	last       *cache.Cache
	now        func() time.Time
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Handler{
		tg:       opts.Telegram,
		enh:      opts.Enhancer,
		catalog:  opts.Catalog,
		sessions: opts.Sessions,
		logger:   logger,
		last:     cache.New(lastResultTTL, 10*time.Minute),
		now:      now,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	scope := session.Scope(chatID, msg.From.ID)
	username := msg.From.UserName

	if msg.IsCommand() {
		return h.handleCommand(chatID, msg.From.ID, scope, username, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, msg.From.ID, scope, username, msg)
	}

	if msg.Text != "" {
		return h.enhance(ctx, chatID, scope, username, msg.Text, nil, 0)
	}

	return nil
}

func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	scope := session.Scope(group.ChatID, group.UserID)
	if err := h.processPhotos(ctx, group.ChatID, scope, group.Username, group.Caption, group.FileIDs, group.Dropped); err != nil {
		h.logger.Error("media group processing failed", "scope", scope, "err", err)
	}
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, scope, username string, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     username,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       photo.FileID,
		})
		return nil
	}

	return h.processPhotos(ctx, chatID, scope, username, msg.Caption, []string{photo.FileID}, 0)
}

func (h *Handler) processPhotos(ctx context.Context, chatID int64, scope, username, caption string, fileIDs []string, dropped int) error {
	if strings.TrimSpace(caption) == "" {
		return h.tg.SendText(chatID, "❌ Add a caption describing what to generate. The photos are used as references.")
	}
	h.tg.SendTyping(chatID)

	images := make([]llm.Image, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		eg.Go(func() error {
			img, err := h.tg.DownloadImage(egCtx, fileID)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "scope", scope, "err", err)
		return h.tg.SendText(chatID, "❌ Could not download the photo. Please send it again.")
	}

	prefs := h.sessions.Snapshot(scope, username)
	refs := make([]reference.Input, 0, len(images))
	for i := range images {
		directive := ""
		if i < len(prefs.Directives) {
			directive = prefs.Directives[i]
		}
		refs = append(refs, reference.Input{Index: i + 1, Image: &images[i], Directive: directive})
	}

	return h.enhance(ctx, chatID, scope, username, caption, refs, dropped)
}

func (h *Handler) enhance(ctx context.Context, chatID int64, scope, username, text string, refs []reference.Input, dropped int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	h.tg.SendTyping(chatID)

	prefs := h.sessions.Snapshot(scope, username)
	res := h.enh.Enhance(ctx, enhancer.Request{
		Prompt:     text,
		Platform:   prefs.Platform,
		Preset:     prefs.Preset,
		Controls:   prefs.Controls,
		References: refs,
		Keywords:   prefs.Keywords,
		Negatives:  prefs.Negatives,
		Seed:       prefs.Seed,
		SeedMode:   prefs.SeedMode,
		Scope:      scope,
	})
	h.last.Set(scope, res, cache.DefaultExpiration)

	if dropped > 0 {
		_ = h.tg.SendText(chatID, fmt.Sprintf("ℹ️ Only the first %d photos are used as references; %d ignored.", mediagroup.DefaultMaxItems, dropped))
	}
	return h.tg.SendText(chatID, formatResult(res))
}

func formatResult(res enhancer.Result) string {
	var b strings.Builder
	b.WriteString("✨ Positive prompt:\n")
	b.WriteString(res.Positive)
	if res.Negative != "" {
		b.WriteString("\n\n🚫 Negative prompt:\n")
		b.WriteString(res.Negative)
	}
	if res.VisionCaption != "" {
		b.WriteString("\n\n👁 Reference caption:\n")
		b.WriteString(res.VisionCaption)
	}
	b.WriteString("\n\nℹ️ ")
	b.WriteString(res.Status)
	return b.String()
}

func (h *Handler) lastResult(scope string) (enhancer.Result, bool) {
	v, ok := h.last.Get(scope)
	if !ok {
		return enhancer.Result{}, false
	}
	res, ok := v.(enhancer.Result)
	return res, ok
}
