package handlers

import (
	"context"
	"errors"
	"sync"

	"prompt-enhancer/internal/enhancer"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/telegram"
)

type sentDocument struct {
	chatID int64
	name   string
	data   []byte
}

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []string
	keyboards []telegram.Keyboard
	edits     []string
	answers   []string
	documents []sentDocument
	images    map[string]llm.Image
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendTextWithKeyboard(_ int64, text string, kb telegram.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.keyboards = append(f.keyboards, kb)
	return nil
}

func (f *fakeMessenger) EditTextWithKeyboard(_ int64, _ int, text string, kb telegram.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	f.keyboards = append(f.keyboards, kb)
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ string, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
}

func (f *fakeMessenger) SendDocument(chatID int64, name string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, sentDocument{chatID: chatID, name: name, data: data})
	return nil
}

func (f *fakeMessenger) DownloadImage(_ context.Context, fileID string) (llm.Image, error) {
	img, ok := f.images[fileID]
	if !ok {
		return llm.Image{}, errors.New("file not found")
	}
	return img, nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeEnhancer struct {
	mu       sync.Mutex
	requests []enhancer.Request
}

func (f *fakeEnhancer) Enhance(_ context.Context, req enhancer.Request) enhancer.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return enhancer.Result{
		Positive: "enhanced " + req.Prompt,
		Negative: "blurry",
		Status:   "Main LLM: ok (stub, attempt 1/3)",
		Original: req.Prompt,
		Metadata: map[string]string{"platform": req.Platform},
	}
}
