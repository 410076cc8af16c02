package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/enhancer"
	"prompt-enhancer/internal/export"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/report"
	"prompt-enhancer/internal/seed"
)

const (
	maxUploadBytes = 25 << 20
	webScope       = "web"
)

type enhancerService interface {
	Enhance(ctx context.Context, req enhancer.Request) enhancer.Result
}

type server struct {
	enh     enhancerService
	catalog *catalog.Catalog
	logger  *slog.Logger
	timeout time.Duration
}

type apiError struct {
	Error string `json:"error"`
}

type enhanceResponse struct {
	RequestID      string            `json:"request_id"`
	Positive       string            `json:"positive"`
	Negative       string            `json:"negative"`
	SettingsReport string            `json:"settings_report"`
	Status         string            `json:"status"`
	VisionCaption  string            `json:"vision_caption,omitempty"`
	SeedUsed       int64             `json:"seed_used"`
	SeedMode       string            `json:"seed_mode"`
	Report         report.Report     `json:"report"`
	Metadata       map[string]string `json:"metadata"`
}

type option struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type platformsResponse struct {
	Platforms  []option `json:"platforms"`
	Presets    []option `json:"presets"`
	Directives []option `json:"directives"`
	Controls   []string `json:"controls"`
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/enhance", s.handleEnhance).Methods(http.MethodPost)
	r.HandleFunc("/api/platforms", s.handlePlatforms).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	})
	r.Use(s.withLogging)
	return r
}

func (s *server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid form"})
			return
		}
	}

	req, err := parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res := s.enh.Enhance(ctx, req)
	writeJSON(w, http.StatusOK, enhanceResponse{
		RequestID:      res.RequestID,
		Positive:       res.Positive,
		Negative:       res.Negative,
		SettingsReport: res.SettingsReport,
		Status:         res.Status,
		VisionCaption:  res.VisionCaption,
		SeedUsed:       res.SeedUsed,
		SeedMode:       res.SeedMode,
		Report:         res.Report,
		Metadata:       res.Metadata,
	})
}

func parseRequest(r *http.Request) (enhancer.Request, error) {
	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		return enhancer.Request{}, errors.New("missing prompt")
	}

	req := enhancer.Request{
		Prompt:    prompt,
		Platform:  strings.TrimSpace(r.FormValue("platform")),
		Preset:    strings.TrimSpace(r.FormValue("preset")),
		Keywords:  export.ParseKeywords(r.FormValue("keywords")),
		Negatives: export.ParseKeywords(r.FormValue("negative")),
		SeedMode:  seed.ParseMode(r.FormValue("seed_mode")),
		Scope:     webScope,
	}
	if sid := strings.TrimSpace(r.FormValue("session")); sid != "" {
		req.Scope = webScope + ":" + sid
	}

	if raw := strings.TrimSpace(r.FormValue("seed")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return enhancer.Request{}, errors.New("seed must be an integer")
		}
		req.Seed = n
	}

	if raw := strings.TrimSpace(r.FormValue("settings")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Controls); err != nil {
			return enhancer.Request{}, errors.New("settings must be a JSON object of strings")
		}
	}

	refs, err := parseReferences(r)
	if err != nil {
		return enhancer.Request{}, err
	}
	req.References = refs
	return req, nil
}

func parseReferences(r *http.Request) ([]reference.Input, error) {
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["reference"]
	}
	if len(files) > reference.MaxReferences {
		return nil, fmt.Errorf("at most %d reference images are accepted", reference.MaxReferences)
	}

	var refs []reference.Input
	for i := range reference.MaxReferences {
		in := reference.Input{
			Index:           i + 1,
			Directive:       strings.TrimSpace(r.FormValue(fmt.Sprintf("directive_%d", i+1))),
			CaptionOverride: strings.TrimSpace(r.FormValue(fmt.Sprintf("caption_override_%d", i+1))),
		}
		fh := slotFile(r, i+1)
		if fh == nil && i < len(files) {
			fh = files[i]
		}
		if fh != nil {
			img, err := readImage(fh)
			if err != nil {
				return nil, fmt.Errorf("reference %d: %w", i+1, err)
			}
			in.Image = &img
		}
		if in.Image == nil && in.CaptionOverride == "" {
			continue
		}
		refs = append(refs, in)
	}
	return refs, nil
}

// slotFile is the upload sent as reference_<slot>, if any.
func slotFile(r *http.Request, slot int) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if fhs := r.MultipartForm.File[fmt.Sprintf("reference_%d", slot)]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}

func readImage(fh *multipart.FileHeader) (llm.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return llm.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return llm.Image{}, fmt.Errorf("read upload: %w", err)
	}

	mimeType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	return llm.Image{Data: data, MimeType: mimeType}, nil
}

func (s *server) handlePlatforms(w http.ResponseWriter, _ *http.Request) {
	resp := platformsResponse{Controls: catalog.ControlKeys()}
	for _, o := range s.catalog.Platforms() {
		resp.Platforms = append(resp.Platforms, option{Key: o.Key, Name: o.Name})
	}
	for _, o := range s.catalog.Presets() {
		resp.Presets = append(resp.Presets, option{Key: o.Key, Name: o.Name})
	}
	for _, key := range reference.DirectiveKeys() {
		resp.Directives = append(resp.Directives, option{Key: key, Name: reference.ParseDirective(key).Config().Label})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
