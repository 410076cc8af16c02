package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prompt-enhancer/internal/app"
	"prompt-enhancer/internal/config"
	"prompt-enhancer/internal/enhancer"
	"prompt-enhancer/internal/export"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/seed"
)

type options struct {
	prompt          string
	platform        string
	preset          string
	settings        []string
	refs            []string
	captionOverride []string
	keywords        string
	negative        string
	seed            int64
	seedMode        string
	backend         string
	endpoint        string
	model           string
	saveDir         string
	json            bool
	logLevel        string
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "enhancer [prompt]",
		Short: "Expand a short idea into a platform-tuned image or video prompt",
		Long: `enhancer turns a short prompt into a detailed positive and negative prompt
for the chosen generation platform, using a local or hosted LLM when one is
reachable and a deterministic fallback when it is not.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.prompt == "" {
				opts.prompt = args[0]
			}
			return runEnhance(cmd, opts)
		},
	}

	addBackendFlags(root, &opts)

	f := root.Flags()
	f.StringVarP(&opts.prompt, "prompt", "p", "", "base prompt to enhance")
	f.StringVar(&opts.platform, "platform", "flux", "target platform key (see 'enhancer platforms')")
	f.StringVar(&opts.preset, "preset", "custom", "style preset key")
	f.StringArrayVar(&opts.settings, "set", nil, "control override as key=value, repeatable")
	f.StringArrayVar(&opts.refs, "ref", nil, "reference image as path[:directive], up to 2")
	f.StringArrayVar(&opts.captionOverride, "caption-override", nil, "caption used instead of vision for the matching --ref")
	f.StringVar(&opts.keywords, "keywords", "", "comma-separated tokens forced into the prompt")
	f.StringVar(&opts.negative, "negative", "", "comma-separated extra negative terms")
	f.Int64Var(&opts.seed, "seed", 0, "seed for randomised choices")
	f.StringVar(&opts.seedMode, "seed-mode", "fixed", "fixed, randomize, increment or decrement")
	f.StringVar(&opts.saveDir, "save-dir", "", "write the result to a timestamped file in this directory")
	f.BoolVar(&opts.json, "json", false, "print the full report as JSON")

	root.AddCommand(newPlatformsCmd(), newPingCmd(&opts))
	return root
}

func addBackendFlags(cmd *cobra.Command, opts *options) {
	f := cmd.PersistentFlags()
	f.StringVar(&opts.backend, "backend", "", "LLM backend: lm_studio, ollama or gemini (default from LLM_BACKEND)")
	f.StringVar(&opts.endpoint, "endpoint", "", "backend endpoint URL (default from LLM_ENDPOINT)")
	f.StringVar(&opts.model, "model", "", "model name or 'auto' (default from LLM_MODEL)")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")
}

// loadConfig reads env config and applies backend flag overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(config.HostCLI)
	if err != nil {
		return config.Config{}, err
	}
	if opts.backend != "" {
		kind, ok := llm.ParseKind(opts.backend)
		if !ok {
			return config.Config{}, fmt.Errorf("unknown backend %q", opts.backend)
		}
		if kind == llm.Gemini && cfg.Text.GeminiAPIKey == "" {
			return config.Config{}, errors.New("GEMINI_API_KEY is required for the gemini backend")
		}
		cfg.Text.Kind = kind
	}
	if opts.endpoint != "" {
		cfg.Text.Endpoint = opts.endpoint
	}
	if opts.model != "" {
		cfg.Text.Model = opts.model
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.ToLower(opts.logLevel)
	}
	return cfg, nil
}

func runEnhance(cmd *cobra.Command, opts options) error {
	if strings.TrimSpace(opts.prompt) == "" {
		return errors.New("a prompt is required (--prompt or first argument)")
	}
	controls, err := parseSettings(opts.settings)
	if err != nil {
		return err
	}
	refs, err := loadReferences(opts.refs, opts.captionOverride)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.LogLevel)

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Enhancer.Enhance(cmd.Context(), enhancer.Request{
		Prompt:     opts.prompt,
		Platform:   opts.platform,
		Preset:     opts.preset,
		Controls:   controls,
		References: refs,
		Keywords:   export.ParseKeywords(opts.keywords),
		Negatives:  export.ParseKeywords(opts.negative),
		Seed:       opts.seed,
		SeedMode:   seed.ParseMode(opts.seedMode),
		Scope:      "cli",
	})

	out := cmd.OutOrStdout()
	if opts.json {
		data, err := res.Report.JSON()
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printResult(out, res)
	}

	if opts.saveDir != "" {
		path, err := export.Save(opts.saveDir, opts.prompt, res, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved to %s\n", path)
	}
	return nil
}

func printResult(w io.Writer, res enhancer.Result) {
	fmt.Fprintf(w, "POSITIVE:\n%s\n\n", res.Positive)
	fmt.Fprintf(w, "NEGATIVE:\n%s\n\n", res.Negative)
	fmt.Fprintln(w, res.SettingsReport)
	fmt.Fprintf(w, "\nSTATUS: %s\n", res.Status)
}

// parseSettings turns repeated key=value flags into a control map.
func parseSettings(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", v)
		}
		out[strings.ToLower(key)] = strings.TrimSpace(value)
	}
	return out, nil
}

// loadReferences reads path[:directive] entries. The directive is whatever
// follows the last colon, when that parses as a known directive.
func loadReferences(values, overrides []string) ([]reference.Input, error) {
	if len(values) > reference.MaxReferences {
		return nil, fmt.Errorf("at most %d --ref values are supported", reference.MaxReferences)
	}
	refs := make([]reference.Input, 0, len(values))
	for i, v := range values {
		path, directive := splitRef(v)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read reference %d: %w", i+1, err)
		}
		in := reference.Input{
			Index:     i + 1,
			Image:     &llm.Image{Data: data},
			Directive: directive,
		}
		if i < len(overrides) {
			in.CaptionOverride = strings.TrimSpace(overrides[i])
		}
		refs = append(refs, in)
	}
	return refs, nil
}

func splitRef(value string) (path, directive string) {
	i := strings.LastIndex(value, ":")
	if i <= 0 {
		return value, ""
	}
	d := value[i+1:]
	if reference.ParseDirective(d) == reference.DirectiveAuto && !strings.EqualFold(strings.TrimSpace(d), "auto") {
		return value, ""
	}
	return value[:i], d
}
