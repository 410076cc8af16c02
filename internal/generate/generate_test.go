package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/compiler"
	"prompt-enhancer/internal/retry"
)

func TestBudget(t *testing.T) {
	flux := catalog.Profile{MaxTokens: 400}
	cases := []struct {
		name       string
		profile    catalog.Profile
		creativity string
		model      string
		want       int
	}{
		{"platform default", flux, "subtle", "big-model", 400},
		{"creativity scales", flux, "wild", "", 600},
		{"unknown creativity", flux, "extreme", "", 400},
		{"no profile tokens", catalog.Profile{}, "", "", DefaultMaxTokens},
		{"small param count", flux, "wild", "llama-3.2-3b-instruct", 384},
		{"7b cap", catalog.Profile{MaxTokens: 900}, "bold", "qwen2.5-7b-instruct", 640},
		{"70b uncapped", catalog.Profile{MaxTokens: 900}, "subtle", "llama-3.3-70b", 900},
		{"mini hint", catalog.Profile{MaxTokens: 900}, "subtle", "phi-4-mini", 512},
		{"floor", catalog.Profile{MaxTokens: 100}, "subtle", "", TokenFloor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Budget(tc.profile, tc.creativity, tc.model))
		})
	}
}

func TestGenerateFirstAttemptSucceeds(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"  a lighthouse on a cliff  "}}
	f := &countingFactory{gen: gen}
	o := New(Options{Factory: f.build, Temperature: 0.7})

	out := o.Generate(context.Background(), compiler.Prompt{System: "sys", User: "usr"}, 600)

	require.True(t, out.OK())
	assert.Equal(t, "a lighthouse on a cliff", out.Text)
	assert.Equal(t, []bool{false}, f.builds)
	require.Len(t, gen.requests, 1)
	assert.Equal(t, 600, gen.requests[0].MaxTokens)
	assert.Equal(t, 0.7, gen.requests[0].Temperature)
	assert.Equal(t, "sys", gen.requests[0].System)

	w, ok := out.Winner()
	require.True(t, ok)
	assert.Equal(t, 1, w.Index)
	assert.Equal(t, "scripted", out.Backend)
	assert.Equal(t, "scripted-7b", out.Model)
}

func TestGenerateShrinksAndReinitialises(t *testing.T) {
	gen := &scriptedGenerator{
		errs:    []error{errDown, nil, nil},
		replies: []string{"", "   ", "finally"},
	}
	f := &countingFactory{gen: gen}
	o := New(Options{Factory: f.build})

	out := o.Generate(context.Background(), compiler.Prompt{}, 600)

	require.True(t, out.OK())
	assert.Equal(t, "finally", out.Text)
	assert.Equal(t, []bool{false, true, true}, f.builds)

	var got []int
	for _, r := range gen.requests {
		got = append(got, r.MaxTokens)
	}
	if diff := cmp.Diff([]int{600, 300, 256}, got); diff != "" {
		t.Errorf("token ceilings mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, out.Attempts, 3)
	assert.ErrorIs(t, out.Attempts[0].Err, errDown)
	assert.ErrorIs(t, out.Attempts[1].Err, retry.ErrEmptyText)
	assert.True(t, out.Attempts[2].OK)
}

func TestGenerateRetriesAtTokenFloor(t *testing.T) {
	for _, key := range []string{"pony", "sd_xl", "hunyuan_image", "qwen_image_edit"} {
		t.Run(key, func(t *testing.T) {
			budget := Budget(catalog.Default().Platform(key), "subtle", "")
			gen := &scriptedGenerator{
				errs:    []error{errDown},
				replies: []string{"", "score_9, a fox in snow"},
			}
			f := &countingFactory{gen: gen}
			o := New(Options{Factory: f.build})

			out := o.Generate(context.Background(), compiler.Prompt{}, budget)

			require.True(t, out.OK())
			assert.Equal(t, "score_9, a fox in snow", out.Text)
			assert.Equal(t, []bool{false, true}, f.builds)
			require.Len(t, out.Attempts, 2)
			assert.ErrorIs(t, out.Attempts[0].Err, errDown)
			assert.GreaterOrEqual(t, out.Attempts[1].MaxTokens, TokenFloor)
		})
	}
}

func TestGenerateTotalFailureIsQuiet(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errDown, errDown, errDown}}
	o := New(Options{Factory: (&countingFactory{gen: gen}).build})

	out := o.Generate(context.Background(), compiler.Prompt{}, 400)

	assert.False(t, out.OK())
	assert.Empty(t, out.Text)
	assert.ErrorIs(t, out.Err, errDown)
	assert.Len(t, out.Attempts, 3)
	_, ok := out.Winner()
	assert.False(t, ok)
}

func TestGenerateFactoryFailure(t *testing.T) {
	boom := errors.New("no model loaded")
	f := &countingFactory{err: boom}
	o := New(Options{Factory: f.build})

	out := o.Generate(context.Background(), compiler.Prompt{}, 400)

	assert.ErrorIs(t, out.Err, boom)
	assert.Len(t, f.builds, 3)
}

func TestGenerateWithoutBackend(t *testing.T) {
	out := New(Options{}).Generate(context.Background(), compiler.Prompt{}, 400)
	assert.ErrorIs(t, out.Err, ErrNoBackend)
	assert.Empty(t, out.Attempts)
}

func TestGenerateCancelledContext(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"never"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := New(Options{Factory: (&countingFactory{gen: gen}).build}).Generate(ctx, compiler.Prompt{}, 400)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Empty(t, gen.requests)
}
