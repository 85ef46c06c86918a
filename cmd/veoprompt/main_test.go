// cmd/veoprompt/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/models"
)

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags([]string{"a", "cat", "on", "a", "roof"})
	require.NoError(t, err)

	assert.Equal(t, "a cat on a roof", opts.idea)
	req := opts.request()
	assert.Equal(t, models.DefaultSelection().Style, req.Style)
	assert.Equal(t, models.DefaultSelection().Duration, req.Duration)
}

func TestRunSegmentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	require.NoError(t, os.WriteFile(path, []byte("Neon city.\nScene 1: Rain falls.\nScene 2: A car passes."), 0644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &options{segmentFile: path}, &out))
	assert.Equal(t, "Neon city. Scene 1: Rain falls.\n\nNeon city. Scene 2: A car passes.\n", out.String())
}

func TestRunSegmentFileStripsEmphasis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	require.NoError(t, os.WriteFile(path, []byte("**Consistent Character:** Lan\n**Scene 1:** walks.\n**Scene 2:** stops."), 0644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &options{segmentFile: path}, &out))
	assert.Equal(t, "Consistent Character: Lan Scene 1: walks.\n\nConsistent Character: Lan Scene 2: stops.\n", out.String())
}

func TestRunSegmentFileToOut(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "reply.txt")
	out := filepath.Join(dir, "veo_prompts.txt")
	require.NoError(t, os.WriteFile(in, []byte("Just one shot."), 0644))

	require.NoError(t, run(context.Background(), &options{segmentFile: in, out: out}, &bytes.Buffer{}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Just one shot.\n", string(data))
}

func TestRunDryRunPrintsInstruction(t *testing.T) {
	opts, err := parseFlags([]string{"-idea", "a lighthouse at dawn", "-style", "anime", "-dry-run"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), `User Idea: "a lighthouse at dawn"`)
	assert.Contains(t, out.String(), "---")
}

func TestRunRequiresIdea(t *testing.T) {
	err := run(context.Background(), &options{idea: "   "}, &bytes.Buffer{})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeInputMissing, appErr.Type)
}

func TestRunListsStyles(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &options{listStyles: true}, &out))
	assert.Contains(t, out.String(), "drone_footage")
}
