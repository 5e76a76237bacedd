package ocr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognize(t *testing.T) {
	ctx := context.Background()

	t.Run("parses worker output", func(t *testing.T) {
		r := NewExecRunner(Config{
			Command: "sh",
			Args:    []string{"-c", `cat >/dev/null; printf '{"ocr_text":"Coffee Shop\\n$4.50"}'`},
		}, nil)

		text, err := r.Recognize(ctx, []byte("fake image"))
		require.NoError(t, err)
		assert.Equal(t, "Coffee Shop\n$4.50", text)
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		r := NewExecRunner(Config{
			Command: "sh",
			Args:    []string{"-c", `cat >/dev/null; printf '{"source":"x.png","ocr_text":"hello","Amount":4.5}'`},
		}, nil)

		text, err := r.Recognize(ctx, []byte("img"))
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	})

	t.Run("non-zero exit surfaces stderr", func(t *testing.T) {
		r := NewExecRunner(Config{
			Command: "sh",
			Args:    []string{"-c", `cat >/dev/null; echo "missing dependency" >&2; exit 1`},
		}, nil)

		_, err := r.Recognize(ctx, []byte("img"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing dependency")
	})

	t.Run("garbage output", func(t *testing.T) {
		r := NewExecRunner(Config{
			Command: "sh",
			Args:    []string{"-c", `cat >/dev/null; echo "not json"`},
		}, nil)

		_, err := r.Recognize(ctx, []byte("img"))
		assert.ErrorContains(t, err, "parse ocr worker output")
	})

	t.Run("timeout", func(t *testing.T) {
		r := NewExecRunner(Config{
			Command: "sh",
			Args:    []string{"-c", "sleep 5"},
			Timeout: 50 * time.Millisecond,
		}, nil)

		_, err := r.Recognize(ctx, []byte("img"))
		assert.ErrorContains(t, err, "timed out")
	})

	t.Run("not configured", func(t *testing.T) {
		r := NewExecRunner(Config{}, nil)
		_, err := r.Recognize(ctx, nil)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
