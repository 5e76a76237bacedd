// Package ocr shells out to an external OCR worker for scanned receipts.
// The worker reads the image bytes on stdin and prints a JSON object with
// an "ocr_text" field on stdout. Field parsing is not the worker's job;
// the extraction engine runs over the recognized text afterwards.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no OCR command is set. Image uploads
// still store the file; they just produce no extracted fields.
var ErrNotConfigured = errors.New("ocr: no worker command configured")

// Runner produces plain text from scanned image or PDF bytes.
type Runner interface {
	Recognize(ctx context.Context, data []byte) (string, error)
}

// Config describes the worker process.
type Config struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// ExecRunner runs the configured worker as a subprocess per request.
type ExecRunner struct {
	cfg    Config
	logger *slog.Logger
}

// NewExecRunner creates a runner. A nil logger falls back to slog.Default.
func NewExecRunner(cfg Config, logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ExecRunner{cfg: cfg, logger: logger}
}

// workerOutput is the JSON the worker prints. Extra fields are ignored.
type workerOutput struct {
	Text string `json:"ocr_text"`
}

// Recognize feeds the bytes to the worker and returns the recognized text.
func (r *ExecRunner) Recognize(ctx context.Context, data []byte) (string, error) {
	if r.cfg.Command == "" {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.Args...)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ocr worker timed out after %s: %w", r.cfg.Timeout, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("ocr worker failed: %s", msg)
	}

	var out workerOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return "", fmt.Errorf("parse ocr worker output: %w", err)
	}

	r.logger.Debug("ocr worker finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("input_bytes", len(data)),
		slog.Int("text_len", len(out.Text)),
	)
	return out.Text, nil
}
