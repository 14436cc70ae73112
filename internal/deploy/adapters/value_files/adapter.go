// Package valuefiles owns the local value files: writing the default values
// blob and expanding templated configuration values in place.
package valuefiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/nathantilsley/helm-deploy/internal/deploy/domain"
)

// Non-default delimiters so the mini-language never collides with the
// cluster's own {{ }} templating.
const (
	leftDelim  = "${{"
	rightDelim = "}}"
)

// Adapter implements ports.RendererPort.
type Adapter struct {
	logger *slog.Logger
}

// New creates a value-file renderer.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// WriteValues writes the resolved values blob to the fixed default values
// file and returns its path.
func (a *Adapter) WriteValues(blob string) (string, error) {
	if err := os.WriteFile(domain.DefaultValuesFile, []byte(blob), 0o644); err != nil {
		return "", fmt.Errorf("writing default values file: %w", err)
	}
	a.logger.Info("wrote default values file", "path", domain.DefaultValuesFile, "bytes", len(blob))
	return domain.DefaultValuesFile, nil
}

// Render expands every file in place, concurrently. Each path touches a
// disjoint file so ordering across files is irrelevant, but the join is
// all-or-nothing: any single failure fails the whole operation.
func (a *Adapter) Render(ctx context.Context, paths []string, data map[string]any) error {
	g, _ := errgroup.WithContext(ctx)
	for _, path := range paths {
		g.Go(func() error {
			return a.renderFile(path, data)
		})
	}
	return g.Wait()
}

// renderFile reads, expands, and overwrites one file. A template key absent
// from the context resolves to empty text rather than failing, so value
// files stay usable whether or not every contextual field is populated.
// Re-rendering with an unchanged context is a no-op.
func (a *Adapter) renderFile(path string, data map[string]any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrTemplateFileMissing, path)
	}
	if err != nil {
		return fmt.Errorf("reading value file %s: %w", path, err)
	}

	tmpl, err := template.New(filepath.Base(path)).
		Delims(leftDelim, rightDelim).
		Option("missingkey=zero").
		Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing value file %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering value file %s: %w", path, err)
	}

	// missingkey=zero leaves "<no value>" where an undefined key was
	// referenced; the lax contract wants empty text there.
	out := strings.ReplaceAll(buf.String(), "<no value>", "")
	if out == string(raw) {
		return nil
	}

	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(raw)),
			B:        difflib.SplitLines(out),
			FromFile: path,
			ToFile:   path + " (rendered)",
			Context:  2,
		})
		a.logger.Debug("rendered value file", "path", path, "diff", diff)
	}

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing value file %s: %w", path, err)
	}
	return nil
}
