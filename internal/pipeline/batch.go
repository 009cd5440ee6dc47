// Package pipeline runs one generate action: every upload is normalized,
// described, merged with the user's modifiers and appended to history, in
// order and one at a time. Per-item failures become warnings; they never
// abort the rest of the batch.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/ts09300930/imagegenerator/internal/history"
	"github.com/ts09300930/imagegenerator/internal/imageproc"
	"github.com/ts09300930/imagegenerator/internal/prompt"
)

// Describer produces a base description for a JPEG buffer. On failure it
// still returns a displayable placeholder.
type Describer interface {
	DescribeImage(ctx context.Context, jpegData []byte) (string, error)
}

// Upload is one user-supplied file.
type Upload struct {
	Name string
	Data []byte
}

// WarningKind classifies a recoverable per-item failure.
type WarningKind string

const (
	WarnUnsupportedType WarningKind = "unsupported_type"
	WarnInvalidImage    WarningKind = "invalid_image"
	WarnDescribeFailed  WarningKind = "describe_failed"
	WarnMergeFailed     WarningKind = "merge_failed"
)

// Warning is surfaced inline next to the batch result.
type Warning struct {
	Index int
	Name  string
	Kind  WarningKind
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("image %d (%s): %s: %v", w.Index+1, w.Name, w.Kind, w.Err)
}

// Result is the outcome of one batch.
type Result struct {
	Records  []history.Record
	Warnings []Warning
}

// Request carries the inputs of one generate action.
type Request struct {
	Uploads    []Upload
	Annotation string
	Selection  prompt.Selection
}

// ErrNoUploads is returned when a batch is started with nothing to process.
var ErrNoUploads = errors.New("at least one image is required")

// Generator wires the pipeline stages together around a session store.
type Generator struct {
	describer Describer
	merger    *prompt.Merger
	store     *history.Store
	imageOpts imageproc.Options
}

// NewGenerator creates a Generator that appends to store.
func NewGenerator(d Describer, m *prompt.Merger, store *history.Store, opts imageproc.Options) *Generator {
	return &Generator{describer: d, merger: m, store: store, imageOpts: opts}
}

// Run processes req.Uploads sequentially.
func (g *Generator) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Uploads) == 0 {
		return nil, ErrNoUploads
	}

	res := &Result{}
	for i, up := range req.Uploads {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		logger := log.With().Int("index", i).Str("file", up.Name).Logger()
		warn := func(kind WarningKind, err error) {
			w := Warning{Index: i, Name: up.Name, Kind: kind, Err: err}
			res.Warnings = append(res.Warnings, w)
			logger.Warn().Err(err).Str("kind", string(kind)).Msg("Batch item degraded")
		}

		if !imageproc.IsAllowed(up.Name) {
			warn(WarnUnsupportedType, fmt.Errorf("extension not in allow-list"))
			continue
		}

		img, err := imageproc.Normalize(bytes.NewReader(up.Data), g.imageOpts)
		if err != nil {
			warn(WarnInvalidImage, err)
			continue
		}

		base, err := g.describer.DescribeImage(ctx, img.Data)
		var text string
		if err != nil {
			warn(WarnDescribeFailed, err)
			text = base
		} else {
			text, err = g.merger.Finalize(ctx, base, req.Annotation, req.Selection)
			if err != nil {
				warn(WarnMergeFailed, err)
			}
		}

		rec := history.NewRecord(text, up.Name, img.Data)
		g.store.Append(rec)
		res.Records = append(res.Records, rec)
		logger.Info().Str("record_id", rec.ID).Int("chars", len(text)).Msg("Prompt generated")
	}
	return res, nil
}
