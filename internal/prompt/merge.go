// Package prompt builds the final video-generation prompt from an image
// description, the user's free-text note and the selected modifiers.
//
// The remote rewrite is nondeterministic, so fixed composition clauses are
// appended locally after every call in PostProcess.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Completer issues one system+user chat call and returns the reply text.
type Completer interface {
	CompleteText(ctx context.Context, system, user string) (string, error)
}

const persona = "You are an expert prompt engineer for image-to-video generation models."

const mergeDirective = "Merge the base prompt with the user annotation and the camera instruction into a single prompt. " +
	"Where the annotation contradicts the base prompt, the annotation wins. " +
	"Translate any non-English annotation into English before merging."

const formatConstraints = "Output exactly one continuous English paragraph. No lists, no headings, no labels. " +
	"Start with a generic opening clause such as \"A cinematic shot of\". " +
	"Output only the prompt, with no explanation or commentary."

// SystemInstruction composes the merge instruction for sel.
func SystemInstruction(sel Selection) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(" ")
	b.WriteString(mergeDirective)
	if extra := additionalInstructions(sel); extra != "" {
		b.WriteString(" Additional instructions: ")
		b.WriteString(extra)
	}
	b.WriteString(" ")
	b.WriteString(formatConstraints)
	return b.String()
}

// additionalInstructions emits one sentence per active modifier in fixed order.
func additionalInstructions(sel Selection) string {
	var sentences []string
	if p := sel.Motion().Phrase(); p != "" {
		sentences = append(sentences, fmt.Sprintf("Describe the camera as: %s.", p))
	}
	for _, t := range sel.Active() {
		sentences = append(sentences, fmt.Sprintf("The subject must be %s.", t.Clause()))
	}
	return strings.Join(sentences, " ")
}

// UserTurn formats the base description, annotation and camera phrase.
// An empty annotation is still sent as an empty segment.
func UserTurn(base, annotation string, sel Selection) string {
	camera := sel.Motion().Phrase()
	if camera == "" {
		camera = "unspecified"
	}
	return fmt.Sprintf("Base prompt: %s\nUser annotation: %s\nCamera: %s",
		strings.TrimSpace(base), strings.TrimSpace(annotation), camera)
}

// Merger rewrites base descriptions through a Completer.
type Merger struct {
	completer Completer
}

// NewMerger creates a Merger.
func NewMerger(c Completer) *Merger {
	return &Merger{completer: c}
}

// Merge returns the raw merged text. When the remote call fails it returns
// base unchanged alongside the error; the result is never empty when base
// is non-empty.
func (m *Merger) Merge(ctx context.Context, base, annotation string, sel Selection) (string, error) {
	out, err := m.completer.CompleteText(ctx, SystemInstruction(sel), UserTurn(base, annotation, sel))
	if err != nil {
		log.Warn().Err(err).Msg("Merge call failed, keeping base description")
		return base, err
	}
	if strings.TrimSpace(out) == "" {
		log.Warn().Msg("Merge call returned empty text, keeping base description")
		return base, nil
	}
	return out, nil
}

// Finalize merges and post-processes. The returned text is empty only when
// both the merge output and base are empty and no clause applies.
func (m *Merger) Finalize(ctx context.Context, base, annotation string, sel Selection) (string, error) {
	merged, err := m.Merge(ctx, base, annotation, sel)
	text := PostProcess(merged, sel)
	if text == "" {
		text = terminate(base)
	}
	return text, err
}
