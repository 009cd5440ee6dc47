package prompt

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

const optimizeInstruction = "You are an expert prompt engineer for image-to-video generation models. " +
	"Shorten and clarify the following prompt while keeping every visual detail. Output only the prompt."

const translateInstruction = "Translate the following English prompt into natural, fluent Japanese. " +
	"Output only the translation."

// Optimize returns a tightened rewrite of text. On failure the original text
// is returned with the error.
func Optimize(ctx context.Context, c Completer, text string) (string, error) {
	return transform(ctx, c, optimizeInstruction, text, "optimize")
}

// TranslateToJapanese returns a Japanese rendering of text, or text itself
// with the error when the call fails.
func TranslateToJapanese(ctx context.Context, c Completer, text string) (string, error) {
	return transform(ctx, c, translateInstruction, text, "translate")
}

func transform(ctx context.Context, c Completer, instruction, text, op string) (string, error) {
	out, err := c.CompleteText(ctx, instruction, text)
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("Transform failed, keeping original text")
		return text, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text, nil
	}
	return stripQuotes(out), nil
}
