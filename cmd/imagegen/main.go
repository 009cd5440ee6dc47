package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/ts09300930/imagegenerator/internal/auth"
	"github.com/ts09300930/imagegenerator/internal/grok"
	"github.com/ts09300930/imagegenerator/internal/history"
	"github.com/ts09300930/imagegenerator/internal/imageproc"
	"github.com/ts09300930/imagegenerator/internal/logging"
	"github.com/ts09300930/imagegenerator/internal/pipeline"
	"github.com/ts09300930/imagegenerator/internal/prompt"
)

// CLI flags
var (
	modelFlag      string
	baseURLFlag    string
	maxTokensFlag  int
	annotationFlag string
	motionFlag     string
	maskFlag       bool
	selfieFlag     bool
	faceHiddenFlag bool
	outDirFlag     string
	optimizeFlag   bool
	translateFlag  bool
	maxEdgeFlag    int
)

// client is created once the API key has been validated.
var client *grok.Client

var rootCmd = &cobra.Command{
	Use:   "imagegen",
	Short: "Turn images into English prompts for image-to-video generation",
	Long: `imagegen describes each image with a Grok vision model, merges the
description with your annotation and modifiers, and prints one
single-paragraph prompt per image.

Examples:
  imagegen generate photo1.jpg photo2.png
  imagegen generate -a "make it sunset" --motion orbit --selfie shot.jpg
  imagegen generate --optimize --translate -o ./prompts *.jpg
  imagegen optimize "A cinematic shot of ..."`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init()
		_ = godotenv.Load()

		apiKey, err := auth.GetAPIKey()
		if err != nil {
			var cfgErr *auth.ConfigurationError
			if errors.As(err, &cfgErr) {
				log.Fatal().Str("setting", cfgErr.Setting).Msg(cfgErr.Message)
			}
			return err
		}
		client = grok.NewClient(apiKey,
			grok.WithModel(modelFlag),
			grok.WithBaseURL(baseURLFlag),
			grok.WithMaxTokens(maxTokensFlag),
		)
		log.Debug().Str("model", client.Model()).Msg("Grok client initialized")
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [images...]",
	Short: "Generate one prompt per image",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [text]",
	Short: "Shorten and clarify an existing prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := prompt.Optimize(cmd.Context(), client, args[0])
		printWarning(err)
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate a prompt into Japanese",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := prompt.TranslateToJapanese(cmd.Context(), client, args[0])
		printWarning(err)
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&modelFlag, "model", "m", grok.DefaultModel, "Grok model to use")
	pf.StringVar(&baseURLFlag, "base-url", grok.DefaultBaseURL, "Chat-completions endpoint")
	pf.IntVar(&maxTokensFlag, "max-tokens", grok.DefaultMaxTokens, "Completion token budget")

	f := generateCmd.Flags()
	f.StringVarP(&annotationFlag, "annotation", "a", "", "Free-text guidance merged into every prompt (any language)")
	f.StringVar(&motionFlag, "motion", "none", "Camera motion: none, static, pan, zoom-in, orbit, handheld")
	f.BoolVar(&maskFlag, "mask", false, "Subject wears a face mask")
	f.BoolVar(&selfieFlag, "selfie", false, "Selfie pose")
	f.BoolVar(&faceHiddenFlag, "face-hidden", false, "Keep the face out of frame")
	f.StringVarP(&outDirFlag, "out", "o", "", "Directory to save each prompt as a .txt file")
	f.BoolVar(&optimizeFlag, "optimize", false, "Also print an optimized version of each prompt")
	f.BoolVar(&translateFlag, "translate", false, "Also print a Japanese translation of each prompt")
	f.IntVar(&maxEdgeFlag, "max-edge", imageproc.DefaultMaxEdge, "Downscale images whose longest edge exceeds this")

	rootCmd.AddCommand(generateCmd, optimizeCmd, translateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sel, err := selectionFromFlags()
	if err != nil {
		return err
	}

	uploads := make([]pipeline.Upload, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable file")
			continue
		}
		uploads = append(uploads, pipeline.Upload{Name: filepath.Base(path), Data: data})
	}

	store := history.NewStore()
	gen := pipeline.NewGenerator(client, prompt.NewMerger(client), store, imageproc.Options{MaxEdge: maxEdgeFlag})

	start := time.Now()
	res, err := gen.Run(ctx, pipeline.Request{
		Uploads:    uploads,
		Annotation: annotationFlag,
		Selection:  sel,
	})
	if err != nil {
		return err
	}
	log.Info().
		Int("records", len(res.Records)).
		Int("warnings", len(res.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	for i, rec := range store.RecentView(history.DisplayLimit) {
		fmt.Fprintf(out, "\n[%d] %s\n%s\n", i+1, rec.SourceName, rec.Text)
		if optimizeFlag {
			opt, err := prompt.Optimize(ctx, client, rec.Text)
			printWarning(err)
			fmt.Fprintf(out, "  optimized: %s\n", opt)
		}
		if translateFlag {
			ja, err := prompt.TranslateToJapanese(ctx, client, rec.Text)
			printWarning(err)
			fmt.Fprintf(out, "  日本語: %s\n", ja)
		}
	}

	if outDirFlag != "" {
		if err := saveRecords(outDirFlag, store.RecentView(store.Len())); err != nil {
			return err
		}
	}
	return nil
}

func selectionFromFlags() (prompt.Selection, error) {
	motion, err := prompt.ParseMotion(motionFlag)
	if err != nil {
		return prompt.Selection{}, err
	}
	var toggles []prompt.Toggle
	if maskFlag {
		toggles = append(toggles, prompt.ToggleFaceMask)
	}
	if selfieFlag {
		toggles = append(toggles, prompt.ToggleSelfiePose)
	}
	if faceHiddenFlag {
		toggles = append(toggles, prompt.ToggleFaceHidden)
	}
	return prompt.NewSelection(motion, toggles...)
}

// saveRecords writes each record to <dir>/<source>_<id8>.txt.
func saveRecords(dir string, records []history.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, rec := range records {
		stem := strings.TrimSuffix(rec.SourceName, filepath.Ext(rec.SourceName))
		name := fmt.Sprintf("%s_%s.txt", stem, rec.ID[:8])
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(rec.Text+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("Prompt saved")
	}
	return nil
}

func printWarning(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (showing original text)\n", err)
	}
}
