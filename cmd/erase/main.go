package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"magiceraser/internal/domain"
	"magiceraser/internal/editor"
	"magiceraser/internal/i18n"
	"magiceraser/internal/infra"
	"magiceraser/internal/mask"
	restgenai "magiceraser/internal/providers/genai"
	"magiceraser/internal/providers/genaisdk"
	"magiceraser/internal/providers/synthetic"
	"magiceraser/internal/session"
	"magiceraser/pkg/zip"
)

var (
	eraseOutput         string
	eraseMaskOutput     string
	eraseBundle         string
	eraseProvider       string
	eraseContainerWidth int
	eraseBrush          int
	eraseInstruction    string
	eraseLocale         string
	eraseFilter         string
	eraseTimeout        time.Duration
	eraseMaskOnly       bool
	eraseForce          bool
)

var rootCmd = &cobra.Command{
	Use:   "erase [image] [script.json]",
	Short: "Paint a mask from a stroke script and erase the masked region",
	Long: `Load an image, replay a stroke script over it at display scale, and submit the
image and its native-resolution mask to the configured editor.

The script lists strokes in display coordinates:

  {"container_width": 600, "brush": 30,
   "strokes": [{"points": [[120, 80], [260, 95]]}, {"brush": 50, "points": [[40, 300]]}]}

Examples:
  erase photo.jpg cable.json
  erase photo.jpg cable.json --provider synthetic -o clean.png
  erase photo.jpg cable.json --mask-only --mask mask.png`,
	Args:          cobra.ExactArgs(2),
	RunE:          runErase,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&eraseOutput, "output", "o", "", "Output path for the result (default: <image>-erased.png)")
	flags.StringVar(&eraseMaskOutput, "mask", "", "Also write the native-resolution mask PNG to this path")
	flags.StringVar(&eraseBundle, "bundle", "", "Also write source, mask and result as a zip archive")
	flags.StringVarP(&eraseProvider, "provider", "p", "", "Editor provider: gemini, genai or synthetic (default: EDIT_PROVIDER)")
	flags.IntVarP(&eraseContainerWidth, "container-width", "w", 0, "Container width the script was recorded at (overrides the script)")
	flags.IntVarP(&eraseBrush, "brush", "b", 0, "Initial brush diameter (overrides the script)")
	flags.StringVarP(&eraseInstruction, "instruction", "i", "", "Additional instruction for the editor")
	flags.StringVarP(&eraseLocale, "locale", "l", "en", "Locale for the instruction and messages (en, tr)")
	flags.StringVar(&eraseFilter, "filter", "", "Mask upscale filter: nearest, bilinear or catmullrom")
	flags.DurationVar(&eraseTimeout, "timeout", 3*time.Minute, "Submission timeout")
	flags.BoolVar(&eraseMaskOnly, "mask-only", false, "Write the mask and skip the submission")
	flags.BoolVar(&eraseForce, "force", false, "Overwrite output files if they exist")
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runErase(cmd *cobra.Command, args []string) error {
	imagePath, scriptPath := args[0], args[1]
	logger := infra.NewLogger("cli", os.Getenv("LOG_LEVEL")).With().Str("cmd", "erase").Logger()
	messages := i18n.New()
	locale := messages.Match(eraseLocale)

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	script, err := ParseScript(f)
	f.Close()
	if err != nil {
		return err
	}
	if eraseContainerWidth > 0 {
		script.ContainerWidth = eraseContainerWidth
	}
	if eraseBrush > 0 {
		script.Brush = eraseBrush
	}
	if eraseInstruction != "" {
		script.Instruction = eraseInstruction
	}

	outputPath := eraseOutput
	if outputPath == "" && !eraseMaskOnly {
		ext := filepath.Ext(imagePath)
		outputPath = strings.TrimSuffix(imagePath, ext) + "-erased.png"
	}
	for _, p := range []string{outputPath, eraseMaskOutput, eraseBundle} {
		if err := checkWritable(p); err != nil {
			return err
		}
	}

	cfg := session.Config{Brush: script.Brush}
	if eraseFilter != "" {
		if cfg.Rasterizer, err = mask.NewRasterizer(eraseFilter); err != nil {
			return err
		}
	}
	s := session.New("", cfg)
	if err := s.Load(data, script.ContainerWidth); err != nil {
		return fmt.Errorf("%s: %w", messages.Error(locale, err), err)
	}
	steps, err := script.Steps()
	if err != nil {
		return err
	}
	if err := apply(s, steps); err != nil {
		return fmt.Errorf("%s: %w", messages.Error(locale, err), err)
	}
	snap := s.Snapshot()
	fmt.Printf("Loaded %s (%dx%d, display %dx%d, %d stroke(s))\n",
		filepath.Base(imagePath), snap.NativeWidth, snap.NativeHeight, snap.DisplayWidth, snap.DisplayHeight, snap.Strokes)

	maskPNG, err := s.MaskPNG(true)
	if err != nil {
		return err
	}
	if eraseMaskOutput != "" {
		if err := os.WriteFile(eraseMaskOutput, maskPNG, 0o644); err != nil {
			return fmt.Errorf("write mask: %w", err)
		}
		fmt.Printf("Mask saved to: %s\n", eraseMaskOutput)
	}
	if eraseMaskOnly {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ed, err := newEditor(ctx, logger)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", messages.T(locale, "ui.erasing"), ed.Name())

	if eraseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eraseTimeout)
		defer cancel()
	}
	res, err := s.Submit(ctx, ed, script.Instruction, locale)
	if err != nil {
		logger.Debug().Err(err).Str("kind", string(domain.KindOf(err))).Msg("submission failed")
		return fmt.Errorf("%s: %w", messages.Error(locale, err), err)
	}
	if err := os.WriteFile(outputPath, res.Data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	fmt.Printf("Saved to: %s\n", outputPath)
	if res.Text != "" {
		fmt.Printf("Editor note: %s\n", res.Text)
	}

	if eraseBundle != "" {
		archive, err := zip.ArchiveAssets([]zip.Asset{
			{Filename: "source" + filepath.Ext(imagePath), Data: data},
			{Filename: "mask.png", MIME: "image/png", Data: maskPNG},
			{Filename: "result.png", MIME: res.MIME, Data: res.Data},
		}, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := os.WriteFile(eraseBundle, archive, 0o644); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
		fmt.Printf("Bundle saved to: %s\n", eraseBundle)
	}
	return nil
}

func apply(s *session.Session, steps []Step) error {
	for _, step := range steps {
		if step.Brush != 0 {
			if err := s.SetBrush(step.Brush); err != nil {
				return err
			}
			continue
		}
		if err := s.Pointer(step.Event); err != nil {
			return err
		}
	}
	return nil
}

func checkWritable(path string) error {
	if path == "" || eraseForce {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output file already exists: %s (use --force to overwrite)", path)
	}
	return nil
}

func newEditor(ctx context.Context, logger zerolog.Logger) (editor.Editor, error) {
	provider := strings.ToLower(strings.TrimSpace(eraseProvider))
	if provider == "" {
		provider = strings.ToLower(os.Getenv("EDIT_PROVIDER"))
	}
	key := os.Getenv("GEMINI_API_KEY")
	model := os.Getenv("GEMINI_MODEL")
	switch provider {
	case infra.ProviderSynthetic:
		return synthetic.New(logger), nil
	case infra.ProviderGenAI:
		return genaisdk.New(ctx, genaisdk.Options{APIKey: key, Model: model, Logger: logger})
	case "", infra.ProviderGemini:
		return restgenai.NewClient(restgenai.Options{
			APIKey:  key,
			BaseURL: os.Getenv("GEMINI_BASE_URL"),
			Model:   model,
			Logger:  &logger,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
