// cmd/veoprompt/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Corphon/VeoPromptStudio/internal/config"
	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/events"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/prompt"
	"github.com/Corphon/VeoPromptStudio/internal/segment"
	"github.com/Corphon/VeoPromptStudio/internal/services"
	"github.com/Corphon/VeoPromptStudio/internal/storage"
	"github.com/Corphon/VeoPromptStudio/internal/utils"

	_ "github.com/Corphon/VeoPromptStudio/internal/llm/providers/gemini"
	_ "github.com/Corphon/VeoPromptStudio/internal/llm/providers/google"
)

type options struct {
	idea        string
	duration    string
	style       string
	language    string
	voice       string
	out         string
	dryRun      bool
	segmentFile string
	listStyles  bool
}

func parseFlags(args []string) (*options, error) {
	defaults := models.DefaultSelection()
	opts := &options{}

	fs := flag.NewFlagSet("veoprompt", flag.ContinueOnError)
	fs.StringVar(&opts.idea, "idea", "", "video idea (required unless -segment-file is set)")
	fs.StringVar(&opts.duration, "duration", string(defaults.Duration), "very_short|short|medium|long|very_long|epic")
	fs.StringVar(&opts.style, "style", string(defaults.Style), "visual style, see -styles")
	fs.StringVar(&opts.language, "language", string(defaults.Language), "dialogue language")
	fs.StringVar(&opts.voice, "voice", string(defaults.Voice), "narration voice")
	fs.StringVar(&opts.out, "out", "", "write the seamless prompt to this file instead of stdout")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print the composed instruction without calling the model")
	fs.StringVar(&opts.segmentFile, "segment-file", "", "segment a saved model reply, no model call")
	fs.BoolVar(&opts.listStyles, "styles", false, "list the available styles and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.idea == "" && fs.NArg() > 0 {
		opts.idea = strings.Join(fs.Args(), " ")
	}
	return opts, nil
}

func (o *options) request() models.GenerationRequest {
	req := models.NewGenerationRequest(o.idea,
		models.Duration(o.duration), models.Style(o.style),
		models.Language(o.language), models.Voice(o.voice))

	if !req.Duration.IsValid() || !req.Style.IsValid() || !req.Language.IsValid() || !req.Voice.IsValid() {
		log.Printf("warning: unknown option value, defaults are used for it")
	}
	return req
}

func main() {
	log.SetFlags(0)
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, stdout io.Writer) error {
	if opts.listStyles {
		_, err := fmt.Fprintln(stdout, models.StylesList())
		return err
	}

	if opts.segmentFile != "" {
		raw, err := os.ReadFile(opts.segmentFile)
		if err != nil {
			return err
		}
		return writeOutput(opts.out, stdout, segment.Segment(segment.StripEmphasis(string(raw))).Seamless)
	}

	if strings.TrimSpace(opts.idea) == "" {
		return apperrors.NewInputMissingError(apperrors.MsgVeoInputMissing)
	}
	req := opts.request()

	if opts.dryRun {
		composed := prompt.ComposeVeo(req)
		_, err := fmt.Fprintf(stdout, "%s\n\n---\n%s\n", composed.SystemInstruction, composed.UserContent)
		return err
	}

	generator, err := newGenerator()
	if err != nil {
		return err
	}
	result, err := generator.GenerateVeo(ctx, req)
	if err != nil {
		return err
	}
	return writeOutput(opts.out, stdout, result.Seamless)
}

// newGenerator wires the generator against the saved settings and history
func newGenerator() (*services.GeneratorService, error) {
	base, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := config.InitConfig(base.DataDir); err != nil {
		return nil, err
	}
	cfg := config.GetCurrentConfig()
	utils.GetLogger().SetLogLevel(utils.ParseLogLevel(cfg.LogLevel))

	llmService, err := services.NewLLMService()
	if err != nil {
		return nil, err
	}
	if !llmService.IsReady() {
		return nil, apperrors.NewUnavailableError(llmService.GetReadyState(), nil)
	}

	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	history := services.NewHistoryService(fileStorage, events.NopPublisher{})
	return services.NewGeneratorService(llmService, history, cfg.GenerationTimeout), nil
}

func writeOutput(path string, stdout io.Writer, text string) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0644); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}
