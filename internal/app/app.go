package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"WikiCardPoster/internal/caption"
	"WikiCardPoster/internal/card"
	"WikiCardPoster/internal/config"
	"WikiCardPoster/internal/infrastructure/scheduler"
	"WikiCardPoster/internal/infrastructure/storage"
	"WikiCardPoster/internal/infrastructure/telegram"
	"WikiCardPoster/internal/infrastructure/wiki"
	"WikiCardPoster/internal/logging"
	"WikiCardPoster/internal/ports"
	"WikiCardPoster/internal/schedule"
	"WikiCardPoster/internal/synopsis"
	"WikiCardPoster/internal/usecase"
)

const stopTimeout = 90 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	clock    func() time.Time
}

// New builds an application that delivers to Telegram.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	publisher := telegram.NewPublisher(&http.Client{Timeout: cfg.Telegram.Timeout}, telegram.Options{
		APIURL:   cfg.Telegram.APIURL,
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		Silent:   cfg.Telegram.Silent,
		Timeout:  cfg.Telegram.Timeout,
	}, baseLogger)
	return build(cfg, baseLogger, publisher)
}

// NewPreview builds an application that writes posts into dir instead of delivering them.
func NewPreview(cfg config.Config, baseLogger *slog.Logger, dir string) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if dir == "" {
		dir = cfg.Preview.OutputDir
	}
	return build(cfg, baseLogger, storage.NewPreviewSink(dir, baseLogger))
}

func build(cfg config.Config, logger *slog.Logger, publisher ports.Publisher) (*Application, error) {
	// Run-to-run variety (category, article, lead, emoji). Card rendering seeds its own generator.
	runRand := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))

	wikiClient := wiki.NewClient(&http.Client{Timeout: cfg.Wikipedia.Timeout}, wiki.Options{
		APIURL:      cfg.Wikipedia.APIURL,
		UserAgent:   cfg.Wikipedia.UserAgent,
		ThumbSize:   cfg.Wikipedia.ThumbSize,
		HTMLExtract: cfg.Wikipedia.HTMLExtract,
	})
	var encyclopedia ports.Encyclopedia = wikiClient
	if cfg.Wikipedia.MemberCacheTTL > 0 {
		encyclopedia = wiki.NewMemberCache(wikiClient, cfg.Wikipedia.MemberCacheTTL)
	}

	gate, err := newGate(cfg)
	if err != nil {
		return nil, err
	}

	selector, err := usecase.NewTopicSelector(usecase.SelectorDeps{
		Source:      encyclopedia,
		Categories:  cfg.Categories(),
		Denylist:    cfg.Wikipedia.Denylist,
		MemberLimit: cfg.Wikipedia.MemberLimit,
		Rand:        runRand,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("topic selector: %w", err)
	}

	builder, err := synopsis.NewBuilder(synopsis.Options{
		Mode:           synopsis.Mode(cfg.Synopsis.Mode),
		ShortSentences: cfg.Synopsis.ShortSentences,
		LongSentences:  cfg.Synopsis.LongSentences,
		WrapWidth:      cfg.Synopsis.WrapWidth,
		Leads:          cfg.Synopsis.Leads,
		Fallback:       cfg.Synopsis.Fallback,
		Headings:       cfg.Synopsis.Headings,
		Substitutions:  cfg.Synopsis.Substitutions,
	}, encyclopedia, runRand, logger.With("component", "synopsis"))
	if err != nil {
		return nil, fmt.Errorf("synopsis builder: %w", err)
	}

	fonts, err := card.LoadFonts(cfg.Card.FontRegular, cfg.Card.FontBold)
	if err != nil {
		return nil, err
	}
	renderer, err := card.NewRenderer(card.Options{
		Style:         cfg.Card.Style,
		Width:         cfg.Card.Width,
		Height:        cfg.Card.Height,
		TitleOnImage:  cfg.Card.TitleOnImage,
		MaxTitleRunes: cfg.Card.MaxTitleRunes,
		Hashtag:       cfg.Card.Hashtag,
		Watermark:     cfg.Telegram.ChannelHandle,
	}, fonts, wikiClient, logger.With("component", "card"))
	if err != nil {
		return nil, fmt.Errorf("card renderer: %w", err)
	}

	assembler, err := caption.NewAssembler(caption.Options{
		Hashtags:       cfg.Caption.Hashtags,
		StrongKeywords: cfg.Caption.StrongKeywords,
		EmojiMode:      caption.EmojiMode(cfg.Caption.EmojiMode),
		EmojiPool:      cfg.Caption.EmojiPool,
		EmojiGroups:    cfg.Caption.EmojiGroups,
		DefaultEmoji:   cfg.Caption.DefaultEmoji,
		MaxEmoji:       cfg.Caption.MaxEmoji,
		Attribution:    cfg.Caption.Attribution,
		MaxLength:      cfg.Caption.MaxLength,
	}, runRand)
	if err != nil {
		return nil, fmt.Errorf("caption assembler: %w", err)
	}

	pipeline, err := usecase.NewPipeline(usecase.PipelineDeps{
		Gate:      gate,
		Selector:  selector,
		Synopsis:  builder,
		Renderer:  renderer,
		Captions:  assembler,
		Publisher: publisher,
		Location:  cfg.Schedule.Location(),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &Application{cfg: cfg, logger: logger, pipeline: pipeline, clock: time.Now}, nil
}

func newGate(cfg config.Config) (*schedule.Gate, error) {
	loc := cfg.Schedule.Location()
	switch cfg.Schedule.Policy {
	case config.PolicyWindow:
		w, err := schedule.NewWindow(cfg.Schedule.Window.From, cfg.Schedule.Window.To, cfg.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		return schedule.NewGate(w, loc), nil
	default:
		slots, err := cfg.Slots()
		if err != nil {
			return nil, err
		}
		return schedule.NewGate(schedule.FixedTimes{Slots: slots}, loc), nil
	}
}

// Run performs a single gated pipeline execution.
func (a *Application) Run(ctx context.Context, force bool) (usecase.Outcome, error) {
	return a.pipeline.Run(ctx, a.clock(), force)
}

// Serve runs the pipeline on the serve cron spec until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(a.cfg.Serve.Cron, a.cfg.Schedule.Location(), a.logger)
	loop := usecase.NewScheduler(driver, a.pipeline, a.logger)
	if err := loop.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("serving", "policy", a.cfg.Schedule.Policy, "cron", a.cfg.Serve.Cron)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return loop.Stop(stopCtx)
}
