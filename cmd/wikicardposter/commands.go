package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"WikiCardPoster/internal/app"
	"WikiCardPoster/internal/config"
	"WikiCardPoster/internal/logging"
	"WikiCardPoster/internal/usecase"
	"WikiCardPoster/pkg/console"
)

type globalFlags struct {
	configPath string
	logLevel   string
	plain      bool
}

type cli struct {
	flags   globalFlags
	out     io.Writer
	printer *console.Printer
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	var force bool
	root := &cobra.Command{
		Use:   "wikicardposter",
		Short: "Post a Wikipedia card with a short synopsis to Telegram",
		Long: `wikicardposter picks an article from the configured Wikipedia categories,
condenses its intro, renders an illustrative card and posts both to a Telegram chat.

Without a subcommand it behaves like "run".

Example usage:
  wikicardposter                     # post if now is a publish slot
  wikicardposter run --force         # post right now
  wikicardposter serve               # check the schedule every minute
  wikicardposter preview --out tmp   # write card.png and caption.html to tmp`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, force)
		},
	}

	root.PersistentFlags().StringVar(&c.flags.configPath, "config", "", "YAML config file (default $"+config.ConfigPathEnv+")")
	root.PersistentFlags().StringVar(&c.flags.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	root.PersistentFlags().BoolVar(&c.flags.plain, "plain", false, "disable colored status output")
	root.Flags().BoolVar(&force, "force", false, "ignore the schedule")

	root.AddCommand(c.runCmd(), c.serveCmd(), c.previewCmd())
	return root
}

func (c *cli) init() error {
	c.printer = console.New(c.out, c.flags.plain)

	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		c.printer.Failed(err)
		return fmt.Errorf("loading config: %w", err)
	}
	if c.flags.logLevel != "" {
		cfg.Logging.Level = c.flags.logLevel
	}
	c.cfg = cfg
	c.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

func (c *cli) runCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post once if now is a publish slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the schedule")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, force bool) error {
	application, err := app.New(c.cfg, c.logger)
	if err != nil {
		c.printer.Failed(err)
		return err
	}
	out, err := application.Run(cmd.Context(), force)
	return c.report(out, err, c.cfg.Telegram.ChatID)
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Keep running and check the schedule every minute",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(c.cfg, c.logger)
			if err != nil {
				c.printer.Failed(err)
				return err
			}
			if err := application.Serve(cmd.Context()); err != nil && !errors.Is(err, cmd.Context().Err()) {
				c.printer.Failed(err)
				return err
			}
			return nil
		},
	}
}

func (c *cli) previewCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a post to disk without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = c.cfg.Preview.OutputDir
			}
			application, err := app.NewPreview(c.cfg, c.logger, dir)
			if err != nil {
				c.printer.Failed(err)
				return err
			}
			out, err := application.Run(cmd.Context(), true)
			if err := c.report(out, err, dir); err != nil {
				return err
			}
			c.printer.Summary(postFields(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "out", "", "output directory (default from config)")
	return cmd
}

func postFields(out usecase.Outcome) []console.Field {
	post := out.Post
	return []console.Field{
		{Name: "run", Value: out.RunID},
		{Name: "title", Value: post.Article.Title},
		{Name: "source", Value: post.Article.CanonicalURL},
		{Name: "image", Value: fmt.Sprintf("%dx%d, %d bytes", post.Image.Width, post.Image.Height, len(post.Image.Data))},
		{Name: "caption", Value: fmt.Sprintf("%d runes", utf8.RuneCountInString(post.Caption))},
	}
}

func (c *cli) report(out usecase.Outcome, err error, where string) error {
	if err != nil {
		c.logger.Error("run failed", "run_id", out.RunID, "error", err)
		c.printer.Failed(err)
		return err
	}
	switch out.Status {
	case usecase.OutcomeSkipped:
		c.printer.Skipped()
	case usecase.OutcomePublished:
		c.printer.Published(out.Post.Article.Title, where)
	}
	return nil
}
