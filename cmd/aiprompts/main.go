package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/arnyigor/aiprompts-sub001/internal/catalog"
	"github.com/arnyigor/aiprompts-sub001/internal/classifier"
	"github.com/arnyigor/aiprompts-sub001/internal/config"
	"github.com/arnyigor/aiprompts-sub001/internal/domain"
	"github.com/arnyigor/aiprompts-sub001/internal/extractor"
	"github.com/arnyigor/aiprompts-sub001/internal/fetcher"
	"github.com/arnyigor/aiprompts-sub001/internal/storage"
	"github.com/arnyigor/aiprompts-sub001/internal/syncer"
)

func main() {
	app := &cli.App{
		Name:  "aiprompts",
		Usage: "scrape, classify and sync AI prompts from a forum source into a local store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "./configs",
				Usage: "directory containing config.yaml",
			},
		},
		Commands: []*cli.Command{
			syncCommand(),
			serveCommand(),
			listCommand(),
			showCommand(),
			favoriteCommand(),
			deleteCommand(),
			importCommand(),
			exportCommand(),
			tagsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// appEnv holds the wired components shared by the commands.
type appEnv struct {
	cfg  config.Config
	log  *logrus.Logger
	repo storage.Repository
	cat  *catalog.Catalog
	sync *syncer.Service
}

func newAppEnv(c *cli.Context) (*appEnv, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	repo, err := storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cat := catalog.New(cfg.CatalogPath, log)

	var f fetcher.Fetcher
	switch cfg.Fetcher {
	case "browser":
		f = fetcher.NewRodFetcher(cfg.PageURLPattern, cfg.FetchTimeout, log)
	default:
		f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:      cfg.UserAgent,
			Timeout:        cfg.FetchTimeout,
			Delay:          cfg.FetchDelay,
			PageURLPattern: cfg.PageURLPattern,
		}, log)
	}

	var cl classifier.Classifier = classifier.NewNoop()
	if cfg.ClassifierEndpoint != "" {
		cl = classifier.NewHTTPClassifier(classifier.HTTPOptions{
			Endpoint: cfg.ClassifierEndpoint,
			APIKey:   cfg.ClassifierAPIKey,
			Model:    cfg.ClassifierModel,
			Timeout:  cfg.ClassifierTimeout,
		}, log)
	}

	svc := syncer.NewService(syncer.Config{
		BaseURL:  cfg.SourceBaseURL,
		Source:   cfg.SourceName,
		Pages:    cfg.PageCount,
		Cooldown: cfg.CooldownWindow,
	}, f, extractor.NewPostExtractor(log), extractor.NewContentAnalyzer(log), cl, cat, repo, log)

	return &appEnv{cfg: cfg, log: log, repo: repo, cat: cat, sync: svc}, nil
}

func (e *appEnv) close() {
	if err := e.repo.Close(); err != nil {
		e.log.WithError(err).Error("Error closing database")
	}
}

func runSync(ctx context.Context, env *appEnv, pages int, force bool) error {
	result := env.sync.Synchronize(ctx, syncer.Options{
		Pages:          pages,
		IgnoreCooldown: force,
		Progress: func(ev domain.ProgressEvent) {
			env.log.WithFields(logrus.Fields{
				"event":   string(ev.Kind),
				"page":    ev.Page,
				"post_id": ev.PostID,
				"detail":  ev.Detail,
			}).Debug("Sync progress")
		},
	})

	switch result.Status {
	case domain.SyncCommitted:
		fmt.Printf("Sync committed: %d prompt(s)\n", len(result.Prompts))
		for _, p := range result.Prompts {
			fmt.Printf("  %s  %s\n", p.ID, p.Title)
		}
		return nil
	case domain.SyncTooSoon:
		fmt.Println("Sync skipped: cooldown window has not elapsed (use --force to override)")
		return nil
	default:
		return fmt.Errorf("sync failed: %s", result.Message)
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "run one sync pass against the source forum",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "pages", Usage: "override the configured page count"},
			&cli.BoolFlag{Name: "force", Usage: "ignore the cooldown window"},
		},
		Action: func(c *cli.Context) error {
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runSync(ctx, env, c.Int("pages"), c.Bool("force"))
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run scheduled sync passes until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "schedule", Value: "@hourly", Usage: "cron schedule for sync passes"},
			&cli.BoolFlag{Name: "startup-sync", Usage: "run a pass immediately on startup"},
		},
		Action: func(c *cli.Context) error {
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched := cron.New()
			_, err = sched.AddFunc(c.String("schedule"), func() {
				if err := runSync(ctx, env, 0, false); err != nil {
					env.log.WithError(err).Error("Scheduled sync failed")
				}
			})
			if err != nil {
				return fmt.Errorf("invalid schedule: %w", err)
			}
			sched.Start()
			env.log.WithField("schedule", c.String("schedule")).Info("Scheduler started")

			if c.Bool("startup-sync") {
				if err := runSync(ctx, env, 0, false); err != nil {
					env.log.WithError(err).Error("Startup sync failed")
				}
			}

			<-ctx.Done()
			env.log.Info("Shutting down")
			<-sched.Stop().Done()
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list stored prompts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Usage: "substring match on title/description"},
			&cli.StringFlag{Name: "category"},
			&cli.StringFlag{Name: "status"},
			&cli.StringSliceFlag{Name: "tag", Usage: "filter by tag (any-of, repeatable)"},
			&cli.IntFlag{Name: "offset"},
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(c *cli.Context) error {
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			prompts, err := env.repo.GetPrompts(c.Context, storage.PromptQuery{
				Search:   c.String("search"),
				Category: c.String("category"),
				Status:   domain.PromptStatus(c.String("status")),
				Tags:     c.StringSlice("tag"),
				Offset:   c.Int("offset"),
				Limit:    c.Int("limit"),
			})
			if err != nil {
				return err
			}

			for _, p := range prompts {
				fav := " "
				if p.IsFavorite {
					fav = "*"
				}
				fmt.Printf("%s %-30s %-12s %s\n", fav, p.ID, p.Category, p.Title)
			}
			fmt.Printf("%d prompt(s)\n", len(prompts))
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print one prompt in interchange form",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one prompt id")
			}
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			p, err := env.repo.GetPromptByID(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			return env.cat.Export(p, os.Stdout)
		},
	}
}

func favoriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "favorite",
		Usage:     "toggle a prompt's favorite flag",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one prompt id")
			}
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			state, err := env.repo.ToggleFavoriteStatus(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			if state {
				fmt.Println("Marked as favorite")
			} else {
				fmt.Println("Removed from favorites")
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete prompts by id, or everything with --all",
		ArgsUsage: "<id>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "delete every stored prompt"},
		},
		Action: func(c *cli.Context) error {
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			if c.Bool("all") {
				if err := env.repo.DeleteAllPrompts(c.Context); err != nil {
					return err
				}
				fmt.Println("All prompts deleted")
				return nil
			}
			if c.NArg() == 0 {
				return fmt.Errorf("expected at least one prompt id (or --all)")
			}
			ids := c.Args().Slice()
			if err := env.repo.DeletePromptsByIDs(c.Context, ids); err != nil {
				return err
			}
			fmt.Printf("Deleted %d prompt(s)\n", len(ids))
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "import a prompt interchange file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one file")
			}
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			f, err := os.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := env.cat.Import(f)
			if err != nil {
				return err
			}
			p.IsLocal = true

			if _, err := env.cat.Write(p); err != nil {
				return err
			}
			if err := env.repo.SavePrompts(c.Context, []domain.Prompt{p}); err != nil {
				return err
			}
			fmt.Printf("Imported %s\n", p.ID)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "export a prompt to a file or stdout",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default stdout)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one prompt id")
			}
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			p, err := env.repo.GetPromptByID(c.Context, c.Args().First())
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return env.cat.Export(p, out)
		},
	}
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "list the unique tags across all prompts",
		Action: func(c *cli.Context) error {
			env, err := newAppEnv(c)
			if err != nil {
				return err
			}
			defer env.close()

			tags, err := env.repo.GetAllUniqueTags(c.Context)
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(tags, "\n"))
			return nil
		},
	}
}
