package main

import (
	"context"
	"encoding/json"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"chatbot_store/internal/config"
	"chatbot_store/internal/stats"
	"chatbot_store/internal/storage"
	"chatbot_store/pkg/logger"
	"chatbot_store/pkg/metrics"
)

// The record store is driven only through this binary (or another explicit
// caller); nothing runs at package load time.
var (
	cfg config.Config
	log *zap.SugaredLogger
)

func main() {
	app := &cli.App{
		Name:  "chatbot-store",
		Usage: "Persistence service for the chatbot: users, links, chat logs, premade questions",
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			log = logger.New(cfg.LogLevel)
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Sync(log)
			return nil
		},
		Commands: []*cli.Command{
			userCommand(),
			linkCommand(),
			questionCommand(),
			chatlogCommand(),
			historyCommand(),
			listCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		stdlog.Fatal(err)
	}
}

// withStore opens the Mongo-backed record store, runs fn against it and
// closes the connection afterwards. Every one-shot command goes through
// here so the per-operation timeout from config applies uniformly.
func withStore(c *cli.Context, fn func(ctx context.Context, st storage.RecordStore) error) error {
	ctx, cancel := context.WithTimeout(c.Context, cfg.OpTimeout)
	defer cancel()

	st, err := storage.NewMongo(ctx, mongoConfig())
	if err != nil {
		return err
	}
	defer closeStore(st)

	return fn(ctx, st)
}

func mongoConfig() storage.MongoConfig {
	return storage.MongoConfig{
		Username:     cfg.DBUser,
		Password:     cfg.DBPass,
		Host:         cfg.DBHost,
		Database:     cfg.DBName,
		ResetHistory: cfg.ResetHistory,
	}
}

func closeStore(st storage.RecordStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		log.Warnw("close store", "err", err)
	}
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage chatbot users",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Insert a user; the email is normalized and must be unique",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						if err := st.InsertUser(ctx, c.String("name"), c.String("email")); err != nil {
							return err
						}
						fmt.Println("user added")
						return nil
					})
				},
			},
			{
				Name:  "find",
				Usage: "Look up the stored email for a (possibly unnormalized) address",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						email, err := st.FindEmail(ctx, c.String("email"))
						if err != nil {
							return err
						}
						fmt.Println(email)
						return nil
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a user by document id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.DeleteUser(ctx, c.String("id"))
					})
				},
			},
		},
	}
}

func linkCommand() *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Manage deduplicated shareable links",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Insert a link (bumps the tally when the URL already exists)",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					linkURL := c.Args().First()
					if linkURL == "" {
						return fmt.Errorf("link URL is required")
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.InsertLink(ctx, linkURL)
					})
				},
			},
			{
				Name:      "tally",
				Usage:     "Print the current tally of a link",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					linkURL := c.Args().First()
					if linkURL == "" {
						return fmt.Errorf("link URL is required")
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						tally, err := st.FindTally(ctx, linkURL)
						if err != nil {
							return err
						}
						fmt.Println(tally)
						return nil
					})
				},
			},
			{
				Name:      "count",
				Usage:     "Count documents matching the URL (duplicate-detection oracle)",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					linkURL := c.Args().First()
					if linkURL == "" {
						return fmt.Errorf("link URL is required")
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						n, err := st.FindLinkCount(ctx, linkURL)
						if err != nil {
							return err
						}
						fmt.Println(n)
						return nil
					})
				},
			},
			{
				Name:      "bump",
				Usage:     "Add 1 to the tally of an existing link",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					linkURL := c.Args().First()
					if linkURL == "" {
						return fmt.Errorf("link URL is required")
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.UpdateLinkTally(ctx, linkURL)
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a link by document id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.DeleteLink(ctx, c.String("id"))
					})
				},
			},
		},
	}
}

func questionCommand() *cli.Command {
	return &cli.Command{
		Name:  "question",
		Usage: "Manage premade questions",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Insert a premade question (bumps the tally when it already exists)",
				ArgsUsage: "TEXT",
				Action: func(c *cli.Context) error {
					text := strings.Join(c.Args().Slice(), " ")
					if text == "" {
						return fmt.Errorf("question text is required")
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.InsertQuestion(ctx, text)
					})
				},
			},
			{
				Name:      "count",
				Usage:     "Count documents matching the question text",
				ArgsUsage: "TEXT",
				Action: func(c *cli.Context) error {
					text := strings.Join(c.Args().Slice(), " ")
					if text == "" {
						return fmt.Errorf("question text is required")
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						n, err := st.FindQuestionCount(ctx, text)
						if err != nil {
							return err
						}
						fmt.Println(n)
						return nil
					})
				},
			},
			{
				Name:      "bump",
				Usage:     "Add 1 to the tally of an existing question",
				ArgsUsage: "TEXT",
				Action: func(c *cli.Context) error {
					text := strings.Join(c.Args().Slice(), " ")
					if text == "" {
						return fmt.Errorf("question text is required")
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.UpdateQuestionTally(ctx, text)
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a question by document id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.DeleteQuestion(ctx, c.String("id"))
					})
				},
			},
		},
	}
}

func chatlogCommand() *cli.Command {
	return &cli.Command{
		Name:  "chatlog",
		Usage: "Manage logged chat sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Insert a chat log entry with its feedback flags",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "user", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Required: true},
					&cli.BoolFlag{Name: "good", Usage: "user reports a good answer"},
					&cli.BoolFlag{Name: "poor", Usage: "user reports an incorrect or low quality answer"},
					&cli.BoolFlag{Name: "inappropriate", Usage: "user reports an inappropriate answer"},
					&cli.BoolFlag{Name: "saved", Usage: "chat was saved by the user"},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.InsertChatLog(ctx, c.Int64("user"), c.String("text"), storage.ChatLogFlags{
							Good:          c.Bool("good"),
							Poor:          c.Bool("poor"),
							Inappropriate: c.Bool("inappropriate"),
							Saved:         c.Bool("saved"),
						})
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a chat log entry by document id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.DeleteChatLog(ctx, c.String("id"))
					})
				},
			},
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Read and replace per-user chat histories",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the stored exchanges of a user",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "user", Aliases: []string{"u"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						history, err := st.GetChatHistory(ctx, c.Int64("user"))
						if err != nil {
							return err
						}
						for _, ex := range history {
							fmt.Printf("user: %s\nbot:  %s\n", ex.UserInput, ex.BotResponse)
						}
						return nil
					})
				},
			},
			{
				Name:  "set",
				Usage: "Replace the whole history of a user with the given pairs",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "user", Aliases: []string{"u"}, Required: true},
					&cli.StringSliceFlag{
						Name:     "pair",
						Aliases:  []string{"p"},
						Usage:    `exchange formatted as "user input::bot response"; repeatable, in order`,
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					history, err := parseExchanges(c.StringSlice("pair"))
					if err != nil {
						return err
					}
					return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
						return st.UpdateChatHistory(ctx, c.Int64("user"), history)
					})
				},
			},
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Dump every document of a collection as JSON lines",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true},
			&cli.StringFlag{Name: "database", Aliases: []string{"d"}, Usage: "defaults to DB_NAME"},
		},
		Action: func(c *cli.Context) error {
			database := c.String("database")
			if database == "" {
				database = cfg.DBName
			}
			return withStore(c, func(ctx context.Context, st storage.RecordStore) error {
				docs, err := st.ListAll(ctx, database, c.String("collection"))
				if err != nil {
					return err
				}
				for _, doc := range docs {
					line, err := json.Marshal(doc)
					if err != nil {
						return fmt.Errorf("encode document: %w", err)
					}
					fmt.Println(string(line))
				}
				return nil
			})
		},
	}
}

// serveCommand keeps the connection open, exposes Prometheus metrics and
// runs the stats refresher until SIGINT/SIGTERM.
func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the metrics endpoint and collection-stats refresher",
		Action: func(c *cli.Context) error {
			log.Infow("starting chatbot-store", "version", cfg.Version)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			connectCtx, cancel := context.WithTimeout(ctx, cfg.OpTimeout)
			st, err := storage.NewMongo(connectCtx, mongoConfig())
			cancel()
			if err != nil {
				return err
			}
			defer closeStore(st)

			metricsSrv := metrics.MustServe(cfg.MetricsAddr, log)
			refresher := stats.New(st, cfg.StatsInterval, log)
			go refresher.Run(ctx)

			<-ctx.Done()
			log.Info("shutdown signal received, shutting down ...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				log.Warnw("metrics server shutdown error", "err", err)
			}

			log.Info("bye")
			return nil
		},
	}
}

// parseExchanges turns "input::response" arguments into ordered exchanges.
func parseExchanges(pairs []string) ([]storage.Exchange, error) {
	history := make([]storage.Exchange, 0, len(pairs))
	for _, p := range pairs {
		parts := strings.SplitN(p, "::", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed pair %q, want \"user input::bot response\"", p)
		}
		history = append(history, storage.Exchange{UserInput: parts[0], BotResponse: parts[1]})
	}
	return history, nil
}
