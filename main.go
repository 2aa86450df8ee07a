package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/config"
	"github.com/hunterjsb/fftournament/internal/discord"
	"github.com/hunterjsb/fftournament/internal/interaction"
	"github.com/hunterjsb/fftournament/internal/metrics"
	"github.com/hunterjsb/fftournament/internal/ops"
	"github.com/hunterjsb/fftournament/internal/render"
	"github.com/hunterjsb/fftournament/internal/royale"
	"github.com/hunterjsb/fftournament/internal/session"
	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
		fmt.Println("Continuing with environment variables from system...")
	}

	app := &cli.App{
		Name:  "fftournament",
		Usage: "Clash Royale tournament tools for Discord",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"FFT_CONFIG"},
			},
		},
		Action: runDiscordBot,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the Discord bot",
				Action: runDiscordBot,
			},
			{
				Name:  "tournament",
				Usage: "print the text version of a tournament",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tag", Usage: "tournament tag", Required: true},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "players_ranking, clans_ranking, winner or podium",
						Value: string(tournament.KindPlayersRanking),
					},
				},
				Action: runTournament,
			},
			{
				Name:  "bracket",
				Usage: "seed a bracket from a tournament and resolve it from battle logs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tag", Usage: "tournament tag", Required: true},
					&cli.StringFlag{Name: "clan", Usage: "only count battles played for this clan tag"},
				},
				Action: runBracket,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and initializes the global logger.
func setup(c *cli.Context) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, nil, err
	}
	return cfg, logger.Get(), nil
}

func newRoyaleClient(cfg *config.Config, log logger.Logger, rec *metrics.Recorder) *royale.Client {
	return royale.NewClient(royale.Options{
		BaseURL:   cfg.RoyaleBaseURL,
		Token:     cfg.RoyaleAPIToken,
		Timeout:   cfg.RoyaleTimeout,
		Logger:    log.Named("royale"),
		Metrics:   rec,
		RateLimit: cfg.RoyaleRateLimit,
		Burst:     cfg.RoyaleBurst,
	})
}

func newRenderService(cfg *config.Config, log logger.Logger, rec *metrics.Recorder) *render.Service {
	var images []render.ImageRenderer
	if cfg.RendererURL != "" {
		images = append(images, render.NewHTMLRenderer(cfg.RendererURL, cfg.RendererTimeout))
	}
	images = append(images, render.ChartRenderer{})

	var narrator render.Narrator
	if cfg.OpenAIAPIKey != "" {
		narrator = discord.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIMaxTokens, cfg.OpenAITemperature)
	}
	return render.NewService(log.Named("render"), rec, narrator, images...)
}

// newSessionStore returns the configured store and a function releasing it.
func newSessionStore(ctx context.Context, cfg *config.Config, log logger.Logger) (session.Store, func() error, error) {
	if cfg.SessionBackend == config.BackendRedis {
		client, err := session.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info(ctx, "using redis session store", logger.String("addr", cfg.RedisAddr))
		return session.NewRedisStore(client), client.Close, nil
	}

	store := session.NewMemoryStore()
	stop := store.StartJanitor(janitorInterval)
	return store, func() error {
		stop()
		return nil
	}, nil
}

func runDiscordBot(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	log.Info(ctx, "starting Discord bot mode")
	rec := metrics.New()
	client := newRoyaleClient(cfg, log, rec)

	store, closeStore, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	manager := interaction.NewManager(interaction.Options{
		Store:         store,
		Generator:     newRenderService(cfg, log, rec),
		BattleLogs:    client,
		Logger:        log.Named("interaction"),
		Metrics:       rec,
		SimpleWindow:  cfg.SimpleTimeout,
		BracketWindow: cfg.BracketTimeout,
	})

	bot, err := discord.NewDiscordBot(&discord.Config{
		DiscordToken:   cfg.DiscordToken,
		GuildID:        cfg.GuildID,
		RemoveCommands: cfg.RemoveCommands,
		Tournaments:    client,
		Sessions:       manager,
		Clans:          cfg.ClansForGuild,
		Logger:         log.Named("discord"),
		Metrics:        rec,
	})
	if err != nil {
		return err
	}
	if err := bot.Start(); err != nil {
		return err
	}

	if cfg.OpsAddr != "" {
		go func() {
			if err := ops.Serve(ctx, cfg.OpsAddr, ops.NewRouter(rec, manager.Active), log.Named("ops")); err != nil {
				log.Error(ctx, "ops server failed", logger.Error(err))
			}
		}()
	}

	discord.SetupCloseHandler(func() error {
		log.Info(ctx, "shutting down bot")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		err := manager.Shutdown(shutdownCtx)
		err = errors.Join(err, closeStore(), bot.Stop())
		return err
	})

	log.Info(ctx, "bot is now running, press CTRL-C to exit")
	select {}
}

func runTournament(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	kind, err := tournament.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}
	if kind == tournament.KindBracket || kind == tournament.KindPassWinner {
		return fmt.Errorf("%s is interactive only; use the bracket command for brackets", kind)
	}

	snap, err := newRoyaleClient(cfg, log, nil).GetTournamentByTag(c.Context, c.String("tag"))
	if err != nil {
		return err
	}
	if len(snap.Members) == 0 {
		fmt.Println(interaction.EmptyTournamentNotice)
		return nil
	}

	req := render.Request{Kind: kind, Snapshot: snap, Text: true}
	fmt.Println(render.Title(req))
	fmt.Println(render.Text(req))
	return nil
}

func runBracket(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	client := newRoyaleClient(cfg, log, nil)

	snap, err := client.GetTournamentByTag(c.Context, c.String("tag"))
	if err != nil {
		return err
	}
	if err := tournament.RequireParticipants(snap.Members, bracket.Seeds); err != nil {
		return err
	}

	b, err := bracket.New(tournament.Top(snap.Members, bracket.Seeds), tournament.NormalizeTag(c.String("clan")))
	if err != nil {
		return err
	}
	report := b.Update(c.Context, client, log.Named("bracket"))
	if len(report.Failed) > 0 {
		fmt.Printf("Battle logs unavailable for: %v\n", report.Failed)
	}

	req := render.Request{Kind: tournament.KindBracket, Snapshot: snap, Bracket: b}
	fmt.Println(render.Title(req))
	fmt.Println(render.Text(req))
	return nil
}
