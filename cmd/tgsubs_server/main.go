package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/internal/backend"
	"github.com/kdudkov/tgsubs/internal/config"
	"github.com/kdudkov/tgsubs/internal/database"
	"github.com/kdudkov/tgsubs/pkg/log"
)

type App struct {
	logger  *zap.SugaredLogger
	dbm     *database.DatabaseManager
	server  *backend.Server
	expirer *backend.Expirer
}

func NewApp(conf *config.AppConfig, debug bool, logger *zap.SugaredLogger) (*App, error) {
	db, err := database.GetDatabase(conf.DB(), debug)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", conf.DB(), err)
	}

	dbm := database.New(db, logger)

	if err := dbm.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	dbm.SetTerms(database.Terms{
		InviteBase:      conf.InviteBase(),
		InviteTTL:       conf.InviteTTL(),
		SubscriptionTTL: conf.SubscriptionTTL(),
	})

	app := &App{
		logger:  logger,
		dbm:     dbm,
		server:  backend.NewServer(dbm, conf.ServerAddr(), conf.ServerPrefix(), logger),
		expirer: backend.NewExpirer(dbm, logger),
	}

	if err := app.expirer.Schedule(conf.ExpireSchedule()); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *App) seed(fname string) error {
	if fname == "" {
		return nil
	}

	s, err := backend.LoadSeed(fname)
	if err != nil {
		return err
	}

	app.logger.Infof("seeding from %s", fname)

	return s.Apply(app.dbm)
}

func (app *App) Run() {
	app.expirer.Start()

	go func() {
		if err := app.server.Listen(); err != nil {
			app.logger.Errorf("listen %s: %s", app.server.Address(), err.Error())
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	app.logger.Info("exiting...")
	app.expirer.Stop()

	if err := app.server.Shutdown(); err != nil {
		app.logger.Errorf("shutdown: %s", err.Error())
	}
}

func main() {
	fmt.Printf("version %s\n", getVersion())

	conf := flag.String("config", "tgsubs.yml", "name of config file")
	env := flag.String("env", ".env", "dotenv file")
	debug := flag.Bool("debug", false, "debug")
	seed := flag.String("seed", "", "seed file, overrides server.seed")
	flag.Parse()

	if err := config.LoadDotEnv(*env); err != nil {
		fmt.Fprintf(os.Stderr, "error loading %s: %s\n", *env, err.Error())
		os.Exit(1)
	}

	cfg := config.NewAppConfig()
	loaded := cfg.Load(nil, *conf)

	if *seed != "" {
		cfg.Set("server.seed", *seed)
	}

	zlog, err := log.New(*debug, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't create logger: %s\n", err.Error())
		os.Exit(1)
	}

	defer zlog.Sync()

	logger := zlog.Sugar()

	if !loaded {
		logger.Infof("config %s not loaded, using defaults", *conf)
	}

	app, err := NewApp(cfg, *debug, logger)
	if err != nil {
		logger.Fatal(err.Error())
	}

	if err := app.seed(cfg.SeedFile()); err != nil {
		logger.Fatalf("seed: %s", err.Error())
	}

	app.Run()
}
