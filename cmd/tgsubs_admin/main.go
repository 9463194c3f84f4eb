package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jroimartin/gocui"
	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/internal/api"
	"github.com/kdudkov/tgsubs/internal/config"
	"github.com/kdudkov/tgsubs/internal/console"
	"github.com/kdudkov/tgsubs/pkg/log"
	"github.com/kdudkov/tgsubs/pkg/model"
)

type App struct {
	g      *gocui.Gui
	conf   *config.AppConfig
	logger *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	subs      *console.SubscriptionsView
	products  *console.ProductsView
	groups    *console.GroupsView
	subscribe *console.SubscribeForm

	// current list screen
	screen string
	// origin of the subscriptions list, read by the view off the ui goroutine
	offset atomic.Int64

	mx      sync.Mutex
	message string
	pending chan bool
}

func NewApp(conf *config.AppConfig, logger *zap.SugaredLogger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	remote := api.NewRemoteAPI(conf.APIURL(), conf.APITimeout(), logger)

	app := &App{
		conf:      conf,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		subs:      console.NewSubscriptionsView(remote, conf.PerPage(), conf.Debounce(), logger),
		products:  console.NewProductsView(remote, logger),
		groups:    console.NewGroupsView(remote, logger),
		subscribe: console.NewSubscribeForm(remote, logger),
		screen:    subsView,
	}

	confirm := console.ConfirmFunc(app.confirm)

	app.subs.SetConfirmer(confirm)
	app.products.SetConfirmer(confirm)
	app.groups.SetConfirmer(confirm)
	app.subs.SetScroller(app)
	app.subs.SetOnChange(app.redraw)

	return app
}

func (app *App) Run() error {
	var err error

	app.g, err = gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}

	defer app.g.Close()

	app.g.SetManagerFunc(app.layout)

	if err := app.setBindings(); err != nil {
		return err
	}

	app.subs.Start()

	app.background(func() error { return app.products.Load(app.ctx) })

	if err := app.g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

func (app *App) stop(_ *gocui.Gui, _ *gocui.View) error {
	app.cancel()
	app.subs.Close()

	return gocui.ErrQuit
}

// background runs f off the ui goroutine and redraws when it is done.
// Views record their own errors, f's error is only logged.
func (app *App) background(f func() error) {
	go func() {
		if err := f(); err != nil {
			app.logger.Debugf("%s", err.Error())
		}

		app.redraw()
	}()
}

func (app *App) setMessage(msg string) {
	app.mx.Lock()
	defer app.mx.Unlock()

	app.message = msg
}

func (app *App) getMessage() string {
	app.mx.Lock()
	defer app.mx.Unlock()

	return app.message
}

// printCatalog lists the products and whether one can subscribe to them.
func printCatalog(ctx context.Context, c *console.Catalog) error {
	if err := c.Load(ctx); err != nil {
		_, msg := c.State()
		return errors.New(msg)
	}

	for _, it := range c.Items() {
		state := "coming soon"
		if it.Subscribable {
			state = "open"
		}

		fmt.Printf("%4d  %-30s %-12s %s\n", it.Product.ID, it.Product.Name, state, it.Product.Description)
	}

	return nil
}

func subscribeOnce(ctx context.Context, f *console.SubscribeForm, productID uint, email, expires string) error {
	if err := f.Load(ctx, productID); err != nil {
		_, msg := f.State()
		return errors.New(msg)
	}

	var exp *time.Time

	if expires != "" {
		t, err := model.ParseTime(expires)
		if err != nil {
			return fmt.Errorf("bad expiration time %q", expires)
		}

		exp = &t
	}

	res, err := f.Submit(ctx, email, exp)
	if err != nil {
		_, msg := f.State()
		return errors.New(msg)
	}

	fmt.Println(res.Message)
	fmt.Printf("Product:              %s\n", f.Product().Name)
	fmt.Printf("Invite link:          %s\n", res.InviteLink)
	fmt.Printf("Invite expires:       %s\n", console.FormatTime(res.InviteExpiresAt))
	fmt.Printf("Subscription expires: %s\n", console.FormatTime(res.SubscriptionExpiresAt))

	return nil
}

func main() {
	fmt.Printf("version %s\n", getVersion())

	conf := flag.String("config", "tgsubs.yml", "name of config file")
	env := flag.String("env", ".env", "dotenv file")
	debug := flag.Bool("debug", false, "debug")
	products := flag.Bool("products", false, "print the product catalog and exit")
	email := flag.String("subscribe", "", "subscribe this email and exit")
	productID := flag.Uint("product", 0, "product to subscribe to")
	expires := flag.String("expires", "", "subscription expiration time, server default if empty")
	flag.Parse()

	if err := config.LoadDotEnv(*env); err != nil {
		fmt.Fprintf(os.Stderr, "error loading %s: %s\n", *env, err.Error())
		os.Exit(1)
	}

	cfg := config.NewAppConfig()
	loaded := cfg.Load(nil, *conf)
	oneShot := *products || *email != ""

	logFile := cfg.LogFile()
	if oneShot {
		logFile = ""
	}

	zlog, err := log.New(*debug, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't create logger: %s\n", err.Error())
		os.Exit(1)
	}

	defer zlog.Sync()

	logger := zlog.Sugar()

	if !loaded {
		logger.Infof("config %s not loaded, using defaults", *conf)
	}

	logger.Infof("api: %s", cfg.APIURL())

	if oneShot {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		remote := api.NewRemoteAPI(cfg.APIURL(), cfg.APITimeout(), logger)

		if *products {
			err = printCatalog(ctx, console.NewCatalog(remote, logger))
		} else {
			err = subscribeOnce(ctx, console.NewSubscribeForm(remote, logger), *productID, strings.TrimSpace(*email), *expires)
		}

		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		return
	}

	app := NewApp(cfg, logger)

	if loaded {
		cfg.Watch(logger, func(c *config.AppConfig) {
			app.subs.SetDebounce(c.Debounce())
		})
	}

	if err := app.Run(); err != nil {
		logger.Errorf("%s", err.Error())
	}
}
