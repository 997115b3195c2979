package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-lesionform/internal/config"
	"github.com/goliatone/go-lesionform/internal/web"
	"github.com/goliatone/go-lesionform/pkg/client"
	"github.com/goliatone/go-lesionform/pkg/contract"
	"github.com/goliatone/go-lesionform/pkg/render"
	"github.com/goliatone/go-lesionform/pkg/renderers/html"
)

const (
	sessionSweepInterval = time.Minute
	sessionMaxIdle       = 30 * time.Minute
)

func main() {
	var (
		configFlag   = flag.String("config", "", "YAML config file")
		envFileFlag  = flag.String("env-file", ".env", "dotenv file with LESIONFORM_* overrides")
		addrFlag     = flag.String("addr", "", "HTTP listen address (overrides config)")
		endpointFlag = flag.String("endpoint", "", "prediction endpoint URL (overrides config)")
		rendererFlag = flag.String("renderer", html.Name, "page renderer name")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag, config.WithEnvFile(*envFileFlag))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *endpointFlag != "" {
		cfg.Predict.Endpoint = *endpointFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec, err := contract.Load(ctx)
	if err != nil {
		log.Fatalf("contract: %v", err)
	}
	if err := spec.Verify(); err != nil {
		log.Fatalf("contract drift: %v", err)
	}

	predictor, err := client.New(cfg.Predict.Endpoint,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Predict.Timeout}),
		client.WithUserAgent(cfg.Predict.UserAgent),
	)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	page, err := html.New(
		html.WithTemplatesDir(cfg.UI.TemplatesDir),
		html.WithTheme(html.NewManifestSelector(), cfg.UI.Theme, cfg.UI.Variant),
		html.WithWarningIcon(cfg.UI.WarningIcon),
	)
	if err != nil {
		log.Fatalf("html renderer: %v", err)
	}
	registry, err := render.NewRegistry(page)
	if err != nil {
		log.Fatalf("renderers: %v", err)
	}
	renderer, err := registry.Get(*rendererFlag)
	if err != nil {
		log.Fatalf("renderer %q: %v (available: %v)", *rendererFlag, err, registry.List())
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	srv, err := web.New(predictor, renderer,
		web.WithLogger(logger),
		web.WithAssets(html.AssetsFS()),
		web.WithContractDocument(contract.Document()),
		web.WithViewOptions(render.WithTitle(cfg.UI.Title)),
	)
	if err != nil {
		log.Fatalf("web: %v", err)
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s (predict endpoint %s)", cfg.Server.Addr, cfg.Predict.Endpoint)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.SweepSessions(gctx, sessionSweepInterval, sessionMaxIdle)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
