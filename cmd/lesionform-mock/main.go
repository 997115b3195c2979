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
	"github.com/goliatone/go-lesionform/internal/mockservice"
	"github.com/goliatone/go-lesionform/pkg/contract"
)

func main() {
	var (
		configFlag    = flag.String("config", "", "YAML config file")
		envFileFlag   = flag.String("env-file", ".env", "dotenv file with LESIONFORM_* overrides")
		addrFlag      = flag.String("addr", "", "HTTP listen address (overrides config)")
		thresholdFlag = flag.Float64("threshold", mockservice.DefaultThreshold, "top probability below which no cancer is reported")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag, config.WithEnvFile(*envFileFlag))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	addr := cfg.Mock.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec, err := contract.Load(ctx)
	if err != nil {
		log.Fatalf("contract: %v", err)
	}
	svc, err := mockservice.New(spec,
		mockservice.WithThreshold(*thresholdFlag),
		mockservice.WithLogger(log.New(os.Stderr, "mock: ", log.LstdFlags)),
	)
	if err != nil {
		log.Fatalf("mock service: %v", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("mock inference service listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
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
