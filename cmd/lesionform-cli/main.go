package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-lesionform/internal/config"
	"github.com/goliatone/go-lesionform/pkg/client"
	"github.com/goliatone/go-lesionform/pkg/controller"
	"github.com/goliatone/go-lesionform/pkg/renderers/tui"
)

func main() {
	var (
		configFlag   = flag.String("config", "", "YAML config file")
		envFileFlag  = flag.String("env-file", ".env", "dotenv file with LESIONFORM_* overrides")
		endpointFlag = flag.String("endpoint", "", "prediction endpoint URL (overrides config)")
		jsonFlag     = flag.Bool("json", false, "print the prediction as JSON on stdout")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag, config.WithEnvFile(*envFileFlag))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *endpointFlag != "" {
		cfg.Predict.Endpoint = *endpointFlag
	}

	predictor, err := client.New(cfg.Predict.Endpoint,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Predict.Timeout}),
		client.WithUserAgent(cfg.Predict.UserAgent),
	)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := controller.New(predictor)
	defer ctrl.Close()

	// Prompts use stderr so -json output stays clean.
	session, err := tui.NewSession(ctrl, tui.WithOutput(os.Stderr))
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	result, err := session.Run(ctx)
	switch {
	case errors.Is(err, tui.ErrAborted):
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(130)
	case errors.Is(err, tui.ErrNoPrediction):
		os.Exit(1)
	case err != nil:
		log.Fatalf("session: %v", err)
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("encode result: %v", err)
		}
	}
}
