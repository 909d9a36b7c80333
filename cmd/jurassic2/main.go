// Command jurassic2 sends one prompt to a Jurassic-2 model on Bedrock and
// prints the completion.
//
// Usage:
//
//	jurassic2 -prompt "Write a haiku about Go." -max-tokens 64
//
// AWS credentials are read from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN. Client settings come from -config and JURASSIC2_*
// variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blue-context/jurassic2"
	"github.com/blue-context/jurassic2/bedrock"
	"github.com/blue-context/jurassic2/config"
)

type options struct {
	configPath  string
	prompt      string
	maxTokens   int
	temperature float64
	topP        float64
	stop        string
	printJSON   bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "jurassic2:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(ctx, opts.configPath, nil)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	reg := prometheus.NewRegistry()
	metrics := bedrock.NewMetrics(reg)

	apiOpts := []jurassic2.Option{
		jurassic2.WithLogger(logger),
		jurassic2.WithTimeout(cfg.Timeout),
		jurassic2.WithRetries(cfg.MaxRetries, cfg.RetryDelay, 2.0),
		jurassic2.WithMetrics(metrics),
	}
	if cfg.Endpoint != "" {
		apiOpts = append(apiOpts, jurassic2.WithEndpoint(cfg.Endpoint))
	}

	api, err := jurassic2.New(cfg.ModelID, cfg.Region, apiOpts...)
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.MetricsAddr != "" {
		srv := newMetricsServer(cfg.MetricsAddr, reg)
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server failed")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	var resp *jurassic2.ChatResponse
	g.Go(func() error {
		defer stop()
		var err error
		resp, err = api.ChatCompletion(gctx, buildRequest(opts))
		if err != nil {
			logger.Error("chat completion failed", zap.Error(err))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return printResponse(stdout, resp, opts.printJSON)
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("jurassic2", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", os.Getenv("JURASSIC2_CONFIG"), "path to a YAML config file")
	fs.StringVar(&opts.prompt, "prompt", "", "prompt to complete (required)")
	fs.IntVar(&opts.maxTokens, "max-tokens", 0, "maximum tokens to generate")
	fs.Float64Var(&opts.temperature, "temperature", -1, "sampling temperature")
	fs.Float64Var(&opts.topP, "top-p", -1, "nucleus sampling threshold")
	fs.StringVar(&opts.stop, "stop", "", "comma separated stop sequences")
	fs.BoolVar(&opts.printJSON, "json", false, "print the full response as JSON")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.prompt == "" {
		return options{}, errors.New("-prompt is required")
	}
	return opts, nil
}

// buildRequest sets only the parameters given on the command line.
func buildRequest(opts options) jurassic2.ChatRequest {
	b := jurassic2.NewChatRequestBuilder(opts.prompt)
	if opts.maxTokens > 0 {
		b.MaxTokens(opts.maxTokens)
	}
	if opts.temperature >= 0 {
		b.Temperature(opts.temperature)
	}
	if opts.topP >= 0 {
		b.TopP(opts.topP)
	}
	if opts.stop != "" {
		b.StopSequences(strings.Split(opts.stop, ",")...)
	}
	return b.Build()
}

func printResponse(w io.Writer, resp *jurassic2.ChatResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	for i, c := range resp.Completions {
		if len(resp.Completions) > 1 {
			fmt.Fprintf(w, "--- completion %d ---\n", i+1)
		}
		if c.Data != nil {
			fmt.Fprintln(w, c.Data.Text)
		}
	}
	return nil
}

func newMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
