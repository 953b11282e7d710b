package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mini-botapi/client"
	"mini-botapi/config"
	"mini-botapi/logger"
	"mini-botapi/observe"
)

const usage = `usage: botctl [-config path] <command> [args]

commands:
  getme                       show the bot user
  send <chat> <text>          send a text message
  photo <chat> <file>         upload a photo
  file <file_id> <out>        download a file
  updates [offset]            fetch pending updates once
  serve [-listen addr]        run a local in-memory API server
`

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file, .toml or .yaml (optional)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "botctl: %v\n", err)
		return 1
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.Metrics.Listen != "" {
		stop := serveMetrics(cfg.Metrics.Listen)
		defer stop()
	}

	if args[0] == "serve" {
		err = serve(ctx, cfg, args[1:])
	} else {
		err = runClientCommand(ctx, cfg, args)
	}
	if errors.Is(err, errUsage) {
		flag.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "botctl: %v\n", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func runClientCommand(ctx context.Context, cfg config.Config, args []string) error {
	c, err := client.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 < cmd.minArgs {
		return errUsage
	}
	return cmd.run(ctx, c, args[1:])
}

// serveMetrics exposes /metrics and /healthz until stop is called.
func serveMetrics(addr string) (stop func()) {
	srv := &http.Server{Addr: addr, Handler: observe.NewMux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
