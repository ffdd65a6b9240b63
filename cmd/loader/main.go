// Command loader appends event envelopes to a Redis stream, one JSON object
// per input line. It feeds a local projector without a chain listener.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/desoc-network/govx/pkg/config"
	"github.com/desoc-network/govx/pkg/events"
	"github.com/desoc-network/govx/pkg/logging"
	"github.com/desoc-network/govx/pkg/redis"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

type loadOpts struct {
	stream string
	file   string
	strict bool
}

var flags loadOpts

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &cli.App{
		Name:  "loader",
		Usage: "Append event envelopes to a Redis stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "stream",
				Usage:       "Name of the Redis stream to append to.",
				EnvVars:     []string{"LOADER_STREAM"},
				Required:    true,
				Destination: &flags.stream,
			},
			&cli.StringFlag{
				Name:        "file",
				Usage:       "File with one envelope per line, - for stdin.",
				Value:       "-",
				Destination: &flags.file,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "Stop at the first line that is not a valid envelope instead of skipping it.",
				Destination: &flags.strict,
			},
		},
		Action: func(cctx *cli.Context) error {
			return run(cctx.Context)
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := redis.NewClient(ctx, logger, redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		StreamMaxLen: cfg.RedisStreamMaxLen,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	in := io.Reader(os.Stdin)
	if flags.file != "-" {
		f, err := os.Open(flags.file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var added, skipped int
	for line := 1; scanner.Scan(); line++ {
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		env, err := events.Parse(data)
		if err != nil {
			if flags.strict {
				return fmt.Errorf("line %d: %w", line, err)
			}
			logger.Warn("Skipping invalid envelope", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}

		id, err := client.XAdd(ctx, flags.stream, map[string]any{
			"data":    string(data),
			"chainId": env.ChainID,
			"event":   string(env.Event),
		})
		if err != nil {
			return fmt.Errorf("line %d: xadd: %w", line, err)
		}
		logger.Debug("Appended envelope", zap.String("id", id), zap.String("event", string(env.Event)))
		added++
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	length, err := client.XLen(ctx, flags.stream)
	if err != nil {
		return err
	}
	logger.Info("Loaded envelopes",
		zap.String("stream", flags.stream),
		zap.Int("added", added),
		zap.Int("skipped", skipped),
		zap.Int64("stream_length", length))
	return nil
}
