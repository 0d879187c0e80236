package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/stationboard/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/stationboard/config.toml)")
	plain := flag.Bool("plain", false, "print plain text pages instead of the full-screen board")
	listen := flag.String("listen", "", "serve status JSON on this address, e.g. :8080 (optional)")
	logPath := flag.String("log", "", "log file path (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Plain:      *plain,
		Listen:     *listen,
		LogPath:    *logPath,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "stationboard: %v\n", err)
		return 1
	}
	return 0
}
