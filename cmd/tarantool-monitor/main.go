package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	tarantool "github.com/lattice-db/tarantool-go"
	"github.com/lattice-db/tarantool-go/config"
	"github.com/lattice-db/tarantool-go/metrics"
	"github.com/lattice-db/tarantool-go/tui"
	"github.com/lattice-db/tarantool-go/web"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("tarantool-monitor", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "tarantool-monitor — live request monitor for a tarantool connection\n\nUsage:\n  tarantool-monitor [flags] <addr>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "optional YAML config file, overridden by any flag set explicitly")
	user := fs.String("user", "", "username (anonymous if empty)")
	password := fs.String("password", "", "password")
	connectTimeout := fs.Duration("connect-timeout", time.Second, "connect timeout")
	readTimeout := fs.Duration("read-timeout", time.Second, "read timeout")
	writeTimeout := fs.Duration("write-timeout", time.Second, "write timeout")
	metricsAddr := fs.String("metrics", "", "address to serve GET /metrics on (disabled if empty)")
	burstThreshold := fs.Int("burst-threshold", 20, "CALL/EVAL burst alert threshold (0 or less uses the default of 20)")
	burstWindow := fs.Duration("burst-window", time.Second, "burst detection window")
	burstCooldown := fs.Duration("burst-cooldown", 10*time.Second, "burst alert cooldown per expression")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("tarantool-monitor %s\n", version)
		return
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	fromFile, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg := config.MergeFlags(fromFile, config.Config{
		Addr:           fs.Arg(0),
		User:           *user,
		Password:       *password,
		ConnectTimeout: *connectTimeout,
		ReadTimeout:    *readTimeout,
		WriteTimeout:   *writeTimeout,
		MetricsAddr:    *metricsAddr,
		BurstThreshold: *burstThreshold,
		BurstWindow:    *burstWindow,
		BurstCooldown:  *burstCooldown,
	}, set)

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	collectors := metrics.New()
	collectors.Register(reg)

	conn, err := tarantool.Connect(ctx, cfg.Addr, tarantool.Opts{
		User:           cfg.User,
		Password:       cfg.Password,
		ConnectTimeout: &cfg.ConnectTimeout,
		ReadTimeout:    &cfg.ReadTimeout,
		WriteTimeout:   &cfg.WriteTimeout,
		Logger:         tarantool.NewStdLogger(),
		Metrics:        collectors,
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Addr, err)
	}
	defer conn.Close()

	if cfg.MetricsAddr != "" {
		var lc net.ListenConfig
		lis, err := lc.Listen(ctx, "tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("listen metrics %s: %w", cfg.MetricsAddr, err)
		}
		webSrv := web.New(reg)
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := webSrv.Serve(lis); err != nil {
				log.Printf("metrics serve: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = webSrv.Shutdown(shutdownCtx)
		}()
	}

	model := tui.New(conn.Trace(), cfg.BurstThreshold, cfg.BurstWindow, cfg.BurstCooldown)
	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
