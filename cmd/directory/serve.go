package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/directory/hub"
	"github.com/tailored-agentic-units/directory/node"
	"github.com/tailored-agentic-units/directory/observability"
	"github.com/tailored-agentic-units/directory/rpc"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	nodes       int
	agents      []string
	host        string
	port        int
	metricsAddr string
	latency     time.Duration
	jitter      time.Duration
}

func newServeCmd(a *app) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start agent nodes on one in-process hub, each behind its own RPC endpoint",
		Long: `serve starts one node per agent, connected through a shared in-process hub.
Node i listens on --host at --port+i. Prometheus metrics for the hub and
node events are served at --metrics-addr under /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.nodes, "nodes", 2, "Number of agent nodes to start")
	flags.StringSliceVar(&opts.agents, "agents", nil, "Agent tokens for the first nodes (others are generated)")
	flags.StringVar(&opts.host, "host", "127.0.0.1", "Interface the RPC endpoints listen on")
	flags.IntVar(&opts.port, "port", 8080, "Port of the first node; node i listens on port+i")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "127.0.0.1:9090", "Address of the metrics endpoint; empty disables it")
	flags.DurationVar(&opts.latency, "latency", 0, "Propagation delay added to every hub delivery (overrides config)")
	flags.DurationVar(&opts.jitter, "jitter", 0, "Random extra propagation delay (overrides config)")

	return cmd
}

func serve(ctx context.Context, a *app, opts serveOptions) error {
	if opts.nodes < 1 {
		return fmt.Errorf("--nodes must be at least 1")
	}
	if len(opts.agents) > opts.nodes {
		return fmt.Errorf("%d agents given for %d nodes", len(opts.agents), opts.nodes)
	}

	hubCfg := a.cfg.Hub
	hubCfg.Merge(&hub.Config{Latency: opts.latency, Jitter: opts.jitter, Logger: a.logger})
	h := hub.New(ctx, hubCfg)
	defer h.Shutdown(shutdownTimeout)

	events := observability.NewPrometheusObserver()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		hub.NewCollector(h),
		events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	var base observability.Observer = observability.NewSlogObserver(a.logger)
	if a.cfg.Observer != "" {
		obs, err := observability.GetObserver(a.cfg.Observer)
		if err != nil {
			return err
		}
		base = obs
	}
	observer := observability.NewMultiObserver(base, events)

	nodes := make([]*node.Node, 0, opts.nodes)
	defer func() {
		for _, n := range nodes {
			if err := n.Close(); err != nil {
				a.logger.Error("failed to close node", slog.String("agent", n.ID().String()), slog.String("error", err.Error()))
			}
		}
	}()

	servers := make([]*http.Server, 0, opts.nodes+1)
	interceptors := connect.WithInterceptors(rpc.NewLoggingInterceptor(a.logger))

	for i := range opts.nodes {
		n, err := startNode(ctx, a, i, opts.agents, h, observer)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)

		mux := http.NewServeMux()
		mux.Handle(rpc.NewHandler(n, interceptors))
		addr := net.JoinHostPort(opts.host, strconv.Itoa(opts.port+i))
		servers = append(servers, &http.Server{Addr: addr, Handler: mux})

		a.logger.Info("node ready", slog.String("agent", n.ID().String()), slog.String("addr", addr))
	}

	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{Addr: opts.metricsAddr, Handler: mux})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func startNode(ctx context.Context, a *app, i int, agents []string, h hub.Hub, observer observability.Observer) (*node.Node, error) {
	cfg := *a.cfg
	cfg.Agent = ""
	if i < len(agents) {
		cfg.Agent = agents[i]
	} else if i == 0 {
		cfg.Agent = a.cfg.Agent
	}
	if cfg.Store.Path != "" {
		cfg.Store.Path = filepath.Join(cfg.Store.Path, fmt.Sprintf("node-%d", i))
	}

	n, err := node.New(ctx, &cfg, h, node.WithLogger(a.logger), node.WithObserver(observer))
	if err != nil {
		return nil, fmt.Errorf("start node %d: %w", i, err)
	}
	return n, nil
}
