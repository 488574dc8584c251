package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/config"
	"github.com/chaincodec/chaincodec/internal/csdl"
	"github.com/chaincodec/chaincodec/internal/evm"
	"github.com/chaincodec/chaincodec/internal/logging"
	"github.com/chaincodec/chaincodec/internal/registry"
	"github.com/chaincodec/chaincodec/internal/stream"
	"github.com/chaincodec/chaincodec/internal/telemetry"
)

var (
	streamHealthAddr  string
	streamMetricsAddr string
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run the live decode pipeline for every configured chain until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log := logging.New()
		metrics := telemetry.Init()

		pipelines := make(map[string]*stream.Pipeline, len(cfg.Chains))
		statuses := make(map[string]telemetry.StreamStatus, len(cfg.Chains))
		reg := registry.New()

		for _, ch := range cfg.Chains {
			for _, dir := range ch.CSDLDirs {
				schemas, err := csdl.LoadDir(dir)
				if err != nil {
					return fmt.Errorf("chain %s: csdl dir %s: %w", ch.Slug, dir, err)
				}
				for _, s := range schemas {
					if err := reg.Upsert(s); err != nil {
						return fmt.Errorf("chain %s: schema %s v%d: %w", ch.Slug, s.Name, s.Version, err)
					}
				}
			}

			p, err := buildPipeline(ch, cfg.Stream, reg, metrics)
			if err != nil {
				return fmt.Errorf("chain %s: %w", ch.Slug, err)
			}
			pipelines[ch.Slug] = p
			statuses[ch.Slug] = p
		}

		healthSrv := telemetry.Serve(streamHealthAddr, telemetry.Checker{
			RegistryPing: func(ctx context.Context) error { return nil },
			Streams:      statuses,
		})
		metricsSrv := &http.Server{Addr: streamMetricsAddr, Handler: metricsHandler(metrics)}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		for slug, p := range pipelines {
			go func(slug string, p *stream.Pipeline) {
				log.Info("stream pipeline starting", "chain", slug)
				p.Run(ctx)
				log.Info("stream pipeline stopped", "chain", slug)
			}(slug, p)
		}

		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "error", err)
			}
		}()

		log.Info("chaincodec stream running", "chains", len(pipelines), "health_addr", streamHealthAddr, "metrics_addr", streamMetricsAddr)
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaultHTTPTimeout)
		defer shutdownCancel()
		_ = telemetry.Shutdown(shutdownCtx, healthSrv)
		_ = metricsSrv.Shutdown(shutdownCtx)

		return nil
	},
}

func metricsHandler(m *telemetry.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	return mux
}

func buildPipeline(ch config.Chain, defaults config.Stream, reg *registry.Memory, metrics *telemetry.Metrics) (*stream.Pipeline, error) {
	family := strings.ToLower(ch.Family)

	var source stream.LogSource
	var decoder chain.EventDecoder

	switch family {
	case "evm":
		addrs := make([]common.Address, 0, len(ch.Addresses))
		for _, a := range ch.Addresses {
			addrs = append(addrs, common.HexToAddress(a))
		}
		source = evm.NewLogSource(ch.WSURL, ch.Slug, addrs)
		decoder = evm.NewDecoder()
	default:
		return nil, fmt.Errorf("chain family %q has no stream reference implementation yet; only evm ships a LogSource", ch.Family)
	}

	pcfg := stream.Config{
		ChainSlug: ch.Slug,
		Source:    source,
		Decoder:   decoder,
		Registry:  reg,
		Hooks:     telemetry.NewHooks(metrics),
	}
	s := defaults
	if ch.Stream != nil {
		s = ch.Stream.Stream
		pcfg.AllowList = ch.Stream.AllowList
	}
	pcfg.IngressCapacity = s.IngressCapacity
	pcfg.SubscriberBuffer = s.SubscriberBuffer
	pcfg.ConnectTimeout = s.ConnectTimeout
	pcfg.SubscribeTimeout = s.SubscribeTimeout

	return stream.NewPipeline(pcfg), nil
}

func init() {
	streamCmd.Flags().StringVar(&streamHealthAddr, "health-addr", ":8081", "Address for the /healthz endpoint")
	streamCmd.Flags().StringVar(&streamMetricsAddr, "metrics-addr", ":9090", "Address for the /metrics endpoint")
}
