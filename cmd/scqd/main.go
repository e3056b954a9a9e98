// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command scqd runs a slotted cart queue under synthetic load and serves
// its metrics over HTTP. It exists to exercise code.hybscloud.com/scq
// end-to-end; it is not meant to be a production service.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/scq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("scqd")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "scqd",
		Short: "Run a slotted cart queue under synthetic multi-producer/multi-consumer load.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), demoConfigFromViper(v))
		},
	}

	flags := cmd.Flags()
	flags.Int("slots", 5, "number of batching slots (S)")
	flags.Int("carts", 10, "total in-flight cart budget (K)")
	flags.Int("capacity", 8, "maximum values per cart (C)")
	flags.Int("producers", 5, "number of producer goroutines, assigned to slots round-robin")
	flags.Int("consumers", 5, "number of consumer goroutines")
	flags.Int("values-per-producer", 50_000, "values each producer enqueues before finishing")
	flags.String("metrics-addr", "127.0.0.1:9090", "listen address for the /metrics endpoint")
	_ = v.BindPFlags(flags)

	return cmd
}

type demoConfig struct {
	scq.Config
	producers         int
	consumers         int
	valuesPerProducer int
	metricsAddr       string
}

func demoConfigFromViper(v *viper.Viper) demoConfig {
	return demoConfig{
		Config: scq.Config{
			Slots:    v.GetInt("slots"),
			Carts:    v.GetInt("carts"),
			Capacity: v.GetInt("capacity"),
		},
		producers:         v.GetInt("producers"),
		consumers:         v.GetInt("consumers"),
		valuesPerProducer: v.GetInt("values-per-producer"),
		metricsAddr:       v.GetString("metrics-addr"),
	}
}

func runDemo(ctx context.Context, cfg demoConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("scqd: build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	q, err := scq.Build[[]byte](scq.NewBuilder().
		Slots(cfg.Slots).
		Carts(cfg.Carts).
		Capacity(cfg.Capacity).
		WithLogger(logger))
	if err != nil {
		return fmt.Errorf("scqd: build queue: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(scq.NewCollector("scqd", q.Stats()))

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:    cfg.metricsAddr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	go func() {
		logger.Info("scqd: serving metrics", zap.String("addr", cfg.metricsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("scqd: metrics server exited", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	consumers, cctx := errgroup.WithContext(ctx)
	for c := 0; c < cfg.consumers; c++ {
		consumers.Go(func() error {
			return consume(q, logger)
		})
	}

	producers, pctx := errgroup.WithContext(cctx)
	for p := range cfg.producers {
		slot := scq.SlotID{Index: p % max(cfg.Slots, 1)}
		producers.Go(func() error {
			return produce(pctx, q, slot, cfg.valuesPerProducer)
		})
	}

	// Once every producer has finished (or one has failed), close the
	// queue so consumers drain remaining partial carts instead of
	// blocking on Dequeue forever.
	producersErr := producers.Wait()
	q.Close()

	if consumersErr := consumers.Wait(); consumersErr != nil {
		return consumersErr
	}
	return producersErr
}

func produce(ctx context.Context, q *scq.Queue[[]byte], slot scq.SlotID, count int) error {
	payload := make([]byte, 64)
	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for j := range payload {
			payload[j] = byte(rand.Uint32())
		}
		if err := q.Enqueue(slot, append([]byte(nil), payload...)); err != nil {
			return fmt.Errorf("scqd: producer for slot %d: %w", slot.Index, err)
		}
	}
	return nil
}

func consume(q *scq.Queue[[]byte], logger *zap.Logger) error {
	for {
		cart, err := q.Dequeue()
		if err != nil {
			return fmt.Errorf("scqd: consumer: %w", err)
		}
		if !cart.Valid() {
			return nil
		}
		slot, values, err := cart.Get()
		if err != nil {
			cart.Close()
			return fmt.Errorf("scqd: consumer: %w", err)
		}
		logger.Debug("scqd: delivered cart", zap.Int("slot", slot.Index), zap.Int("values", len(values)))
		cart.Close()
	}
}
