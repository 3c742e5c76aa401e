// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/internal/metrics"
	"github.com/Thermoquad/aurastat/pkg/aura"
	"github.com/Thermoquad/aurastat/pkg/device"
)

// session is one open bus connection with its engine and device registry
type session struct {
	conn     aura.Stream
	connInfo string
	engine   *aura.Engine
	registry *device.Registry
	stats    *aura.Statistics
	metrics  *metrics.Collector
	server   *http.Server
	log      *zap.Logger
}

// openSession opens the configured connection. log replaces the global
// logger when non-nil.
func openSession(log *zap.Logger) (*session, error) {
	if log == nil {
		log = logger
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, err
	}

	s := &session{
		conn:     conn,
		connInfo: connInfo,
		registry: device.NewRegistry(log.Named("registry")),
		stats:    aura.NewStatistics(),
		log:      log,
	}

	opts := []aura.Option{
		aura.WithControllerID(cfg.ControllerID),
		aura.WithLogger(log.Named("engine")),
		aura.WithObserver(s.stats),
	}
	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		s.metrics = metrics.NewCollector(reg)
		opts = append(opts, aura.WithObserver(s.metrics))
		s.serveMetrics(reg)
	}

	// The session owns the stream; transactions borrow it.
	s.engine = aura.NewEngine(aura.StreamLink(conn), opts...)
	return s, nil
}

func (s *session) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
	s.server = &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server stopped", zap.Error(err))
		}
	}()
}

// Close stops the metrics server and releases the connection
func (s *session) Close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if err := s.conn.Close(); err != nil {
		s.log.Warn("close connection", zap.Error(err))
	}
}

// discover runs WHOAMI rounds until ctx is done or rounds are exhausted.
// onRound is called after each round with the devices it created.
func (s *session) discover(ctx context.Context, rounds int, interval time.Duration, onRound func(round int, created []*device.Device)) error {
	for i := 0; i < rounds; i++ {
		frames, err := s.engine.RequestWhoami()
		if err != nil {
			return err
		}
		created := s.registry.Discover(frames)
		if onRound != nil {
			onRound(i, created)
		}
		if i == rounds-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	s.observeDevices()
	return nil
}

// pollStatus broadcasts one status request and applies the answers
func (s *session) pollStatus() (unknown []uint32, err error) {
	frames, err := s.engine.RequestStatus()
	unknown = s.registry.ApplyStatus(frames)
	s.observeDevices()
	return unknown, err
}

// refreshAccess reads the first page of the access log of every handle
func (s *session) refreshAccess(count uint8) error {
	var errs []error
	for _, h := range s.registry.ByKind(device.KindHandle) {
		frames, err := device.ReadAccessLog(s.engine, h.UID(), 0, count)
		if err != nil {
			errs = append(errs, err)
		}
		s.registry.ApplyReadData(frames)
	}
	s.observeDevices()
	return errors.Join(errs...)
}

func (s *session) observeDevices() {
	if s.metrics != nil {
		s.metrics.ObserveDevices(s.registry.Devices())
	}
}
