package api

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"ilds/internal/config"
	"ilds/internal/congestion"
	"ilds/internal/events"
	"ilds/internal/graph"
	"ilds/internal/manifest"
	"ilds/internal/metrics"
	"ilds/internal/netload"
	"ilds/internal/scheduling"
	"ilds/internal/store"
)

type Server struct {
	Config    *config.Config
	Network   *graph.Shared
	Scheduler *scheduling.Scheduler
	Adapter   *congestion.Adapter
	Sweeper   *congestion.Worker
	Store     store.Store
	Broker    events.Broker

	validate *validator.Validate
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewServer builds the network, fleet and backends described by cfg. The
// network is read from NETWORK_PATH and then DATABASE_URL when set; FLEET_PATH
// registers vehicles and schedules the manifest's deliveries once. Uses an
// in-memory broker unless REDIS_URL is set.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger := log.Default()

	g := graph.New()
	if cfg.NetworkPath != "" {
		if _, err := netload.LoadFile(cfg.NetworkPath, g, logger); err != nil {
			return nil, err
		}
	}
	if cfg.DatabaseURL != "" {
		db, err := netload.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		_, err = netload.LoadPostgres(ctx, db, g, logger)
		_ = db.Close()
		if err != nil {
			return nil, err
		}
	}

	policy, err := scheduling.ParsePolicy(cfg.SelectionPolicy)
	if err != nil {
		return nil, err
	}

	var fleet *manifest.Manifest
	if cfg.FleetPath != "" {
		if fleet, err = manifest.Load(cfg.FleetPath); err != nil {
			return nil, err
		}
	}
	var vehicles []*scheduling.Vehicle
	if fleet != nil {
		vehicles = fleet.Vehicles
	}

	var broker events.Broker = events.NewMemoryBroker()
	if cfg.RedisURL != "" {
		rb, err := events.NewRedisBroker(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis broker: %w", err)
		}
		broker = rb
	}

	s := &Server{
		Config:    cfg,
		Network:   graph.NewShared(g),
		Scheduler: scheduling.New(vehicles, scheduling.WithPolicy(policy), scheduling.WithLogger(logger)),
		Adapter:   congestion.NewRandom(congestionRange(cfg.CongestionModel), rand.New(rand.NewSource(seed(cfg.CongestionSeed))), congestion.WithLogger(logger)),
		Store:     store.NewMemory(),
		Broker:    broker,
		validate:  validator.New(),
		logger:    logger,
	}
	if cfg.RateRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst)
	}
	s.Sweeper = congestion.NewWorker(s.Adapter, s.Network, cfg.CongestionInterval)
	s.Sweeper.OnSweep = s.onSweep
	metrics.ObserveNetwork(g.NodeCount(), g.EdgeCount())

	if fleet != nil && len(fleet.Deliveries) > 0 {
		round, err := s.schedule(ctx, fleet.Deliveries, false)
		if err != nil {
			return nil, err
		}
		logger.Printf("fleet: path=%s vehicles=%d scheduled=%d failed=%d",
			cfg.FleetPath, len(vehicles), len(round.Committed()), len(round.Failed()))
	}
	return s, nil
}

func congestionRange(model string) congestion.Range {
	if model == "volatile" {
		return congestion.VolatileRange
	}
	return congestion.MildRange
}

// seed of 0 means a time-based seed.
func seed(v int64) int64 {
	if v == 0 {
		return time.Now().UnixNano()
	}
	return v
}

func (s *Server) onSweep(sw congestion.Sweep) {
	metrics.CongestionUpdates.WithLabelValues("updated").Add(float64(sw.Updated))
	metrics.CongestionUpdates.WithLabelValues("failed").Add(float64(sw.Failed))
	if sw.Failed > 0 {
		s.Network.Read(func(g *graph.Graph) { metrics.ObserveNetwork(g.NodeCount(), g.EdgeCount()) })
	}
	events.PublishSweep(s.Broker, sw)
}

// schedule stores the requests and runs one round over them.
func (s *Server) schedule(ctx context.Context, reqs []*scheduling.DeliveryRequest, reset bool) (scheduling.Round, error) {
	stored, reused, err := s.Store.PutRequests(ctx, reqs)
	if err != nil {
		return scheduling.Round{}, err
	}
	if reset {
		s.Scheduler.ResetVehicles()
	}
	round := s.Scheduler.ScheduleOn(s.Network, stored)
	if err := s.Store.SaveRound(ctx, round); err != nil {
		return round, err
	}
	metrics.RoundDuration.Observe(round.Duration.Seconds())
	for _, o := range round.Outcomes {
		metrics.DeliveryOutcomes.WithLabelValues(string(o.Kind)).Inc()
	}
	events.PublishRound(s.Broker, round)
	s.logger.Printf("scheduler: round=%s requests=%d reused=%d scheduled=%d failed=%d",
		round.ID, len(stored), reused, len(round.Committed()), len(round.Failed()))
	return round, nil
}

// changed refreshes the size gauges and announces a network mutation.
func (s *Server) changed(g *graph.Graph, op string, data map[string]any) {
	metrics.ObserveNetwork(g.NodeCount(), g.EdgeCount())
	events.PublishNetworkChange(s.Broker, op, data)
}

// Close stops the sweeper and releases the broker.
func (s *Server) Close() error {
	s.Sweeper.Close()
	if c, ok := s.Broker.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
