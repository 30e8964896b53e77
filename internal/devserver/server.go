package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitcalc/internal/auth"
	"github.com/2beens/fitcalc/internal/config"
	"github.com/2beens/fitcalc/internal/db"
	"github.com/2beens/fitcalc/internal/middleware"
	"github.com/2beens/fitcalc/internal/telemetry/metrics"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"
	"github.com/2beens/fitcalc/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	healthPath = "/health"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	store       Store
	checker     auth.Checker
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	otelShutdown func()

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
}

type NewServerParams struct {
	Config *config.Config
	// Checker defaults to accepting exactly Config.AnonKey
	Checker auth.Checker
	// Store overrides the store selected by Config.Store
	Store Store
}

func NewServer(ctx context.Context, params NewServerParams) (*Server, error) {
	cfg := params.Config
	if cfg == nil {
		return nil, errors.New("devserver config missing")
	}

	checker := params.Checker
	if checker == nil {
		if cfg.AnonKey == "" {
			return nil, errors.New("anon key not set, use FITCALC_ANON_KEY")
		}
		checker = auth.NewKeyChecker(cfg.AnonKey)
	}

	s := &Server{
		config:  cfg,
		checker: checker,
		store:   params.Store,
	}

	var extraCollectors []prometheus.Collector
	if cfg.RedisHost != "" {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       0, // use default DB
		})
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		}
	}

	otelShutdown, err := tracing.HoneycombSetup(cfg.TracingEnabled, "fitcalc-devserver", s.redisClient)
	if err != nil {
		return nil, err
	}
	s.otelShutdown = otelShutdown

	if s.store == nil {
		switch cfg.Store {
		case StoreMemory:
			s.store = NewMemStore()
		case StoreRedis:
			if s.redisClient == nil {
				return nil, errors.New("redis store selected but redis_host not set")
			}
			s.store = NewRedisStore(s.redisClient)
		case StorePostgres:
			dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
				DBHost:         cfg.PostgresHost,
				DBPort:         cfg.PostgresPort,
				DBName:         cfg.PostgresDBName,
				DBUser:         cfg.PostgresUser,
				DBPassword:     cfg.PostgresPassword,
				TracingEnabled: cfg.TracingEnabled,
			})
			if err != nil {
				return nil, fmt.Errorf("new db pool: %w", err)
			}
			s.dbPool = dbPool

			psqlStore := NewPsqlStore(dbPool)
			if err := psqlStore.EnsureSchema(ctx); err != nil {
				dbPool.Close()
				return nil, err
			}
			s.store = psqlStore
			extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
				dbPool,
				map[string]string{"db_name": cfg.PostgresDBName},
			))
		default:
			return nil, fmt.Errorf("unknown store: %s", cfg.Store)
		}
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("fitcalc", "devserver", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	log.Infof("devserver using %T", s.store)
	return s, nil
}

// Router builds the functions router with the full middleware chain.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("devserver-router"))

	NewHandler(s.store).SetupRoutes(r)
	r.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteResponseBytes(w, pkg.ContentType.Text, []byte("ok"), http.StatusOK)
	}).Methods("GET").Name("health")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONError(w, http.StatusNotFound, "unknown function")
	})

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins...))
	r.Use(middleware.NewAuthMiddlewareHandler(s.checker, healthPath).AuthCheck())
	if s.redisClient != nil && s.config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			s.metricsManager,
			"functions",
			s.config.RateLimitPerMin,
		))
	}
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.Router(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	go func() {
		log.Infof(" > devserver listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("devserver, listen and serve: %s", err)
		}
	}()

	if s.config.PrometheusMetricsPort != "" {
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
		metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
		s.metricsHttpServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsRouter,
		}

		go func() {
			log.Debugf(" > metrics listening on: [%s]", metricsAddr)
			err := s.metricsHttpServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("metrics service, listen and serve: %s", err)
			}
		}()
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) MetricsManager() *metrics.Manager {
	return s.metricsManager
}

// GracefulShutdown stops the servers and closes the store connections. All
// failures are collected, none of them stops the rest of the shutdown.
func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("devserver shut down")
	}
	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return err
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
