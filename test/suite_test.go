//go:build integration_test

package test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/calculators"
	"github.com/2beens/fitcalc/internal/config"
	"github.com/2beens/fitcalc/internal/db"
	"github.com/2beens/fitcalc/internal/devserver"
	"github.com/2beens/fitcalc/internal/gateway"
	"github.com/2beens/fitcalc/internal/history"
	"github.com/2beens/fitcalc/internal/querycache"
	"github.com/2beens/fitcalc/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"
)

const (
	serverPort = 9000
	serverHost = "127.0.0.1"

	testAnonKey = "integration-anon-key"
	testDBName  = "fitcalc"
)

var serverEndpoint = "http://" + net.JoinHostPort(serverHost, strconv.Itoa(serverPort))

// IntegrationTestSuite runs the dev server on dockerized postgres and redis
// and talks to it through the same client stack the CLI uses.
type IntegrationTestSuite struct {
	suite.Suite

	DB          *sql.DB
	dockerPool  *dockertest.Pool
	server      *devserver.Server
	redisClient *redis.Client
	teardown    []func()

	coordinator *querycache.Coordinator
	calcClient  *calculations.Client
	calculators *calculators.Client
	history     *history.Service
	mutator     *history.Mutator
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	fmt.Println("setting up test suite...")

	s.teardown = make([]func(), 0)

	var err error
	s.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}
	if err = s.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}
	fmt.Println("dockertest pool ping successful")

	redisPort, err := s.redisSetup(ctx)
	if err != nil {
		s.cleanup()
		log.Fatalf("failed to setup redis: %s", err)
	}
	fmt.Println("redis setup successful")

	pgPort, err := s.postgresSetup(ctx)
	if err != nil {
		s.cleanup()
		log.Fatalf("failed to setup postgres: %s", err)
	}
	fmt.Println("postgres setup successful")

	cfg := getTestConfig(redisPort, pgPort)
	s.server, err = devserver.NewServer(ctx, devserver.NewServerParams{Config: cfg})
	if err != nil {
		s.cleanup()
		log.Fatalf("new server: %s", err)
	}
	s.server.Serve(cfg.Host, cfg.Port)

	if err := s.dockerPool.Retry(func() error {
		resp, err := http.Get(serverEndpoint + "/health")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health: %d", resp.StatusCode)
		}
		return nil
	}); err != nil {
		s.cleanup()
		log.Fatalf("devserver not healthy: %s", err)
	}
	fmt.Println("server started")

	gw, err := gateway.New(gateway.Params{
		BaseURL:    serverEndpoint,
		Credential: testAnonKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		s.cleanup()
		log.Fatalf("new gateway: %s", err)
	}

	metricsManager := metrics.NewTestManager()
	s.coordinator = querycache.New(querycache.Params{MetricsManager: metricsManager})
	s.calcClient = calculations.NewClient(gw, metricsManager)
	s.calculators = calculators.NewClient(gw)
	s.history = history.NewService(s.calcClient, s.coordinator, 5)
	s.mutator = history.NewMutator(s.calcClient, s.coordinator, metricsManager)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.cleanup()
}

func (s *IntegrationTestSuite) cleanup() {
	fmt.Println(" --> cleaning up test suite...")
	if s.coordinator != nil {
		s.coordinator.Close()
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			fmt.Printf(" --> test suite db close error: %s\n", err)
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			fmt.Printf(" --> test suite redis close error: %s\n", err)
		}
	}
	if s.server != nil {
		if err := s.server.GracefulShutdown(); err != nil {
			fmt.Printf(" --> test suite server shutdown error: %s\n", err)
		}
	}
	fmt.Println(" --> test suite server shut down")
	for _, teardown := range s.teardown {
		teardown()
	}
	fmt.Println(" --> test suite cleanup done")
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Host:            serverHost,
		Port:            serverPort,
		AnonKey:         testAnonKey,
		Store:           devserver.StorePostgres,
		RedisHost:       "localhost",
		RedisPort:       redisPort,
		RateLimitPerMin: 10_000,
		PostgresHost:    "localhost",
		PostgresPort:    postgresPort,
		PostgresDBName:  testDBName,
		PostgresUser:    "postgres",
	}
}

func (s *IntegrationTestSuite) redisSetup(ctx context.Context) (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "fitcalc-redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := redisResource.Close(); err != nil {
			fmt.Printf("redis teardown: %s\n", err)
		}
	})

	redisPort := redisResource.GetPort("6379/tcp")
	s.redisClient = redis.NewClient(&redis.Options{
		Addr: net.JoinHostPort("localhost", redisPort),
	})
	if err := s.dockerPool.Retry(func() error {
		return s.redisClient.Ping(ctx).Err()
	}); err != nil {
		return "", fmt.Errorf("connect to redis: %w", err)
	}

	return redisPort, nil
}

func (s *IntegrationTestSuite) postgresSetup(ctx context.Context) (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=" + testDBName,
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := pgResource.Close(); err != nil {
			fmt.Printf("postgres teardown: %s\n", err)
		}
	})

	pgPort := pgResource.GetPort("5432/tcp")
	s.DB, err = sql.Open("postgres", db.ConnString(db.NewDBPoolParams{
		DBHost: "localhost",
		DBPort: pgPort,
		DBName: testDBName,
		DBUser: "postgres",
	}))
	if err != nil {
		return "", fmt.Errorf("open db: %w", err)
	}

	if err := s.dockerPool.Retry(func() error {
		return s.DB.PingContext(ctx)
	}); err != nil {
		return "", fmt.Errorf("connect to db: %w", err)
	}

	return pgPort, nil
}
