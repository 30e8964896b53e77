package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/fitcalc/internal/auth"
	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/calculators"
	"github.com/2beens/fitcalc/internal/config"
	"github.com/2beens/fitcalc/internal/gateway"
	"github.com/2beens/fitcalc/internal/history"
	"github.com/2beens/fitcalc/internal/querycache"
	"github.com/2beens/fitcalc/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var errNotSignedIn = errors.New("not signed in, set FITCALC_ACCESS_TOKEN")

// app wires one signed in session to the remote functions.
type app struct {
	session     *auth.Session
	coordinator *querycache.Coordinator
	history     *history.Service
	mutator     *history.Mutator
	calculators *calculators.Service
}

func newApp(cfg *config.Config) (*app, error) {
	gw, err := gateway.New(gateway.Params{
		BaseURL:    cfg.FunctionsURL,
		Credential: cfg.AnonKey,
		HTTPClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, err
	}

	metricsManager := metrics.NewManager("fitcalc", "cli", prometheus.NewRegistry())
	coordinator := querycache.New(querycache.Params{
		StaleTime:      cfg.StaleTime,
		GCTime:         cfg.GCTime,
		MetricsManager: metricsManager,
	})

	calcClient := calculations.NewClient(gw, metricsManager)
	mutator := history.NewMutator(calcClient, coordinator, metricsManager)

	session := auth.NewSession()
	session.OnSignOut(func(userID string) {
		mutator.SignedOut(userID)
	})
	if cfg.AccessToken != "" {
		userID, err := session.SignIn(cfg.AccessToken)
		if err != nil {
			coordinator.Close()
			return nil, fmt.Errorf("sign in: %w", err)
		}
		log.Debugf("signed in as [%s]", userID)
	}

	return &app{
		session:     session,
		coordinator: coordinator,
		history:     history.NewService(calcClient, coordinator, cfg.PageSize),
		mutator:     mutator,
		calculators: calculators.NewService(calculators.NewClient(gw), session, mutator),
	}, nil
}

func (a *app) userID() (string, error) {
	userID := a.session.UserID()
	if userID == "" {
		return "", errNotSignedIn
	}
	return userID, nil
}

func (a *app) close() {
	a.session.SignOut()
	a.coordinator.Close()
}

func resultErr[T any](res querycache.Result[T]) error {
	switch res.Status {
	case querycache.StatusSuccess:
		return nil
	case querycache.StatusDisabled:
		return errNotSignedIn
	case querycache.StatusError:
		return res.Err
	default:
		return fmt.Errorf("query %s", res.Status)
	}
}
