package history

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/gateway"
	"github.com/2beens/fitcalc/internal/querycache"
	"github.com/2beens/fitcalc/internal/telemetry/metrics"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrNoUser = errors.New("no signed in user")
	ErrNoIDs  = errors.New("no calculation ids to delete")
)

type DeleteResult struct {
	Requested []string
	// Deleted is what the backend acknowledged; it may be shorter than
	// Requested.
	Deleted     []string
	Invalidated int
}

// Mutator runs the history mutations and keeps the query cache coherent
// with them. Cache entries are only invalidated after the backend confirmed
// the mutation.
type Mutator struct {
	client         calculationsClient
	coordinator    *querycache.Coordinator
	metricsManager *metrics.Manager
}

func NewMutator(client calculationsClient, coordinator *querycache.Coordinator, metricsManager *metrics.Manager) *Mutator {
	return &Mutator{
		client:         client,
		coordinator:    coordinator,
		metricsManager: metricsManager,
	}
}

// Delete removes ids of userID. A failed or canceled delete leaves the
// cache untouched.
func (m *Mutator) Delete(ctx context.Context, userID string, ids []string) (_ *DeleteResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.Int("ids", len(ids)))

	if userID == "" {
		return nil, ErrNoUser
	}
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}

	resp, err := m.client.Delete(ctx, userID, ids)
	if err != nil {
		if gateway.IsCanceled(err) {
			log.Debugf("history: delete of %d calculations canceled", len(ids))
			return nil, err
		}
		return nil, fmt.Errorf("delete calculations: %w", err)
	}

	deleted := resp.Deleted
	if len(deleted) < len(ids) {
		log.Warnf("history: backend deleted %d of %d requested calculations", len(deleted), len(ids))
	}

	// the acknowledged ids are matched too, in case the backend reports
	// records under ids we did not send
	affected := slices.Concat(ids, deleted)
	invalidated := m.coordinator.Invalidate(DeletePredicate(userID, affected))
	log.Debugf("history: deleted %d calculations, %d cache entries invalidated", len(deleted), invalidated)

	return &DeleteResult{
		Requested:   ids,
		Deleted:     deleted,
		Invalidated: invalidated,
	}, nil
}

// Calculated invalidates the reads a newly created calculation of calcType
// shows up in. Call it only after the calculation succeeded.
func (m *Mutator) Calculated(userID string, calcType calculations.Type) int {
	if userID == "" {
		return 0
	}
	if m.metricsManager != nil {
		m.metricsManager.CounterCalculationsAdded.WithLabelValues(string(calcType)).Inc()
	}

	invalidated := m.coordinator.Invalidate(CreatePredicate(userID, calcType))
	log.Debugf("history: new %s calculation, %d cache entries invalidated", calcType, invalidated)
	return invalidated
}

// SignedOut drops every cached read of userID.
func (m *Mutator) SignedOut(userID string) int {
	return m.coordinator.Invalidate(querycache.ForUser(userID))
}
