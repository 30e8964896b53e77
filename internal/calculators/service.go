package calculators

import (
	"context"
	"errors"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/gateway"

	log "github.com/sirupsen/logrus"
)

var ErrNoUser = errors.New("sign in to save calculations")

type sessionSource interface {
	UserID() string
}

type creationListener interface {
	Calculated(userID string, calcType calculations.Type) int
}

// Service submits calculator requests for the signed in user and lets the
// history know about every calculation that went through.
type Service struct {
	client   *Client
	session  sessionSource
	listener creationListener
}

var _ Submitter = (*Service)(nil)

func NewService(client *Client, session sessionSource, listener creationListener) *Service {
	return &Service{
		client:   client,
		session:  session,
		listener: listener,
	}
}

func (s *Service) Submit(ctx context.Context, req Request) (calculations.Result, error) {
	userID := s.session.UserID()
	if userID == "" {
		return nil, ErrNoUser
	}

	res, err := s.client.Calculate(ctx, userID, req)
	if err != nil {
		if !gateway.IsCanceled(err) {
			log.Warnf("calculators: %s failed: %s", req.Endpoint(), err)
		}
		return nil, err
	}

	if s.listener != nil {
		s.listener.Calculated(userID, req.CalculationType())
	}
	return res, nil
}

// NewForm returns a form for calcType submitting through s.
func (s *Service) NewForm(calcType calculations.Type) *Form {
	return NewForm(calcType, s)
}
