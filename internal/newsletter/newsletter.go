// Package newsletter takes email sign-ups and hands them to a mailing list
// provider. Nothing else in the site depends on its state.
package newsletter

import (
	"context"
	"errors"
	"time"

	"inflections/internal/logger"
	"inflections/internal/metrics"
)

type Status string

const (
	StatusSubscribed Status = "subscribed"
	StatusDuplicate  Status = "duplicate"
	StatusInvalid    Status = "invalid"
	StatusFailed     Status = "failed"
)

const (
	msgSubscribed = "Thanks for subscribing!"
	msgDuplicate  = "You're already subscribed!"
	msgFailed     = "Failed to subscribe. Please try again."
)

// ErrAlreadySubscribed is returned by a Provider for a known address.
var ErrAlreadySubscribed = errors.New("newsletter: already subscribed")

// Provider is a mailing list backend.
type Provider interface {
	Subscribe(ctx context.Context, email string, at time.Time) error
}

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

func (r Result) OK() bool {
	return r.Status == StatusSubscribed || r.Status == StatusDuplicate
}

type Service struct {
	provider Provider
	log      *logger.Logger
	now      func() time.Time
}

func NewService(p Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{provider: p, log: log, now: time.Now}
}

// Subscribe validates the address and forwards it to the provider. Invalid
// input is reported with the validation message and never reaches the
// provider.
func (s *Service) Subscribe(ctx context.Context, email string) Result {
	email = Normalize(email)
	if err := Validate(email); err != nil {
		metrics.RecordSubscription(string(StatusInvalid))
		return Result{Status: StatusInvalid, Message: "Valid email is required"}
	}

	err := s.provider.Subscribe(ctx, email, s.now().UTC())
	switch {
	case err == nil:
		metrics.RecordSubscription(string(StatusSubscribed))
		s.log.Info("newsletter subscription", "email", email)
		return Result{Status: StatusSubscribed, Message: msgSubscribed}
	case errors.Is(err, ErrAlreadySubscribed):
		metrics.RecordSubscription(string(StatusDuplicate))
		return Result{Status: StatusDuplicate, Message: msgDuplicate}
	default:
		metrics.RecordSubscription(string(StatusFailed))
		s.log.Error("newsletter subscription failed", "email", email, "error", err)
		return Result{Status: StatusFailed, Message: msgFailed}
	}
}
