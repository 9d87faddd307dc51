package matching

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/whisper/matchmaker/internal/metrics"
	"github.com/whisper/matchmaker/internal/ratelimit"
)

const intakeTimeout = 3 * time.Second

// JoinRequest is the NATS payload asking for a participant to wait for a match.
type JoinRequest struct {
	ParticipantID string `json:"participant_id"`
}

// LeaveRequest is the NATS payload withdrawing a waiting participant.
type LeaveRequest struct {
	ParticipantID string `json:"participant_id"`
}

// RequestSource delivers raw join and leave requests.
// *messaging.NATSClient satisfies it.
type RequestSource interface {
	SubscribeMatchRequest(handler func(data []byte)) error
	SubscribeMatchCancel(handler func(data []byte)) error
}

// Limiter throttles join requests. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Allow(ctx context.Context, identifier string, rule ratelimit.Rule) (bool, error)
}

// Intake feeds join and leave requests from a RequestSource into a Service.
type Intake struct {
	svc     *Service
	limiter Limiter
}

// NewIntake creates an Intake for svc. limiter may be nil.
func NewIntake(svc *Service, limiter Limiter) *Intake {
	return &Intake{svc: svc, limiter: limiter}
}

// Listen subscribes the intake handlers on src.
func (in *Intake) Listen(src RequestSource) error {
	if err := src.SubscribeMatchRequest(in.handleJoin); err != nil {
		return err
	}
	return src.SubscribeMatchCancel(in.handleLeave)
}

func (in *Intake) handleJoin(data []byte) {
	var req JoinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ParticipantID == "" {
		log.Printf("[matcher] invalid join request: %q", data)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), intakeTimeout)
	defer cancel()

	if in.limiter != nil {
		ok, err := in.limiter.Allow(ctx, req.ParticipantID, ratelimit.RuleJoin)
		if err == nil && !ok {
			metrics.JoinsTotal.WithLabelValues("rate_limited").Inc()
			log.Printf("[matcher] join %s rate limited", req.ParticipantID)
			return
		}
	}

	err := in.svc.Join(ctx, req.ParticipantID)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownParticipant), errors.Is(err, ErrDuplicateParticipant):
		log.Printf("[matcher] join %s rejected: %v", req.ParticipantID, err)
	default:
		log.Printf("[matcher] join %s: %v", req.ParticipantID, err)
	}
}

func (in *Intake) handleLeave(data []byte) {
	var req LeaveRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ParticipantID == "" {
		log.Printf("[matcher] invalid leave request: %q", data)
		return
	}

	if in.svc.Leave(req.ParticipantID) {
		log.Printf("[matcher] %s left the pool (cancelled)", req.ParticipantID)
	}
}
