package service

import (
	"context"
	"log"
	"time"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/monitoring"
	"github.com/eventspark/eventspark-api/internal/queue"
	"github.com/eventspark/eventspark-api/internal/repository"
)

// RedemptionResult is returned when a ticket is successfully consumed at
// entry.
type RedemptionResult struct {
	TicketID     uint64           `json:"ticket_id"`
	TicketNumber string           `json:"ticket_number"`
	EventID      uint64           `json:"event_id"`
	UserID       uint64           `json:"user_id"`
	Seat         model.TicketSeat `json:"seat"`
	ValidatedAt  time.Time        `json:"validated_at"`
}

// TicketService performs ticket redemption.  The only write transition it
// ever makes is active -> used, exactly once per ticket; the row lock on
// the ticket serializes concurrent attempts.
type TicketService struct {
	Tickets *repository.TicketRepo
	Queue   *queue.Publisher // optional; nil disables event publishing
}

// NewTicketService constructs a TicketService.
func NewTicketService(tickets *repository.TicketRepo, pub *queue.Publisher) *TicketService {
	if tickets == nil {
		panic("nil repository passed to NewTicketService")
	}
	return &TicketService{Tickets: tickets, Queue: pub}
}

// Redeem validates and consumes a ticket at most once.  The check ladder,
// each step producing a distinct failure: ticket exists
// (repository.ErrTicketNotFound), presented payload matches the stored QR
// data exactly (ErrQRMismatch), ticket not already used (*TicketGoneError
// with the prior used_at/used_by), ticket currently valid
// (*TicketGoneError distinguishing expired from not active).  Repeated
// attempts after the first all fail with "already used" and never alter
// used_at.
func (s *TicketService) Redeem(ctx context.Context, ticketID uint64, presentedQR string, validatorID *uint64) (*RedemptionResult, error) {
	res, err := s.redeem(ctx, ticketID, presentedQR, validatorID)
	monitoring.TicketRedeemed(err == nil)
	if err != nil {
		return nil, err
	}

	if s.Queue != nil {
		ev := queue.TicketRedeemedEvent{
			TicketID:     res.TicketID,
			TicketNumber: res.TicketNumber,
			EventID:      res.EventID,
			UserID:       res.UserID,
			SeatLabel:    model.Seat{Row: res.Seat.Row, Number: res.Seat.Number}.Label(),
			RedeemedAt:   res.ValidatedAt.Format(time.RFC3339),
		}
		if validatorID != nil {
			ev.ValidatorID = *validatorID
		}
		if err := s.Queue.PublishTicketRedeemed(ctx, ev); err != nil {
			log.Printf("redeem: publish ticket.redeemed failed: %v", err)
		}
	}
	return res, nil
}

func (s *TicketService) redeem(ctx context.Context, ticketID uint64, presentedQR string, validatorID *uint64) (*RedemptionResult, error) {
	tx, err := s.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	t, err := s.Tickets.GetForUpdateTx(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.QRData != presentedQR {
		return nil, ErrQRMismatch
	}

	now := time.Now().UTC()
	if t.Status == model.TicketStatusUsed {
		return nil, &TicketGoneError{
			AlreadyUsed: true,
			Status:      t.Status,
			UsedAt:      t.UsedAt,
			UsedBy:      t.UsedBy,
			ValidFrom:   t.ValidFrom,
			ValidUntil:  t.ValidUntil,
		}
	}
	if !t.IsValid(now) {
		return nil, &TicketGoneError{
			Expired:    t.IsExpired(now),
			Status:     t.Status,
			ValidFrom:  t.ValidFrom,
			ValidUntil: t.ValidUntil,
		}
	}

	if err := s.Tickets.MarkUsedTx(ctx, tx, t.ID, now, validatorID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &RedemptionResult{
		TicketID:     t.ID,
		TicketNumber: t.TicketNumber,
		EventID:      t.EventID,
		UserID:       t.UserID,
		Seat:         t.Seat,
		ValidatedAt:  now,
	}, nil
}
