package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Lister fetches every reservation on the window's day.
type Lister interface {
	ListReservations(ctx context.Context, w Window) ([]Reservation, error)
}

// Submitter books one resource for [start, end).
type Submitter interface {
	Submit(ctx context.Context, resourceID string, start, end time.Time) error
}

// Rejection is implemented by booking errors that carry a server-provided reason.
type Rejection interface {
	error
	Rejected() bool
}

// Attempter walks the candidates in order and books the first free one.
// It runs strictly sequentially and never retries.
type Attempter struct {
	Candidates []Candidate
	Lister     Lister
	Submitter  Submitter
	Checker    Checker
	Log        *slog.Logger
}

func (a *Attempter) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}

// Run performs one booking run for w.
func (a *Attempter) Run(ctx context.Context, w Window) Result {
	log := a.logger()
	res := Result{Candidates: len(a.Candidates)}

	reservations, err := a.Lister.ListReservations(ctx, w)
	if err != nil {
		log.Error("couldn't get bookings", "date", w.Date.Format(dateLayout), "err", err)
		res.Outcome = OutcomeFetchFailed
		res.Reason = err
		return res
	}
	log.Info("bookings found", "count", len(reservations))

	for i, c := range a.Candidates {
		pos := i + 1
		log.Info("trying", "space", c.Name, "position", pos, "of", len(a.Candidates))

		if !a.Checker.IsFree(c.ID, w.Start, w.End, reservations) {
			log.Info("occupied", "space", c.Name)
			res.Attempts = append(res.Attempts, Attempt{Position: pos, Candidate: c, Status: StatusOccupied})
			continue
		}

		log.Info("booking", "space", c.Name)
		if err := a.Submitter.Submit(ctx, c.ID, w.Start, w.End); err != nil {
			status := StatusFailed
			var rej Rejection
			if errors.As(err, &rej) && rej.Rejected() {
				status = StatusRejected
			}
			log.Warn(string(status), "space", c.Name, "err", err)
			res.Attempts = append(res.Attempts, Attempt{Position: pos, Candidate: c, Status: status, Detail: err.Error()})
			continue
		}

		log.Info("booked", "space", c.Name)
		res.Attempts = append(res.Attempts, Attempt{Position: pos, Candidate: c, Status: StatusBooked})
		res.Outcome = OutcomeBooked
		res.Booked = c
		return res
	}

	log.Info("no spaces available")
	res.Outcome = OutcomeExhausted
	return res
}
