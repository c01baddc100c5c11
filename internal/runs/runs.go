package runs

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/example/skedda-booker/internal/booking"
	"github.com/example/skedda-booker/internal/db"
)

// Run is the stored record of one booking run.
type Run struct {
	ID          uuid.UUID
	TargetDate  time.Time
	WindowStart string
	WindowEnd   string
	Outcome     booking.Outcome
	BookedID    string
	BookedName  string
	Candidates  int
	Detail      string
	StartedAt   time.Time
	FinishedAt  time.Time

	Attempts []booking.Attempt
}

// FromResult builds the record for a finished run.
func FromResult(w booking.Window, res booking.Result, startedAt, finishedAt time.Time) Run {
	r := Run{
		ID:          uuid.New(),
		TargetDate:  w.Date,
		WindowStart: booking.FormatLocal(w.Start),
		WindowEnd:   booking.FormatLocal(w.End),
		Outcome:     res.Outcome,
		Candidates:  res.Candidates,
		Detail:      res.Detail(),
		StartedAt:   startedAt.UTC(),
		FinishedAt:  finishedAt.UTC(),
		Attempts:    res.Attempts,
	}
	if res.Outcome == booking.OutcomeBooked {
		r.BookedID = res.Booked.ID
		r.BookedName = res.Booked.Name
	}
	if res.Reason != nil {
		r.Detail = fmt.Sprintf("%s: %v", r.Detail, res.Reason)
	}
	return r
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

var runColumns = []string{
	"id", "target_date", "window_start", "window_end", "outcome", "booked_space_id", "booked_space_name",
	"candidates", "detail", "started_at", "finished_at",
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func insertRunQuery(r Run) (string, []any, error) {
	return db.SQL.Insert("runs").
		Columns(runColumns...).
		Values(r.ID, r.TargetDate.Format("2006-01-02"), r.WindowStart, r.WindowEnd, string(r.Outcome),
			nullable(r.BookedID), nullable(r.BookedName), r.Candidates, r.Detail, r.StartedAt, r.FinishedAt).
		ToSql()
}

func insertAttemptsQuery(id uuid.UUID, attempts []booking.Attempt) (string, []any, error) {
	q := db.SQL.Insert("run_attempts").Columns("run_id", "position", "space_id", "space_name", "status", "detail")
	for _, a := range attempts {
		q = q.Values(id, a.Position, a.Candidate.ID, a.Candidate.Name, string(a.Status), a.Detail)
	}
	return q.ToSql()
}

// Record stores r and its attempts atomically.
func (repo *Repo) Record(ctx context.Context, r Run) error {
	runSQL, runArgs, err := insertRunQuery(r)
	if err != nil {
		return fmt.Errorf("build insert run query: %w", err)
	}
	return repo.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, runSQL, runArgs...); err != nil {
			return err
		}
		if len(r.Attempts) == 0 {
			return nil
		}
		attSQL, attArgs, err := insertAttemptsQuery(r.ID, r.Attempts)
		if err != nil {
			return fmt.Errorf("build insert attempts query: %w", err)
		}
		_, err = tx.Exec(ctx, attSQL, attArgs...)
		return err
	})
}

func listQuery(limit int) (string, []any, error) {
	if limit < 1 {
		limit = 20
	}
	return db.SQL.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
}

// List returns the most recent runs, newest first. Attempts are not loaded.
func (repo *Repo) List(ctx context.Context, limit int) ([]Run, error) {
	q, args, err := listQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("build list runs query: %w", err)
	}
	rows, err := repo.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var outcome string
		var bookedID, bookedName *string
		if err := rows.Scan(&r.ID, &r.TargetDate, &r.WindowStart, &r.WindowEnd, &outcome, &bookedID, &bookedName,
			&r.Candidates, &r.Detail, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, db.Wrap(err)
		}
		r.Outcome = booking.Outcome(outcome)
		if bookedID != nil {
			r.BookedID = *bookedID
		}
		if bookedName != nil {
			r.BookedName = *bookedName
		}
		out = append(out, r)
	}
	return out, db.Wrap(rows.Err())
}

func bookedForQuery(date time.Time) (string, []any, error) {
	sub := db.SQL.Select("1").
		From("runs").
		Where(sq.Eq{"target_date": date.Format("2006-01-02"), "outcome": string(booking.OutcomeBooked)})
	return sub.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
}

// BookedFor reports whether an earlier run already booked date.
func (repo *Repo) BookedFor(ctx context.Context, date time.Time) (bool, error) {
	q, args, err := bookedForQuery(date)
	if err != nil {
		return false, fmt.Errorf("build booked-for query: %w", err)
	}
	var exists bool
	if err := repo.db.QueryRow(ctx, q, args...).Scan(&exists); err != nil {
		return false, db.Wrap(err)
	}
	return exists, nil
}
