package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/skedda-booker/internal/booking"
	"github.com/example/skedda-booker/internal/config"
	"github.com/example/skedda-booker/internal/db"
	"github.com/example/skedda-booker/internal/migrate"
	"github.com/example/skedda-booker/internal/report"
	"github.com/example/skedda-booker/internal/runs"
	"github.com/example/skedda-booker/internal/skedda"
)

var errNoSpace = errors.New("no space booked")

type client interface {
	booking.Lister
	booking.Submitter
}

type history interface {
	BookedFor(ctx context.Context, date time.Time) (bool, error)
	Record(ctx context.Context, r runs.Run) error
}

// runner performs booking runs for one loaded config. history is nil when
// DATABASE_URL is unset.
type runner struct {
	cfg     config.Config
	log     *slog.Logger
	history history
	connect func() (client, error)
	out     io.Writer
	now     func() time.Time
}

func newRunner(cfg config.Config, log *slog.Logger, out io.Writer) *runner {
	return &runner{
		cfg: cfg,
		log: log,
		out: out,
		now: time.Now,
		connect: func() (client, error) {
			return skedda.New(skedda.Options{
				BaseURL: cfg.BaseURL,
				VenueID: cfg.VenueID,
				UserID:  cfg.UserID,
				Cookies: cfg.Cookies,
				Token:   cfg.Token,
			})
		},
	}
}

// targetDate is the local date daysAhead days after now in loc.
func targetDate(now time.Time, loc *time.Location, daysAhead int) string {
	return now.In(loc).AddDate(0, 0, daysAhead).Format("2006-01-02")
}

// once books date (YYYY-MM-DD), or the configured days ahead when date is empty.
// It returns errNoSpace when nothing was booked.
func (r *runner) once(ctx context.Context, date string) error {
	if date == "" {
		date = targetDate(r.now(), r.cfg.Location, r.cfg.DaysAhead)
	}
	w, err := booking.NewWindow(date, r.cfg.StartTime, r.cfg.EndTime, r.cfg.Location)
	if err != nil {
		return err
	}
	log := r.log.With("date", date)

	if r.history != nil {
		done, err := r.history.BookedFor(ctx, w.Date)
		if err != nil {
			return err
		}
		if done {
			log.Info("already booked for this date, skipping")
			fmt.Fprintf(r.out, "SKIPPED (already booked for %s)\n", date)
			return nil
		}
	}

	c, err := r.connect()
	if err != nil {
		return err
	}
	a := &booking.Attempter{
		Candidates: r.cfg.Spaces,
		Lister:     c,
		Submitter:  c,
		Checker:    booking.Checker{Location: r.cfg.Location, Policy: r.cfg.Unparsable},
		Log:        log,
	}

	log.Info("booking run", "window", fmt.Sprintf("%s-%s", r.cfg.StartTime, r.cfg.EndTime), "spaces", len(r.cfg.Spaces))
	started := r.now()
	res := a.Run(ctx, w)
	finished := r.now()

	if res.Outcome == booking.OutcomeFetchFailed && skedda.IsAuthExpired(res.Reason) {
		log.Error("session expired; capture fresh SKEDDA_COOKIES and SKEDDA_TOKEN")
	}

	if r.history != nil {
		if err := r.history.Record(ctx, runs.FromResult(w, res, started, finished)); err != nil {
			log.Error("couldn't record run", "err", err)
		}
	}

	sum := report.Summarize(w, res)
	if err := sum.AppendTo(r.cfg.GitHubOutput); err != nil {
		log.Error("couldn't write GITHUB_OUTPUT", "err", err)
	}
	fmt.Fprintln(r.out, sum.Result)

	if !sum.OK() {
		return fmt.Errorf("%w: %s", errNoSpace, sum.Details)
	}
	return nil
}

// openHistory connects and migrates the run history store when DATABASE_URL is set.
// The returned close func is always safe to call.
func openHistory(ctx context.Context, cfg config.Config) (*runs.Repo, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	return runs.NewRepo(d), d.Close, nil
}

func newRunCmd(configPath *string) *cobra.Command {
	var date string

	c := &cobra.Command{
		Use:   "run",
		Short: "Try to book a space once, for DAYS_AHEAD days from today",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			repo, closeDB, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			r := newRunner(cfg, log, cmd.OutOrStdout())
			if repo != nil {
				r.history = repo
			}
			return r.once(ctx, date)
		},
	}

	c.Flags().StringVar(&date, "date", "", "book this date (YYYY-MM-DD) instead of DAYS_AHEAD from today")
	return c
}
