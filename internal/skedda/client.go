package skedda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/example/skedda-booker/internal/booking"
	"github.com/example/skedda-booker/internal/internaltypes"
)

const (
	defaultUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	tokenHeader    = "x-skedda-requestverificationtoken"
	defaultTimeout = 30 * time.Second
)

// Options configures a Session. All string fields except HTTPClient are required.
type Options struct {
	BaseURL string
	VenueID string
	UserID  string
	Cookies string
	Token   string

	HTTPClient *http.Client
}

// Session is the authenticated transport for one venue: captured browser cookies plus
// the anti-forgery token. It is built once per run and is not safe for concurrent use.
type Session struct {
	hc      *http.Client
	base    *url.URL
	venueID string
	userID  string
	token   string
}

// StatusError is a non-success HTTP status from the service.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Op, e.Code)
}

// RejectedError is a structured 422 from the booking endpoint.
type RejectedError struct {
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return "booking rejected"
	}
	return "booking rejected: " + e.Detail
}

func (e *RejectedError) Rejected() bool { return true }

func New(opts Options) (*Session, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("couldn't create cookiejar: %w", err)
		}
		hc.Jar = jar
	}
	hc.Jar.SetCookies(base, ParseCookies(opts.Cookies))

	return &Session{
		hc:      hc,
		base:    base,
		venueID: opts.VenueID,
		userID:  opts.UserID,
		token:   strings.TrimSpace(opts.Token),
	}, nil
}

// ParseCookies turns a browser "k=v; k2=v2" cookie string into cookies.
// Percent-encoded values are decoded.
func ParseCookies(s string) []*http.Cookie {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	var out []*http.Cookie
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k == "" {
			continue
		}
		if strings.Contains(v, "%") {
			if dec, err := url.PathUnescape(v); err == nil {
				v = dec
			}
		}
		out = append(out, &http.Cookie{Name: k, Value: v})
	}
	return out
}

type listResponse struct {
	Bookings []wireBooking `json:"bookings"`
}

type wireBooking struct {
	Space  booking.ResourceRefs `json:"space"`
	Spaces booking.ResourceRefs `json:"spaces"`
	Start  looseString          `json:"start"`
	End    looseString          `json:"end"`
}

// looseString keeps JSON strings and drops every other shape to "".
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		*s = ""
		return nil
	}
	*s = looseString(v)
	return nil
}

// ListReservations fetches every booking on the window's local day.
func (s *Session) ListReservations(ctx context.Context, w booking.Window) ([]booking.Reservation, error) {
	start, end := w.DayBounds()
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)

	status, body, err := s.do(ctx, http.MethodGet, "/bookingslists", q, nil)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, internaltypes.ErrAuthExpired
	default:
		return nil, &StatusError{Op: "list bookings", Code: status}
	}

	var res listResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("parse bookings: %w", err)
	}
	out := make([]booking.Reservation, 0, len(res.Bookings))
	for _, b := range res.Bookings {
		out = append(out, booking.Reservation{
			Resources: booking.Merge(b.Space, b.Spaces),
			Start:     string(b.Start),
			End:       string(b.End),
		})
	}
	return out, nil
}

type errorResponse struct {
	Errors []struct {
		Detail *string `json:"detail"`
	} `json:"errors"`
}

// Submit books resourceID for [start, end). Start and end are sent in venue-local form.
func (s *Session) Submit(ctx context.Context, resourceID string, start, end time.Time) error {
	req := newBookingRequest(resourceID, booking.FormatLocal(start), booking.FormatLocal(end), s.venueID, s.userID)
	status, body, err := s.do(ctx, http.MethodPost, "/bookings", nil, req)
	if err != nil {
		return fmt.Errorf("submit booking: %w", err)
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnprocessableEntity:
		return &RejectedError{Detail: rejectionDetail(body)}
	default:
		return &StatusError{Op: "submit booking", Code: status}
	}
}

// rejectionDetail extracts errors[0].detail. An unreadable body yields "".
func rejectionDetail(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || len(er.Errors) == 0 {
		return ""
	}
	if er.Errors[0].Detail == nil {
		return "validation error"
	}
	return *er.Errors[0].Detail
}

func (s *Session) do(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}

	u := s.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("accept", "*/*")
	req.Header.Set("accept-language", "en-US,en;q=0.9")
	req.Header.Set("content-type", "application/json; charset=utf-8")
	req.Header.Set("origin", s.base.String())
	req.Header.Set("user-agent", defaultUA)
	if s.token != "" {
		req.Header.Set(tokenHeader, s.token)
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}

// IsAuthExpired reports whether err means the captured session is no longer valid.
func IsAuthExpired(err error) bool {
	return errors.Is(err, internaltypes.ErrAuthExpired)
}
