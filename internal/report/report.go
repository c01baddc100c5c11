package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/skedda-booker/internal/booking"
)

const (
	ResultSuccess = "SUCCESS"
	ResultFailed  = "FAILED"
)

// Summary is the machine-readable result handed to CI.
type Summary struct {
	Date    string
	Message string
	Result  string
	Details string
}

// Summarize turns a run result into the CI summary for window w.
func Summarize(w booking.Window, res booking.Result) Summary {
	s := Summary{Date: w.Date.Format("02 January 2006")}
	if res.Outcome == booking.OutcomeBooked {
		s.Message = res.Booked.Name
		s.Result = ResultSuccess
		s.Details = fmt.Sprintf("Booked %s for %s - %s", res.Booked.Name, w.Start.Format("3:04 PM"), w.End.Format("3:04 PM"))
		return s
	}
	s.Message = "No Space"
	s.Result = ResultFailed
	s.Details = res.Detail()
	return s
}

func (s Summary) OK() bool { return s.Result == ResultSuccess }

// oneLine keeps a value from breaking the key=value output format.
func oneLine(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// Write emits the summary as key=value lines.
func (s Summary) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "date=%s\nmessage=%s\nresult=%s\ndetails=%s\n",
		oneLine(s.Date), oneLine(s.Message), s.Result, oneLine(s.Details))
	return err
}

// AppendTo appends the summary to the file at path, as GitHub Actions expects for GITHUB_OUTPUT.
// An empty path is a no-op.
func (s Summary) AppendTo(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	if err := s.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
