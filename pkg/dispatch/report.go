package dispatch

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// Result statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Result is the outcome for one recipient.
type Result struct {
	Row       int
	Name      string
	Email     string
	Status    string
	MessageID string
	Provider  string
	Attempts  int
	Duration  time.Duration
	Err       error
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Total      int
	Sent       int
	Failed     int
	Aborted    bool
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// HasFailures reports whether any recipient was not sent to, including rows
// skipped by an aborted run.
func (r *Report) HasFailures() bool {
	return r.Failed > 0 || r.processed() < r.Total
}

// FailedResults returns the results of recipients that were not sent to.
func (r *Report) FailedResults() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

var reportHeader = []string{"row", "name", "email", "status", "message_id", "provider", "attempts", "error"}

// WriteCSV writes one line per processed recipient, in send order.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, res := range r.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		if err := cw.Write([]string{
			strconv.Itoa(res.Row),
			res.Name,
			res.Email,
			res.Status,
			res.MessageID,
			res.Provider,
			strconv.Itoa(res.Attempts),
			errText,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusSent:
		r.Sent++
	case StatusFailed:
		r.Failed++
	}
}

func (r *Report) processed() int {
	return len(r.Results)
}

func (r *Report) finish(at time.Time) *Report {
	r.FinishedAt = at
	return r
}
