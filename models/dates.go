package models

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DateLayout is the only accepted text form for date-valued fields.
const DateLayout = "2006-01-02"

// ParseDate checks s is a YYYY-MM-DD date and returns it normalised.
func ParseDate(field, s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%s: time data %q does not match format YYYY-MM-DD", field, s)
	}
	return t.Format(DateLayout), nil
}

// Today returns the current UTC date in DateLayout.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}

// pgdriver hands date columns back as timestamps; keep only the date part.
func trimDate(s *string) {
	if s != nil && len(*s) > len(DateLayout) {
		*s = (*s)[:len(DateLayout)]
	}
}

var (
	_ bun.AfterScanRowHook = (*DrillHole)(nil)
	_ bun.AfterScanRowHook = (*CoreRun)(nil)
	_ bun.AfterScanRowHook = (*CoreInterval)(nil)
	_ bun.AfterScanRowHook = (*QAQCItem)(nil)
)

func (d *DrillHole) AfterScanRow(context.Context) error {
	trimDate(d.StartDate)
	trimDate(d.EndDate)
	return nil
}

func (r *CoreRun) AfterScanRow(context.Context) error {
	trimDate(r.DrillingDate)
	return nil
}

func (ci *CoreInterval) AfterScanRow(context.Context) error {
	trimDate(ci.LoggedDate)
	return nil
}

func (q *QAQCItem) AfterScanRow(context.Context) error {
	trimDate(q.CreatedDate)
	trimDate(q.DueDate)
	trimDate(q.ResolvedDate)
	return nil
}
