// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/paysplit/pkg/constants"
)

const (
	// DepositDateLayout is the format printed on pay stubs and written to the
	// history log.
	DepositDateLayout = constants.DepositDateLayout
)

// acceptedLayouts lists every layout ParseDepositDate understands, in the
// order they are tried.
var acceptedLayouts = []string{
	constants.DepositDateLayout,
	constants.LegacyDepositDateLayout,
	time.DateOnly,
}

// ParseDepositDate parses a deposit date in MM-DD-YYYY form, also accepting
// MM/DD/YYYY and YYYY-MM-DD.
func ParseDepositDate(date string) (time.Time, error) {
	trimmed := strings.TrimSpace(date)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("deposit date is empty")
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized deposit date %q, expected MM-DD-YYYY", date)
}

// FormatDepositDate renders a date in the history log format. The zero time
// renders as an empty string.
func FormatDepositDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DepositDateLayout)
}
