// ABOUTME: Shared flag parsing and table output helpers for CLI commands
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/confideleapcrm/irdesk/models"
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	return tw
}

func row(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func parseListType(s string) (models.ListType, error) {
	lt, ok := models.ParseListType(s)
	if !ok || lt == models.ListMatching {
		return "", fmt.Errorf("unknown list %q (want interested, followups, not_interested or meeting)", s)
	}
	return lt, nil
}

func parseWhen(flag, s string) (time.Time, error) {
	t, ok := models.ParseTime(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --%s %q (want YYYY-MM-DD or YYYY-MM-DDTHH:MM)", flag, s)
	}
	return t, nil
}

func toIDs(values []string) []models.ID {
	var ids []models.ID
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, models.ID(v))
		}
	}
	return ids
}

func formatWhen(t *models.Time) string {
	if v := t.Value(); !v.IsZero() {
		return v.Format("2006-01-02 15:04")
	}
	return "-"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
