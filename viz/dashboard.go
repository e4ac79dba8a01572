// ABOUTME: Terminal summary of list counts
// ABOUTME: Draws one proportional bar per displayed list
package viz

import (
	"fmt"
	"strings"

	"github.com/confideleapcrm/irdesk/models"
)

var listLabels = map[models.ListType]string{
	models.ListInterested:    "Interested",
	models.ListFollowups:     "Followups",
	models.ListNotInterested: "Not Interested",
	models.ListMeeting:       "Meeting",
}

// RenderCounts returns an ASCII bar chart of counts.
func RenderCounts(counts models.Counts) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  INVESTOR LISTS\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	maxCount := 0
	total := 0
	for _, l := range models.DisplayLists {
		n := counts.Get(l)
		total += n
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, l := range models.DisplayLists {
		n := counts.Get(l)
		barLength := (n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-15s %s  %3d\n", listLabels[l], bar, n))
	}
	out.WriteString(fmt.Sprintf("\n  %d rows across %d lists\n", total, len(models.DisplayLists)))
	return out.String()
}
