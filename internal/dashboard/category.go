package dashboard

import (
	"fmt"

	"github.com/fboessen22/jobdash/internal/protocol"
)

const UncategorizedLabel = "Uncategorized"

type CategoryCount struct {
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

type CategoryOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// CountByCategory tallies records per category name; unnamed categories are
// counted under UncategorizedLabel.
func CountByCategory(records []protocol.JobRecord) map[string]CategoryCount {
	counts := map[string]CategoryCount{}
	for _, rec := range records {
		name := rec.CategoryName
		if name == "" {
			name = UncategorizedLabel
		}
		c := counts[name]
		c.Total++
		if protocol.IsFailedRunStatus(rec.RunStatus) {
			c.Failed++
		}
		counts[name] = c
	}
	return counts
}

// CategoryOptions builds the category selector: an "All Categories" entry
// followed by the backend's category list annotated with counts.
func CategoryOptions(categories []string, records []protocol.JobRecord, selected string) []CategoryOption {
	counts := CountByCategory(records)
	totalFailed := 0
	for _, c := range counts {
		totalFailed += c.Failed
	}
	out := make([]CategoryOption, 0, len(categories)+1)
	out = append(out, CategoryOption{
		Value:    "",
		Label:    fmt.Sprintf("All Categories (%d failed)", totalFailed),
		Selected: selected == "",
	})
	for _, name := range categories {
		c := counts[name]
		out = append(out, CategoryOption{
			Value:    name,
			Label:    fmt.Sprintf("%s (%d failed / %d total)", name, c.Failed, c.Total),
			Selected: selected == name,
		})
	}
	return out
}
