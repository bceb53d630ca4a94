package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/hoopscore/internal/models"
)

// DataQualityReport summarizes one normalization run. Issues lists every
// skipped row plus the flagged-but-kept name collisions.
type DataQualityReport struct {
	Total      int
	Accepted   int
	Skipped    int
	Unresolved int
	Issues     []models.DataQualityError
	Duration   time.Duration
}

func (r *DataQualityReport) skip(issue *models.DataQualityError) {
	r.Skipped++
	r.Issues = append(r.Issues, *issue)
}

func (r *DataQualityReport) flag(issue models.DataQualityError) {
	r.Issues = append(r.Issues, issue)
}

// ByKind counts issues per kind.
func (r *DataQualityReport) ByKind() map[string]int {
	counts := make(map[string]int)
	for _, issue := range r.Issues {
		counts[string(issue.Kind)]++
	}
	return counts
}

// Count returns the number of issues of one kind.
func (r *DataQualityReport) Count(kind models.DataQualityKind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// String returns a formatted string representation of the report
func (r *DataQualityReport) String() string {
	acceptRate := float64(0)
	if r.Total > 0 {
		acceptRate = float64(r.Accepted) / float64(r.Total) * 100
	}

	kinds := r.ByKind()
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	breakdown := ""
	for _, k := range names {
		breakdown += fmt.Sprintf(" %s=%d", k, kinds[k])
	}

	return fmt.Sprintf(
		"DataQualityReport{Total=%d, Accepted=%d (%.1f%%), Skipped=%d, Unresolved=%d, Issues:%s, Duration=%v}",
		r.Total, r.Accepted, acceptRate, r.Skipped, r.Unresolved, breakdown, r.Duration,
	)
}
