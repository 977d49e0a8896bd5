package server

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

// clock formats milliseconds as HH:MM:SS, prefixing days when the
// duration reaches one.
func clock(ms int64) string {
	if ms <= 0 {
		return "00:00:00"
	}
	secs := ms / 1000
	days := secs / 86400
	secs %= 86400
	h, m, sec := secs/3600, (secs%3600)/60, secs%60
	if days > 0 {
		return fmt.Sprintf("%d:%02d:%02d:%02d", days, h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// hms formats seconds as "Xh Ym Zs".
func hms(seconds int64) string {
	return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
}

// minSec formats milliseconds as m:ss.
func minSec(ms int64) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutMinute   = "2006-01-02 15:04"
	layoutDate     = "2006-01-02"
)

// stamp formats an epoch second with layout in local time, or "" for zero.
func stamp(epoch int64, layout string) string {
	if epoch <= 0 {
		return ""
	}
	return plex.Time(epoch).Local().Format(layout)
}

func isoTime(epoch int64) string {
	if epoch <= 0 {
		return ""
	}
	return plex.Time(epoch).UTC().Format(time.RFC3339)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// percent is offset as a share of duration, or 0 without a duration.
func percent(offset, duration int64, places int) float64 {
	if duration <= 0 {
		return 0
	}
	return round(float64(offset)/float64(duration)*100, places)
}

// displayTitle is "Show - S1E2 - Title" for episodes and "Title (Year)"
// for everything else.
func displayTitle(m plex.Metadata) string {
	if m.Type == "episode" {
		return fmt.Sprintf("%s - S%dE%d - %s", m.GrandparentTitle, m.ParentIndex, m.Index, m.Title)
	}
	if m.Year > 0 {
		return fmt.Sprintf("%s (%d)", m.Title, m.Year)
	}
	return m.Title
}

// orDefault returns s, or def when s is empty.
func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// containsFold reports whether substr is in s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// topN returns up to n entries of counts ordered by count, then name.
func topN(counts map[string]int, n int) []models.Counted {
	if len(counts) == 0 {
		return nil
	}
	out := make([]models.Counted, 0, len(counts))
	for k, v := range counts {
		out = append(out, models.Counted{Name: k, Count: v})
	}
	slices.SortFunc(out, func(a, b models.Counted) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
