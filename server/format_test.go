package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

func TestClock(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00"},
		{-5, "00:00:00"},
		{61_000, "00:01:01"},
		{3_723_000, "01:02:03"},
		{90_061_000, "1:01:01:01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clock(tt.ms), "clock(%d)", tt.ms)
	}
}

func TestHMSAndMinSec(t *testing.T) {
	assert.Equal(t, "0h 0m 0s", hms(0))
	assert.Equal(t, "1h 2m 3s", hms(3723))
	assert.Equal(t, "26h 0m 5s", hms(93605))

	assert.Equal(t, "0:00", minSec(0))
	assert.Equal(t, "2:05", minSec(125_400))
	assert.Equal(t, "75:00", minSec(4_500_000))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, percent(10, 0, 1))
	assert.Equal(t, 33.3, percent(1, 3, 1))
	assert.Equal(t, 50.0, percent(500, 1000, 2))
	assert.Equal(t, 66.67, percent(2, 3, 2))
}

func TestISOTime(t *testing.T) {
	assert.Equal(t, "", isoTime(0))
	assert.Equal(t, "2021-01-01T00:00:00Z", isoTime(1609459200))
	assert.Equal(t, "", stamp(0, layoutDate))
}

func TestDisplayTitle(t *testing.T) {
	ep := plex.Metadata{Type: "episode", Title: "Pilot", GrandparentTitle: "Lost", ParentIndex: 1, Index: 1}
	assert.Equal(t, "Lost - S1E1 - Pilot", displayTitle(ep))

	movie := plex.Metadata{Type: "movie", Title: "Heat", Year: 1995}
	assert.Equal(t, "Heat (1995)", displayTitle(movie))

	assert.Equal(t, "Untitled", displayTitle(plex.Metadata{Type: "track", Title: "Untitled"}))
}

func TestOrDefaultAndContainsFold(t *testing.T) {
	assert.Equal(t, "Unknown", orDefault("  ", "Unknown"))
	assert.Equal(t, "x", orDefault("x", "Unknown"))

	assert.True(t, containsFold("Living Room TV", "room"))
	assert.False(t, containsFold("Phone", "tv"))
}

func TestTopN(t *testing.T) {
	counts := map[string]int{"Drama": 3, "Action": 5, "Comedy": 3, "Horror": 1}
	assert.Equal(t, []models.Counted{
		{Name: "Action", Count: 5},
		{Name: "Comedy", Count: 3},
		{Name: "Drama", Count: 3},
	}, topN(counts, 3))

	assert.Nil(t, topN(nil, 5))
	assert.Len(t, topN(counts, 10), 4)
}

func TestKeyUnmarshal(t *testing.T) {
	var a struct {
		ID  Key   `json:"id"`
		IDs []Key `json:"ids"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"id": 42, "ids": ["7", 8, null]}`), &a))
	assert.Equal(t, Key("42"), a.ID)
	assert.Equal(t, 42, a.ID.Int())
	assert.Equal(t, []string{"7", "8"}, keys(a.IDs))

	assert.Error(t, json.Unmarshal([]byte(`{"id": true}`), &a))
}
