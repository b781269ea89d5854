package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVPNLogRecentAndStats(t *testing.T) {
	req := require.New(t)
	repo := NewVPNLogRepository(openTestDB(t))

	at := time.Now().UTC()
	logs := []VPNLog{
		{IP: "1.2.3.4", IsVPN: true, Timestamp: at},
		{IP: "5.6.7.8", IsVPN: false, Timestamp: at.Add(time.Second)},
		{IP: "1.2.3.4", IsVPN: true, Timestamp: at.Add(2 * time.Second)},
	}
	for _, l := range logs {
		req.NoError(repo.Store(l))
	}

	recent, err := repo.Recent(10)
	req.NoError(err)
	req.Len(recent, 3)
	// Newest first.
	req.Equal("1.2.3.4", recent[0].IP)
	req.True(recent[0].Timestamp.After(recent[2].Timestamp))

	limited, err := repo.Recent(2)
	req.NoError(err)
	req.Len(limited, 2)

	byIP, err := repo.ByIP("1.2.3.4")
	req.NoError(err)
	req.Len(byIP, 2)

	stats, err := repo.Stats()
	req.NoError(err)
	req.Equal(3, stats.Total)
	req.Equal(2, stats.Flagged)
	req.InDelta(66.66, stats.Percentage, 0.1)
}
