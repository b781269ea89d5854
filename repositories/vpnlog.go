package repositories

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// VPNLog records one reputation lookup. It is pure metadata: nothing in the
// authentication or messaging paths ever reads these rows back.
type VPNLog struct {
	ID        string            `json:"id"`
	IP        string            `json:"ip"`
	IsVPN     bool              `json:"is_vpn"`
	Details   map[string]string `json:"details,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// VPNStats summarizes the stored detection history.
type VPNStats struct {
	Total      int     `json:"total"`
	Flagged    int     `json:"vpnDetected"`
	Percentage float64 `json:"percentage"`
}

type VPNLogRepository struct {
	db *badger.DB
}

func NewVPNLogRepository(db *badger.DB) *VPNLogRepository {
	return &VPNLogRepository{db: db}
}

// Keys reuse the padded-timestamp scheme so a reverse scan is newest-first.
func vpnLogKey(l VPNLog) []byte {
	return []byte(fmt.Sprintf("vpnlog:%019d:%s", l.Timestamp.UnixNano(), l.ID))
}

func (r *VPNLogRepository) Store(log VPNLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(vpnLogKey(log), data)
	})
}

// Recent returns up to limit logs, newest first.
func (r *VPNLogRepository) Recent(limit int) ([]VPNLog, error) {
	return r.scan(limit, nil)
}

// ByIP returns all logs recorded for one source address, newest first.
func (r *VPNLogRepository) ByIP(ip string) ([]VPNLog, error) {
	return r.scan(0, func(l VPNLog) bool { return l.IP == ip })
}

// Stats counts the stored rows and the flagged share.
func (r *VPNLogRepository) Stats() (VPNStats, error) {
	logs, err := r.scan(0, nil)
	if err != nil {
		return VPNStats{}, err
	}
	stats := VPNStats{Total: len(logs)}
	for _, l := range logs {
		if l.IsVPN {
			stats.Flagged++
		}
	}
	if stats.Total > 0 {
		stats.Percentage = float64(stats.Flagged) / float64(stats.Total) * 100
	}
	return stats, nil
}

func (r *VPNLogRepository) scan(limit int, keep func(VPNLog) bool) ([]VPNLog, error) {
	prefix := []byte("vpnlog:")

	var logs []VPNLog
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration needs a seek key past the last possible entry.
		seekKey := []byte(strings.Join([]string{"vpnlog", "9999999999999999999"}, ":"))
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(logs) == limit {
				break
			}
			var l VPNLog
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &l)
			})
			if err != nil {
				return err
			}
			if keep == nil || keep(l) {
				logs = append(logs, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}
