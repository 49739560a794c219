package journal

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nifty-pulse/internal/types"
)

var ist = time.FixedZone("IST", 19800)

// Entry is one journaled prediction.
type Entry struct {
	Time        string   `json:"time"`
	SnapshotID  string   `json:"snapshot_id"`
	Symbol      string   `json:"symbol"`
	Price       *float64 `json:"price,omitempty"`
	Sentiment   string   `json:"sentiment"`
	Polarity    float64  `json:"polarity"`
	Status      string   `json:"status"`
	Trend       string   `json:"trend,omitempty"`
	CallOI      int64    `json:"call_oi"`
	PutOI       int64    `json:"put_oi"`
	PCR         float64  `json:"pcr"`
	TargetPrice *float64 `json:"target_price,omitempty"`
	Degraded    []string `json:"degraded,omitempty"`
}

// FromSnapshot flattens a snapshot into a journal entry.
func FromSnapshot(s *types.Snapshot) Entry {
	e := Entry{
		SnapshotID:  s.ID,
		Symbol:      s.Symbol,
		Sentiment:   string(s.Sentiment.Label),
		Polarity:    s.Sentiment.Average,
		Status:      string(s.Prediction.Status),
		Trend:       string(s.Prediction.Trend),
		CallOI:      s.Prediction.TotalCallOI,
		PutOI:       s.Prediction.TotalPutOI,
		PCR:         s.Prediction.PCR,
		TargetPrice: s.Prediction.TargetPrice,
	}
	if s.Price != nil {
		p := s.Price.Price
		e.Price = &p
	}
	for _, d := range s.Diagnostics {
		e.Degraded = append(e.Degraded, d.Source)
	}
	return e
}

// Journal appends predictions to one JSON-lines file per IST day.
type Journal struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) dailyFilepath(t time.Time) string {
	return filepath.Join(j.dir, t.In(ist).Format("2006-01-02")+".txt")
}

func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().In(ist)
	e.Time = now.Format("2006-01-02 15:04:05")
	p := j.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last modified before the retention window
// and removes the originals. Zero or negative retention keeps everything.
func (j *Journal) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	compressed := 0
	err := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		if err := gzipFile(p, p+".gz"); err != nil {
			return err
		}
		compressed++
		return os.Remove(p)
	})
	return compressed, err
}

// gzipFile appends src to dst as a new gzip member, so a day file written
// again after an earlier compression joins the existing archive. On failure
// dst is cut back to its previous length.
func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	var prev int64
	existed := false
	if info, err := os.Stat(dst); err == nil {
		prev, existed = info.Size(), true
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	gw := gzip.NewWriter(out)
	_, err = io.Copy(gw, in)
	if err == nil {
		err = gw.Close()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if existed {
			_ = os.Truncate(dst, prev)
		} else {
			_ = os.Remove(dst)
		}
		return fmt.Errorf("compress %s: %w", src, err)
	}
	return nil
}
