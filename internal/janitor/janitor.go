package janitor

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BatmanBruc/bat-bot-merger/types"
)

// Janitor periodically drops stale file records and removes temp
// artifacts orphaned by crashed tasks.
type Janitor struct {
	files    types.FileStore
	tempDir  string
	maxAge   time.Duration
	interval time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

type Config struct {
	TempDir  string
	MaxAge   time.Duration
	Interval time.Duration
}

func New(files types.FileStore, cfg Config) *Janitor {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Janitor{
		files:    files,
		tempDir:  cfg.TempDir,
		maxAge:   cfg.MaxAge,
		interval: cfg.Interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (j *Janitor) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	log.Printf("Janitor started: interval=%s maxAge=%s", j.interval, j.maxAge)

	j.wg.Add(1)
	go j.loop()
}

func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	j.cancel()
	j.wg.Wait()
	log.Println("Janitor stopped")
}

func (j *Janitor) loop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep runs one cleanup pass.
func (j *Janitor) Sweep() {
	cutoff := time.Now().Add(-j.maxAge)

	deleted, err := j.files.DeleteFileRecordsBefore(cutoff)
	if err != nil {
		log.Printf("Janitor: failed to delete old file records: %v", err)
	} else if deleted > 0 {
		log.Printf("Janitor: deleted %d old file records", deleted)
	}

	removed := j.sweepTempDir(cutoff)
	if removed > 0 {
		log.Printf("Janitor: removed %d orphan temp files", removed)
	}
}

func (j *Janitor) sweepTempDir(cutoff time.Time) int {
	entries, err := os.ReadDir(j.tempDir)
	if err != nil {
		log.Printf("Janitor: cannot read temp dir %s: %v", j.tempDir, err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("Janitor: failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed
}
