package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/BatmanBruc/bat-bot-merger/internal/audit"
	"github.com/BatmanBruc/bat-bot-merger/internal/engine"
	"github.com/BatmanBruc/bat-bot-merger/internal/messages"
	"github.com/BatmanBruc/bat-bot-merger/internal/transfer"
	"github.com/BatmanBruc/bat-bot-merger/types"
	"golang.org/x/sys/unix"
)

// Admission failures: the slot is released (or was never taken) and no
// audit record is written.
var (
	ErrMaintenance         = errors.New("maintenance mode is on")
	ErrDuplicateTask       = errors.New("task already running for user")
	ErrInsufficientStorage = errors.New("insufficient disk space")
)

// Task is one admitted merge request, built by the handler from a
// session that reached the mode-selected stage.
type Task struct {
	UserID      int64
	ChatID      int64
	Tier        types.Tier
	VideoFileID string
	VideoSize   int64
	AudioFileID string
	AudioSize   int64
	Mode        types.MergeMode
}

// Notifier rewrites the single user-visible status message.
type Notifier interface {
	Status(ctx context.Context, text string)
}

type Transferer interface {
	Download(ctx context.Context, fileID, destPath, label string, progress chan<- transfer.Progress) error
	Upload(ctx context.Context, chatID int64, srcPath, caption, label string, progress chan<- transfer.Progress) (string, error)
	VideoPath(userID int64) string
	AudioPath(userID int64) string
	OutputPath(userID int64) string
}

type Sessions interface {
	SetProcessing(userID int64) error
	Clear(userID int64) error
}

type Config struct {
	TempDir      string
	MinFreeBytes int64
	TaskTimeout  time.Duration
}

type Orchestrator struct {
	registry    *Registry
	sessions    Sessions
	transferer  Transferer
	merger      engine.Merger
	audit       audit.Sink
	cfg         Config
	maintenance atomic.Bool

	// Overridable in tests.
	diskFree func(path string) (uint64, error)
}

func New(sessions Sessions, transferer Transferer, merger engine.Merger, sink audit.Sink, cfg Config) *Orchestrator {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Minute
	}
	return &Orchestrator{
		registry:   NewRegistry(),
		sessions:   sessions,
		transferer: transferer,
		merger:     merger,
		audit:      sink,
		cfg:        cfg,
		diskFree:   diskFree,
	}
}

func (o *Orchestrator) Active(userID int64) bool {
	return o.registry.Active(userID)
}

func (o *Orchestrator) ToggleMaintenance() bool {
	for {
		old := o.maintenance.Load()
		if o.maintenance.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (o *Orchestrator) Maintenance() bool {
	return o.maintenance.Load()
}

// Run drives one merge task end to end: admission, download of both
// inputs, ffmpeg merge, upload, audit. Once the slot is acquired it is
// released exactly once on every exit path, and the session is cleared
// alongside it.
func (o *Orchestrator) Run(parent context.Context, task Task, n Notifier) error {
	if o.maintenance.Load() {
		n.Status(parent, messages.MaintenanceNotice())
		return ErrMaintenance
	}

	if !o.registry.TryAcquire(task.UserID) {
		n.Status(parent, messages.AlreadyProcessing())
		return ErrDuplicateTask
	}
	defer o.registry.Release(task.UserID)
	defer func() {
		if err := o.sessions.Clear(task.UserID); err != nil {
			log.Printf("Task for user %d: failed to clear session: %v", task.UserID, err)
		}
	}()

	if err := o.sessions.SetProcessing(task.UserID); err != nil {
		log.Printf("Task for user %d: failed to mark session processing: %v", task.UserID, err)
	}

	free, err := o.diskFree(o.cfg.TempDir)
	if err != nil {
		log.Printf("Task for user %d: disk check failed: %v", task.UserID, err)
	} else if free < uint64(o.cfg.MinFreeBytes) {
		n.Status(parent, messages.InsufficientStorage())
		return ErrInsufficientStorage
	}

	ctx, cancel := context.WithTimeout(parent, o.cfg.TaskTimeout)
	defer cancel()

	progress := make(chan transfer.Progress, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for p := range progress {
			if p.Total <= 0 {
				continue
			}
			pct := p.Current * 100 / p.Total
			n.Status(parent, fmt.Sprintf("%s %d%%", p.Label, pct))
		}
	}()
	finish := func() {
		close(progress)
		<-drained
	}

	rec := audit.NewRecord(task.UserID, task.Tier, task.Mode, task.VideoSize, task.AudioSize)

	videoPath := o.transferer.VideoPath(task.UserID)
	audioPath := o.transferer.AudioPath(task.UserID)
	outputPath := o.transferer.OutputPath(task.UserID)

	n.Status(ctx, messages.LabelDownloadVideo)
	if err := o.transferer.Download(ctx, task.VideoFileID, videoPath, messages.LabelDownloadVideo, progress); err != nil {
		finish()
		return o.fail(parent, n, rec, messages.DownloadFailed(), fmt.Errorf("download video: %w", err))
	}

	n.Status(ctx, messages.LabelDownloadAudio)
	if err := o.transferer.Download(ctx, task.AudioFileID, audioPath, messages.LabelDownloadAudio, progress); err != nil {
		finish()
		return o.fail(parent, n, rec, messages.DownloadFailed(), fmt.Errorf("download audio: %w", err))
	}

	n.Status(ctx, messages.Merging())
	if err := o.merger.Merge(ctx, videoPath, audioPath, outputPath, task.Mode); err != nil {
		finish()
		var engErr *engine.Error
		if errors.As(err, &engErr) {
			return o.fail(parent, n, rec, messages.MergeFailed(engErr.Diagnostic), err)
		}
		return o.fail(parent, n, rec, messages.MergeFailed(""), err)
	}

	n.Status(ctx, messages.LabelUpload)
	if _, err := o.transferer.Upload(ctx, task.ChatID, outputPath, messages.ResultCaption(task.Mode), messages.LabelUpload, progress); err != nil {
		finish()
		return o.fail(parent, n, rec, messages.UploadFailed(), fmt.Errorf("upload result: %w", err))
	}
	finish()

	if info, err := os.Stat(outputPath); err == nil {
		rec.OutputSize = info.Size()
	}
	rec.Status = audit.StatusSuccess
	o.audit.Emit(parent, rec)

	o.removeArtifacts(task.UserID, videoPath, audioPath, outputPath)
	n.Status(parent, messages.MergeDone())
	return nil
}

// fail reports a pipeline failure to the user and the audit sink. The
// slot release and session clear are handled by Run's defers; temp
// artifacts are left for the janitor.
func (o *Orchestrator) fail(ctx context.Context, n Notifier, rec audit.Record, userText string, err error) error {
	log.Printf("Task %s for user %d failed: %v", rec.TaskID, rec.UserID, err)
	n.Status(ctx, userText)
	rec.Status = audit.StatusFailed
	rec.Error = err.Error()
	o.audit.Emit(ctx, rec)
	return err
}

func (o *Orchestrator) removeArtifacts(userID int64, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("Task for user %d: failed to remove %s: %v", userID, p, err)
		}
	}
}

func diskFree(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}
