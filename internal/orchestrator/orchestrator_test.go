package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BatmanBruc/bat-bot-merger/internal/audit"
	"github.com/BatmanBruc/bat-bot-merger/internal/engine"
	"github.com/BatmanBruc/bat-bot-merger/internal/messages"
	"github.com/BatmanBruc/bat-bot-merger/internal/transfer"
	"github.com/BatmanBruc/bat-bot-merger/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	mu         sync.Mutex
	processing int
	cleared    int
}

func (f *fakeSessions) SetProcessing(userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processing++
	return nil
}

func (f *fakeSessions) Clear(userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakeSessions) clearedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

type fakeTransfer struct {
	dir         string
	downloadErr map[string]error
	uploadErr   error
	uploads     int
}

func (f *fakeTransfer) Download(ctx context.Context, fileID, destPath, label string, progress chan<- transfer.Progress) error {
	if err := f.downloadErr[fileID]; err != nil {
		return err
	}
	if progress != nil {
		progress <- transfer.Progress{Current: 5, Total: 10, Label: label}
	}
	return os.WriteFile(destPath, []byte(fileID), 0644)
}

func (f *fakeTransfer) Upload(ctx context.Context, chatID int64, srcPath, caption, label string, progress chan<- transfer.Progress) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := os.Stat(srcPath); err != nil {
		return "", err
	}
	f.uploads++
	return "uploaded-file-id", nil
}

func (f *fakeTransfer) VideoPath(userID int64) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d_video.mp4", userID))
}

func (f *fakeTransfer) AudioPath(userID int64) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d_audio.mp3", userID))
}

func (f *fakeTransfer) OutputPath(userID int64) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d_output.mp4", userID))
}

type fakeMerger struct {
	err error
}

func (f *fakeMerger) Merge(ctx context.Context, videoPath, audioPath, outputPath string, mode types.MergeMode) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("merged"), 0644)
}

type fakeSink struct {
	mu   sync.Mutex
	recs []audit.Record
}

func (f *fakeSink) Emit(ctx context.Context, rec audit.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
}

func (f *fakeSink) records() []audit.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]audit.Record(nil), f.recs...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeNotifier) Status(ctx context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
}

func (f *fakeNotifier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeNotifier) contains(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.texts {
		if s == text {
			return true
		}
	}
	return false
}

func testTask() Task {
	return Task{
		UserID:      7,
		ChatID:      100,
		Tier:        types.TierNormal,
		VideoFileID: "vid-file",
		VideoSize:   10,
		AudioFileID: "aud-file",
		AudioSize:   5,
		Mode:        types.ModeReplace,
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeSessions, *fakeTransfer, *fakeMerger, *fakeSink) {
	t.Helper()
	dir := t.TempDir()
	sessions := &fakeSessions{}
	tr := &fakeTransfer{dir: dir, downloadErr: map[string]error{}}
	merger := &fakeMerger{}
	sink := &fakeSink{}

	o := New(sessions, tr, merger, sink, Config{TempDir: dir, MinFreeBytes: 1})
	o.diskFree = func(string) (uint64, error) { return 1 << 40, nil }
	return o, sessions, tr, merger, sink
}

func TestRunSuccess(t *testing.T) {
	o, sessions, tr, _, sink := newTestOrchestrator(t)
	n := &fakeNotifier{}
	task := testTask()

	err := o.Run(context.Background(), task, n)
	require.NoError(t, err)

	recs := sink.records()
	require.Len(t, recs, 1)
	assert.Equal(t, audit.StatusSuccess, recs[0].Status)
	assert.Equal(t, int64(len("merged")), recs[0].OutputSize)
	assert.NotEmpty(t, recs[0].TaskID)

	assert.Equal(t, 1, sessions.processing)
	assert.Equal(t, 1, sessions.clearedCount())
	assert.Equal(t, 0, o.registry.Len())
	assert.Equal(t, 1, tr.uploads)
	assert.Equal(t, messages.MergeDone(), n.last())

	// Successful runs leave no artifacts behind.
	for _, p := range []string{tr.VideoPath(task.UserID), tr.AudioPath(task.UserID), tr.OutputPath(task.UserID)} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "expected %s to be removed", p)
	}
}

func TestRunMergeFailureReleasesSlot(t *testing.T) {
	o, sessions, _, merger, sink := newTestOrchestrator(t)
	merger.err = &engine.Error{Err: errors.New("boom"), Diagnostic: "bad stream"}
	n := &fakeNotifier{}

	err := o.Run(context.Background(), testTask(), n)
	require.Error(t, err)

	recs := sink.records()
	require.Len(t, recs, 1)
	assert.Equal(t, audit.StatusFailed, recs[0].Status)
	assert.Contains(t, recs[0].Error, "boom")

	// The failure must not wedge the user: slot free, session cleared,
	// and a retry goes through.
	assert.Equal(t, 0, o.registry.Len())
	assert.Equal(t, 1, sessions.clearedCount())
	assert.Equal(t, messages.MergeFailed("bad stream"), n.last())

	merger.err = nil
	require.NoError(t, o.Run(context.Background(), testTask(), &fakeNotifier{}))
}

func TestRunDownloadFailure(t *testing.T) {
	o, sessions, tr, _, sink := newTestOrchestrator(t)
	tr.downloadErr["vid-file"] = errors.New("network down")
	n := &fakeNotifier{}

	err := o.Run(context.Background(), testTask(), n)
	require.Error(t, err)

	recs := sink.records()
	require.Len(t, recs, 1)
	assert.Equal(t, audit.StatusFailed, recs[0].Status)
	assert.Equal(t, messages.DownloadFailed(), n.last())
	assert.Equal(t, 0, o.registry.Len())
	assert.Equal(t, 1, sessions.clearedCount())
	assert.Equal(t, 0, tr.uploads)
}

func TestRunUploadFailureLeavesArtifactsForJanitor(t *testing.T) {
	o, _, tr, _, sink := newTestOrchestrator(t)
	tr.uploadErr = errors.New("telegram 502")
	n := &fakeNotifier{}
	task := testTask()

	err := o.Run(context.Background(), task, n)
	require.Error(t, err)

	recs := sink.records()
	require.Len(t, recs, 1)
	assert.Equal(t, audit.StatusFailed, recs[0].Status)
	assert.Equal(t, messages.UploadFailed(), n.last())

	// Failure paths skip artifact removal: the janitor sweeps them.
	_, statErr := os.Stat(tr.OutputPath(task.UserID))
	assert.NoError(t, statErr)
}

func TestRunDuplicateRejected(t *testing.T) {
	o, sessions, _, _, sink := newTestOrchestrator(t)
	task := testTask()

	require.True(t, o.registry.TryAcquire(task.UserID))

	n := &fakeNotifier{}
	err := o.Run(context.Background(), task, n)
	assert.ErrorIs(t, err, ErrDuplicateTask)

	// Rejection must not touch the running task's slot or session.
	assert.Equal(t, 1, o.registry.Len())
	assert.Equal(t, 0, sessions.clearedCount())
	assert.Empty(t, sink.records())
	assert.Equal(t, messages.AlreadyProcessing(), n.last())
}

func TestRunMaintenanceRejected(t *testing.T) {
	o, sessions, _, _, sink := newTestOrchestrator(t)

	assert.True(t, o.ToggleMaintenance())
	assert.True(t, o.Maintenance())

	n := &fakeNotifier{}
	err := o.Run(context.Background(), testTask(), n)
	assert.ErrorIs(t, err, ErrMaintenance)
	assert.Empty(t, sink.records())
	assert.Equal(t, 0, sessions.clearedCount())

	assert.False(t, o.ToggleMaintenance())
	require.NoError(t, o.Run(context.Background(), testTask(), &fakeNotifier{}))
}

func TestRunInsufficientStorage(t *testing.T) {
	o, sessions, _, _, sink := newTestOrchestrator(t)
	o.diskFree = func(string) (uint64, error) { return 0, nil }

	n := &fakeNotifier{}
	err := o.Run(context.Background(), testTask(), n)
	assert.ErrorIs(t, err, ErrInsufficientStorage)

	// The slot was taken during admission and must be given back.
	assert.Equal(t, 0, o.registry.Len())
	assert.Equal(t, 1, sessions.clearedCount())
	assert.Empty(t, sink.records())
	assert.Equal(t, messages.InsufficientStorage(), n.last())
}

func TestRunReportsProgress(t *testing.T) {
	o, _, _, _, _ := newTestOrchestrator(t)
	n := &fakeNotifier{}

	require.NoError(t, o.Run(context.Background(), testTask(), n))

	// The fake transfer reports 5 of 10 for each download.
	assert.True(t, n.contains(messages.LabelDownloadVideo+" 50%"))
	assert.True(t, n.contains(messages.LabelDownloadAudio+" 50%"))
}
