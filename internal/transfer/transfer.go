package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Progress is pushed on every chunk of a running transfer. Total may be
// zero when the remote side does not report a length.
type Progress struct {
	Current int64
	Total   int64
	Label   string
}

type Pipeline struct {
	botClient *bot.Bot
	client    *http.Client
	tempDir   string
}

func NewPipeline(botClient *bot.Bot, tempDir string) *Pipeline {
	_ = os.MkdirAll(tempDir, 0755)
	return &Pipeline{
		botClient: botClient,
		client: &http.Client{
			Timeout: 30 * time.Minute,
		},
		tempDir: tempDir,
	}
}

// Deterministic per-user artifact paths: a crash mid-task leaves
// identifiable orphans for the janitor.

func (p *Pipeline) VideoPath(userID int64) string {
	return filepath.Join(p.tempDir, fmt.Sprintf("%d_video.mp4", userID))
}

func (p *Pipeline) AudioPath(userID int64) string {
	return filepath.Join(p.tempDir, fmt.Sprintf("%d_audio.mp3", userID))
}

func (p *Pipeline) OutputPath(userID int64) string {
	return filepath.Join(p.tempDir, fmt.Sprintf("%d_output.mp4", userID))
}

func (p *Pipeline) Download(ctx context.Context, fileID, destPath, label string, progress chan<- Progress) error {
	fileInfo, err := p.botClient.GetFile(ctx, &bot.GetFileParams{
		FileID: fileID,
	})
	if err != nil {
		return fmt.Errorf("ошибка получения файла: %v", err)
	}

	fileURL := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", p.botClient.Token(), fileInfo.FilePath)

	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ошибка загрузки файла: статус %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	counter := &progressWriter{
		total:    resp.ContentLength,
		label:    label,
		progress: progress,
	}
	if _, err := io.Copy(out, io.TeeReader(resp.Body, counter)); err != nil {
		_ = os.Remove(destPath)
		return err
	}
	return nil
}

// Upload sends the local file as a video message and returns the remote
// file reference assigned by Telegram.
func (p *Pipeline) Upload(ctx context.Context, chatID int64, srcPath, caption, label string, progress chan<- Progress) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader := &progressReader{
		r:        f,
		total:    info.Size(),
		label:    label,
		progress: progress,
	}

	msg, err := p.botClient.SendVideo(ctx, &bot.SendVideoParams{
		ChatID: chatID,
		Video: &models.InputFileUpload{
			Filename: filepath.Base(srcPath),
			Data:     reader,
		},
		Caption: caption,
	})
	if err != nil {
		return "", err
	}

	fileRef := ""
	if msg != nil && msg.Video != nil {
		fileRef = msg.Video.FileID
	}
	return fileRef, nil
}

type progressWriter struct {
	current  int64
	total    int64
	label    string
	progress chan<- Progress
}

func (w *progressWriter) Write(b []byte) (int, error) {
	w.current += int64(len(b))
	report(w.progress, Progress{Current: w.current, Total: w.total, Label: w.label})
	return len(b), nil
}

type progressReader struct {
	r        io.Reader
	current  int64
	total    int64
	label    string
	progress chan<- Progress
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	if n > 0 {
		r.current += int64(n)
		report(r.progress, Progress{Current: r.current, Total: r.total, Label: r.label})
	}
	return n, err
}

// report never blocks the transfer: when the consumer lags, updates are
// dropped rather than queued.
func report(ch chan<- Progress, p Progress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	default:
	}
}
