package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/BatmanBruc/bat-bot-merger/types"
)

// Error carries ffmpeg's combined output verbatim so that it can be
// shown to the user and written to the audit record.
type Error struct {
	Err        error
	Diagnostic string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ошибка ffmpeg: %v, вывод: %s", e.Err, e.Diagnostic)
}

func (e *Error) Unwrap() error { return e.Err }

type Merger interface {
	Merge(ctx context.Context, videoPath, audioPath, outputPath string, mode types.MergeMode) error
}

type FFmpeg struct{}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{}
}

func (f *FFmpeg) Merge(ctx context.Context, videoPath, audioPath, outputPath string, mode types.MergeMode) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg не установлен")
	}

	args := mergeArgs(videoPath, audioPath, outputPath, mode)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(outputPath)
		return &Error{Err: err, Diagnostic: string(output)}
	}

	info, err := os.Stat(outputPath)
	if os.IsNotExist(err) {
		return &Error{Err: fmt.Errorf("output not created"), Diagnostic: string(output)}
	}
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл результата: %v", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(outputPath)
		return &Error{Err: fmt.Errorf("output is empty"), Diagnostic: string(output)}
	}

	return nil
}

// mergeArgs builds the processing graph for a mode. The video stream is
// never re-encoded.
func mergeArgs(videoPath, audioPath, outputPath string, mode types.MergeMode) []string {
	if mode == types.ModeMix {
		// Both tracks attenuated to half amplitude, mixed into one
		// stream lasting as long as the longer input.
		return []string{
			"-i", videoPath,
			"-i", audioPath,
			"-filter_complex", "[0:a]volume=0.5[a0];[1:a]volume=0.5[a1];[a0][a1]amix=inputs=2:duration=longest[aout]",
			"-map", "0:v:0",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
			"-y", outputPath,
		}
	}
	// Replace: stream-copy the video, take only the new audio track.
	return []string{
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-y", outputPath,
	}
}
