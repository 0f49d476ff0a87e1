package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BatmanBruc/bat-bot-merger/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeArgsReplace(t *testing.T) {
	args := mergeArgs("in.mp4", "in.mp3", "out.mp4", types.ModeReplace)

	assert.Equal(t, []string{
		"-i", "in.mp4",
		"-i", "in.mp3",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-y", "out.mp4",
	}, args)
}

func TestMergeArgsMix(t *testing.T) {
	args := mergeArgs("in.mp4", "in.mp3", "out.mp4", types.ModeMix)

	require.Contains(t, args, "-filter_complex")
	var graph string
	for i, a := range args {
		if a == "-filter_complex" {
			graph = args[i+1]
		}
	}
	assert.Equal(t, "[0:a]volume=0.5[a0];[1:a]volume=0.5[a1];[a0][a1]amix=inputs=2:duration=longest[aout]", graph)

	// Mixed audio comes from the filter graph, not the second input
	// directly, and the video stream is still copied.
	assert.Contains(t, args, "[aout]")
	assert.NotContains(t, args, "1:a:0")
	assert.Contains(t, args, "copy")
}

func TestMergeArgsVideoNeverReencoded(t *testing.T) {
	for _, mode := range []types.MergeMode{types.ModeReplace, types.ModeMix} {
		args := mergeArgs("v", "a", "o", mode)
		for i, arg := range args {
			if arg == "-c:v" {
				assert.Equal(t, "copy", args[i+1], "mode %s", mode)
			}
		}
	}
}

func TestErrorCarriesDiagnostic(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := error(&Error{Err: cause, Diagnostic: "Stream map '1:a:0' matches no streams"})

	var engErr *Error
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, "Stream map '1:a:0' matches no streams", engErr.Diagnostic)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "matches no streams")
}
