package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var videoFormats = []string{"mp4", "mkv", "mov", "avi"}

func TestCheckAcceptsKnownFormat(t *testing.T) {
	err := Check("movie.mp4", 100, "video/mp4", videoFormats, 1000)
	assert.NoError(t, err)
}

func TestCheckAcceptsExactlyAtLimit(t *testing.T) {
	err := Check("movie.mp4", 1000, "video/mp4", videoFormats, 1000)
	assert.NoError(t, err)
}

func TestCheckRejectsUnsupportedFormat(t *testing.T) {
	// Format is checked before size: a tiny file of the wrong format is
	// still rejected for its format.
	err := Check("movie.webm", 1, "video/webm", videoFormats, 1000)
	require.Error(t, err)

	verr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ReasonUnsupportedFormat, verr.Reason)
	assert.Equal(t, "webm", verr.Ext)
}

func TestCheckRejectsMissingExtension(t *testing.T) {
	err := Check("movie", 1, "video/mp4", videoFormats, 1000)
	require.Error(t, err)

	verr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ReasonUnsupportedFormat, verr.Reason)
}

func TestCheckRejectsOversized(t *testing.T) {
	err := Check("movie.mp4", 1001, "video/mp4", videoFormats, 1000)
	require.Error(t, err)

	verr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ReasonSizeExceeded, verr.Reason)
	assert.Equal(t, int64(1001), verr.Size)
	assert.Equal(t, int64(1000), verr.Limit)
}

func TestCheckRejectsMimeMismatch(t *testing.T) {
	err := Check("movie.mp4", 100, "audio/mpeg", videoFormats, 1000)
	require.Error(t, err)

	verr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ReasonMimeMismatch, verr.Reason)
	assert.Equal(t, "audio/mpeg", verr.Declared)
	assert.Equal(t, "video/mp4", verr.Inferred)
}

func TestCheckSkipsMimeWhenNotDeclared(t *testing.T) {
	err := Check("movie.mp4", 100, "", videoFormats, 1000)
	assert.NoError(t, err)
}

func TestCheckSizeBeforeMime(t *testing.T) {
	// An oversized file with a bad MIME reports the size first.
	err := Check("movie.mp4", 5000, "audio/mpeg", videoFormats, 1000)
	require.Error(t, err)

	verr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ReasonSizeExceeded, verr.Reason)
}

func TestExtOf(t *testing.T) {
	assert.Equal(t, "mp4", ExtOf("a.mp4"))
	assert.Equal(t, "mp4", ExtOf("a.b.MP4"))
	assert.Equal(t, "", ExtOf("noext"))
	assert.Equal(t, "", ExtOf("trailingdot."))
}

func TestCheckCaseInsensitiveFormat(t *testing.T) {
	err := Check("MOVIE.MP4", 100, "video/mp4", videoFormats, 1000)
	assert.NoError(t, err)
}
