package transfer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactPathsArePerUser(t *testing.T) {
	p := NewPipeline(nil, t.TempDir())

	assert.True(t, strings.HasSuffix(p.VideoPath(42), "42_video.mp4"))
	assert.True(t, strings.HasSuffix(p.AudioPath(42), "42_audio.mp3"))
	assert.True(t, strings.HasSuffix(p.OutputPath(42), "42_output.mp4"))

	assert.NotEqual(t, p.VideoPath(1), p.VideoPath(2))
}

func TestProgressWriterAccounting(t *testing.T) {
	ch := make(chan Progress, 8)
	w := &progressWriter{total: 10, label: "dl", progress: ch}

	n, err := w.Write(make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = w.Write(make([]byte, 6))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	close(ch)
	var last Progress
	for p := range ch {
		last = p
	}
	assert.Equal(t, Progress{Current: 10, Total: 10, Label: "dl"}, last)
}

func TestProgressReaderAccounting(t *testing.T) {
	ch := make(chan Progress, 8)
	r := &progressReader{
		r:        strings.NewReader("0123456789"),
		total:    10,
		label:    "up",
		progress: ch,
	}

	buf := make([]byte, 4)
	read := 0
	for {
		n, err := r.Read(buf)
		read += n
		if err != nil {
			break
		}
	}
	assert.Equal(t, 10, read)

	close(ch)
	var last Progress
	for p := range ch {
		last = p
	}
	assert.Equal(t, Progress{Current: 10, Total: 10, Label: "up"}, last)
}

func TestReportNeverBlocks(t *testing.T) {
	// Full channel: updates are dropped, not queued.
	ch := make(chan Progress, 1)
	report(ch, Progress{Current: 1})
	report(ch, Progress{Current: 2})
	report(ch, Progress{Current: 3})

	p := <-ch
	assert.Equal(t, int64(1), p.Current)
	assert.Empty(t, ch)

	// Nil channel: no-op.
	report(nil, Progress{Current: 1})
}
