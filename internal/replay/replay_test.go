package replay_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/calltree/internal/replay"
	"github.com/fakeyudi/calltree/internal/tracer"
	"github.com/fakeyudi/calltree/internal/tree"
)

const flatLog = `# recorded with scripts/record-pauses.gdb
{"frames":[{"id":"0x30","func":"main"}]}
{"frames":[{"id":"0x20","func":"foo"},{"id":"0x30","func":"main"}]}

{"frames":[{"id":"0x10","func":"bar"},{"id":"0x20","func":"foo"},{"id":"0x30","func":"main"}]}
{"frames":[{"id":"0x20","func":"foo"},{"id":"0x30","func":"main"}]}
{"frames":[{"id":"0x30","func":"main"}]}
`

func TestParseSkipsBlanksAndComments(t *testing.T) {
	records, err := replay.Parse(strings.NewReader(flatLog))
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "main", records[0].Frames[0].Func)
	assert.Equal(t, "bar", records[2].Frames[0].Func)
	assert.Len(t, records[2].Frames, 3)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	in := `{"frames":[{"id":"0x30","func":"main"}]}
{"frames": not json}
`
	_, err := replay.Parse(strings.NewReader(in))

	var perr *replay.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
}

func TestParseRejectsFramelessRecord(t *testing.T) {
	_, err := replay.Parse(strings.NewReader(`{"frames":[]}`))

	var perr *replay.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
}

func TestParseRejectsMissingFrameID(t *testing.T) {
	_, err := replay.Parse(strings.NewReader(`{"frames":[{"func":"main"}]}`))

	var perr *replay.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseEmptyLog(t *testing.T) {
	_, err := replay.Parse(strings.NewReader("# nothing here\n"))
	assert.True(t, errors.Is(err, replay.ErrEmptyLog))
}

// End to end: a parsed log drives a real session through the replay host.
func TestReplayDrivesSession(t *testing.T) {
	records, err := replay.Parse(strings.NewReader(flatLog))
	require.NoError(t, err)

	h := replay.NewHost(records)
	s, err := tracer.Begin(h, tracer.Options{MaxDepth: 2})
	require.NoError(t, err)
	h.Run()

	require.True(t, s.Done())
	require.NoError(t, s.Err())

	var got []string
	s.Tree().Walk(func(n tree.Node, depth int) bool {
		got = append(got, n.Name)
		return true
	})
	assert.Equal(t, []string{"main", "foo", "bar"}, got)
	assert.Equal(t, 3, h.Advances())
	assert.Equal(t, 1, h.Returns())
}

// A log that ends mid-descent surfaces as a lost frame with partial results.
func TestReplayExhaustionSurfacesLostFrame(t *testing.T) {
	in := `{"frames":[{"id":"0x30","func":"main"}]}
{"frames":[{"id":"0x20","func":"foo"},{"id":"0x30","func":"main"}]}
`
	records, err := replay.Parse(strings.NewReader(in))
	require.NoError(t, err)

	h := replay.NewHost(records)
	s, err := tracer.Begin(h, tracer.Options{MaxDepth: 2})
	require.NoError(t, err)
	h.Run()

	require.True(t, s.Done())
	assert.ErrorIs(t, s.Err(), tracer.ErrLostFrame)
	assert.Equal(t, 2, s.Tree().Len(), "partial tree keeps main and foo")
}
