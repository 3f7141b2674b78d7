package ai

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sheetql/sheetql/internal/pkg/logger"
)

func chunk(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

func newTestReader(body string) *StreamReader {
	return NewStreamReader(strings.NewReader(body), nil, logger.NewStd(false))
}

func TestStreamReaderAssemblesFragmentsInOrder(t *testing.T) {
	body := chunk("SELECT") + chunk(" TOP 5 * FROM Customers") + "data: [DONE]\n\n"

	reader := newTestReader(body)
	text, err := reader.ReadAll()
	require.NoError(t, err)
	require.Equal(t, "SELECT TOP 5 * FROM Customers", text)
}

func TestStreamReaderNextYieldsLazyFragments(t *testing.T) {
	body := chunk("SELECT ") + chunk("1") + "data: [DONE]\n\n"

	reader := newTestReader(body)

	frag, err := reader.Next()
	require.NoError(t, err)
	require.Equal(t, "SELECT ", frag.Content)

	frag, err = reader.Next()
	require.NoError(t, err)
	require.Equal(t, "1", frag.Content)

	_, err = reader.Next()
	require.Equal(t, io.EOF, err)

	// the reader stays terminal after EOF
	_, err = reader.Next()
	require.Equal(t, io.EOF, err)
}

func TestStreamReaderEmptyStream(t *testing.T) {
	text, err := newTestReader("").ReadAll()
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestStreamReaderStopsAtSentinelWithoutTrailingEvents(t *testing.T) {
	body := chunk("SELECT 1") + "data: [DONE]\n\n" + chunk("ignored")

	text, err := newTestReader(body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", text)
}

func TestStreamReaderSentinelDiscardsPartialEvent(t *testing.T) {
	// an event is still accumulating when the sentinel arrives
	body := chunk("SELECT 1") +
		`data: {"choices":[{"delta":{"content":"half` + "\n" +
		"data: [DONE]\n\n"

	text, err := newTestReader(body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", text)
}

func TestStreamReaderClosedConnectionKeepsCompletedEvents(t *testing.T) {
	// no sentinel, stream just ends; the trailing unterminated event is lost
	body := chunk("SELECT ") + chunk("name FROM t") +
		`data: {"choices":[{"delta":{"content":"incomplete`

	text, err := newTestReader(body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "SELECT name FROM t", text)
}

func TestStreamReaderPayloadSplitAcrossLines(t *testing.T) {
	// continuation lines without the prefix are appended verbatim
	body := `data: {"choices":[{"delta":` + "\n" +
		`{"content":"SELECT 42"}}]}` + "\n\n" +
		"data: [DONE]\n\n"

	text, err := newTestReader(body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "SELECT 42", text)
}

func TestStreamReaderSkipsMalformedEvent(t *testing.T) {
	body := chunk("SELECT ") +
		"data: {not json}\n\n" +
		chunk("1") +
		"data: [DONE]\n\n"

	text, err := newTestReader(body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", text)
}

func TestStreamReaderSkipsEventsWithoutDelta(t *testing.T) {
	body := `data: {"choices":[]}` + "\n\n" +
		`data: {"id":"x"}` + "\n\n" +
		chunk("SELECT 1") +
		"data: [DONE]\n\n"

	text, err := newTestReader(body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", text)
}

func TestStreamDecoderBlankLineOutsideEventIsNoise(t *testing.T) {
	var dec streamDecoder
	payload, complete, done := dec.feed("")
	require.False(t, complete)
	require.False(t, done)
	require.Empty(t, payload)
}

func TestStreamDecoderSentinelResetsState(t *testing.T) {
	var dec streamDecoder
	_, _, done := dec.feed(`data: {"choices":`)
	require.False(t, done)

	_, _, done = dec.feed("data: [DONE]")
	require.True(t, done)
	require.False(t, dec.inEvent)
	require.Zero(t, dec.pending.Len())
}
