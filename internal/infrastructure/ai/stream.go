package ai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// streamDecoder is the per-event state machine for an SSE-style completion
// stream. A "data: " line opens (or continues) the current event; lines
// without the prefix are appended verbatim while an event is open, which
// tolerates providers that split a payload across raw lines; a blank line
// completes the event.
type streamDecoder struct {
	pending strings.Builder
	inEvent bool
}

// feed consumes one line. payload is non-empty semantics only when complete
// is true; done means the stream sentinel was seen and anything still
// pending must be discarded.
func (d *streamDecoder) feed(line string) (payload string, complete bool, done bool) {
	if line == "" {
		if !d.inEvent {
			return "", false, false
		}
		payload = d.pending.String()
		d.pending.Reset()
		d.inEvent = false
		return payload, true, false
	}
	if rest, ok := strings.CutPrefix(line, dataPrefix); ok {
		if strings.TrimSpace(rest) == doneSentinel {
			d.pending.Reset()
			d.inEvent = false
			return "", false, true
		}
		d.inEvent = true
		d.pending.WriteString(rest)
		return "", false, false
	}
	if d.inEvent {
		d.pending.WriteString(line)
	}
	return "", false, false
}

// streamChunk is the wire shape of one streamed completion event.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamReader assembles generated text from a provider response body. It is
// single-use: once Next returns io.EOF the underlying stream is exhausted.
type StreamReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	dec     streamDecoder
	log     ports.Logger
	done    bool
}

// NewStreamReader wraps a streaming response body. closer may be nil for
// in-memory streams.
func NewStreamReader(r io.Reader, closer io.Closer, log ports.Logger) *StreamReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &StreamReader{scanner: scanner, closer: closer, log: log}
}

// Next returns the next non-empty text fragment in arrival order, or io.EOF
// when the provider emitted its end sentinel or the connection closed. A
// malformed event payload is logged and skipped; an event without the
// expected delta fields is skipped silently. An incomplete trailing event is
// discarded.
func (r *StreamReader) Next() (domain.StreamFragment, error) {
	if r.done {
		return domain.StreamFragment{}, io.EOF
	}
	for r.scanner.Scan() {
		payload, complete, done := r.dec.feed(r.scanner.Text())
		if done {
			r.done = true
			return domain.StreamFragment{}, io.EOF
		}
		if !complete {
			continue
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			if r.log != nil {
				r.log.Warn("skipping malformed stream event", map[string]interface{}{
					"error": err.Error(),
				})
			}
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			return domain.StreamFragment{Content: content}, nil
		}
	}
	r.done = true
	if err := r.scanner.Err(); err != nil {
		return domain.StreamFragment{}, err
	}
	return domain.StreamFragment{}, io.EOF
}

// ReadAll drains the stream and returns the concatenation of every fragment.
// An empty stream yields an empty string, not an error.
func (r *StreamReader) ReadAll() (string, error) {
	var builder strings.Builder
	for {
		frag, err := r.Next()
		if err == io.EOF {
			return builder.String(), nil
		}
		if err != nil {
			return builder.String(), err
		}
		builder.WriteString(frag.Content)
	}
}

// Close releases the underlying response body.
func (r *StreamReader) Close() error {
	r.done = true
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

var _ ports.CompletionStream = (*StreamReader)(nil)
