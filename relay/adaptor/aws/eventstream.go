package aws

import (
	"encoding/json"
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
)

// StreamDecoder turns the binary AWS EventStream body of an
// invoke-with-response-stream call into the Anthropic event JSONs it wraps.
// Frames arrive length-prefixed; the underlying decoder reads exactly one
// frame per call and is indifferent to how the transport chunks the bytes.
type StreamDecoder struct {
	r          io.Reader
	dec        *eventstream.Decoder
	payloadBuf []byte
}

// NewStreamDecoder wraps an upstream response body.
func NewStreamDecoder(r io.Reader) *StreamDecoder {
	return &StreamDecoder{
		r:          r,
		dec:        eventstream.NewDecoder(),
		payloadBuf: make([]byte, 0, 4096),
	}
}

// Next returns the next decoded Anthropic event payload. io.EOF signals a
// cleanly finished stream. Exception frames and undecodable chunk payloads
// surface as errors; frames that are neither chunks nor exceptions (such as
// the initial-response preamble) are skipped.
func (d *StreamDecoder) Next() ([]byte, error) {
	for {
		msg, err := d.dec.Decode(d.r, d.payloadBuf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "decode eventstream frame")
		}

		if headerString(msg, ":message-type") == "exception" {
			exceptionType := headerString(msg, ":exception-type")
			return nil, errors.Errorf("eventstream exception %q: %s", exceptionType, string(msg.Payload))
		}
		if headerString(msg, ":event-type") != "chunk" {
			continue
		}

		// Chunk payloads are {"bytes":"<base64 anthropic event>"}; the
		// []byte field base64-decodes during unmarshal.
		var payload struct {
			Bytes []byte `json:"bytes"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, errors.Wrap(err, "decode chunk payload")
		}
		return payload.Bytes, nil
	}
}

func headerString(msg eventstream.Message, name string) string {
	v := msg.Headers.Get(name)
	if v == nil {
		return ""
	}
	if s, ok := v.(eventstream.StringValue); ok {
		return string(s)
	}
	return ""
}
