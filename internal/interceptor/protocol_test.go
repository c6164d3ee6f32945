package interceptor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTripsThroughWireFormat(t *testing.T) {
	req := InterceptRequest{AgentID: "a1", Domain: "api.openai.com", Method: "GET", Path: "/v1", SourceIP: "10.0.0.1"}
	frame, err := req.ToBytes()
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(frame)
	payload, err := ReadMessage(&buf)
	require.NoError(t, err)

	parsed, err := ParseRequest(payload)
	require.NoError(t, err)
	assert.Equal(t, req, parsed)
}

func TestParseRequestDefaultsSourceIP(t *testing.T) {
	parsed, err := ParseRequest([]byte(`{"agent_id":"a1","domain":"x.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", parsed.SourceIP)
}

func TestParseRequestRejectsMalformedJSON(t *testing.T) {
	_, err := ParseRequest([]byte(`not json`))
	require.Error(t, err)
}

func TestResponseRoundTripsThroughWireFormat(t *testing.T) {
	resp := InterceptResponse{Decision: "ALLOW", Reason: "matched", ProcessingTimeMs: 1.5}
	frame, err := resp.ToBytes()
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(frame)
	payload, err := ReadMessage(&buf)
	require.NoError(t, err)

	parsed, err := ParseResponse(payload)
	require.NoError(t, err)
	assert.Equal(t, resp, parsed)
}

func TestReadMessageRejectsOversizedLength(t *testing.T) {
	header := make([]byte, HeaderSize)
	header[0] = 0xFF // forces a length far beyond MaxMessageSize
	var buf bytes.Buffer
	buf.Write(header)
	_, err := ReadMessage(&buf)
	require.Error(t, err)
}

func TestReadMessageRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 10}) // declares 10 bytes, provides none
	_, err := ReadMessage(&buf)
	require.Error(t, err)
}

func TestWriteMessageProducesLengthPrefixedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, []byte("hello")))
	payload, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(payload))
}

func TestParseResponseRejectsMalformedJSON(t *testing.T) {
	_, err := ParseResponse([]byte(strings.Repeat("x", 3)))
	require.Error(t, err)
}
