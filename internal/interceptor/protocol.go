// Package interceptor implements the wire-level request path: a
// length-prefixed JSON protocol, a stateless policy evaluator, and a
// goroutine-per-connection TCP server that ties them together with
// the audit pipeline.
//
// Wire format, identical in both directions:
//
//	4 bytes: message length, big-endian uint32
//	N bytes: JSON payload, UTF-8
//
// HTTP is deliberately not used here: the framing is kept minimal so
// serialization cost stays negligible next to policy evaluation and
// audit logging.
package interceptor

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

const (
	// HeaderSize is the length of the big-endian uint32 length prefix.
	HeaderSize = 4
	// MaxMessageSize is the safety limit on a single message's payload.
	MaxMessageSize = 1024 * 1024
)

// InterceptRequest is a deserialized agent request.
type InterceptRequest struct {
	AgentID  string `json:"agent_id"`
	Domain   string `json:"domain"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	SourceIP string `json:"source_ip"`
}

// InterceptResponse is the decision sent back to the agent.
type InterceptResponse struct {
	Decision         string  `json:"decision"`
	Reason           string  `json:"reason"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// marshalFrame encodes v as compact JSON with a 4-byte big-endian
// length prefix.
func marshalFrame(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.ProtocolError("failed to marshal wire payload: " + err.Error())
	}
	frame := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame[:HeaderSize], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// ToBytes serializes a request to wire format.
func (r InterceptRequest) ToBytes() ([]byte, error) { return marshalFrame(r) }

// ToBytes serializes a response to wire format.
func (r InterceptResponse) ToBytes() ([]byte, error) { return marshalFrame(r) }

// ParseRequest deserializes a JSON payload (without the length
// prefix) into an InterceptRequest, defaulting source_ip to
// "0.0.0.0" when absent.
func ParseRequest(payload []byte) (InterceptRequest, error) {
	var req InterceptRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return InterceptRequest{}, apperrors.ProtocolError("malformed request payload: " + err.Error())
	}
	if req.SourceIP == "" {
		req.SourceIP = "0.0.0.0"
	}
	return req, nil
}

// ParseResponse deserializes a JSON payload into an InterceptResponse.
func ParseResponse(payload []byte) (InterceptResponse, error) {
	var resp InterceptResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return InterceptResponse{}, apperrors.ProtocolError("malformed response payload: " + err.Error())
	}
	return resp, nil
}

// ReadMessage reads one length-prefixed message from r: 4 bytes of
// big-endian length, validated against MaxMessageSize, followed by
// that many payload bytes.
func ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, apperrors.ProtocolError(fmt.Sprintf("connection closed reading header: %v", err))
	}
	msgLen := binary.BigEndian.Uint32(header)
	if msgLen > MaxMessageSize {
		return nil, apperrors.ProtocolError(fmt.Sprintf("message size %d exceeds limit %d", msgLen, MaxMessageSize))
	}
	payload := make([]byte, msgLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, apperrors.ProtocolError(fmt.Sprintf("connection closed reading payload: %v", err))
	}
	return payload, nil
}

// WriteMessage writes payload to w with its 4-byte big-endian length
// prefix, in a single Write call so the OS can coalesce into one
// segment.
func WriteMessage(w io.Writer, payload []byte) error {
	header := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := w.Write(append(header, payload...)); err != nil {
		return apperrors.ProtocolError("failed to write message: " + err.Error())
	}
	return nil
}
