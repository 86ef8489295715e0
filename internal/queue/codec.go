package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"devlog-ai/internal/domain/entity"
)

// DecodeError reports an inbound message that could not be turned into a request.
type DecodeError struct {
	Queue  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode " + e.Queue + " message: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err carries a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

type inbound struct {
	Data json.RawMessage `json:"data"`
}

// Decode parses a {"data": ...} message body into a request of the given kind.
// It has no side effects and never panics on malformed input.
func Decode(raw []byte, kind entity.Kind) (entity.Request, error) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &DecodeError{Queue: string(kind), Reason: "body is not valid JSON", Err: err}
	}
	if isEmptyData(in.Data) {
		return nil, &DecodeError{Queue: string(kind), Reason: "data is missing or empty", Err: entity.ErrEmptyRequest}
	}

	req, err := entity.DecodeRequest(kind, in.Data)
	if err != nil {
		return nil, &DecodeError{Queue: string(kind), Reason: "data does not match request shape", Err: err}
	}
	return req, nil
}

// DecodeDelivery decodes d into an envelope using the kind bound to its queue.
func DecodeDelivery(d Delivery) (Envelope, error) {
	kind, err := QueueKind(d.Queue)
	if err != nil {
		return Envelope{}, &DecodeError{Queue: d.Queue, Reason: "unknown queue", Err: err}
	}
	req, err := Decode(d.Body, kind)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Queue:         d.Queue,
		Kind:          kind,
		CorrelationID: d.CorrelationID,
		ReplyTo:       d.ReplyTo,
		Payload:       req,
	}, nil
}

// isEmptyData treats absent, null, false, 0, "", [] and {} as no data.
func isEmptyData(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	switch string(raw) {
	case "null", "false", "0", `""`:
		return true
	}
	switch raw[0] {
	case '[':
		var v []json.RawMessage
		return json.Unmarshal(raw, &v) == nil && len(v) == 0
	case '{':
		var v map[string]json.RawMessage
		return json.Unmarshal(raw, &v) == nil && len(v) == 0
	}
	return false
}

type titleReply struct {
	Type   string `json:"type"`
	Result string `json:"result"`
}

type retrospectiveReply struct {
	Retrospective string `json:"retrospective"`
}

type experienceReply struct {
	Experiences []entity.Experience `json:"experiences"`
}

// Encode renders a result in the reply shape its queue's producers expect.
// HTML escaping is disabled so natural-language text passes through unchanged.
func Encode(result entity.Result) ([]byte, error) {
	var v any
	switch r := result.(type) {
	case entity.TitleResult:
		v = titleReply{Type: "title_response", Result: r.Title}
	case entity.RetrospectiveResult:
		v = retrospectiveReply{Retrospective: r.Retrospective}
	case entity.ExperienceResult:
		items := r.Experiences
		if items == nil {
			items = []entity.Experience{}
		}
		v = experienceReply{Experiences: items}
	default:
		return nil, fmt.Errorf("%w: %T", entity.ErrUnknownKind, result)
	}
	return marshal(v)
}

// Failure codes carried by failure replies.
const (
	CodeDecode     = "decode_error"
	CodeValidation = "validation_error"
	CodeGeneration = "generation_failed"
)

type failureReply struct {
	Type  string        `json:"type"`
	Error failureDetail `json:"error"`
}

type failureDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodeFailure renders a failure reply. Generation failures carry a generic
// message so backend details never reach the requester.
func EncodeFailure(err error) ([]byte, error) {
	code := FailureCode(err)
	detail := failureDetail{Code: code, Message: "generation failed"}
	switch code {
	case CodeDecode:
		detail.Message = err.Error()
	case CodeValidation:
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			detail.Message = ve.Message
		}
	}
	return marshal(failureReply{Type: "error", Error: detail})
}

// FailureCode returns the failure reply code for err.
func FailureCode(err error) string {
	switch {
	case IsDecodeError(err):
		return CodeDecode
	case entity.IsValidation(err):
		return CodeValidation
	default:
		return CodeGeneration
	}
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
