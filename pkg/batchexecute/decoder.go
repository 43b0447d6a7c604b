package batchexecute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
)

// ErrMalformedResponse matches every *DecodeError.
var ErrMalformedResponse = errors.New("malformed batchexecute response")

// Decode steps reported in DecodeError.Step.
const (
	StepPayloadLine   = "payload line"
	StepParseEnvelope = "parse envelope"
	StepEnvelopeField = "envelope payload"
	StepParseInner    = "parse inner document"
	StepNavigate      = "navigate"
	StepSegments      = "segments"
)

// envelopePayloadPath locates the JSON-in-JSON payload in the outer tree.
var envelopePayloadPath = []int{0, 2}

// segmentsPath locates the primary translation's segment list in the inner
// tree. The trailing 4 selects the first alternative; other indices hold
// secondary candidates.
var segmentsPath = []int{1, 0, 0, 5, 0, 4}

// DecodeError describes where decoding a response stopped.
type DecodeError struct {
	Step string
	// Path is the deepest location that was reached, e.g. "inner[1][0][0]".
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s at %s: %v", ErrMalformedResponse, e.Step, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrMalformedResponse, e.Step, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports true for ErrMalformedResponse.
func (e *DecodeError) Is(target error) bool { return target == ErrMalformedResponse }

// Decoder turns raw response bodies into translated segments.
// The zero value is usable; it logs to logrus' standard logger.
type Decoder struct {
	Logger *logrus.Logger
}

// NewDecoder creates a decoder logging to logger.
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{Logger: logger}
}

// DecodeResponse decodes raw with a zero Decoder.
func DecodeResponse(raw string) ([]string, error) {
	var d Decoder
	return d.Decode(raw)
}

// Decode extracts the ordered translation segments from a response body.
//
// Only the last non-empty line carries data; the leading lines are framing
// noise. That line is a JSON array whose [0][2] entry is a second JSON
// document serialized as a string. In the second document the node at
// [1][0][0][5][0][4] is an array of segment nodes, each holding its text at
// index 0. Segment nodes without a string there are skipped.
//
// A structurally valid response with no segments yields an empty, non-nil
// slice and no error.
func (d *Decoder) Decode(raw string) ([]string, error) {
	line, ok := lastLine(raw)
	if !ok {
		return nil, &DecodeError{Step: StepPayloadLine, Err: errors.New("response has no content")}
	}

	var outer interface{}
	if err := sonic.ConfigDefault.UnmarshalFromString(line, &outer); err != nil {
		return nil, &DecodeError{Step: StepParseEnvelope, Err: err}
	}

	node, err := walk(outer, "envelope", envelopePayloadPath)
	if err != nil {
		return nil, err
	}
	payload, ok := node.(string)
	if !ok {
		return nil, &DecodeError{
			Step: StepEnvelopeField,
			Path: pathString("envelope", envelopePayloadPath),
			Err:  fmt.Errorf("want string, got %s", kind(node)),
		}
	}

	var inner interface{}
	if err := sonic.ConfigDefault.UnmarshalFromString(payload, &inner); err != nil {
		return nil, &DecodeError{Step: StepParseInner, Err: err}
	}

	node, err = walk(inner, "inner", segmentsPath)
	if err != nil {
		return nil, err
	}
	nodes, ok := node.([]interface{})
	if !ok {
		return nil, &DecodeError{
			Step: StepSegments,
			Path: pathString("inner", segmentsPath),
			Err:  fmt.Errorf("want array, got %s", kind(node)),
		}
	}

	segments := make([]string, 0, len(nodes))
	for i, n := range nodes {
		text, ok := segmentText(n)
		if !ok {
			d.logger().WithFields(logrus.Fields{
				"index": i,
				"kind":  kind(n),
			}).Debug("Skipping non-text segment node")
			continue
		}
		segments = append(segments, text)
	}
	return segments, nil
}

func (d *Decoder) logger() *logrus.Logger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

// lastLine returns the last line of raw that is not blank.
func lastLine(raw string) (string, bool) {
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line, true
		}
	}
	return "", false
}

// walk follows path through nested arrays, failing at the first index that
// is missing or lands on something other than an array.
func walk(root interface{}, label string, path []int) (interface{}, error) {
	node := root
	for depth, idx := range path {
		arr, ok := node.([]interface{})
		if !ok {
			return nil, &DecodeError{
				Step: StepNavigate,
				Path: pathString(label, path[:depth]),
				Err:  fmt.Errorf("want array, got %s", kind(node)),
			}
		}
		if idx >= len(arr) {
			return nil, &DecodeError{
				Step: StepNavigate,
				Path: pathString(label, path[:depth]),
				Err:  fmt.Errorf("index %d out of range (len %d)", idx, len(arr)),
			}
		}
		node = arr[idx]
	}
	return node, nil
}

func segmentText(n interface{}) (string, bool) {
	arr, ok := n.([]interface{})
	if !ok || len(arr) == 0 {
		return "", false
	}
	text, ok := arr[0].(string)
	return text, ok
}

func pathString(label string, path []int) string {
	var b strings.Builder
	b.WriteString(label)
	for _, idx := range path {
		fmt.Fprintf(&b, "[%d]", idx)
	}
	return b.String()
}

func kind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
