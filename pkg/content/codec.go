package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Content types understood by the codec.
const (
	ContentTypeOCFCBOR = "application/vnd.ocf+cbor"
	ContentTypeCBOR    = "application/cbor"
	ContentTypeJSON    = "application/json"
	ContentTypeText    = "text/plain"
)

// ErrUnsupported is returned for content types the codec cannot handle.
var ErrUnsupported = errors.New("unsupported content type")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("content CBOR encoder: %v", err))
	}

	// Devices in the field send indefinite lengths and duplicate keys.
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("content CBOR decoder: %v", err))
	}
}

type format uint8

const (
	formatUnknown format = iota
	formatCBOR
	formatJSON
	formatText
)

func formatOf(contentType string) format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case mt == ContentTypeOCFCBOR, mt == ContentTypeCBOR, strings.HasSuffix(mt, "+cbor"):
		return formatCBOR
	case mt == ContentTypeJSON, strings.HasSuffix(mt, "+json"):
		return formatJSON
	case strings.HasPrefix(mt, "text/"):
		return formatText
	default:
		return formatUnknown
	}
}

// IsCBOR reports whether contentType is a CBOR encoding.
func IsCBOR(contentType string) bool {
	return formatOf(contentType) == formatCBOR
}

// Decode decodes data of contentType into a generic value. Empty data
// decodes to nil.
func Decode(contentType string, data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	switch formatOf(contentType) {
	case formatCBOR:
		var v any
		if err := decMode.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode CBOR: %w", err)
		}
		return Normalize(v), nil
	case formatJSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		return v, nil
	case formatText:
		return string(data), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, contentType)
	}
}

// Encode encodes v as contentType. Integral floats are encoded as CBOR
// integers, since values parsed from JSON input are always float64.
func Encode(contentType string, v any) ([]byte, error) {
	switch formatOf(contentType) {
	case formatCBOR:
		data, err := encMode.Marshal(integralFloats(v))
		if err != nil {
			return nil, fmt.Errorf("encode CBOR: %w", err)
		}
		return data, nil
	case formatJSON:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode JSON: %w", err)
		}
		return data, nil
	case formatText:
		if s, ok := v.(string); ok {
			return []byte(s), nil
		}
		return []byte(fmt.Sprint(v)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, contentType)
	}
}

// Normalize converts CBOR specific decodings into values encoding/json
// can marshal: maps get string keys and tags are replaced by their content.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[keyString(k)] = Normalize(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = Normalize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = Normalize(val)
		}
		return t
	case cbor.Tag:
		return Normalize(t.Content)
	case cbor.RawTag:
		var inner any
		if err := decMode.Unmarshal(t.Content, &inner); err != nil {
			return nil
		}
		return Normalize(inner)
	default:
		return v
	}
}

func keyString(k any) string {
	switch key := k.(type) {
	case string:
		return key
	case []byte:
		return string(key)
	default:
		return fmt.Sprint(key)
	}
}

func integralFloats(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = integralFloats(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = integralFloats(val)
		}
		return s
	default:
		return v
	}
}

// Pretty renders v as indented JSON.
func Pretty(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Normalize(v)); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Raw is a resource representation the hub passes through undecoded.
type Raw struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Value decodes the representation.
func (r Raw) Value() (any, error) {
	return Decode(r.ContentType, r.Data)
}

// Unwrap decodes v when it is a raw representation object with contentType
// and data members, and returns v unchanged otherwise.
func Unwrap(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 2 {
		return v, nil
	}
	ct, ok := m["contentType"].(string)
	if !ok {
		return v, nil
	}
	if _, ok := m["data"].(string); !ok {
		return v, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var raw Raw
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("raw %s content: %w", ct, err)
	}
	return raw.Value()
}
