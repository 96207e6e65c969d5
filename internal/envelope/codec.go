package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/roach88/shareserver/internal/params"
)

// Content types understood by the transport.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

// Codec encodes envelopes and decodes call payloads for one wire format.
//
// A request body is an object with a single "params" member holding the
// name → value map. An empty body decodes to an empty Params.
type Codec interface {
	ContentType() string
	Encode(env Envelope) ([]byte, error)
	DecodeParams(body []byte) (params.Params, error)
}

type requestBody struct {
	Params map[string]any `json:"params" cbor:"params"`
}

// JSON is the default codec. Byte payloads travel as base64 strings and
// numbers are decoded as json.Number so large ids keep full precision.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) ContentType() string { return ContentTypeJSON }

func (jsonCodec) Encode(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	// Encoder adds a trailing newline
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (jsonCodec) DecodeParams(body []byte) (params.Params, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return params.Params{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var req requestBody
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode json request: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json request: trailing data after request object")
	}
	if req.Params == nil {
		return params.Params{}, nil
	}
	return params.Params(req.Params), nil
}

// CBOR carries byte payloads natively and uses Core Deterministic Encoding
// for responses.
var CBOR Codec = newCBORCodec()

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("envelope: CBOR encoder initialization failed: " + err.Error())
	}
	// Payload maps always have string keys; decoding into any must yield
	// map[string]any rather than the CBOR default map[any]any.
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("envelope: CBOR decoder initialization failed: " + err.Error())
	}
	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) ContentType() string { return ContentTypeCBOR }

func (c cborCodec) Encode(env Envelope) ([]byte, error) {
	data, err := c.enc.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

func (c cborCodec) DecodeParams(body []byte) (params.Params, error) {
	if len(body) == 0 {
		return params.Params{}, nil
	}
	var req requestBody
	if err := c.dec.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode cbor request: %w", err)
	}
	if req.Params == nil {
		return params.Params{}, nil
	}
	return params.Params(req.Params), nil
}

// ForContentType picks the codec for a Content-Type or Accept value,
// defaulting to JSON.
func ForContentType(contentType string) Codec {
	if strings.HasPrefix(strings.TrimSpace(contentType), ContentTypeCBOR) {
		return CBOR
	}
	return JSON
}
