// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bureau-foundation/mould/lib/codec"
)

// Format selects the encoding of outgoing request envelopes.
type Format int

const (
	// FormatJSON encodes requests as JSON text frames.
	FormatJSON Format = iota

	// FormatCBOR encodes requests as CBOR binary frames.
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts "json" or "cbor" (case-insensitive). The empty
// string selects FormatJSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return 0, fmt.Errorf("unknown wire format %q (want json or cbor)", name)
	}
}

// Frame is one message on the socket. Binary frames carry CBOR, text
// frames carry JSON.
type Frame struct {
	Binary bool
	Data   []byte
}

// TextFrame wraps text as a text frame.
func TextFrame(text string) Frame {
	return Frame{Data: []byte(text)}
}

// String renders the frame for logs: text frames verbatim, binary
// frames in CBOR diagnostic notation (hex if not well-formed CBOR).
func (f Frame) String() string {
	if !f.Binary {
		return string(f.Data)
	}
	notation, err := codec.Diagnose(f.Data)
	if err != nil {
		return hex.EncodeToString(f.Data)
	}
	return notation
}

// Response event tags.
const (
	eventItem = "item"
	eventFail = "fail"
)

// requestEnvelope is the wire shape of a request. The payload is
// serialized before the envelope so the envelope never depends on the
// caller's types.
type requestEnvelope[P any] struct {
	Service string `json:"service"`
	Action  string `json:"action"`
	Payload P      `json:"payload"`
}

// responseEnvelope is the wire shape of a response. Data stays raw
// until the tag is known.
type responseEnvelope[P any] struct {
	Event string `json:"event"`
	Data  P      `json:"data"`
}

// EncodeRequest serializes input and wraps it in a request envelope
// for service and action.
func EncodeRequest(format Format, service, action string, input any) (Frame, error) {
	switch format {
	case FormatJSON:
		payload, err := json.Marshal(input)
		if err != nil {
			return Frame{}, fmt.Errorf("encoding payload: %w", err)
		}
		data, err := json.Marshal(requestEnvelope[json.RawMessage]{
			Service: service,
			Action:  action,
			Payload: payload,
		})
		if err != nil {
			return Frame{}, fmt.Errorf("encoding request envelope: %w", err)
		}
		return Frame{Data: data}, nil

	case FormatCBOR:
		payload, err := codec.Marshal(input)
		if err != nil {
			return Frame{}, fmt.Errorf("encoding payload: %w", err)
		}
		data, err := codec.Marshal(requestEnvelope[codec.RawMessage]{
			Service: service,
			Action:  action,
			Payload: payload,
		})
		if err != nil {
			return Frame{}, fmt.Errorf("encoding request envelope: %w", err)
		}
		return Frame{Binary: true, Data: data}, nil

	default:
		return Frame{}, fmt.Errorf("encoding request: unsupported format %v", format)
	}
}

// Response is a decoded response envelope: either an item whose data
// is still encoded, or a failure reason.
type Response struct {
	// Failed is true for a fail envelope.
	Failed bool

	// Reason is the server's failure reason when Failed is true.
	Reason string

	// Item holds the encoded item data when Failed is false, in the
	// encoding of the frame it arrived in.
	Item []byte

	binary bool
}

// Decode decodes the item data into v. It is an error to call Decode
// on a failed response.
func (r Response) Decode(v any) error {
	if r.Failed {
		return fmt.Errorf("decoding item: response is a failure: %s", r.Reason)
	}
	if r.binary {
		return codec.Unmarshal(r.Item, v)
	}
	return json.Unmarshal(r.Item, v)
}

// DecodeResponse parses a response frame. Binary frames are decoded as
// CBOR and text frames as JSON. Malformed data, a missing or unknown
// event tag, and a fail envelope whose data is not a string are all
// decode errors.
func DecodeResponse(frame Frame) (Response, error) {
	var (
		event string
		data  []byte
		err   error
	)
	if frame.Binary {
		var envelope responseEnvelope[codec.RawMessage]
		err = codec.Unmarshal(frame.Data, &envelope)
		event, data = envelope.Event, envelope.Data
	} else {
		var envelope responseEnvelope[json.RawMessage]
		err = json.Unmarshal(frame.Data, &envelope)
		event, data = envelope.Event, envelope.Data
	}
	if err != nil {
		return Response{}, err
	}

	switch event {
	case eventItem:
		return Response{Item: data, binary: frame.Binary}, nil
	case eventFail:
		response := Response{Failed: true, binary: frame.Binary}
		if frame.Binary {
			err = codec.Unmarshal(data, &response.Reason)
		} else {
			err = json.Unmarshal(data, &response.Reason)
		}
		if err != nil {
			return Response{}, fmt.Errorf("fail event data is not a string: %w", err)
		}
		return response, nil
	case "":
		return Response{}, fmt.Errorf("response has no event tag")
	default:
		return Response{}, fmt.Errorf("unrecognized response event %q", event)
	}
}

// decodeResult turns a response frame into a typed Result. The codec
// only runs here, on the path where the transport delivered a message.
func decodeResult[Out any](frame Frame) Result[Out] {
	response, err := DecodeResponse(frame)
	if err != nil {
		return Result[Out]{Err: newFailure(FailureDecode, err.Error())}
	}
	if response.Failed {
		return Result[Out]{Err: newFailure(FailureRemote, response.Reason)}
	}
	var output Out
	if err := response.Decode(&output); err != nil {
		return Result[Out]{Err: newFailure(FailureDecode, err.Error())}
	}
	return Result[Out]{Value: output}
}
