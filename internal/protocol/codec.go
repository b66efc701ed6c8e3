package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownCodec = errors.New("unknown codec")
	ErrEmptyType    = errors.New("message has no type")
)

// Codec names double as websocket subprotocol names.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Codec converts messages to and from websocket frames.
type Codec interface {
	Name() string

	// Binary reports whether frames are sent as binary rather than text.
	Binary() bool

	Encode(msg *Message) ([]byte, error)
	Decode(data []byte) (*Message, error)
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecJSON }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Decode(data []byte) (*Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode json: trailing data after message")
	}
	if msg.Type == "" {
		return nil, ErrEmptyType
	}
	return &msg, nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return CodecMsgpack }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Encode(msg *Message) ([]byte, error) {
	out := *msg
	out.Payload = plainNumbers(msg.Payload)
	return msgpack.Marshal(&out)
}

func (msgpackCodec) Decode(data []byte) (*Message, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetMapDecoder(decodeMap)

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	if msg.Type == "" {
		return nil, ErrEmptyType
	}
	return &msg, nil
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// Subprotocols lists the codec names in order of server preference.
func Subprotocols() []string {
	return []string{CodecJSON, CodecMsgpack}
}

// LookupCodec returns the codec registered under name. An empty name
// selects JSON, which is what browsers get when they send no subprotocol.
func LookupCodec(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSON, nil
	case CodecMsgpack:
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}
