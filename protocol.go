package glideterm

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MessagePack-RPC message type discriminants, per the editor's wire
// protocol: [0, id, method, args], [1, id, error, result], [2, method, args].
const (
	messageRequest      = 0
	messageResponse     = 1
	messageNotification = 2
)

// Message is one decoded RPC envelope read from the editor's output stream.
// The concrete type is Request, Response or Notification.
type Message interface {
	message()
}

// Request is an editor-initiated request (rare, server to client).
type Request struct {
	ID     int64
	Method string
	Args   []interface{}
}

// Response correlates back to a prior outgoing request by id. Err is the
// raw error value (nil when the call succeeded); Result is the raw payload.
type Response struct {
	ID     int64
	Err    interface{}
	Result interface{}
}

// Notification is a method call without a response, most importantly the
// "redraw" UI-update channel.
type Notification struct {
	Method string
	Args   []interface{}
}

func (Request) message()      {}
func (Response) message()     {}
func (Notification) message() {}

// ReadMessage decodes one self-describing value from the stream and
// classifies it by its leading discriminant. A malformed envelope (missing
// array wrapper, unknown discriminant, truncated stream) returns an error
// and the caller must terminate the session; semantically unrecognized
// notification methods are NOT an error at this layer.
func ReadMessage(dec *msgpack.Decoder) (Message, error) {
	value, err := dec.DecodeInterface()
	if err != nil {
		return nil, err
	}

	arr, ok := value.([]interface{})
	if !ok || len(arr) == 0 {
		return nil, fmt.Errorf("protocol: message is not a non-empty array")
	}

	kind, ok := asInt64(arr[0])
	if !ok {
		return nil, fmt.Errorf("protocol: non-integer message type %T", arr[0])
	}

	switch kind {
	case messageRequest:
		if len(arr) < 4 {
			return nil, fmt.Errorf("protocol: short request envelope (%d elements)", len(arr))
		}
		id, _ := asInt64(arr[1])
		method, _ := asString(arr[2])
		args, _ := arr[3].([]interface{})
		return Request{ID: id, Method: method, Args: args}, nil

	case messageResponse:
		if len(arr) < 4 {
			return nil, fmt.Errorf("protocol: short response envelope (%d elements)", len(arr))
		}
		id, ok := asInt64(arr[1])
		if !ok {
			return nil, fmt.Errorf("protocol: non-integer response id %T", arr[1])
		}
		return Response{ID: id, Err: arr[2], Result: arr[3]}, nil

	case messageNotification:
		if len(arr) < 3 {
			return nil, fmt.Errorf("protocol: short notification envelope (%d elements)", len(arr))
		}
		method, ok := asString(arr[1])
		if !ok {
			return nil, fmt.Errorf("protocol: non-string notification method %T", arr[1])
		}
		args, _ := arr[2].([]interface{})
		return Notification{Method: method, Args: args}, nil
	}

	return nil, fmt.Errorf("protocol: unknown message type %d", kind)
}

// encodeRequest serializes an outgoing call as a 4-element request envelope.
func encodeRequest(enc *msgpack.Encoder, id int64, method string, args []interface{}) error {
	if args == nil {
		args = []interface{}{}
	}
	return enc.Encode([]interface{}{messageRequest, id, method, args})
}

// asInt64 widens any integer (or float with integral value) the msgpack
// decoder may produce. The wire format is free to pick the narrowest
// encoding, so every width has to be tolerated.
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// asString accepts both str and bin encodings.
func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

// asBool reads a boolean, defaulting to false for anything else.
func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

// asMap accepts both map encodings the decoder may produce.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			key, ok := asString(k)
			if !ok {
				continue
			}
			out[key] = val
		}
		return out, true
	}
	return nil, false
}
