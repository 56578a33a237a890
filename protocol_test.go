package glideterm

import (
	"bytes"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func decodeFrom(t *testing.T, values ...interface{}) *msgpack.Decoder {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			t.Fatalf("encode fixture: %v", err)
		}
	}
	return msgpack.NewDecoder(&buf)
}

func TestReadMessageRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeRequest(enc, 7, "nvim_input", []interface{}{"gg"}); err != nil {
		t.Fatalf("encodeRequest: %v", err)
	}

	msg, err := ReadMessage(msgpack.NewDecoder(&buf))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	req, ok := msg.(Request)
	if !ok {
		t.Fatalf("message type = %T, want Request", msg)
	}
	if req.ID != 7 || req.Method != "nvim_input" {
		t.Fatalf("request = %+v", req)
	}
	if len(req.Args) != 1 {
		t.Fatalf("args = %v, want one element", req.Args)
	}
	if s, _ := asString(req.Args[0]); s != "gg" {
		t.Fatalf("arg = %v, want gg", req.Args[0])
	}
}

func TestReadMessageNotification(t *testing.T) {
	dec := decodeFrom(t, []interface{}{2, "redraw", []interface{}{
		[]interface{}{"flush", []interface{}{}},
	}})

	msg, err := ReadMessage(dec)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	n, ok := msg.(Notification)
	if !ok {
		t.Fatalf("message type = %T, want Notification", msg)
	}
	if n.Method != RedrawMethod || len(n.Args) != 1 {
		t.Fatalf("notification = %+v", n)
	}
}

func TestReadMessageResponse(t *testing.T) {
	dec := decodeFrom(t, []interface{}{1, 3, nil, 42})

	msg, err := ReadMessage(dec)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	resp, ok := msg.(Response)
	if !ok {
		t.Fatalf("message type = %T, want Response", msg)
	}
	if resp.ID != 3 || resp.Err != nil {
		t.Fatalf("response = %+v", resp)
	}
	if n, _ := asInt64(resp.Result); n != 42 {
		t.Fatalf("result = %v, want 42", resp.Result)
	}
}

func TestReadMessageMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"not an array", "redraw"},
		{"empty array", []interface{}{}},
		{"non-integer discriminant", []interface{}{"2", "redraw", []interface{}{}}},
		{"unknown discriminant", []interface{}{9, "x", []interface{}{}}},
		{"short request", []interface{}{0, 1, "m"}},
		{"short response", []interface{}{1, 1, nil}},
		{"short notification", []interface{}{2, "redraw"}},
		{"non-string method", []interface{}{2, 5, []interface{}{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadMessage(decodeFrom(t, tt.value)); err == nil {
				t.Fatal("ReadMessage accepted a malformed envelope")
			}
		})
	}
}

func TestReadMessageStreamEnd(t *testing.T) {
	dec := msgpack.NewDecoder(bytes.NewReader(nil))
	if _, err := ReadMessage(dec); err != io.EOF {
		t.Fatalf("error = %v, want io.EOF", err)
	}
}

func TestAsInt64Widths(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  int64
		ok    bool
	}{
		{"int8", int8(-5), -5, true},
		{"uint16", uint16(300), 300, true},
		{"uint64", uint64(1 << 40), 1 << 40, true},
		{"float64 integral", float64(12), 12, true},
		{"string", "12", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asInt64(tt.value)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("asInt64(%v) = %d,%v, want %d,%v", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAsMapKeyCoercion(t *testing.T) {
	raw := map[interface{}]interface{}{
		"bold":            true,
		[]byte("italic"):  true,
		7:                 "skipped",
	}
	m, ok := asMap(raw)
	if !ok {
		t.Fatal("asMap rejected interface-keyed map")
	}
	if !asBool(m["bold"]) || !asBool(m["italic"]) {
		t.Fatalf("coerced map = %v", m)
	}
	if _, present := m["7"]; present {
		t.Fatal("non-string key was coerced")
	}
}
