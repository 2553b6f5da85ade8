// Package mwcodec provides custom codecs for Connect RPC.
package mwcodec

import (
	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// jsonCodec encodes plain Go request and response structs with goccy/go-json.
type jsonCodec struct {
	name string
}

var _ connect.Codec = (*jsonCodec)(nil)

// Name returns the codec name.
func (c *jsonCodec) Name() string {
	return c.name
}

func (c *jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// NewJSONCodec creates the codec registered under the "json" name.
func NewJSONCodec() connect.Codec {
	return &jsonCodec{name: "json"}
}

// WithJSONCodec returns a connect.Option that uses the JSON codec. It
// works for both handlers and clients.
func WithJSONCodec() connect.Option {
	return connect.WithCodec(NewJSONCodec())
}
