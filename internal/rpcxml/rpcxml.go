// Package rpcxml adapts the third-party gorilla-xmlrpc codec to the three
// pure functions the protocol engine needs: serialize a method call, and
// deserialize either a method response (client's view) or a method call
// (the server-initiated callback view). The rest of the client never
// imports gorilla-xmlrpc directly.
package rpcxml

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/divan/gorilla-xmlrpc/xml2"
)

// codec is stateless and safe for concurrent use; gorilla-xmlrpc's Codec
// carries no mutable fields of its own.
var codec = xml2.NewCodec()

// Fault mirrors an XML-RPC <fault> struct: a numeric code and a
// human-readable string. It implements error so callers can return it
// directly as the error half of a Call result.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xmlrpc fault %d: %s", f.Code, f.String)
}

// SerializeMethodCall encodes method and params as an XML-RPC methodCall
// document.
func SerializeMethodCall(method string, params []interface{}) ([]byte, error) {
	body, err := codec.EncodeClientRequest(method, params)
	if err != nil {
		return nil, fmt.Errorf("rpcxml: encode %s: %w", method, err)
	}
	return body, nil
}

// DeserializeMethodResponse decodes an XML-RPC methodResponse document.
// Exactly one of (value, fault) is non-nil on success (err == nil).
func DeserializeMethodResponse(body []byte) (value interface{}, fault *Fault, err error) {
	if f, ferr := extractFault(body); ferr == nil {
		return nil, f, nil
	}
	var reply interface{}
	if err := codec.DecodeClientResponse(bytes.NewReader(body), &reply); err != nil {
		return nil, nil, fmt.Errorf("rpcxml: decode response: %w", err)
	}
	return reply, nil, nil
}

// DeserializeMethodCall decodes an XML-RPC methodCall document sent by the
// server as an asynchronous callback push.
func DeserializeMethodCall(body []byte) (method string, params []interface{}, err error) {
	var args interface{}
	method, err = codec.DecodeRequest(bytes.NewReader(body), &args)
	if err != nil {
		return "", nil, fmt.Errorf("rpcxml: decode call: %w", err)
	}
	list, _ := args.([]interface{})
	return method, list, nil
}

// faultEnvelope is the minimal shape needed to recognize a <fault> response
// before handing the body to the codec, which is not guaranteed to surface
// fault code/string separately from a generic decode error. This is the
// thinnest possible peek at the wire document, not a reimplementation of
// the XML-RPC value codec.
type faultEnvelope struct {
	XMLName xml.Name `xml:"methodResponse"`
	Fault   *struct {
		Value struct {
			Struct struct {
				Members []struct {
					Name  string `xml:"name"`
					Value struct {
						Int    *int    `xml:"int"`
						String *string `xml:"string"`
					} `xml:"value"`
				} `xml:"member"`
			} `xml:"struct"`
		} `xml:"value"`
	} `xml:"fault"`
}

func extractFault(body []byte) (*Fault, error) {
	var env faultEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Fault == nil {
		return nil, fmt.Errorf("rpcxml: no fault present")
	}
	f := &Fault{}
	for _, m := range env.Fault.Value.Struct.Members {
		switch m.Name {
		case "faultCode":
			if m.Value.Int != nil {
				f.Code = *m.Value.Int
			}
		case "faultString":
			if m.Value.String != nil {
				f.String = *m.Value.String
			}
		}
	}
	return f, nil
}
