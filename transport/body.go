// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/gogama/ajax/request"
	"golang.org/x/net/html/charset"
)

const badBodyTypeMsg = "ajax/transport: invalid type (for body use nil, " +
	"string, []byte, io.Reader, or a structured value with a JSON or " +
	"form content type)"

// EncodeBody converts a request body to bytes.
//
// The body parameter may be nil, or it may be a string, []byte,
// io.Reader, or io.ReadCloser, which are sent unchanged. The conversion
// logic for any other value depends on the media type of contentType:
//
// • application/json: the value is encoded with json.Marshal.
//
// • application/x-www-form-urlencoded: the value must be a
// *request.Params, url.Values, map[string]string or
// map[string]interface{}, and is form encoded. Map keys are sorted,
// Params keep their order.
//
// • Anything else is an error.
func EncodeBody(body interface{}, contentType string) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return EncodeBody(io.NopCloser(x), contentType)
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/json":
		return json.Marshal(body)
	case request.FormContentType:
		s, err := formEncode(body)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

func formEncode(body interface{}) (string, error) {
	switch x := body.(type) {
	case *request.Params:
		pairs := make([]string, 0, x.Len())
		x.Each(func(k string, v interface{}) {
			if v == nil {
				v = ""
			}
			pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(fmt.Sprint(v)))
		})
		return strings.Join(pairs, "&"), nil
	case url.Values:
		return x.Encode(), nil
	case map[string]string:
		v := make(url.Values, len(x))
		for k, s := range x {
			v.Set(k, s)
		}
		return v.Encode(), nil
	case map[string]interface{}:
		v := make(url.Values, len(x))
		for k, i := range x {
			if i == nil {
				i = ""
			}
			v.Set(k, fmt.Sprint(i))
		}
		return v.Encode(), nil
	default:
		return "", errors.New(badBodyTypeMsg)
	}
}

// Decode decodes a response body according to the handling mode
// handleAs. It returns the raw bytes, after stripping jsonPrefix from
// JSON responses, and the decoded body. See request.Response for the
// type of the decoded body in each mode.
//
// Decoding failures never produce an error. A body that cannot be
// decoded as JSON, XML or HTML decodes to nil.
func Decode(handleAs, jsonPrefix, contentType string, raw []byte) ([]byte, interface{}) {
	switch handleAs {
	case request.HandleAsText:
		return raw, decodeText(contentType, raw)
	case request.HandleAsXML:
		if len(bytes.TrimSpace(raw)) == 0 {
			return raw, nil
		}
		var n request.XMLNode
		if err := xml.Unmarshal(raw, &n); err != nil {
			return raw, nil
		}
		return raw, &n
	case request.HandleAsDocument:
		doc, err := htmlquery.Parse(bytes.NewReader(raw))
		if err != nil {
			return raw, nil
		}
		return raw, doc
	case request.HandleAsArrayBuffer:
		return raw, raw
	case request.HandleAsBlob:
		return raw, &request.Blob{Type: contentType, Data: raw}
	default:
		raw = bytes.TrimPrefix(raw, []byte(jsonPrefix))
		if len(bytes.TrimSpace(raw)) == 0 {
			return raw, nil
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return raw, nil
		}
		return raw, v
	}
}

func decodeText(contentType string, raw []byte) string {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return string(raw)
	}
	return string(b)
}
