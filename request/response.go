// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/xml"
	"net/http"
)

// A Response is the outcome of a request as seen by a transport.
type Response struct {
	// URL is the URL the response came from.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// StatusText is the reason phrase, for example "OK".
	StatusText string

	// Header holds the response headers. It may be nil.
	Header http.Header

	// Raw is the response body exactly as received, after JSON prefix
	// stripping.
	Raw []byte

	// Body is Raw decoded according to the handling mode:
	//
	// • text: string;
	//
	// • json: the result of json.Unmarshal into interface{}, or nil if
	// the body is empty or not valid JSON;
	//
	// • xml: *XMLNode;
	//
	// • document: *html.Node (golang.org/x/net/html);
	//
	// • arraybuffer: []byte;
	//
	// • blob: *Blob.
	Body interface{}
}

// OK reports whether the status code is 2XX.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// A Blob is a response body kept as opaque bytes with its media type.
type Blob struct {
	Type string
	Data []byte
}

// An XMLNode is a generic XML element tree.
type XMLNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []XMLNode  `xml:",any"`
}

// Progress describes how much of a response body has been received.
type Progress struct {
	// Loaded is the number of bytes received so far.
	Loaded int64

	// Total is the expected number of bytes. It is only meaningful if
	// LengthComputable is true.
	Total int64

	// LengthComputable reports whether Total is known.
	LengthComputable bool
}

// A ProgressFunc receives progress reports.
type ProgressFunc func(Progress)
