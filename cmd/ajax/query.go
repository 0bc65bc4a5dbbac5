// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var errNotDocument = errors.New("selectors need a document response (handle_as: document)")

// selectText returns the trimmed inner text of every node of a document
// body matched by the CSS selector css and the XPath expression xpath.
// An empty selector is skipped.
func selectText(body interface{}, css, xpath string) ([]string, error) {
	doc, ok := body.(*html.Node)
	if !ok {
		return nil, errNotDocument
	}
	var nodes []*html.Node
	if css != "" {
		sel, err := cascadia.Compile(css)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, cascadia.QueryAll(doc, sel)...)
	}
	if xpath != "" {
		found, err := htmlquery.QueryAll(doc, xpath)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, found...)
	}
	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, strings.TrimSpace(htmlquery.InnerText(n)))
	}
	return texts, nil
}
