// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/gogama/ajax"
	"github.com/gogama/ajax/request"
	"github.com/olekukonko/tablewriter"
)

var stateColors = map[request.State]*color.Color{
	request.Pending:   color.New(color.FgYellow),
	request.Succeeded: color.New(color.FgGreen),
	request.Failed:    color.New(color.FgRed),
	request.Aborted:   color.New(color.FgMagenta),
}

// writeSummary renders the last request of c as a table.
func writeSummary(w io.Writer, c *ajax.Controller, attempts int) error {
	h := c.LastRequest()
	if h == nil {
		return nil
	}
	state := h.State()
	status := "-"
	if code := h.StatusCode(); code != 0 {
		status = strconv.Itoa(code) + " " + h.StatusText()
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	table.Append([]string{"Request", h.ID})
	table.Append([]string{"Method", h.Options.Method})
	table.Append([]string{"URL", h.Options.URL})
	table.Append([]string{"State", stateColors[state].Sprint(state)})
	table.Append([]string{"Status", status})
	table.Append([]string{"Duration", h.Duration().Round(time.Millisecond).String()})
	table.Append([]string{"Attempts", strconv.Itoa(attempts)})
	if rec := c.LastError(); rec != nil {
		table.Append([]string{"Error", fmt.Sprintf("%s (%s)", rec.Err, rec.Category())})
	}
	return table.Render()
}
