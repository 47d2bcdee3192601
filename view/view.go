// Package view renders the counter pages. Components are written in the .templ files next to
// this one; run `templ generate` after editing them.
package view

//go:generate go run github.com/a-h/templ/cmd/templ generate

import (
	"strconv"

	"github.com/weegigs/wee-counter-go/counter"
)

const (
	HomePath  = "/"
	AboutPath = "/about"

	IncrementPath         = "/counter/increment"
	DecrementPath         = "/counter/decrement"
	IncrementByAmountPath = "/counter/increment-by-amount"
)

type LayoutOptions struct {
	Title  string
	Banner string
	Value  int64
	// Path is the route being rendered, used to mark the active navigation link.
	Path string
	// LiveURL is the websocket streaming counter snapshots. Empty disables live updates.
	LiveURL string
}

func (options LayoutOptions) title() string {
	if options.Title == "" {
		return "wee counter"
	}

	return options.Title
}

func formatValue(value int64) string {
	return strconv.FormatInt(value, 10)
}

func defaultAmount() string {
	return formatValue(counter.DefaultAmount)
}
