package view

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, component templ.Component) string {
	var b strings.Builder
	require.NoError(t, component.Render(context.Background(), &b))

	return b.String()
}

func rendersBannerVerbatim(t *testing.T) {
	assert.Equal(t, `<h1 class="banner">staging</h1>`, render(t, Banner("staging")))
}

func rendersEmptyBanner(t *testing.T) {
	assert.Equal(t, `<h1 class="banner"></h1>`, render(t, Banner("")))
}

func escapesBanner(t *testing.T) {
	got := render(t, Banner(`<script>alert("x")</script>`))

	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
}

func rendersValue(t *testing.T) {
	assert.Contains(t, render(t, CounterValue(-5)), `<span id="counter-value">-5</span>`)
}

func rendersTriggers(t *testing.T) {
	got := render(t, CounterWidget())

	assert.Contains(t, got, `action="/counter/increment"`)
	assert.Contains(t, got, `action="/counter/decrement"`)
	assert.Contains(t, got, `action="/counter/increment-by-amount"`)
	assert.Contains(t, got, `name="amount" value="10"`)
	assert.Contains(t, got, `Increment by 10`)
}

func marksCurrentRoute(t *testing.T) {
	got := render(t, Navigation(AboutPath))

	assert.Contains(t, got, `<a href="/">Home</a>`)
	assert.Contains(t, got, `<a href="/about" aria-current="page">About Us</a>`)
}

func escapesNotFoundPath(t *testing.T) {
	got := render(t, NotFoundPage(`/<b>`))

	assert.Contains(t, got, "/&lt;b&gt;")
}

func TestComponents(t *testing.T) {
	t.Run("renders the banner verbatim", rendersBannerVerbatim)
	t.Run("renders an empty banner", rendersEmptyBanner)
	t.Run("escapes the banner", escapesBanner)
	t.Run("renders the counter value", rendersValue)
	t.Run("renders the three triggers", rendersTriggers)
	t.Run("marks the current route", marksCurrentRoute)
	t.Run("escapes the not found path", escapesNotFoundPath)
}

func TestLayout(t *testing.T) {
	t.Run("composes the page", func(t *testing.T) {
		got := render(t, Layout(LayoutOptions{Banner: "hello", Value: 11, Path: HomePath}, HomePage()))

		assert.True(t, strings.HasPrefix(got, "<!DOCTYPE html>"))
		assert.Contains(t, got, `<h1 class="banner">hello</h1>`)
		assert.Contains(t, got, `>11</span>`)
		assert.Contains(t, got, `<main><section class="page"><h2>Home</h2>`)
		assert.NotContains(t, got, "<script>")
	})

	t.Run("includes the live client when a live url is set", func(t *testing.T) {
		got := render(t, Layout(LayoutOptions{Path: AboutPath, LiveURL: "/api/counter/ws"}, AboutPage()))

		assert.Contains(t, got, `data-live="/api/counter/ws"`)
		assert.Contains(t, got, "new WebSocket")
		assert.Contains(t, got, "<h2>About Us</h2>")
	})
}
