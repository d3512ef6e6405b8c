// Package extract pulls links and readable text out of page HTML.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Links returns the href of every anchor in rawHTML, in document order,
// resolved against pageURL and any <base href>. Anchors without an href and
// javascript: links are skipped.
func Links(rawHTML, pageURL string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	if href, ok := findBaseHref(doc); ok {
		if ref, err := url.Parse(href); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	var links []string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "a" {
			return true
		}
		href, ok := attr(n, "href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		if strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		links = append(links, base.ResolveReference(ref).String())
		return true
	})
	return links, nil
}

// Text returns the whitespace-collapsed text of rawHTML's body, skipping
// script, style and similar elements.
func Text(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	root := doc
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "body" {
			root = n
			return false
		}
		return true
	})

	var words []string
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && isSkippedElement(n.Data) {
			return false
		}
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		return true
	})
	return strings.Join(words, " "), nil
}

// walk visits n and its descendants depth first. Returning false from visit
// skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findBaseHref(doc *html.Node) (string, bool) {
	var href string
	var found bool
	walk(doc, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "base" {
			href, found = attr(n, "href")
		}
		return true
	})
	return href, found
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isSkippedElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "template", "svg", "iframe", "head":
		return true
	}
	return false
}
