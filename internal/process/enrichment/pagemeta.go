package enrichment

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/net/html"
)

type metaTags struct {
	Title         string
	Description   string
	OGTitle       string
	OGDescription string
	OGImage       string
	Author        string
	PublishedTime string
}

func extractMetaTags(htmlBytes []byte) metaTags {
	var meta metaTags

	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return meta
	}

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			processMetaElement(n, &meta)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return meta
}

func processMetaElement(n *html.Node, meta *metaTags) {
	switch n.Data {
	case "title":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			meta.Title = strings.TrimSpace(n.FirstChild.Data)
		}
	case "meta":
		applyMetaTag(n, meta)
	}
}

func applyMetaTag(n *html.Node, meta *metaTags) {
	name, content := getMetaAttrs(n)

	switch strings.ToLower(name) {
	case "description":
		meta.Description = content
	case "author":
		meta.Author = content
	case "og:title":
		meta.OGTitle = content
	case "og:description":
		meta.OGDescription = content
	case "og:image":
		meta.OGImage = content
	case "article:published_time":
		meta.PublishedTime = content
	}
}

func getMetaAttrs(n *html.Node) (string, string) {
	var name, content string

	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "name", "property":
			name = attr.Val
		case "content":
			content = attr.Val
		}
	}

	return name, content
}

type jsonLD struct {
	Title       string
	Description string
	Author      string
	PublishedAt string
	Image       string
}

func extractJSONLD(htmlBytes []byte) jsonLD {
	var ld jsonLD

	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return ld
	}

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "type" && attr.Val == "application/ld+json" {
					if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
						parseLDJSON(n.FirstChild.Data, &ld)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return ld
}

func parseLDJSON(data string, ld *jsonLD) {
	var v interface{}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return
	}

	processLDValue(v, ld)
}

func processLDValue(v interface{}, ld *jsonLD) {
	switch m := v.(type) {
	case map[string]interface{}:
		extractFromLDMap(m, ld)

		if graph, ok := m["@graph"].([]interface{}); ok {
			for _, item := range graph {
				processLDValue(item, ld)
			}
		}
	case []interface{}:
		for _, item := range m {
			processLDValue(item, ld)
		}
	}
}

func extractFromLDMap(m map[string]interface{}, ld *jsonLD) {
	t, ok := m["@type"].(string)
	if !ok {
		return
	}

	if t != "NewsArticle" && t != "Article" && t != "BlogPosting" {
		return
	}

	if title, ok := m["headline"].(string); ok {
		ld.Title = title
	}

	if desc, ok := m["description"].(string); ok {
		ld.Description = desc
	}

	if date, ok := m["datePublished"].(string); ok {
		ld.PublishedAt = date
	}

	if author, ok := m["author"]; ok {
		ld.Author = extractLDAuthor(author)
	}

	if image, ok := m["image"]; ok {
		ld.Image = extractLDImage(image)
	}
}

func extractLDAuthor(v interface{}) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]interface{}:
		if name, ok := a["name"].(string); ok {
			return name
		}
	case []interface{}:
		if len(a) > 0 {
			return extractLDAuthor(a[0])
		}
	}

	return ""
}

func extractLDImage(v interface{}) string {
	switch img := v.(type) {
	case string:
		return img
	case map[string]interface{}:
		if url, ok := img["url"].(string); ok {
			return url
		}
	case []interface{}:
		if len(img) > 0 {
			return extractLDImage(img[0])
		}
	}

	return ""
}

func coalesce(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}

	return ""
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}

	return t
}
