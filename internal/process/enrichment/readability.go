package enrichment

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/newsfold/linkresolver/internal/core/errors"
)

// ReadabilityBackend extracts metadata from the fetched page itself:
// feed entries when the URL points at RSS/Atom, otherwise the article
// extraction algorithm plus meta tags and JSON-LD.
type ReadabilityBackend struct {
	fetcher *WebFetcher
	logger  *zerolog.Logger
}

func NewReadabilityBackend(fetcher *WebFetcher, logger *zerolog.Logger) *ReadabilityBackend {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	return &ReadabilityBackend{fetcher: fetcher, logger: logger}
}

func (b *ReadabilityBackend) Name() string { return SourceReadability }

func (b *ReadabilityBackend) Available() bool { return true }

func (b *ReadabilityBackend) Attempt(ctx context.Context, pageURL, _ string) (*Metadata, error) {
	htmlBytes, err := b.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if meta, ok := tryExtractFeed(htmlBytes); ok {
		return meta, nil
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.Wrap(errors.CodeParseFailure, err, "parse page url")
	}

	pageMeta := extractMetaTags(htmlBytes)
	jsonLD := extractJSONLD(htmlBytes)

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), u)
	if err != nil {
		// Meta tags alone often carry a usable title.
		return &Metadata{
			Title:       coalesce(jsonLD.Title, pageMeta.OGTitle, pageMeta.Title),
			Description: coalesce(jsonLD.Description, pageMeta.OGDescription, pageMeta.Description),
			Author:      coalesce(jsonLD.Author, pageMeta.Author),
			ImageURL:    coalesce(jsonLD.Image, pageMeta.OGImage),
			PublishedAt: parseDate(coalesce(jsonLD.PublishedAt, pageMeta.PublishedTime)),
		}, nil
	}

	return &Metadata{
		Title:       coalesce(jsonLD.Title, article.Title, pageMeta.OGTitle, pageMeta.Title),
		Description: coalesce(jsonLD.Description, pageMeta.OGDescription, pageMeta.Description, article.Excerpt),
		Author:      coalesce(jsonLD.Author, article.Byline, pageMeta.Author),
		ImageURL:    coalesce(jsonLD.Image, pageMeta.OGImage, article.Image),
		PublishedAt: parseDate(coalesce(jsonLD.PublishedAt, pageMeta.PublishedTime)),
	}, nil
}

// tryExtractFeed treats the body as RSS/Atom and takes the first entry.
func tryExtractFeed(htmlBytes []byte) (*Metadata, bool) {
	fp := gofeed.NewParser()

	feed, err := fp.Parse(bytes.NewReader(htmlBytes))
	if err != nil || len(feed.Items) == 0 {
		return nil, false
	}

	item := feed.Items[0]

	meta := &Metadata{
		Title:       item.Title,
		Description: item.Description,
		Author:      feedAuthor(item),
		ImageURL:    feedImage(item),
	}

	if item.PublishedParsed != nil {
		meta.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		meta.PublishedAt = *item.UpdatedParsed
	}

	return meta, true
}

func feedAuthor(item *gofeed.Item) string {
	if item.Author != nil {
		return item.Author.Name
	}

	if len(item.Authors) > 0 {
		return item.Authors[0].Name
	}

	return ""
}

func feedImage(item *gofeed.Item) string {
	if item.Image != nil {
		return item.Image.URL
	}

	for _, enclosure := range item.Enclosures {
		if strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	return ""
}
