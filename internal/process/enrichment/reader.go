package enrichment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newsfold/linkresolver/internal/core/errors"
)

const (
	defaultReaderTimeout = 45 * time.Second
	maxReaderBodyBytes   = 1 * 1024 * 1024
)

// ReaderBackend asks a remote headless rendering service for page
// metadata. It covers script-heavy pages whose titles only exist after
// JavaScript runs. Disabled when no base URL is configured.
type ReaderBackend struct {
	baseURL string
	client  *http.Client
}

func NewReaderBackend(baseURL string, timeout time.Duration) *ReaderBackend {
	if timeout <= 0 {
		timeout = defaultReaderTimeout
	}

	return &ReaderBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *ReaderBackend) Name() string { return SourceReader }

func (b *ReaderBackend) Available() bool { return b.baseURL != "" }

type readerResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Image       string `json:"image"`
	PublishedAt string `json:"published_at"`
}

func (b *ReaderBackend) Attempt(ctx context.Context, pageURL, _ string) (*Metadata, error) {
	endpoint := b.baseURL + "/extract?url=" + url.QueryEscape(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeBadRequest, err, "create reader request")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Classify(err, "reader request")
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error

	if statusErr := errors.ClassifyStatus(resp.StatusCode, "reader extract"); statusErr != nil {
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReaderBodyBytes))
	if err != nil {
		return nil, errors.Classify(err, "read reader response")
	}

	var parsed readerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(errors.CodeParseFailure, err, "decode reader response")
	}

	return &Metadata{
		Title:       parsed.Title,
		Description: parsed.Description,
		Author:      parsed.Author,
		ImageURL:    parsed.Image,
		PublishedAt: parseDate(parsed.PublishedAt),
	}, nil
}
