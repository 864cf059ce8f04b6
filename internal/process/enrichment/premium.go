package enrichment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/newsfold/linkresolver/internal/core/errors"
)

const defaultPremiumTimeout = 30 * time.Second

// PremiumBackend calls a paid extraction API for pages the free tiers
// could not handle, typically hard paywalls and aggressive bot walls.
// Disabled when no API key is configured.
type PremiumBackend struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewPremiumBackend(apiURL, apiKey string, timeout time.Duration) *PremiumBackend {
	if timeout <= 0 {
		timeout = defaultPremiumTimeout
	}

	return &PremiumBackend{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (b *PremiumBackend) Name() string { return SourcePremium }

func (b *PremiumBackend) Available() bool { return b.apiURL != "" && b.apiKey != "" }

type premiumResponse struct {
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Author      string `json:"author"`
	LeadImage   string `json:"lead_image_url"`
	DatePublish string `json:"date_published"`
}

func (b *PremiumBackend) Attempt(ctx context.Context, pageURL, _ string) (*Metadata, error) {
	endpoint := b.apiURL + "?url=" + url.QueryEscape(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeBadRequest, err, "create premium request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Classify(err, "premium request")
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error

	if statusErr := errors.ClassifyStatus(resp.StatusCode, "premium extract"); statusErr != nil {
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReaderBodyBytes))
	if err != nil {
		return nil, errors.Classify(err, "read premium response")
	}

	var parsed premiumResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(errors.CodeParseFailure, err, "decode premium response")
	}

	return &Metadata{
		Title:       parsed.Title,
		Description: parsed.Excerpt,
		Author:      parsed.Author,
		ImageURL:    parsed.LeadImage,
		PublishedAt: parseDate(parsed.DatePublish),
	}, nil
}
