package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// maxContentLength caps the extracted page text handed to the metadata
// generator. The prompt only uses a preview anyway.
const maxContentLength = 4000

// browserUserAgent avoids the trivial bot blocks some article hosts apply.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// PageFetcher retrieves a page body as plain text under a bounded timeout.
// Errors are non-fatal for callers: the pipeline degrades to empty content.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// HTTPFetcher fetches pages over HTTP and reduces HTML to plain text.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a new page fetcher.
func NewHTTPFetcher() *HTTPFetcher {
	client := resty.New()
	client.SetHeader("User-Agent", browserUserAgent)
	return &HTTPFetcher{client: client}
}

// Fetch retrieves the URL within the given timeout and returns the page's
// visible text. Non-2xx responses and transport failures return an error;
// the caller decides whether that matters.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	fetchCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := f.client.R().
		SetContext(fetchCtx).
		Get(url)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode())
	}

	return ExtractText(string(resp.Body())), nil
}

// ExtractText reduces an HTML document to whitespace-collapsed visible text,
// capped at maxContentLength. Non-HTML input passes through as-is (collapsed
// and capped).
func ExtractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncate(collapseWhitespace(html), maxContentLength)
	}

	doc.Find("script, style, noscript, iframe, svg").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	return truncate(collapseWhitespace(text), maxContentLength)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
