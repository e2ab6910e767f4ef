package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SearchProvider returns candidate URLs for a free-text query, best first.
// A provider failure is fatal for the whole pipeline run.
type SearchProvider interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
}

// SerperService queries the Serper web search API.
type SerperService struct {
	client   *resty.Client
	endpoint string
	country  string
	language string
}

// SerperConfig holds configuration for the Serper client.
type SerperConfig struct {
	APIKey   string
	BaseURL  string
	Country  string
	Language string
}

// NewSerperService creates a new Serper search client.
func NewSerperService(cfg *SerperConfig) *SerperService {
	client := resty.New()
	client.SetHeader("X-API-KEY", cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(15 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://google.serper.dev"
	}

	return &SerperService{
		client:   client,
		endpoint: baseURL + "/search",
		country:  cfg.Country,
		language: cfg.Language,
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
}

type serperResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type serperResponse struct {
	Organic []serperResult `json:"organic"`
}

// Search returns the organic result URLs for the query, in provider rank
// order, with unusable URLs (shopping, social media, malformed) filtered out.
func (s *SerperService) Search(ctx context.Context, query string, count int) ([]string, error) {
	req := serperRequest{
		Q:   query,
		Num: count,
		GL:  s.country,
		HL:  s.language,
	}

	var resp serperResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call Serper API: %w", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("Serper API returned error: HTTP %d: %s",
			httpResp.StatusCode(), string(httpResp.Body()))
	}

	urls := make([]string, 0, len(resp.Organic))
	for _, result := range resp.Organic {
		if result.Link != "" && IsCandidateURL(result.Link) {
			urls = append(urls, result.Link)
		}
	}
	return urls, nil
}

// blockedDomains filters out hosts that never carry educational content for
// the catalog: social media, marketplaces, price-comparison sites.
var blockedDomains = []string{
	// Social media
	"youtube.com", "facebook.com", "instagram.com", "twitter.com", "pinterest.com", "tiktok.com",
	// Shopping platforms
	"amazon.", "ebay.", "etsy.com", "alibaba.com", "aliexpress.com",
	// General marketplaces
	"shop.", "store.", "cart.", "checkout.",
	// Product comparison sites
	"idealo.", "geizhals.", "billiger.de", "preisvergleich.",
	// Common shopping indicators in domain
	"kaufen", "buy", "shopping", "market",
}

// shoppingPathKeywords mark store sections on otherwise acceptable hosts.
var shoppingPathKeywords = []string{
	"/shop/", "/cart/", "/checkout/", "/buy/", "/product/", "/products/",
}

// IsCandidateURL reports whether a search result URL is worth scoring:
// parseable, not on the domain blocklist, and not a shopping path.
func IsCandidateURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	pathname := strings.ToLower(parsed.Path)

	for _, domain := range blockedDomains {
		if strings.Contains(hostname, domain) {
			return false
		}
	}
	for _, keyword := range shoppingPathKeywords {
		if strings.Contains(pathname, keyword) {
			return false
		}
	}
	return true
}

// DedupeURLs removes duplicates while preserving first-seen order. Search
// providers occasionally return the same URL twice.
func DedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	deduped := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		deduped = append(deduped, u)
	}
	return deduped
}
