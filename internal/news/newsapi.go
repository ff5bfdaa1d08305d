package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://newsapi.org/v2"

// NewsAPIClient fetches headlines and search results from NewsAPI.org.
type NewsAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewNewsAPIClient(apiKey string, timeout time.Duration) *NewsAPIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NewsAPIClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TopHeadlines fetches up to limit headlines for one category.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, category, country string, limit int) ([]Article, error) {
	if country == "" {
		country = "us"
	}
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("category", category)
	params.Set("country", country)
	params.Set("pageSize", strconv.Itoa(limit))

	raw, err := c.get(ctx, "/top-headlines", params)
	if err != nil {
		return nil, fmt.Errorf("top headlines %s: %w", category, err)
	}
	return normalize(raw.Articles, limit), nil
}

// Search queries the everything endpoint for recent articles matching query.
func (c *NewsAPIClient) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(limit))

	raw, err := c.get(ctx, "/everything", params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return normalize(raw.Articles, limit), nil
}

// AllCategories fetches every fixed category independently. A failing
// category yields an empty slice for that category only; the batch never
// aborts. Iteration follows category declaration order.
func (c *NewsAPIClient) AllCategories(ctx context.Context, limitPerCategory int) (map[string][]Article, error) {
	all := make(map[string][]Article, len(Categories))
	for _, category := range Categories {
		articles, err := c.TopHeadlines(ctx, category, "", limitPerCategory)
		if err != nil {
			log.Error().Err(err).Str("category", category).Msg("category fetch failed")
			all[category] = []Article{}
			continue
		}
		all[category] = articles
	}
	return all, nil
}

type newsAPIResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message"`
	Articles []rawArticle `json:"articles"`
}

type rawArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

func (c *NewsAPIClient) get(ctx context.Context, path string, params url.Values) (*newsAPIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	var parsed newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("newsapi decode: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("newsapi status %d: %s", resp.StatusCode, parsed.Message)
	}
	return &parsed, nil
}

func normalize(raw []rawArticle, limit int) []Article {
	if len(raw) > limit {
		raw = raw[:limit]
	}
	articles := make([]Article, 0, len(raw))
	for i, item := range raw {
		articles = append(articles, Article{
			Number:      i + 1,
			Title:       item.Title,
			Description: item.Description,
			Source:      item.Source.Name,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
		})
	}
	return articles
}
