// Package news wraps the NewsAPI article search and top-headlines endpoints.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"newsdesk/internal/config"
	"newsdesk/internal/types"
)

const (
	// DefaultLanguage is used when a query does not name one.
	DefaultLanguage = "en"

	// DefaultPageSize is the number of articles fetched per search.
	DefaultPageSize = 5

	// maxTrending caps the number of trending entries returned.
	maxTrending = 10
)

// Article is one news story with only the fields needed for rendering and
// summarization. All text fields are plain text; HTML from the provider is
// stripped at the boundary.
type Article struct {
	Title       string
	Description string
	URL         string
	Content     string
}

// Query describes one article search.
type Query struct {
	Topic    string
	Language string
	PageSize int
}

// normalize applies defaults and validates the query before any network
// call is made.
func (q *Query) normalize() error {
	q.Topic = strings.TrimSpace(q.Topic)
	if q.Topic == "" {
		return fmt.Errorf("%w: topic must be a non-empty string", types.ErrValidation)
	}
	if q.Language == "" {
		q.Language = DefaultLanguage
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", types.ErrValidation, q.PageSize)
	}
	return nil
}

// Client talks to NewsAPI.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a news client from config.
func NewClient(cfg config.NewsConfig, timeoutCfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeoutCfg.NewsTimeout()},
		log:        log.Named("news"),
	}
}

// wire types

type searchResponse struct {
	Status   string         `json:"status"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Articles *[]articleJSON `json:"articles"`
}

type articleJSON struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Content     string `json:"content"`
}

// Search fetches articles matching the query. Validation failures are
// reported before any network call; a response without an articles field is
// a schema error.
func (c *Client) Search(ctx context.Context, q Query) ([]Article, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q.Topic)
	params.Set("language", q.Language)
	params.Set("pageSize", strconv.Itoa(q.PageSize))

	resp, err := c.get(ctx, "/everything", params)
	if err != nil {
		return nil, err
	}
	if resp.Articles == nil {
		return nil, fmt.Errorf("%w: no 'articles' field in news response", types.ErrSchema)
	}

	articles := make([]Article, 0, len(*resp.Articles))
	for _, a := range *resp.Articles {
		articles = append(articles, Article{
			Title:       stripHTML(a.Title),
			Description: stripHTML(a.Description),
			URL:         a.URL,
			Content:     stripHTML(a.Content),
		})
	}
	c.log.Debug("search complete", zap.String("topic", q.Topic), zap.Int("articles", len(articles)))
	return articles, nil
}

// TopHeadlines fetches current trending topics from the general top
// headlines, falling back to the description when a title is absent.
// At most 10 entries are returned.
func (c *Client) TopHeadlines(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("category", "general")
	params.Set("pageSize", strconv.Itoa(maxTrending))

	resp, err := c.get(ctx, "/top-headlines", params)
	if err != nil {
		return nil, err
	}
	if resp.Articles == nil {
		return nil, fmt.Errorf("%w: no 'articles' field in headlines response", types.ErrSchema)
	}

	topics := make([]string, 0, len(*resp.Articles))
	for _, a := range *resp.Articles {
		topic := stripHTML(a.Title)
		if topic == "" {
			topic = stripHTML(a.Description)
		}
		if topic == "" {
			topic = "No description available"
		}
		topics = append(topics, topic)
	}
	if len(topics) > maxTrending {
		topics = topics[:maxTrending]
	}
	return topics, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*searchResponse, error) {
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create news request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: news request failed: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read news response: %v", types.ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("news api error", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: news api returned status %d: %s", types.ErrTransport, resp.StatusCode, truncate(string(body), 200))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: parse news response: %v", types.ErrSchema, err)
	}
	if decoded.Status == "error" {
		return nil, fmt.Errorf("%w: news api error %s: %s", types.ErrTransport, decoded.Code, decoded.Message)
	}
	return &decoded, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
