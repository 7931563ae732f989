// Package catalog はアラジン書誌検索APIのクライアントを提供する。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/readingclub/internal/model"
)

const defaultSearchURL = "https://www.aladin.co.kr/ttb/api/ItemSearch.aspx"

const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

// queryTypes は検索の優先順。タイトル一致を優先し、足りない分をキーワード・著者で補う。
var queryTypes = []string{"Title", "Keyword", "Author"}

// SearchResult は書誌検索の1件分の結果。
type SearchResult struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PubDate       string `json:"pubDate"`
	Description   string `json:"description"`
	Cover         string `json:"cover"`
	ISBN          string `json:"isbn"`
	CategoryName  string `json:"categoryName"`
	PriceStandard int    `json:"priceStandard"`
}

// Config はアラジンAPIクライアントの設定。
type Config struct {
	TTBKey string

	// テスト用にオーバーライド可能なURL
	SearchURL string
}

// Client はアラジン書誌検索APIのクライアント。
// SSRF対策済みのHTTPクライアントを注入して使う。
type Client struct {
	config Config
	client *http.Client
}

// NewClient はClientを生成する。clientがnilの場合はhttp.DefaultClientを使用する。
func NewClient(config Config, client *http.Client) *Client {
	if config.SearchURL == "" {
		config.SearchURL = defaultSearchURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{config: config, client: client}
}

// aladinResponse はアラジンItemSearchのレスポンス。必要なフィールドのみ定義する。
type aladinResponse struct {
	TotalResults int          `json:"totalResults"`
	Item         []aladinItem `json:"item"`
}

type aladinItem struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PubDate       string `json:"pubDate"`
	Description   string `json:"description"`
	Cover         string `json:"cover"`
	ISBN          string `json:"isbn"`
	CategoryName  string `json:"categoryName"`
	PriceStandard int    `json:"priceStandard"`
}

// Search はクエリに一致する書誌情報を検索する。
// タイトル一致・キーワード・著者の順に検索し、ISBNで重複を除いてmaxResults件まで返す。
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewValidationError("検索キーワードを入力してください。")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	var results []SearchResult
	seen := map[string]bool{}

	for _, queryType := range queryTypes {
		if len(results) >= maxResults {
			break
		}

		items, err := c.searchByType(ctx, query, queryType, maxResults-len(results))
		if err != nil {
			// 1種別の失敗で全体を落とさない。残りの種別で補う。
			slog.Warn("catalog search failed",
				slog.String("query_type", queryType),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, item := range items {
			key := item.ISBN
			if key == "" {
				key = item.Title + "/" + item.Author
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			results = append(results, item)
			if len(results) >= maxResults {
				break
			}
		}
	}

	return results, nil
}

func (c *Client) searchByType(ctx context.Context, query, queryType string, maxResults int) ([]SearchResult, error) {
	params := url.Values{
		"ttbkey":       {c.config.TTBKey},
		"Query":        {query},
		"QueryType":    {queryType},
		"MaxResults":   {fmt.Sprintf("%d", maxResults)},
		"start":        {"1"},
		"SearchTarget": {"Book"},
		"output":       {"js"},
		"Version":      {"20131101"},
		"Cover":        {"Big"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed aladinResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Item))
	for _, item := range parsed.Item {
		title := item.Title
		if title == "" {
			title = "タイトル不明"
		}
		results = append(results, SearchResult{
			Title:         title,
			Author:        item.Author,
			Publisher:     item.Publisher,
			PubDate:       item.PubDate,
			Description:   item.Description,
			Cover:         item.Cover,
			ISBN:          item.ISBN,
			CategoryName:  item.CategoryName,
			PriceStandard: item.PriceStandard,
		})
	}
	return results, nil
}
