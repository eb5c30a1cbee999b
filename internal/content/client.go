package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/config"
)

// Client 是基于内容平台公开JSON列表接口的Source实现。
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient 根据配置创建一个内容平台客户端。
func NewClient(cfg config.ContentConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// listingEnvelope 对应平台列表接口返回的JSON外层结构
type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data listingItem `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// listingItem 对应单条内容的原始字段
type listingItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Subreddit string `json:"subreddit"`
	Score     int    `json:"score"`
	Thumbnail string `json:"thumbnail"`
	Selftext  string `json:"selftext"`
	Author    string `json:"author"`
	Stickied  bool   `json:"stickied"`
}

// TopItems 返回指定分类下按热度排序的前limit条内容。
func (c *Client) TopItems(ctx context.Context, category string, limit int, window string) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/r/%s/top.json?limit=%s&t=%s",
		c.baseURL, url.PathEscape(category), strconv.Itoa(limit), url.QueryEscape(window))
	return c.fetchListing(ctx, endpoint)
}

// HotItems 返回指定分类下当前最热的limit条内容。
func (c *Client) HotItems(ctx context.Context, category string, limit int) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%s",
		c.baseURL, url.PathEscape(category), strconv.Itoa(limit))
	return c.fetchListing(ctx, endpoint)
}

// fetchListing 执行一次列表请求并把原始字段映射为Item。
// 网络层面的失败被统一折叠为ErrUnreachable，由上层决定如何上抛。
func (c *Client) fetchListing(ctx context.Context, endpoint string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("无法构造内容请求: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: 状态码 %d", ErrUnreachable, resp.StatusCode)
	}

	var envelope listingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("无法解析内容平台响应: %w", err)
	}

	items := make([]Item, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		raw := child.Data
		if raw.Stickied {
			// 置顶贴通常是公告，不参与比较
			continue
		}
		items = append(items, Item{
			ID:           raw.ID,
			Title:        raw.Title,
			URL:          c.baseURL + raw.Permalink,
			CategoryName: raw.Subreddit,
			Score:        raw.Score,
			Thumbnail:    raw.Thumbnail,
			Body:         raw.Selftext,
			AuthorName:   raw.Author,
		})
	}
	return items, nil
}
