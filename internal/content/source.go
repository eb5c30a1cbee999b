package content

import (
	"context"
	"errors"
)

// Item 是从外部内容平台取回的一条内容。
// 它是展示层直接消费的数据形态。
type Item struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	CategoryName string `json:"categoryName"`
	Score        int    `json:"score"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	Body         string `json:"body,omitempty"`
	AuthorName   string `json:"authorName"`
}

// 列表窗口，对应内容平台的"top"列表时间范围
const (
	WindowWeek  = "week"
	WindowMonth = "month"
)

// ErrUnreachable 表示完全无法访问内容平台（网络或鉴权失败）。
// 调用方不应在此层重试，而应将其作为ContentFetchFailed上抛。
var ErrUnreachable = errors.New("内容平台不可达")

// Source 是内容平台的抽象。
// 取数机制本身不属于核心逻辑，核心只依赖这个接口，
// 测试中可以用内存实现替换。
type Source interface {
	// TopItems 返回指定分类下按热度排序的前limit条内容
	TopItems(ctx context.Context, category string, limit int, window string) ([]Item, error)
	// HotItems 返回指定分类下当前最热的limit条内容
	HotItems(ctx context.Context, category string, limit int) ([]Item, error)
}
