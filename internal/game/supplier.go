package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/content"
)

// poolSize 是每个分类参与抽样的候选池大小
const poolSize = 20

// listingWindows 是抽样时随机选用的热度窗口
var listingWindows = []string{content.WindowWeek, content.WindowMonth}

// lowQualityAuthors 列出已知的低质量/自动化账号。
// 这些账号的内容分数不反映真实热度，抽到时换一条。
var lowQualityAuthors = map[string]bool{
	"AutoModerator": true,
}

// Supplier 是回合内容供应器：为一个分类对取回两条可比较的内容。
type Supplier struct {
	source content.Source
}

// NewSupplier 用给定的内容源创建供应器。
func NewSupplier(source content.Source) *Supplier {
	return &Supplier{source: source}
}

// PickItem 在指定分类的候选池内随机抽取一条内容。
// 抽到低质量账号的内容时在池内换条重抽，直到抽完整个池；
// 如果整个池都不合格，退回首次抽中的那条，保证回合总能成立。
func (p *Supplier) PickItem(ctx context.Context, category string) (content.Item, error) {
	window := listingWindows[rand.Intn(len(listingWindows))]
	items, err := p.source.TopItems(ctx, category, poolSize, window)
	if err != nil {
		return content.Item{}, newError(KindContentFetchFailed, fmt.Sprintf("无法从分类 %s 获取内容: %v", category, err))
	}
	if len(items) == 0 {
		return content.Item{}, newError(KindContentFetchFailed, fmt.Sprintf("分类 %s 下没有可用内容", category))
	}

	initial := rand.Intn(len(items))
	firstDrawn := items[initial]
	if !lowQualityAuthors[firstDrawn.AuthorName] {
		return firstDrawn, nil
	}

	drawn := map[int]bool{initial: true}
	for len(drawn) < len(items) {
		index := rand.Intn(len(items))
		if drawn[index] {
			continue
		}
		drawn[index] = true
		if !lowQualityAuthors[items[index].AuthorName] {
			return items[index], nil
		}
	}

	// 整个池都是低质量账号，可用性优先于纯净度
	return firstDrawn, nil
}

// MaterializeRound 为一个分类对取回两条内容。
// 任一分类取数失败都会让整个回合失败，保证不会出现半成品回合。
func (p *Supplier) MaterializeRound(ctx context.Context, pair [2]string) ([]content.Item, error) {
	itemA, err := p.PickItem(ctx, pair[0])
	if err != nil {
		return nil, err
	}
	itemB, err := p.PickItem(ctx, pair[1])
	if err != nil {
		return nil, err
	}
	return []content.Item{itemA, itemB}, nil
}
