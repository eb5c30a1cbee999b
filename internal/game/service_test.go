package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/content"
	"github.com/SlpAus/reddit-higher-lower-backend/pkg/token"
)

func init() {
	// 回合令牌依赖进程级密钥
	token.GenerateSecretKey()
}

// --- 测试替身 ---

// memoryStore 是Store的内存实现。
// 每日锁按day键存在性判断，不模拟TTL：跨天本来就对应不同的键。
type memoryStore struct {
	sessions    map[string]*Session
	answers     map[string]string
	dailyLocks  map[string]bool
	legacyLocks map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions:    make(map[string]*Session),
		answers:     make(map[string]string),
		dailyLocks:  make(map[string]bool),
		legacyLocks: make(map[string]int64),
	}
}

func (m *memoryStore) GetSession(ctx context.Context, username string) (*Session, error) {
	s, ok := m.sessions[username]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *memoryStore) CreateSession(ctx context.Context, username string, s *Session) error {
	copied := *s
	m.sessions[username] = &copied
	return nil
}

func (m *memoryStore) DeleteSession(ctx context.Context, username string) error {
	delete(m.sessions, username)
	return nil
}

func (m *memoryStore) ApplyGuess(ctx context.Context, username string, correct bool) (*Session, error) {
	s, ok := m.sessions[username]
	if !ok {
		return nil, errors.New("session not found")
	}
	if correct {
		s.CorrectGuesses++
		s.Streak++
		if s.Streak > s.MaxStreak {
			s.MaxStreak = s.Streak
		}
	} else {
		s.IncorrectGuesses++
		s.Streak = 0
	}
	s.RoundsPlayed++
	copied := *s
	return &copied, nil
}

func (m *memoryStore) GetPendingAnswer(ctx context.Context, username string) (string, error) {
	return m.answers[username], nil
}

func (m *memoryStore) SetPendingAnswer(ctx context.Context, username, itemID string) error {
	m.answers[username] = itemID
	return nil
}

func (m *memoryStore) DeletePendingAnswer(ctx context.Context, username string) error {
	delete(m.answers, username)
	return nil
}

func (m *memoryStore) HasDailyLock(ctx context.Context, username, day string) (bool, error) {
	return m.dailyLocks[username+"/"+day], nil
}

func (m *memoryStore) SetDailyLock(ctx context.Context, username, day string, ttl time.Duration) error {
	m.dailyLocks[username+"/"+day] = true
	return nil
}

func (m *memoryStore) GetLegacyLock(ctx context.Context, username string) (int64, bool, error) {
	ts, ok := m.legacyLocks[username]
	return ts, ok, nil
}

func (m *memoryStore) DeleteLegacyLock(ctx context.Context, username string) error {
	delete(m.legacyLocks, username)
	return nil
}

// fakeSource 按调用顺序生成分数递增的内容，保证任意两条分数不同。
type fakeSource struct {
	counter int
}

func (f *fakeSource) TopItems(ctx context.Context, category string, limit int, window string) ([]content.Item, error) {
	items := make([]content.Item, limit)
	for i := range items {
		f.counter++
		items[i] = content.Item{
			ID:           fmt.Sprintf("%s-%d", category, f.counter),
			Title:        "post from " + category,
			CategoryName: category,
			Score:        f.counter,
			AuthorName:   "regular_user",
		}
	}
	return items, nil
}

func (f *fakeSource) HotItems(ctx context.Context, category string, limit int) ([]content.Item, error) {
	return f.TopItems(ctx, category, limit, content.WindowWeek)
}

// fixture 组装一个带假时钟和假结算的状态机。
type fixture struct {
	service  *Service
	store    *memoryStore
	now      time.Time
	finalized int
}

func newFixture() *fixture {
	f := &fixture{
		store: newMemoryStore(),
		now:   time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
	finalize := func(ctx context.Context, username string, maxStreak, correct, incorrect int, completedAt time.Time) (int64, int, error) {
		f.finalized++
		return 5, 1010, nil
	}
	f.service = NewService(f.store, NewSupplier(&fakeSource{}), finalize, func() time.Time { return f.now })
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// higherOf 按回合内容算出正确答案的ID。
func higherOf(posts []content.Item) string {
	if posts[0].Score > posts[1].Score {
		return posts[0].ID
	}
	return posts[1].ID
}

// --- 测试 ---

func TestStartGameProducesFirstRound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}
	if result.CurrentRound != 1 || result.TotalRounds != TotalRounds {
		t.Errorf("首回合应为 1/%d，实际 %d/%d", TotalRounds, result.CurrentRound, result.TotalRounds)
	}
	if len(result.Posts) != 2 {
		t.Fatalf("每回合应有2条内容，实际 %d", len(result.Posts))
	}
	if result.Posts[0].CategoryName == result.Posts[1].CategoryName {
		t.Errorf("一个回合内的两条内容不应来自同一分类")
	}
	if result.RoundToken == "" {
		t.Errorf("回合结果应携带回合令牌")
	}
	if result.GameComplete != nil {
		t.Errorf("首回合不应带有结算数据")
	}
}

func TestFullGamePerfectRun(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}

	var final *Result
	for round := 1; round <= TotalRounds; round++ {
		correct, answerID, next, err := f.service.SubmitGuess(ctx, "alice", higherOf(result.Posts), result.RoundToken)
		if err != nil {
			t.Fatalf("第%d回合提交失败: %v", round, err)
		}
		if !correct {
			t.Fatalf("第%d回合按更高分提交却被判错", round)
		}
		if answerID != higherOf(result.Posts) {
			t.Errorf("第%d回合返回的答案ID不符", round)
		}
		result = next
		final = next
	}

	if final.GameComplete == nil {
		t.Fatal("第10次猜测后应返回结算数据")
	}
	if final.Posts != nil {
		t.Errorf("结算回合不应再下发内容")
	}
	if final.GameComplete.CorrectGuesses != TotalRounds {
		t.Errorf("全对局的正确数应为 %d，实际 %d", TotalRounds, final.GameComplete.CorrectGuesses)
	}
	if final.GameComplete.MaxStreak != TotalRounds {
		t.Errorf("全对局的最大连对应为 %d，实际 %d", TotalRounds, final.GameComplete.MaxStreak)
	}
	if final.GameComplete.Accuracy != 100 {
		t.Errorf("全对局的准确率应为100，实际 %d", final.GameComplete.Accuracy)
	}
	if final.GameComplete.Rank != 5 || final.GameComplete.Score != 1010 {
		t.Errorf("结算数据应透传天梯结果，实际 rank=%d score=%d", final.GameComplete.Rank, final.GameComplete.Score)
	}
	if f.finalized != 1 {
		t.Errorf("天梯结算应恰好发生一次，实际 %d 次", f.finalized)
	}

	// 完成后当天不可再开局
	check, err := f.service.CanStartNewGame(ctx, "alice")
	if err != nil {
		t.Fatalf("CanStartNewGame失败: %v", err)
	}
	if check.CanStart || check.Reason != KindDailyLimitReached {
		t.Errorf("完成当日应被每日锁拦截，实际 %+v", check)
	}

	// 次日恢复可玩
	f.advance(13 * time.Hour)
	check, err = f.service.CanStartNewGame(ctx, "alice")
	if err != nil {
		t.Fatalf("CanStartNewGame失败: %v", err)
	}
	if !check.CanStart {
		t.Errorf("跨过UTC零点后应可再次开局")
	}
}

func TestGuessCountersStayConsistent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}

	for round := 1; round <= TotalRounds; round++ {
		guess := higherOf(result.Posts)
		if round%2 == 0 {
			// 偶数回合故意猜错
			if guess == result.Posts[0].ID {
				guess = result.Posts[1].ID
			} else {
				guess = result.Posts[0].ID
			}
		}

		_, _, next, err := f.service.SubmitGuess(ctx, "alice", guess, "")
		if err != nil {
			t.Fatalf("第%d回合提交失败: %v", round, err)
		}

		played := next.CorrectGuesses + next.IncorrectGuesses
		if next.GameComplete == nil && played != round {
			t.Errorf("第%d回合后 correct+incorrect 应为 %d，实际 %d", round, round, played)
		}
		if round%2 == 0 && next.Streak != 0 {
			t.Errorf("第%d回合猜错后连对应归零，实际 %d", round, next.Streak)
		}
		result = next
	}

	if result.GameComplete == nil {
		t.Fatal("10个回合后应结算")
	}
	if result.GameComplete.CorrectGuesses != 5 || result.GameComplete.IncorrectGuesses != 5 {
		t.Errorf("对错各半的局结算应为5/5，实际 %d/%d",
			result.GameComplete.CorrectGuesses, result.GameComplete.IncorrectGuesses)
	}
	if result.GameComplete.Accuracy != 50 {
		t.Errorf("对错各半的准确率应为50，实际 %d", result.GameComplete.Accuracy)
	}
}

func TestSingleMissScenarioFinalizesExactCounters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var gotMaxStreak, gotCorrect, gotIncorrect int
	finalize := func(ctx context.Context, username string, maxStreak, correct, incorrect int, completedAt time.Time) (int64, int, error) {
		gotMaxStreak, gotCorrect, gotIncorrect = maxStreak, correct, incorrect
		return 1, 990, nil
	}
	f.service = NewService(f.store, NewSupplier(&fakeSource{}), finalize, f.service.now)

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}

	// 前3回合连对，第4回合失手，第5-10回合连对收尾
	for round := 1; round <= TotalRounds; round++ {
		guess := higherOf(result.Posts)
		if round == 4 {
			if guess == result.Posts[0].ID {
				guess = result.Posts[1].ID
			} else {
				guess = result.Posts[0].ID
			}
		}
		_, _, next, err := f.service.SubmitGuess(ctx, "alice", guess, "")
		if err != nil {
			t.Fatalf("第%d回合提交失败: %v", round, err)
		}
		result = next
	}

	if result.GameComplete == nil {
		t.Fatal("10个回合后应结算")
	}
	if gotCorrect != 9 || gotIncorrect != 1 {
		t.Errorf("结算应收到9对1错，实际 %d/%d", gotCorrect, gotIncorrect)
	}
	if gotMaxStreak != 6 {
		t.Errorf("第4回合失手后收尾6连对，最大连对应为6，实际 %d", gotMaxStreak)
	}
	if result.GameComplete.Accuracy != 90 {
		t.Errorf("9对1错的准确率应为90，实际 %d", result.GameComplete.Accuracy)
	}
}

func TestStartGameRejectedWhileActive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.service.StartGame(ctx, "alice"); err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}

	_, err := f.service.StartGame(ctx, "alice")
	var gameErr *Error
	if !errors.As(err, &gameErr) || gameErr.Kind != KindActiveGameExists {
		t.Fatalf("有活动会话时开局应返回ActiveGameExists，实际 %v", err)
	}
	if gameErr.TimeLeft <= 0 {
		t.Errorf("ActiveGameExists错误应携带剩余时间")
	}
}

func TestAbandonAllowsRestartSameDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.service.StartGame(ctx, "alice"); err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}
	if err := f.service.AbandonGame(ctx, "alice"); err != nil {
		t.Fatalf("AbandonGame失败: %v", err)
	}

	if _, ok := f.store.answers["alice"]; ok {
		t.Errorf("放弃后不应残留待猜答案")
	}
	if f.finalized != 0 {
		t.Errorf("放弃的局不应触发天梯结算")
	}

	// 放弃不写每日锁，当天可重新开始
	if _, err := f.service.StartGame(ctx, "alice"); err != nil {
		t.Fatalf("放弃后同日重开失败: %v", err)
	}
}

func TestExpiredSessionCleanedUpLazily(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.service.StartGame(ctx, "alice"); err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}

	f.advance(25 * time.Hour)

	check, err := f.service.CanStartNewGame(ctx, "alice")
	if err != nil {
		t.Fatalf("CanStartNewGame失败: %v", err)
	}
	if !check.CanStart {
		t.Errorf("过期会话不应阻止开新局")
	}
	if _, ok := f.store.sessions["alice"]; ok {
		t.Errorf("过期会话应在检查时被清理")
	}
	if _, ok := f.store.answers["alice"]; ok {
		t.Errorf("过期会话的待猜答案应一并清理")
	}
}

func TestLegacyLockMigration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 未满24小时的旧锁：迁移为每日锁并拦截
	f.store.legacyLocks["alice"] = f.now.Add(-1 * time.Hour).UnixMilli()

	check, err := f.service.CanStartNewGame(ctx, "alice")
	if err != nil {
		t.Fatalf("CanStartNewGame失败: %v", err)
	}
	if check.CanStart || check.Reason != KindDailyLimitReached {
		t.Errorf("未过期的旧锁应拦截开局，实际 %+v", check)
	}
	if _, ok := f.store.legacyLocks["alice"]; ok {
		t.Errorf("旧锁应在迁移后删除")
	}
	if !f.store.dailyLocks["alice/"+dayKey(f.now)] {
		t.Errorf("旧锁应被迁移为当日的每日锁")
	}

	// 已满24小时的旧锁：直接清理并放行
	f.store.legacyLocks["bob"] = f.now.Add(-25 * time.Hour).UnixMilli()

	check, err = f.service.CanStartNewGame(ctx, "bob")
	if err != nil {
		t.Fatalf("CanStartNewGame失败: %v", err)
	}
	if !check.CanStart {
		t.Errorf("已过期的旧锁不应拦截开局")
	}
	if _, ok := f.store.legacyLocks["bob"]; ok {
		t.Errorf("已过期的旧锁应被清理")
	}
}

func TestSubmitGuessWithoutPendingRound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, _, err := f.service.SubmitGuess(ctx, "alice", "whatever", "")
	var gameErr *Error
	if !errors.As(err, &gameErr) || gameErr.Kind != KindNoActiveRound {
		t.Fatalf("无待猜回合时提交应返回NoActiveRound，实际 %v", err)
	}
}

func TestSubmitGuessRejectsStaleToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}

	// 用第一回合的令牌提交第二回合
	staleToken := result.RoundToken
	if _, _, _, err := f.service.SubmitGuess(ctx, "alice", higherOf(result.Posts), staleToken); err != nil {
		t.Fatalf("第一回合提交失败: %v", err)
	}

	next, err := f.service.ResumeGame(ctx, "alice")
	if err != nil {
		t.Fatalf("ResumeGame失败: %v", err)
	}

	_, _, _, err = f.service.SubmitGuess(ctx, "alice", higherOf(next.Posts), staleToken)
	var gameErr *Error
	if !errors.As(err, &gameErr) || gameErr.Kind != KindNoActiveRound {
		t.Fatalf("过期令牌应被拒绝为NoActiveRound，实际 %v", err)
	}
}

func TestResumeReturnsCurrentRound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}
	if _, _, _, err := f.service.SubmitGuess(ctx, "alice", higherOf(result.Posts), ""); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	resumed, err := f.service.ResumeGame(ctx, "alice")
	if err != nil {
		t.Fatalf("ResumeGame失败: %v", err)
	}
	if resumed.CurrentRound != 2 {
		t.Errorf("恢复应回到第2回合，实际第%d回合", resumed.CurrentRound)
	}
	if len(resumed.Posts) != 2 {
		t.Errorf("恢复的回合应有2条内容")
	}
}

func TestResumeWithoutSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.service.ResumeGame(ctx, "alice")
	var gameErr *Error
	if !errors.As(err, &gameErr) || gameErr.Kind != KindNoActiveSession {
		t.Fatalf("无会话时恢复应返回NoActiveSession，实际 %v", err)
	}
}

func TestTieGoesToSecondItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 两条同分内容：严格大于的判定下，答案应是第二条
	tieSource := &tieFakeSource{}
	f.service = NewService(f.store, NewSupplier(tieSource), f.service.finalize, f.service.now)

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}

	correct, _, _, err := f.service.SubmitGuess(ctx, "alice", result.Posts[1].ID, "")
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if !correct {
		t.Errorf("同分时第二条应被视为正确答案")
	}
}

func TestStatusReflectsLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	status, err := f.service.Status(ctx, "alice")
	if err != nil {
		t.Fatalf("Status失败: %v", err)
	}
	if status.HasActiveGame || !status.CanStartNewGame || status.HasPlayedToday {
		t.Errorf("初始状态应为可开局且无活动会话，实际 %+v", status)
	}

	result, err := f.service.StartGame(ctx, "alice")
	if err != nil {
		t.Fatalf("StartGame失败: %v", err)
	}
	status, err = f.service.Status(ctx, "alice")
	if err != nil {
		t.Fatalf("Status失败: %v", err)
	}
	if !status.HasActiveGame || !status.CanResume || status.CurrentRound != 1 {
		t.Errorf("开局后状态应显示可恢复的第1回合，实际 %+v", status)
	}
	if status.CanStartNewGame {
		t.Errorf("有活动会话时不应允许开新局")
	}

	for round := 1; round <= TotalRounds; round++ {
		_, _, next, err := f.service.SubmitGuess(ctx, "alice", higherOf(result.Posts), "")
		if err != nil {
			t.Fatalf("第%d回合提交失败: %v", round, err)
		}
		result = next
	}

	status, err = f.service.Status(ctx, "alice")
	if err != nil {
		t.Fatalf("Status失败: %v", err)
	}
	if status.HasActiveGame || status.CanResume {
		t.Errorf("完成后不应有活动会话，实际 %+v", status)
	}
	if !status.HasPlayedToday || status.CanStartNewGame {
		t.Errorf("完成当日应标记已玩且不可开局，实际 %+v", status)
	}
	if status.TimeUntilNextGame <= 0 {
		t.Errorf("完成后应给出距UTC零点的倒计时")
	}
}

func TestOperationsRequireIdentity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	assertNotAuthenticated := func(name string, err error) {
		var gameErr *Error
		if !errors.As(err, &gameErr) || gameErr.Kind != KindNotAuthenticated {
			t.Errorf("%s 无身份时应返回NotAuthenticated，实际 %v", name, err)
		}
	}

	_, err := f.service.StartGame(ctx, "")
	assertNotAuthenticated("StartGame", err)
	_, err = f.service.NextRound(ctx, "")
	assertNotAuthenticated("NextRound", err)
	_, _, _, err = f.service.SubmitGuess(ctx, "", "id", "")
	assertNotAuthenticated("SubmitGuess", err)
	assertNotAuthenticated("AbandonGame", f.service.AbandonGame(ctx, ""))
	_, err = f.service.Status(ctx, "")
	assertNotAuthenticated("Status", err)
}

// tieFakeSource 每个分类只返回一条固定100分的内容。
type tieFakeSource struct {
	calls int
}

func (f *tieFakeSource) TopItems(ctx context.Context, category string, limit int, window string) ([]content.Item, error) {
	f.calls++
	return []content.Item{{
		ID:           fmt.Sprintf("%s-tied-%d", category, f.calls),
		CategoryName: category,
		Score:        100,
		AuthorName:   "regular_user",
	}}, nil
}

func (f *tieFakeSource) HotItems(ctx context.Context, category string, limit int) ([]content.Item, error) {
	return f.TopItems(ctx, category, limit, content.WindowWeek)
}
