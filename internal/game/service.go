package game

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/pkg/token"
	"github.com/google/uuid"
)

// legacyLockMinTTL 是旧版锁迁移为每日锁时的最小TTL，
// 避免迁移出一个立即过期的锁。
const legacyLockMinTTL = 10 * time.Second

// FinalizeFunc 是一局完成后的天梯结算回调。
// 返回结算后的名次与新天梯分。
type FinalizeFunc func(ctx context.Context, username string, maxStreak, correct, incorrect int, completedAt time.Time) (int64, int, error)

// Service 是每日游戏的会话状态机。
// 每个操作都是一串执行到底的存储读写，本层不做重试。
type Service struct {
	store    Store
	supplier *Supplier
	finalize FinalizeFunc
	now      func() time.Time
}

// NewService 组装状态机及其协作者。
func NewService(store Store, supplier *Supplier, finalize FinalizeFunc, now func() time.Time) *Service {
	return &Service{store: store, supplier: supplier, finalize: finalize, now: now}
}

// requireUser 校验请求身份。身份由宿主平台提供，缺失即失败，不重试。
func requireUser(username string) error {
	if username == "" {
		return newError(KindNotAuthenticated, "用户未认证")
	}
	return nil
}

// cleanupSession 删除会话及其待猜答案。过期与放弃都走这里。
func (s *Service) cleanupSession(ctx context.Context, username string) error {
	if err := s.store.DeleteSession(ctx, username); err != nil {
		return storeFailure(err)
	}
	if err := s.store.DeletePendingAnswer(ctx, username); err != nil {
		return storeFailure(err)
	}
	return nil
}

// activeSession 返回用户未过期的会话；过期会话被就地清理并返回nil。
// 过期完全按墙钟判断，只在访问时惰性检查。
func (s *Service) activeSession(ctx context.Context, username string) (*Session, error) {
	sess, err := s.store.GetSession(ctx, username)
	if err != nil {
		return nil, storeFailure(err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.IsExpired(s.now()) {
		if err := s.cleanupSession(ctx, username); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sess, nil
}

// CanStartNewGame 判断用户当前能否开新的一局。
// 检查顺序：今日完成锁 → 旧版锁（就地迁移）→ 未过期的活动会话。
// 途中发现的过期记录会被顺手清理。
func (s *Service) CanStartNewGame(ctx context.Context, username string) (*StartCheck, error) {
	if err := requireUser(username); err != nil {
		return nil, err
	}
	now := s.now()

	// 1. 今日完成锁
	locked, err := s.store.HasDailyLock(ctx, username, dayKey(now))
	if err != nil {
		return nil, storeFailure(err)
	}
	if locked {
		return &StartCheck{CanStart: false, Reason: KindDailyLimitReached, TimeLeft: timeUntilNextUTCDay(now)}, nil
	}

	// 2. 旧版单时间戳锁：未过期则迁移为每日锁，之后删除旧键
	legacyTS, hasLegacy, err := s.store.GetLegacyLock(ctx, username)
	if err != nil {
		return nil, storeFailure(err)
	}
	if hasLegacy {
		sinceCompletion := now.Sub(time.UnixMilli(legacyTS))
		if sinceCompletion < sessionLifetime {
			ttl := sessionLifetime - sinceCompletion
			if ttl < legacyLockMinTTL {
				ttl = legacyLockMinTTL
			}
			if err := s.store.SetDailyLock(ctx, username, dayKey(now), ttl); err != nil {
				return nil, storeFailure(err)
			}
			if err := s.store.DeleteLegacyLock(ctx, username); err != nil {
				return nil, storeFailure(err)
			}
			return &StartCheck{CanStart: false, Reason: KindDailyLimitReached, TimeLeft: timeUntilNextUTCDay(now)}, nil
		}
		if err := s.store.DeleteLegacyLock(ctx, username); err != nil {
			return nil, storeFailure(err)
		}
	}

	// 3. 未过期的活动会话
	sess, err := s.store.GetSession(ctx, username)
	if err != nil {
		return nil, storeFailure(err)
	}
	if sess != nil {
		if !sess.IsExpired(now) {
			return &StartCheck{CanStart: false, Reason: KindActiveGameExists, TimeLeft: sess.TimeLeft(now)}, nil
		}
		if err := s.cleanupSession(ctx, username); err != nil {
			return nil, err
		}
	}

	return &StartCheck{CanStart: true}, nil
}

// StartGame 开始新的一局：生成分类对并立刻产出第一回合。
// 存在可恢复会话时拒绝开新局，调用方应改走恢复流程。
func (s *Service) StartGame(ctx context.Context, username string) (*Result, error) {
	if err := requireUser(username); err != nil {
		return nil, err
	}

	check, err := s.CanStartNewGame(ctx, username)
	if err != nil {
		return nil, err
	}
	if !check.CanStart {
		switch check.Reason {
		case KindActiveGameExists:
			return nil, newErrorWithTimeLeft(KindActiveGameExists, "你有一局正在进行的游戏，请继续当前游戏", check.TimeLeft)
		default:
			return nil, newErrorWithTimeLeft(KindDailyLimitReached, "你今天的每日游戏已经完成", check.TimeLeft)
		}
	}

	gameID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成GameID: %w", err)
	}

	sess := &Session{
		GameID:    gameID.String(),
		Pairs:     GeneratePairs(),
		StartedAt: s.now().UnixMilli(),
	}
	if err := s.store.CreateSession(ctx, username, sess); err != nil {
		return nil, storeFailure(err)
	}

	return s.NextRound(ctx, username)
}

// ResumeGame 恢复一局进行中的游戏，重新产出当前回合。
func (s *Service) ResumeGame(ctx context.Context, username string) (*Result, error) {
	if err := requireUser(username); err != nil {
		return nil, err
	}

	sess, err := s.activeSession(ctx, username)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActive(s.now()) {
		return nil, newError(KindNoActiveSession, "没有可恢复的游戏，请开始新游戏")
	}

	return s.NextRound(ctx, username)
}

// NextRound 产出当前回合的内容对，或在回合打满时触发结算。
// 内容全部取回之前不落任何状态，保证不会出现半成品回合。
func (s *Service) NextRound(ctx context.Context, username string) (*Result, error) {
	if err := requireUser(username); err != nil {
		return nil, err
	}

	sess, err := s.activeSession(ctx, username)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, newError(KindNoActiveSession, "没有进行中的游戏，请开始新游戏")
	}

	if sess.RoundsPlayed >= TotalRounds {
		completion, err := s.completeGame(ctx, username, sess)
		if err != nil {
			return nil, err
		}
		return &Result{
			Posts:            nil,
			GameComplete:     completion,
			CurrentRound:     sess.RoundsPlayed,
			TotalRounds:      TotalRounds,
			Streak:           sess.Streak,
			CorrectGuesses:   sess.CorrectGuesses,
			IncorrectGuesses: sess.IncorrectGuesses,
			MaxStreak:        sess.MaxStreak,
		}, nil
	}

	pair := sess.Pairs[sess.RoundsPlayed]
	items, err := s.supplier.MaterializeRound(ctx, pair)
	if err != nil {
		return nil, err
	}

	// 严格大于：同分时第二条不算"更高"
	higherID := items[1].ID
	if items[0].Score > items[1].Score {
		higherID = items[0].ID
	}
	if err := s.store.SetPendingAnswer(ctx, username, higherID); err != nil {
		return nil, storeFailure(err)
	}

	roundToken, err := token.SignRound(token.RoundPayload{GameID: sess.GameID, Round: sess.RoundsPlayed + 1})
	if err != nil {
		return nil, fmt.Errorf("无法生成回合令牌: %w", err)
	}

	return &Result{
		Posts:            items,
		GameComplete:     nil,
		CurrentRound:     sess.RoundsPlayed + 1,
		TotalRounds:      TotalRounds,
		Streak:           sess.Streak,
		CorrectGuesses:   sess.CorrectGuesses,
		IncorrectGuesses: sess.IncorrectGuesses,
		MaxStreak:        sess.MaxStreak,
		RoundToken:       roundToken,
	}, nil
}

// SubmitGuess 受理一次猜测：判定对错、推进计数器，
// 然后立即产出下一回合（或触发结算）。
// 返回值依次为：是否猜对、本回合的正确答案ID、下一回合结果。
func (s *Service) SubmitGuess(ctx context.Context, username, itemID, roundToken string) (bool, string, *Result, error) {
	if err := requireUser(username); err != nil {
		return false, "", nil, err
	}

	pending, err := s.store.GetPendingAnswer(ctx, username)
	if err != nil {
		return false, "", nil, storeFailure(err)
	}
	if pending == "" {
		return false, "", nil, newError(KindNoActiveRound, "没有等待猜测的回合")
	}

	// 可选的回合令牌校验：令牌对不上说明客户端回合已经落后
	if roundToken != "" {
		sess, err := s.activeSession(ctx, username)
		if err != nil {
			return false, "", nil, err
		}
		if sess == nil {
			return false, "", nil, newError(KindNoActiveSession, "没有进行中的游戏，请开始新游戏")
		}
		payload := token.RoundPayload{GameID: sess.GameID, Round: sess.RoundsPlayed + 1}
		if !token.ValidateRound(payload, roundToken) {
			return false, "", nil, newError(KindNoActiveRound, "回合令牌已失效，请重新拉取当前回合")
		}
	}

	correct := itemID == pending

	// 计数器先落库，再读回推进后的会话产出下一回合。
	// 两步之间崩溃时，恢复只依赖存储中的计数，不依赖内存状态。
	if _, err := s.store.ApplyGuess(ctx, username, correct); err != nil {
		return false, "", nil, storeFailure(err)
	}

	result, err := s.NextRound(ctx, username)
	if err != nil {
		return false, "", nil, err
	}
	return correct, pending, result, nil
}

// completeGame 在回合打满后结算一局：
// 天梯结算 → 删除会话与答案 → 写入到下一个UTC零点的每日锁。
func (s *Service) completeGame(ctx context.Context, username string, sess *Session) (*Completion, error) {
	now := s.now()

	rank, rating, err := s.finalize(ctx, username, sess.MaxStreak, sess.CorrectGuesses, sess.IncorrectGuesses, now)
	if err != nil {
		return nil, err
	}

	if err := s.cleanupSession(ctx, username); err != nil {
		return nil, err
	}
	// 旧版锁此时已无意义，顺手清掉
	if err := s.store.DeleteLegacyLock(ctx, username); err != nil {
		return nil, storeFailure(err)
	}

	// TTL向上取整到整秒，保证锁活到UTC零点之后
	ttl := timeUntilNextUTCDay(now)
	ttl = time.Duration(math.Ceil(ttl.Seconds())) * time.Second
	if err := s.store.SetDailyLock(ctx, username, dayKey(now), ttl); err != nil {
		return nil, storeFailure(err)
	}

	return &Completion{
		Rank:             rank,
		Score:            rating,
		TotalRounds:      TotalRounds,
		CorrectGuesses:   sess.CorrectGuesses,
		IncorrectGuesses: sess.IncorrectGuesses,
		MaxStreak:        sess.MaxStreak,
		Accuracy:         int(math.Round(float64(sess.CorrectGuesses) / TotalRounds * 100)),
		CompletedAt:      now.UnixMilli(),
	}, nil
}

// AbandonGame 放弃当前会话。
// 不计入完成、不写每日锁、不动累计统计；之后能否开新局只取决于每日锁。
func (s *Service) AbandonGame(ctx context.Context, username string) error {
	if err := requireUser(username); err != nil {
		return err
	}
	return s.cleanupSession(ctx, username)
}

// Status 汇总用户当前的游戏状态，供客户端决定渲染哪种界面。
func (s *Service) Status(ctx context.Context, username string) (*Status, error) {
	if err := requireUser(username); err != nil {
		return nil, err
	}
	now := s.now()

	status := &Status{}

	hasPlayedToday, err := s.store.HasDailyLock(ctx, username, dayKey(now))
	if err != nil {
		return nil, storeFailure(err)
	}
	if hasPlayedToday {
		status.HasPlayedToday = true
		status.TimeUntilNextGame = timeUntilNextUTCDay(now).Milliseconds()
	}

	sess, err := s.activeSession(ctx, username)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		isActive := sess.RoundsPlayed < TotalRounds
		status.GameStatus = &SessionView{
			Pairs:            sess.Pairs,
			RoundsPlayed:     sess.RoundsPlayed,
			CorrectGuesses:   sess.CorrectGuesses,
			IncorrectGuesses: sess.IncorrectGuesses,
			Streak:           sess.Streak,
			MaxStreak:        sess.MaxStreak,
			StartedAt:        sess.StartedAt,
			IsActive:         isActive,
		}
		if isActive {
			status.HasActiveGame = true
			status.CanResume = true
			status.CurrentRound = sess.RoundsPlayed + 1
			if !status.HasPlayedToday {
				status.TimeUntilNextGame = sess.TimeLeft(now).Milliseconds()
			}
		}
	}

	check, err := s.CanStartNewGame(ctx, username)
	if err != nil {
		return nil, err
	}
	status.CanStartNewGame = check.CanStart

	return status, nil
}
