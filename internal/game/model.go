package game

import (
	"fmt"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/content"
)

// TotalRounds 是一局每日游戏的固定回合数
const TotalRounds = 10

// sessionLifetime 是一局会话的最长存活时间，超过即视为过期
const sessionLifetime = 24 * time.Hour

// --- 错误分类 ---

// ErrorKind 标识游戏操作失败的类别，供客户端分支处理。
type ErrorKind string

const (
	KindNotAuthenticated   ErrorKind = "NotAuthenticated"
	KindDailyLimitReached  ErrorKind = "DailyLimitReached"
	KindActiveGameExists   ErrorKind = "ActiveGameExists"
	KindNoActiveSession    ErrorKind = "NoActiveSession"
	KindNoActiveRound      ErrorKind = "NoActiveRound"
	KindContentFetchFailed ErrorKind = "ContentFetchFailed"
	KindStoreUnavailable   ErrorKind = "StoreUnavailable"
)

// Error 是携带分类信息的游戏错误。
// DailyLimitReached / ActiveGameExists 属于预期的控制流结果，
// TimeLeft 为客户端展示倒计时用（毫秒，0表示无）。
type Error struct {
	Kind     ErrorKind
	Message  string
	TimeLeft int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func newErrorWithTimeLeft(kind ErrorKind, message string, timeLeft time.Duration) *Error {
	return &Error{Kind: kind, Message: message, TimeLeft: timeLeft.Milliseconds()}
}

// storeFailure 把底层存储错误折叠为StoreUnavailable。
// 本层不做重试，由请求边界决定重试策略。
func storeFailure(err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: err.Error()}
}

// --- 会话模型 ---

// Session 是一个用户进行中的每日游戏会话。
// 存活期不超过24小时，完成、过期或放弃后删除。
type Session struct {
	// GameID 是本局的唯一标识，用于回合令牌
	GameID string

	// Pairs 是本局10个回合的分类对，创建后不再变动
	Pairs [][2]string

	// 回合计数器，恒有 RoundsPlayed == CorrectGuesses + IncorrectGuesses
	RoundsPlayed     int
	CorrectGuesses   int
	IncorrectGuesses int

	// Streak 是当前连对数，答错归零；MaxStreak 是本局出现过的最大连对
	Streak    int
	MaxStreak int

	// StartedAt 是会话创建时刻（毫秒时间戳）
	StartedAt int64
}

// IsExpired 判断会话是否已超出24小时存活期。
func (s *Session) IsExpired(now time.Time) bool {
	return now.Sub(time.UnixMilli(s.StartedAt)) >= sessionLifetime
}

// IsActive 判断会话是否仍可继续：未打满回合且未过期。
func (s *Session) IsActive(now time.Time) bool {
	return s.RoundsPlayed < TotalRounds && !s.IsExpired(now)
}

// TimeLeft 返回会话距离24小时边界的剩余时间。
func (s *Session) TimeLeft(now time.Time) time.Duration {
	return sessionLifetime - now.Sub(time.UnixMilli(s.StartedAt))
}

// --- 对外数据形态 ---

// Completion 是一局完成后的结算摘要。
type Completion struct {
	Rank             int64 `json:"rank"`
	Score            int   `json:"score"`
	TotalRounds      int   `json:"totalRounds"`
	CorrectGuesses   int   `json:"correctGuesses"`
	IncorrectGuesses int   `json:"incorrectGuesses"`
	MaxStreak        int   `json:"maxStreak"`
	Accuracy         int   `json:"accuracy"`
	CompletedAt      int64 `json:"completedAt"`
}

// Result 是回合接口统一返回的数据包。
// Posts 为 null 且 GameComplete 非空表示本局已结束。
type Result struct {
	Posts            []content.Item `json:"posts"`
	GameComplete     *Completion    `json:"gameComplete"`
	CurrentRound     int            `json:"currentRound"`
	TotalRounds      int            `json:"totalRounds"`
	Streak           int            `json:"streak"`
	CorrectGuesses   int            `json:"correctGuesses"`
	IncorrectGuesses int            `json:"incorrectGuesses"`
	MaxStreak        int            `json:"maxStreak"`
	// RoundToken 是当前回合的签名令牌，提交猜测时回传可校验回合一致性
	RoundToken string `json:"roundToken,omitempty"`
}

// SessionView 是会话在状态接口中的只读视图。
type SessionView struct {
	Pairs            [][2]string `json:"categoryPairs"`
	RoundsPlayed     int         `json:"roundsPlayed"`
	CorrectGuesses   int         `json:"correctGuesses"`
	IncorrectGuesses int         `json:"incorrectGuesses"`
	Streak           int         `json:"streak"`
	MaxStreak        int         `json:"maxStreak"`
	StartedAt        int64       `json:"gameStartTime"`
	IsActive         bool        `json:"isActive"`
}

// Status 是 GetGameStatus 的响应模型。
type Status struct {
	HasActiveGame     bool         `json:"hasActiveGame"`
	GameStatus        *SessionView `json:"status"`
	CanStartNewGame   bool         `json:"canStartNewGame"`
	HasPlayedToday    bool         `json:"hasPlayedToday"`
	TimeUntilNextGame int64        `json:"timeUntilNextGame"`
	CanResume         bool         `json:"canResume"`
	CurrentRound      int          `json:"currentRound,omitempty"`
}

// StartCheck 是 CanStartNewGame 的结果。
type StartCheck struct {
	CanStart bool
	Reason   ErrorKind
	TimeLeft time.Duration
}
