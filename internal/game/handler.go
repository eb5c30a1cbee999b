package game

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/SlpAus/reddit-higher-lower-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// apiResponse 是游戏接口的统一响应信封。
type apiResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	TimeLeft int64       `json:"timeLeft,omitempty"`
}

// GuessRequest 是提交猜测的请求体。RoundToken 可选。
type GuessRequest struct {
	GuessPostID string `json:"guessPostId" binding:"required"`
	RoundToken  string `json:"roundToken"`
}

// GuessResponse 是提交猜测的响应数据。
type GuessResponse struct {
	Correct       bool    `json:"correct"`
	CorrectPostID string  `json:"correctPostId"`
	GameResult    *Result `json:"gameResult"`
	Feedback      string  `json:"feedback"`
}

// respondError 把游戏错误翻译为HTTP响应。
// 预期的控制流结果（每日上限、已有对局）带倒计时返回409。
func respondError(c *gin.Context, err error) {
	var gameErr *Error
	if !errors.As(err, &gameErr) {
		c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Error: err.Error(), Message: "服务器内部错误，请稍后重试"})
		return
	}

	status := http.StatusInternalServerError
	switch gameErr.Kind {
	case KindNotAuthenticated:
		status = http.StatusUnauthorized
	case KindDailyLimitReached, KindActiveGameExists:
		status = http.StatusConflict
	case KindNoActiveSession, KindNoActiveRound:
		status = http.StatusNotFound
	case KindContentFetchFailed:
		status = http.StatusBadGateway
	case KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, apiResponse{
		Success:  false,
		Error:    string(gameErr.Kind),
		Message:  gameErr.Message,
		TimeLeft: gameErr.TimeLeft,
	})
}

// GetGameStatus 处理 GET /api/game/status
func GetGameStatus(c *gin.Context) {
	status, err := globalService.Status(c.Request.Context(), user.CurrentUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: status})
}

// StartGame 处理 POST /api/game/start
func StartGame(c *gin.Context) {
	result, err := globalService.StartGame(c.Request.Context(), user.CurrentUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: result, Message: "New game started successfully! Good luck!"})
}

// ResumeGame 处理 POST /api/game/resume
func ResumeGame(c *gin.Context) {
	result, err := globalService.ResumeGame(c.Request.Context(), user.CurrentUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}
	message := fmt.Sprintf("Resumed at round %d of %d", result.CurrentRound, result.TotalRounds)
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: result, Message: message})
}

// GetCurrentRound 处理 GET /api/game/round
func GetCurrentRound(c *gin.Context) {
	result, err := globalService.NextRound(c.Request.Context(), user.CurrentUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}

	message := fmt.Sprintf("Round %d of %d", result.CurrentRound, result.TotalRounds)
	if result.GameComplete != nil {
		message = "Congratulations! You have completed the daily game."
	}
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: result, Message: message})
}

// SubmitGuess 处理 POST /api/game/guess
func SubmitGuess(c *gin.Context) {
	var req GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Success: false, Error: "Missing guess post ID", Message: "Please select a post to make your guess."})
		return
	}

	correct, correctID, result, err := globalService.SubmitGuess(c.Request.Context(), user.CurrentUsername(c), req.GuessPostID, req.RoundToken)
	if err != nil {
		respondError(c, err)
		return
	}

	feedback := incorrectGuessFeedback(result)
	message := "Incorrect guess!"
	if correct {
		feedback = correctGuessFeedback(result.Streak)
		message = "Correct guess!"
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data: GuessResponse{
			Correct:       correct,
			CorrectPostID: correctID,
			GameResult:    result,
			Feedback:      feedback,
		},
		Message: message,
	})
}

// AbandonGame 处理 POST /api/game/abandon
func AbandonGame(c *gin.Context) {
	if err := globalService.AbandonGame(c.Request.Context(), user.CurrentUsername(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apiResponse{Success: true, Message: "Game abandoned successfully. You can start a new game anytime."})
}

// GetGameStats 处理 GET /api/game/stats：当前对局的进度统计。
func GetGameStats(c *gin.Context) {
	status, err := globalService.Status(c.Request.Context(), user.CurrentUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}

	view := status.GameStatus
	if view == nil {
		c.JSON(http.StatusOK, apiResponse{Success: true, Data: gin.H{"hasActiveGame": false}, Message: "No active game found"})
		return
	}

	accuracy := 0
	if view.RoundsPlayed > 0 {
		accuracy = int(math.Round(float64(view.CorrectGuesses) / float64(view.RoundsPlayed) * 100))
	}
	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data: gin.H{
			"currentRound":     view.RoundsPlayed + 1,
			"totalRounds":      TotalRounds,
			"correctGuesses":   view.CorrectGuesses,
			"incorrectGuesses": view.IncorrectGuesses,
			"currentStreak":    view.Streak,
			"maxStreak":        view.MaxStreak,
			"accuracy":         accuracy,
			"gameStartTime":    view.StartedAt,
			"isActive":         view.IsActive,
		},
	})
}

// GetGameRules 处理 GET /api/game/rules：静态的玩法说明。
func GetGameRules(c *gin.Context) {
	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data: gin.H{
			"title":       "Reddit Higher/Lower Game",
			"description": "Guess which Reddit post has a higher score!",
			"rules": []string{
				"Each game consists of 10 rounds",
				"In each round, you'll see two Reddit posts from different subreddits",
				"Your goal is to guess which post has the higher score (upvotes - downvotes)",
				"Correct guesses build your streak and improve your score",
				"Wrong guesses reset your streak",
				"Complete all 10 rounds to finish the game",
				"You can play one game per day",
				"Your final score affects your position on the leaderboard",
			},
			"scoring": gin.H{
				"correctGuess":   "Increases streak and score",
				"incorrectGuess": "Resets streak",
				"maxStreak":      "Best consecutive correct guesses in the game",
				"finalScore":     "Based on total correct guesses and max streak",
			},
		},
	})
}

func correctGuessFeedback(streak int) string {
	switch {
	case streak == 1:
		return "Great start! Keep it going!"
	case streak <= 3:
		return fmt.Sprintf("Nice! %d in a row!", streak)
	case streak <= 5:
		return fmt.Sprintf("Excellent streak! %d correct guesses!", streak)
	case streak <= 7:
		return fmt.Sprintf("Amazing! You're on fire with %d in a row!", streak)
	default:
		return fmt.Sprintf("Incredible! %d consecutive correct guesses!", streak)
	}
}

func incorrectGuessFeedback(result *Result) string {
	remaining := result.TotalRounds - result.CurrentRound + 1
	if result.GameComplete != nil {
		remaining = 0
	}
	switch {
	case remaining > 5:
		return "Don't worry, plenty of rounds left to recover!"
	case remaining > 2:
		return "Keep going! You can still make a comeback!"
	default:
		return "Stay focused for the final rounds!"
	}
}
