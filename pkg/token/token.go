package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// secretKey 是服务器在启动时生成的32字节密钥。
var secretKey []byte

// RoundPayload 定义了需要被签名的回合数据。
// 它随每个GameResult下发，并在提交猜测时被回传校验，
// 用于确认客户端提交的猜测确实针对当前回合。
type RoundPayload struct {
	GameID string `json:"g"`
	Round  int    `json:"r"`
}

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
func GenerateSecretKey() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	fmt.Println("HMAC密钥已成功生成。")
}

// SignRound 为一个给定的RoundPayload生成HMAC签名。
// 返回签名的Base64编码字符串。
func SignRound(payload RoundPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", errors.New("无法序列化Round payload")
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	signature := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(signature), nil
}

// ValidateRound 验证一个给定的payload和签名是否匹配。
func ValidateRound(payload RoundPayload, signatureB64 string) bool {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	expectedSignature := mac.Sum(nil)

	actualSignature, err := base64.RawURLEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}

	// 使用 hmac.Equal 进行时间恒定的比较，防止时序攻击
	return hmac.Equal(expectedSignature, actualSignature)
}
