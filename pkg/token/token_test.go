package token

import "testing"

func init() {
	GenerateSecretKey()
}

func TestSignAndValidateRound(t *testing.T) {
	payload := RoundPayload{GameID: "0198b2a0-0000-7000-8000-000000000001", Round: 3}

	signature, err := SignRound(payload)
	if err != nil {
		t.Fatalf("SignRound失败: %v", err)
	}
	if signature == "" {
		t.Fatal("签名不应为空")
	}

	if !ValidateRound(payload, signature) {
		t.Error("原始payload应通过校验")
	}
}

func TestValidateRejectsTamperedPayload(t *testing.T) {
	payload := RoundPayload{GameID: "game-a", Round: 3}
	signature, err := SignRound(payload)
	if err != nil {
		t.Fatalf("SignRound失败: %v", err)
	}

	if ValidateRound(RoundPayload{GameID: "game-a", Round: 4}, signature) {
		t.Error("回合号被篡改的payload不应通过校验")
	}
	if ValidateRound(RoundPayload{GameID: "game-b", Round: 3}, signature) {
		t.Error("GameID被篡改的payload不应通过校验")
	}
}

func TestValidateRejectsMalformedSignature(t *testing.T) {
	payload := RoundPayload{GameID: "game-a", Round: 1}

	if ValidateRound(payload, "not-base64!!!") {
		t.Error("非法Base64签名不应通过校验")
	}
	if ValidateRound(payload, "") {
		t.Error("空签名不应通过校验")
	}
}

func TestSignaturesDifferAcrossRounds(t *testing.T) {
	first, err := SignRound(RoundPayload{GameID: "game-a", Round: 1})
	if err != nil {
		t.Fatalf("SignRound失败: %v", err)
	}
	second, err := SignRound(RoundPayload{GameID: "game-a", Round: 2})
	if err != nil {
		t.Fatalf("SignRound失败: %v", err)
	}
	if first == second {
		t.Error("不同回合的签名不应相同")
	}
}
