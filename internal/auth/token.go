// Package auth はトークン発行・検証とユーザー登録/ログインのビジネスロジックを提供する。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークン検証失敗を示すセンチネルエラー。
// 署名不一致・ペイロード不正・期限切れのいずれもこのエラーに集約する。
// 検証失敗は「未認証」であり、致命的エラーとして扱ってはならない。
var ErrInvalidToken = errors.New("invalid token")

// TokenService は署名付きIDトークンの発行と検証を行う。
// トークンはステートレスであり、サーバー側の失効リストは持たない。
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService はTokenServiceを生成する。
// ttlが0以下の場合はデフォルトの7日間を使用する。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue は指定ユーザーIDに紐づく署名付きトークンを発行する。
// 有効期限は発行時刻からTTL（デフォルト7日）後。
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、有効な場合はユーザーIDを返す。
// 署名不一致・ペイロード不正・期限切れの場合はErrInvalidTokenを返す。
// このメソッドから他のエラーが漏れることはない。
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
