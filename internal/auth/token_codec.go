package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/readingclub/internal/model"
)

// トークン種別を表すカスタムクレーム値。
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenCodec はJWTの発行と検証のインターフェース。
type TokenCodec interface {
	// IssueAccessToken はアクセストークンを発行する。
	IssueAccessToken(userID int64, kakaoID string) (string, error)
	// IssueRefreshToken はリフレッシュトークンを発行する。
	// リフレッシュトークンはユーザーIDのみを運び、カカオIDクレームを含めない。
	IssueRefreshToken(userID int64) (string, error)
	// Validate はトークンの署名と有効期限を検証し、クレームを返す。
	// 検証に失敗した場合はmodel.APIErrorを返す。
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims はアプリケーションのJWTクレーム。
// subにはユーザーIDの10進文字列表現を格納する。
type TokenClaims struct {
	KakaoID   string `json:"kakaoId"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID はsubクレームからユーザーIDを取り出す。
func (c *TokenClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim: %w", err)
	}
	return id, nil
}

// jwtCodec はHMAC-SHA256署名によるTokenCodecの実装。
type jwtCodec struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewJWTCodec はTokenCodecの新しいインスタンスを生成する。
func NewJWTCodec(secret string, accessExpiry, refreshExpiry time.Duration) *jwtCodec {
	return &jwtCodec{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

// IssueAccessToken はアクセストークンを発行する。
func (c *jwtCodec) IssueAccessToken(userID int64, kakaoID string) (string, error) {
	return c.issue(userID, kakaoID, TokenTypeAccess, c.accessExpiry)
}

// IssueRefreshToken はリフレッシュトークンを発行する。
// ローテーション時のユーザー情報はトークンではなく保存済みレコードから復元するため、
// カカオIDクレームは空にする。
func (c *jwtCodec) IssueRefreshToken(userID int64) (string, error) {
	return c.issue(userID, "", TokenTypeRefresh, c.refreshExpiry)
}

// issue は指定種別・有効期間のJWTを署名して返す。
func (c *jwtCodec) issue(userID int64, kakaoID, tokenType string, expiry time.Duration) (string, error) {
	now := c.now()
	claims := &TokenClaims{
		KakaoID:   kakaoID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate はトークンの署名と有効期限を検証し、クレームを返す。
// 署名方式がHS256以外の場合、改ざんされている場合、期限切れの場合は
// いずれもINVALID_TOKENエラーを返す。
func (c *jwtCodec) Validate(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, model.NewInvalidTokenError()
	}
	if !token.Valid {
		return nil, model.NewInvalidTokenError()
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, model.NewInvalidTokenError()
	}
	return claims, nil
}

// compile-time interface check
var _ TokenCodec = (*jwtCodec)(nil)
