package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/readingclub/internal/auth"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// GetLoginURL はカカオの認可画面URLを返す。
	GetLoginURL(state string) string
	// Login は認可コードでログインし、トークン対を発行する。
	Login(ctx context.Context, code string) (*auth.TokenPair, error)
	// Refresh はリフレッシュトークンをローテーションし、新しい対を発行する。
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	// Logout は指定ユーザーの全リフレッシュトークンを削除する。
	Logout(ctx context.Context, userID int64) error
	// Validate はアクセストークンを検証し、クレームを返す。
	Validate(tokenString string) (*auth.TokenClaims, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// tokenPairResponse はログイン・リフレッシュのレスポンス。
type tokenPairResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func toTokenPairResponse(pair *auth.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserResponse(pair.User),
	}
}

// KakaoLogin はカカオの認可画面へリダイレクトする。
// stateはフロントエンドがCSRF対策用に生成し、コールバックで自身で検証する。
// GET /api/auth/kakao/login?state=
func (h *AuthHandler) KakaoLogin(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// KakaoCallback はカカオOAuthのコールバックを処理し、ログインを完了する。
// GET /api/auth/kakao/callback?code=
func (h *AuthHandler) KakaoCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	pair, err := h.service.Login(r.Context(), code)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toTokenPairResponse(pair))
}

// Refresh はリフレッシュトークンで新しいトークン対を発行する。
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toTokenPairResponse(pair))
}

// Logout は全デバイスからログアウトする。
// POST /api/auth/logout (Authorization: Bearer)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.bearerClaims(w, r)
	if !ok {
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil)
}

// validateResponse はトークン検証のレスポンス。
type validateResponse struct {
	Valid   bool   `json:"valid"`
	UserID  int64  `json:"userId"`
	KakaoID string `json:"kakaoId"`
}

// Validate はアクセストークンを検証する。
// GET /api/auth/validate (Authorization: Bearer)
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.bearerClaims(w, r)
	if !ok {
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		writeUnauthorized(w)
		return
	}

	writeSuccess(w, http.StatusOK, validateResponse{
		Valid:   true,
		UserID:  userID,
		KakaoID: claims.KakaoID,
	})
}

// bearerClaims はAuthorizationヘッダーのBearerトークンを検証してクレームを返す。
// 失敗時は401を書き込み、falseを返す。
func (h *AuthHandler) bearerClaims(w http.ResponseWriter, r *http.Request) (*auth.TokenClaims, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		writeUnauthorized(w)
		return nil, false
	}

	claims, err := h.service.Validate(token)
	if err != nil {
		// 検証エラーの詳細は返さず、一律401にする
		writeUnauthorized(w)
		return nil, false
	}

	return claims, true
}
