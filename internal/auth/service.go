// Package auth はカカオOAuth認証フローとJWTトークン管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/readingclub/internal/metrics"
	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Nickname       string
	ProfileImage   string
	Provider       string // "kakao" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（カカオ以外）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// TokenPair はログイン・リフレッシュで発行されるトークンの対。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *model.User
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	RefreshTokenExpiry time.Duration
}

// nicknameRetryLimit はニックネーム重複時のサフィックス再試行上限。
const nicknameRetryLimit = 100

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth     OAuthProvider
	codec     TokenCodec
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	collector metrics.MetricsCollector
	config    ServiceConfig
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	codec TokenCodec,
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:     oauth,
		codec:     codec,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		collector: collector,
		config:    config,
		now:       time.Now,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// Login は認可コードでログインし、トークン対を発行する。
// 未登録ユーザーの場合はusersレコードを自動作成する。
// ニックネームが既存ユーザーと重複する場合は数値サフィックスを付けて再試行する。
func (s *Service) Login(ctx context.Context, code string) (*TokenPair, error) {
	if code == "" {
		return nil, model.NewValidationError("認可コードが指定されていません。")
	}

	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.collector.RecordLoginFailure("upstream")
		slog.Error("oauth code exchange failed", slog.String("error", err.Error()))
		return nil, model.NewUpstreamAuthError(err.Error())
	}

	// 2. 既存ユーザーの検索、いなければ新規作成
	user, err := s.findOrCreateUser(ctx, userInfo)
	if err != nil {
		s.collector.RecordLoginFailure("internal")
		slog.Error("login failed during user resolution", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", model.NewLoginFailedError(), err)
	}

	// 3. トークン対を発行
	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		s.collector.RecordLoginFailure("internal")
		slog.Error("login failed during token issuance", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", model.NewLoginFailedError(), err)
	}

	s.collector.RecordLoginSuccess()
	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("provider", userInfo.Provider),
	)
	return pair, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークン対を発行する。
// 使用されたリフレッシュトークンは削除され、再利用できない（ローテーション）。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, model.NewValidationError("リフレッシュトークンが指定されていません。")
	}

	// 1. 署名と有効期限の検証
	claims, err := s.codec.Validate(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, model.NewInvalidTokenError()
	}

	// 2. 保存済みトークンとの照合。未登録のトークンは盗用の可能性があるため拒否する。
	stored, err := s.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	if stored == nil {
		return nil, model.NewTokenNotFoundError()
	}
	if stored.IsExpired(s.now()) {
		// 期限切れトークンは掃除しておく
		if err := s.tokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
			slog.Warn("failed to delete expired refresh token", slog.String("error", err.Error()))
		}
		return nil, model.NewTokenExpiredError()
	}

	// 3. ユーザーの存在確認
	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	// 4. 旧トークンを削除してから新しい対を発行する（ローテーション）
	if err := s.tokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.collector.RecordTokenRefresh()
	slog.Info("token refreshed", slog.Int64("user_id", user.ID))
	return pair, nil
}

// Logout は指定ユーザーの全リフレッシュトークンを削除する。
// 全デバイスからのログアウトに相当する。
func (s *Service) Logout(ctx context.Context, userID int64) error {
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}

	slog.Info("user logged out", slog.Int64("user_id", userID))
	return nil
}

// Validate はアクセストークンを検証し、クレームを返す。
// リフレッシュトークンをアクセストークンとして使うことはできない。
func (s *Service) Validate(tokenString string) (*TokenClaims, error) {
	claims, err := s.codec.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, model.NewInvalidTokenError()
	}
	return claims, nil
}

// findOrCreateUser はカカオIDで既存ユーザーを検索し、いなければ作成する。
// ニックネームのUNIQUE制約違反時は数値サフィックスを付けて再試行する。
func (s *Service) findOrCreateUser(ctx context.Context, info *OAuthUserInfo) (*model.User, error) {
	existing, err := s.userRepo.FindByKakaoID(ctx, info.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by kakao id: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	base := info.Nickname
	if base == "" {
		base = "reader"
	}

	now := s.now()
	user := &model.User{
		KakaoID:      info.ProviderUserID,
		Nickname:     base,
		ProfileImage: info.ProfileImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// UNIQUE制約に任せ、衝突したらサフィックスを増やして再試行する。
	// 事前のSELECTによる重複チェックでは同時登録の競合を防げない。
	for i := 0; i <= nicknameRetryLimit; i++ {
		if i > 0 {
			user.Nickname = fmt.Sprintf("%s%d", base, i)
		}
		err := s.userRepo.Create(ctx, user)
		if err == nil {
			slog.Info("new user created",
				slog.Int64("user_id", user.ID),
				slog.String("nickname", user.Nickname),
			)
			return user, nil
		}
		if !errors.Is(err, model.ErrDuplicateNickname) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to find unique nickname for %q", base)
}

// issueTokenPair はアクセス・リフレッシュトークンの対を発行し、
// リフレッシュトークンを永続化する。
func (s *Service) issueTokenPair(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := s.codec.IssueAccessToken(user.ID, user.KakaoID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	now := s.now()
	record := &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
