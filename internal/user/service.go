// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
)

const maxNicknameLength = 20

// Service はユーザー管理のサービス層。
// プロフィール取得・更新、読書統計、退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo     repository.UserRepository
	tokenRepo    repository.RefreshTokenRepository
	bookRepo     repository.BookRepository
	readingRepo  repository.CurrentlyReadingRepository
	droppedRepo  repository.DroppedBookRepository
	wishlistRepo repository.WishlistRepository
	memberRepo   repository.GroupMemberRepository
	groupRepo    repository.ReadingGroupRepository
	reviewRepo   repository.BookReviewRepository
	commentRepo  repository.CommentRepository
	postRepo     repository.PostRepository
	sanitizer    security.ContentSanitizerService
	guard        security.URLGuardService
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	bookRepo repository.BookRepository,
	readingRepo repository.CurrentlyReadingRepository,
	droppedRepo repository.DroppedBookRepository,
	wishlistRepo repository.WishlistRepository,
	memberRepo repository.GroupMemberRepository,
	groupRepo repository.ReadingGroupRepository,
	reviewRepo repository.BookReviewRepository,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	guard security.URLGuardService,
) *Service {
	return &Service{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		bookRepo:     bookRepo,
		readingRepo:  readingRepo,
		droppedRepo:  droppedRepo,
		wishlistRepo: wishlistRepo,
		memberRepo:   memberRepo,
		groupRepo:    groupRepo,
		reviewRepo:   reviewRepo,
		commentRepo:  commentRepo,
		postRepo:     postRepo,
		sanitizer:    sanitizer,
		guard:        guard,
		now:          time.Now,
	}
}

// Profile は指定ユーザーのプロフィールを取得する。
func (s *Service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はニックネームとプロフィール画像を更新する。
// ニックネームが他ユーザーと重複する場合はVALIDATION_FAILEDを返す。
func (s *Service) UpdateProfile(ctx context.Context, userID int64, nickname, profileImage string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	nickname = strings.TrimSpace(s.sanitizer.SanitizeStrict(nickname))
	if nickname == "" {
		return nil, model.NewValidationError("ニックネームを入力してください。")
	}
	if len([]rune(nickname)) > maxNicknameLength {
		return nil, model.NewValidationError("ニックネームは20文字以内で入力してください。")
	}

	if profileImage != "" {
		if err := s.guard.ValidateImageURL(profileImage); err != nil {
			return nil, model.NewValidationError("プロフィール画像のURLが不正です。")
		}
	}

	user.Nickname = nickname
	user.ProfileImage = profileImage

	if err := s.userRepo.Update(ctx, user); err != nil {
		if isDuplicateNickname(err) {
			return nil, model.NewValidationError("このニックネームはすでに使用されています。")
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	return user, nil
}

// Statistics は読書活動の集計を返す。
func (s *Service) Statistics(ctx context.Context, userID int64) (*model.UserStatistics, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	totalBooks, err := s.bookRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("読了本数の集計に失敗しました: %w", err)
	}

	avgRating, err := s.bookRepo.AverageRatingByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("平均評価の集計に失敗しました: %w", err)
	}

	booksThisYear, err := s.bookRepo.CountByUserIDAndYear(ctx, userID, s.now().Year())
	if err != nil {
		return nil, fmt.Errorf("年間読了数の集計に失敗しました: %w", err)
	}

	readings, err := s.readingRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("読書中一覧の取得に失敗しました: %w", err)
	}

	_, droppedCount, err := s.droppedRepo.ListByUserID(ctx, userID, model.NewPageRequest(0, 1))
	if err != nil {
		return nil, fmt.Errorf("中断本の集計に失敗しました: %w", err)
	}

	_, wishlistCount, err := s.wishlistRepo.ListByUserID(ctx, userID, model.NewPageRequest(0, 1))
	if err != nil {
		return nil, fmt.Errorf("読みたい本の集計に失敗しました: %w", err)
	}

	groups, err := s.groupRepo.ListByMemberUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("所属グループの集計に失敗しました: %w", err)
	}

	return &model.UserStatistics{
		TotalBooks:       int(totalBooks),
		CurrentlyReading: len(readings),
		DroppedBooks:     int(droppedCount),
		WishlistCount:    int(wishlistCount),
		GroupCount:       len(groups),
		AverageRating:    avgRating,
		BooksThisYear:    int(booksThisYear),
	}, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: リフレッシュトークン → 本棚（読了・読書中・中断・読みたい本）→
// グループメンバーシップ → 感想 → コメント → 投稿 → ユーザー本体。
func (s *Service) Withdraw(ctx context.Context, userID int64) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.Int64("user_id", userID),
	)

	// 1. リフレッシュトークンを削除（全デバイスのセッションを失効）
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("リフレッシュトークンの削除に失敗しました: %w", err)
	}

	// 2. 本棚のデータを削除
	if err := s.bookRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("読了本の削除に失敗しました: %w", err)
	}
	if err := s.readingRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("読書中レコードの削除に失敗しました: %w", err)
	}
	if err := s.droppedRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("中断本の削除に失敗しました: %w", err)
	}
	if err := s.wishlistRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("読みたい本の削除に失敗しました: %w", err)
	}

	// 3. グループメンバーシップを削除
	if err := s.memberRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("グループメンバーシップの削除に失敗しました: %w", err)
	}

	// 4. 感想・コメント・投稿を削除（コメントは投稿より先に削除する）
	if err := s.reviewRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("感想の削除に失敗しました: %w", err)
	}
	if err := s.commentRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	if err := s.postRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	// 5. ユーザーを削除（残余の関連行はCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.Int64("user_id", userID),
	)

	return nil
}

func isDuplicateNickname(err error) bool {
	return errors.Is(err, model.ErrDuplicateNickname)
}
