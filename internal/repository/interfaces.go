// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByKakaoID はカカオIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByKakaoID(ctx context.Context, kakaoID string) (*model.User, error)

	// ExistsByNickname はニックネームが既に使用されているかを返す。
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	// nicknameのUNIQUE制約違反の場合はmodel.ErrDuplicateNicknameを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はニックネームとプロフィール画像を更新する。
	// nicknameのUNIQUE制約違反の場合はmodel.ErrDuplicateNicknameを返す。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するデータはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// RefreshTokenRepository はリフレッシュトークンの永続化インターフェース。
type RefreshTokenRepository interface {
	// Create はリフレッシュトークンを保存する。
	Create(ctx context.Context, token *model.RefreshToken) error

	// FindByToken はトークン文字列でトークンを検索する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)

	// DeleteByToken は指定トークンを削除する。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error

	// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// BookRepository は読了本データの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの本を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Book, error)

	// ListByUserID はユーザーの読了本一覧をfinished_date降順で返す。
	ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Book, int64, error)

	// SearchByUserID はタイトル・著者の部分一致で絞り込んだ読了本一覧を返す。
	// searchが空の場合は絞り込まない。sortは"rating"のとき評価降順、それ以外はfinished_date降順。
	SearchByUserID(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error)

	// ExistsByUserAndTitle は同一ユーザーが同タイトル・同著者の本を登録済みかを返す。
	ExistsByUserAndTitle(ctx context.Context, userID int64, title, author string) (bool, error)

	// Create は本を作成し、採番されたIDをbook.IDに設定する。
	Create(ctx context.Context, book *model.Book) error

	// Update は本の情報を更新する。
	Update(ctx context.Context, book *model.Book) error

	// DeleteByID は指定IDの本を削除する。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全読了本を削除する。
	DeleteByUserID(ctx context.Context, userID int64) error

	// CountByUserID はユーザーの読了本数を返す。
	CountByUserID(ctx context.Context, userID int64) (int64, error)

	// AverageRatingByUserID はユーザーの全読了本の平均評価を返す。読了本がない場合は0。
	AverageRatingByUserID(ctx context.Context, userID int64) (float64, error)

	// CountByUserIDAndYear は指定年の読了本数を返す。
	CountByUserIDAndYear(ctx context.Context, userID int64, year int) (int64, error)

	// MonthlyStatsByUserID はユーザーの月別読了数と平均評価を返す。
	// finished_dateの月で集計し、月の昇順で返す。
	MonthlyStatsByUserID(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error)
}

// CurrentlyReadingRepository は読書中データの永続化インターフェース。
type CurrentlyReadingRepository interface {
	// FindByID は指定IDの読書中レコードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.CurrentlyReading, error)

	// ListByUserID はユーザーの読書中一覧をstarted_date降順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error)

	// Create は読書中レコードを作成し、採番されたIDを設定する。
	Create(ctx context.Context, reading *model.CurrentlyReading) error

	// Update は読書中レコードを更新する。
	Update(ctx context.Context, reading *model.CurrentlyReading) error

	// DeleteByID は指定IDの読書中レコードを削除する。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全読書中レコードを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// DroppedBookRepository は中断本データの永続化インターフェース。
type DroppedBookRepository interface {
	// FindByID は指定IDの中断本を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.DroppedBook, error)

	// ListByUserID はユーザーの中断本一覧をdropped_date降順で返す。
	ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error)

	// Create は中断本を作成し、採番されたIDを設定する。
	Create(ctx context.Context, dropped *model.DroppedBook) error

	// Update は中断本の情報を更新する。
	Update(ctx context.Context, dropped *model.DroppedBook) error

	// DeleteByID は指定IDの中断本を削除する。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全中断本を削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// WishlistRepository は読みたい本データの永続化インターフェース。
type WishlistRepository interface {
	// FindByID は指定IDの読みたい本を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Wishlist, error)

	// ListByUserID はユーザーの読みたい本一覧をpriority降順、created_at降順で返す。
	ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Wishlist, int64, error)

	// ExistsByUserAndTitle は同一ユーザーが同タイトル・同著者の本を登録済みかを返す。
	ExistsByUserAndTitle(ctx context.Context, userID int64, title, author string) (bool, error)

	// Create は読みたい本を作成し、採番されたIDを設定する。
	Create(ctx context.Context, wishlist *model.Wishlist) error

	// Update は読みたい本の情報を更新する。
	Update(ctx context.Context, wishlist *model.Wishlist) error

	// DeleteByID は指定IDの読みたい本を削除する。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全読みたい本を削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// ReadingGroupRepository は読書会グループの永続化インターフェース。
type ReadingGroupRepository interface {
	// FindByID は指定IDのグループをメンバー数付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.ReadingGroup, error)

	// FindByInviteCode は招待コードでグループを検索する。見つからない場合はnilを返す。
	FindByInviteCode(ctx context.Context, inviteCode string) (*model.ReadingGroup, error)

	// ListPublic は公開中のactiveなグループ一覧をcreated_at降順で返す。
	// searchが空でない場合はグループ名・課題本タイトルの部分一致で絞り込む。
	ListPublic(ctx context.Context, search string, page model.PageRequest) ([]*model.ReadingGroup, int64, error)

	// ListByMemberUserID はユーザーが所属するグループ一覧を返す。
	ListByMemberUserID(ctx context.Context, userID int64) ([]*model.ReadingGroup, error)

	// Create はグループを作成し、採番されたIDを設定する。
	Create(ctx context.Context, group *model.ReadingGroup) error

	// Update はグループ情報を更新する。
	Update(ctx context.Context, group *model.ReadingGroup) error

	// DeleteByID は指定IDのグループを削除する。
	// メンバー、ミーティング、課題図書、投稿はCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// GroupMemberRepository はグループメンバーの永続化インターフェース。
type GroupMemberRepository interface {
	// FindByGroupAndUser はグループIDとユーザーIDでメンバーを検索する。見つからない場合はnilを返す。
	FindByGroupAndUser(ctx context.Context, groupID, userID int64) (*model.GroupMember, error)

	// ListByGroupID はグループのactiveメンバー一覧をjoined_at昇順で返す。
	ListByGroupID(ctx context.Context, groupID int64) ([]*model.GroupMember, error)

	// CountActiveByGroupID はグループのactiveメンバー数を返す。
	CountActiveByGroupID(ctx context.Context, groupID int64) (int, error)

	// Create はメンバーを作成する。
	// 同一グループ・ユーザーのUNIQUE制約違反の場合はmodel.ErrDuplicateMemberを返す。
	Create(ctx context.Context, member *model.GroupMember) error

	// UpdateRole はメンバーのロールを更新する。
	UpdateRole(ctx context.Context, id int64, role model.MemberRole) error

	// UpdateStatus はメンバーのステータスを更新する。
	UpdateStatus(ctx context.Context, id int64, status model.MemberStatus) error

	// DeleteByID は指定IDのメンバーを削除する。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全メンバーシップを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// GroupMeetingRepository はグループミーティングの永続化インターフェース。
type GroupMeetingRepository interface {
	// FindByID は指定IDのミーティングを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.GroupMeeting, error)

	// ListByGroupID はグループのミーティング一覧をmeeting_date昇順で返す。
	ListByGroupID(ctx context.Context, groupID int64) ([]*model.GroupMeeting, error)

	// ListUpcomingByGroupID はグループの未来のミーティング一覧をmeeting_date昇順で返す。
	ListUpcomingByGroupID(ctx context.Context, groupID int64, now time.Time) ([]*model.GroupMeeting, error)

	// Create はミーティングを作成し、採番されたIDを設定する。
	Create(ctx context.Context, meeting *model.GroupMeeting) error

	// Update はミーティング情報を更新する。
	Update(ctx context.Context, meeting *model.GroupMeeting) error

	// DeleteByID は指定IDのミーティングを削除する。
	DeleteByID(ctx context.Context, id int64) error
}

// MonthlyBookRepository は月間課題図書の永続化インターフェース。
type MonthlyBookRepository interface {
	// FindByID は指定IDの課題図書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.MonthlyBook, error)

	// FindByGroupAndYearMonth はグループIDと年月で課題図書を検索する。見つからない場合はnilを返す。
	FindByGroupAndYearMonth(ctx context.Context, groupID int64, yearMonth string) (*model.MonthlyBook, error)

	// ListByGroupID はグループの課題図書一覧をyear_month降順で返す。
	ListByGroupID(ctx context.Context, groupID int64) ([]*model.MonthlyBook, error)

	// Create は課題図書を作成する。
	// 同一グループ・年月のUNIQUE制約違反の場合はmodel.ErrDuplicateMonthlyBookを返す。
	Create(ctx context.Context, book *model.MonthlyBook) error

	// UpdateStatus は課題図書のステータスを更新する。
	UpdateStatus(ctx context.Context, id int64, status model.BookStatus) error

	// DeleteByID は指定IDの課題図書を削除する。
	DeleteByID(ctx context.Context, id int64) error
}

// BookReviewRepository は課題図書の感想の永続化インターフェース。
type BookReviewRepository interface {
	// FindByID は指定IDの感想を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.BookReview, error)

	// FindByMonthlyBookAndUser は課題図書IDとユーザーIDで感想を検索する。見つからない場合はnilを返す。
	FindByMonthlyBookAndUser(ctx context.Context, monthlyBookID, userID int64) (*model.BookReview, error)

	// ListByMonthlyBookID は課題図書の感想一覧をcreated_at降順で返す。
	ListByMonthlyBookID(ctx context.Context, monthlyBookID int64) ([]*model.BookReview, error)

	// Create は感想を作成する。
	// 同一課題図書・ユーザーのUNIQUE制約違反の場合はmodel.ErrDuplicateReviewを返す。
	Create(ctx context.Context, review *model.BookReview) error

	// Update は感想の評価と本文を更新する。
	Update(ctx context.Context, review *model.BookReview) error

	// DeleteByID は指定IDの感想を削除する。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全感想を削除する。
	DeleteByUserID(ctx context.Context, userID int64) error

	// StatisticsByMonthlyBookID は課題図書の感想数と平均評価を返す。
	StatisticsByMonthlyBookID(ctx context.Context, monthlyBookID int64) (*model.ReviewStatistics, error)
}

// PostRepository はコミュニティ投稿の永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿をコメント数付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// List は投稿一覧をコメント数付きでcreated_at降順で返す。
	// postTypeが空でない場合は種別で、searchが空でない場合はタイトル・本文の部分一致で絞り込む。
	List(ctx context.Context, postType model.PostType, search string, page model.PageRequest) ([]*model.Post, int64, error)

	// ListByUserID は指定ユーザーの投稿一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Post, int64, error)

	// Create は投稿を作成し、採番されたIDを設定する。
	Create(ctx context.Context, post *model.Post) error

	// Update は投稿のタイトルと本文を更新する。
	Update(ctx context.Context, post *model.Post) error

	// DeleteByID は指定IDの投稿を削除する。コメントはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全投稿を削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// CommentRepository は投稿コメントの永続化インターフェース。
type CommentRepository interface {
	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Comment, error)

	// ListByPostID は投稿のコメント一覧をcreated_at昇順で返す。
	ListByPostID(ctx context.Context, postID int64) ([]*model.Comment, error)

	// ListRepliesByParentID は指定コメントへの返信一覧をcreated_at昇順で返す。
	ListRepliesByParentID(ctx context.Context, parentCommentID int64) ([]*model.Comment, error)

	// Create はコメントを作成し、採番されたIDを設定する。
	Create(ctx context.Context, comment *model.Comment) error

	// Update はコメントの本文を更新する。
	Update(ctx context.Context, comment *model.Comment) error

	// DeleteByID は指定IDのコメントを削除する。返信はCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID はユーザーの全コメントを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
