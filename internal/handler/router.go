package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/readingclub/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenValidator    middleware.TokenValidator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           middleware.HTTPMetricsRecorder // nilの場合はメトリクスを記録しない
	HealthChecker     HealthChecker

	// 認証
	AuthService AuthServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// 本棚（読了・読書中・中断・読みたい）
	BookService     BookServiceInterface
	Catalog         CatalogSearcher
	ReadingService  ReadingServiceInterface
	WishlistService WishlistServiceInterface

	// 読書グループ
	GroupService GroupServiceInterface

	// コミュニティ
	PostService PostServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Metrics → Logging → Auth → RateLimit(General)
//
// 認証不要のルート（/healthz、/api/auth/*、/api/books/search）は
// 認証ミドルウェアの外に配置する。書き込み系ルートには専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	bookHandler := NewBookHandler(deps.BookService, deps.Catalog)
	readingHandler := NewReadingHandler(deps.ReadingService)
	wishlistHandler := NewWishlistHandler(deps.WishlistService)
	groupHandler := NewGroupHandler(deps.GroupService)
	postHandler := NewPostHandler(deps.PostService)

	// --- 認証不要のルート ---

	r.Get("/healthz", NewHealthHandler(deps.HealthChecker))

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/kakao/login", authHandler.KakaoLogin)
		r.Get("/kakao/callback", authHandler.KakaoCallback)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Get("/validate", authHandler.Validate)
	})

	// 外部書誌検索はログイン前の画面でも使う
	r.Get("/api/books/search", bookHandler.Search)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenValidator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		write := deps.RateLimiter.WriteMiddleware()

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.With(write).Put("/me", userHandler.UpdateMe)
			r.Get("/me/statistics", userHandler.Statistics)
			r.With(write).Delete("/me", userHandler.Withdraw)
		})

		// 読了本
		r.Route("/api/books", func(r chi.Router) {
			r.Get("/", bookHandler.List)
			r.With(write).Post("/", bookHandler.Create)
			r.Get("/statistics/monthly", bookHandler.MonthlyStatistics)
			r.Get("/check-duplicate", bookHandler.CheckDuplicate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookHandler.Get)
				r.With(write).Put("/", bookHandler.Update)
				r.With(write).Delete("/", bookHandler.Delete)
			})
		})

		// 読書中
		r.Route("/api/currently-reading", func(r chi.Router) {
			r.Get("/", readingHandler.ListReading)
			r.With(write).Post("/", readingHandler.CreateReading)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", readingHandler.GetReading)
				r.With(write).Put("/", readingHandler.UpdateReading)
				r.With(write).Patch("/progress", readingHandler.UpdateProgress)
				r.With(write).Delete("/", readingHandler.DeleteReading)
			})
		})

		// 中断本
		r.Route("/api/dropped-books", func(r chi.Router) {
			r.Get("/", readingHandler.ListDropped)
			r.With(write).Post("/", readingHandler.CreateDropped)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", readingHandler.GetDropped)
				r.With(write).Put("/", readingHandler.UpdateDropped)
				r.With(write).Delete("/", readingHandler.DeleteDropped)
			})
		})

		// 読みたい本
		r.Route("/api/wishlists", func(r chi.Router) {
			r.Get("/", wishlistHandler.List)
			r.With(write).Post("/", wishlistHandler.Create)
			r.Get("/check-duplicate", wishlistHandler.CheckDuplicate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", wishlistHandler.Get)
				r.With(write).Put("/", wishlistHandler.Update)
				r.With(write).Delete("/", wishlistHandler.Delete)
			})
		})

		// 読書グループ
		r.Route("/api/reading-groups", func(r chi.Router) {
			r.Get("/", groupHandler.List)
			r.With(write).Post("/", groupHandler.Create)
			r.Get("/my", groupHandler.ListMy)
			r.With(write).Post("/join", groupHandler.Join)

			// 個別リソース（グループIDに紐付かない操作）
			r.With(write).Put("/meetings/{id}", groupHandler.UpdateMeeting)
			r.With(write).Delete("/meetings/{id}", groupHandler.DeleteMeeting)
			r.Route("/monthly-books/{id}", func(r chi.Router) {
				r.With(write).Patch("/status", groupHandler.UpdateMonthlyBookStatus)
				r.Get("/reviews", groupHandler.ListReviews)
				r.With(write).Post("/reviews", groupHandler.PostReview)
			})
			r.Route("/reviews/{id}", func(r chi.Router) {
				r.With(write).Put("/", groupHandler.UpdateReview)
				r.With(write).Delete("/", groupHandler.DeleteReview)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", groupHandler.Get)
				r.With(write).Put("/", groupHandler.Update)
				r.With(write).Delete("/", groupHandler.Delete)
				r.With(write).Post("/leave", groupHandler.Leave)
				r.With(write).Post("/invite-code", groupHandler.RegenerateInviteCode)

				r.Get("/members", groupHandler.ListMembers)
				r.With(write).Delete("/members/{userId}", groupHandler.RemoveMember)

				r.Get("/meetings", groupHandler.ListMeetings)
				r.With(write).Post("/meetings", groupHandler.CreateMeeting)

				r.Get("/monthly-books", groupHandler.ListMonthlyBooks)
				r.Get("/monthly-books/current", groupHandler.CurrentMonthlyBook)
				r.With(write).Post("/monthly-books", groupHandler.SelectMonthlyBook)
			})
		})

		// コミュニティ投稿
		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.With(write).Post("/", postHandler.Create)
			r.Get("/my", postHandler.ListMine)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Get)
				r.With(write).Put("/", postHandler.Update)
				r.With(write).Delete("/", postHandler.Delete)

				r.Get("/comments", postHandler.ListComments)
				r.With(write).Post("/comments", postHandler.CreateComment)
			})
		})

		// コメント
		r.Route("/api/comments/{id}", func(r chi.Router) {
			r.With(write).Put("/", postHandler.UpdateComment)
			r.With(write).Delete("/", postHandler.DeleteComment)
			r.Get("/replies", postHandler.ListReplies)
		})
	})

	return r
}
