package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/readingclub/internal/auth"
	"github.com/hitoshi/readingclub/internal/book"
	"github.com/hitoshi/readingclub/internal/catalog"
	"github.com/hitoshi/readingclub/internal/config"
	"github.com/hitoshi/readingclub/internal/database"
	"github.com/hitoshi/readingclub/internal/group"
	"github.com/hitoshi/readingclub/internal/handler"
	"github.com/hitoshi/readingclub/internal/logger"
	"github.com/hitoshi/readingclub/internal/metrics"
	"github.com/hitoshi/readingclub/internal/middleware"
	"github.com/hitoshi/readingclub/internal/post"
	"github.com/hitoshi/readingclub/internal/reading"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
	"github.com/hitoshi/readingclub/internal/user"
	"github.com/hitoshi/readingclub/internal/wishlist"
	"github.com/hitoshi/readingclub/internal/worker/tokensweep"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandSweeper:
		return runSweeper(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// メトリクスは別ポートの運用系サーバーで公開する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	bookRepo := repository.NewPostgresBookRepo(db)
	readingRepo := repository.NewPostgresReadingRepo(db)
	droppedRepo := repository.NewPostgresDroppedRepo(db)
	wishlistRepo := repository.NewPostgresWishlistRepo(db)
	groupRepo := repository.NewPostgresGroupRepo(db)
	memberRepo := repository.NewPostgresMemberRepo(db)
	meetingRepo := repository.NewPostgresMeetingRepo(db)
	monthlyBookRepo := repository.NewPostgresMonthlyBookRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 3. セキュリティサービスとメトリクスの初期化
	sanitizer := security.NewContentSanitizer()
	guard := security.NewURLGuard()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	oauthProvider := auth.NewKakaoOAuthProvider(auth.KakaoOAuthConfig{
		ClientID:     cfg.KakaoClientID,
		ClientSecret: cfg.KakaoClientSecret,
		RedirectURL:  cfg.KakaoRedirectURL,
	}, guard.NewSafeClient(cfg.UpstreamTimeout))
	codec := auth.NewJWTCodec(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	authService := auth.NewService(
		oauthProvider, codec, userRepo, tokenRepo, collector,
		auth.ServiceConfig{RefreshTokenExpiry: cfg.RefreshTokenExpiry},
	)

	userService := user.NewService(
		userRepo, tokenRepo, bookRepo, readingRepo, droppedRepo, wishlistRepo,
		memberRepo, groupRepo, reviewRepo, commentRepo, postRepo,
		sanitizer, guard,
	)
	bookService := book.NewService(bookRepo, sanitizer, guard)
	readingService := reading.NewService(readingRepo, droppedRepo, sanitizer, guard)
	wishlistService := wishlist.NewService(wishlistRepo, sanitizer, guard)
	groupService := group.NewService(
		groupRepo, memberRepo, meetingRepo, monthlyBookRepo, reviewRepo,
		sanitizer, guard,
	)
	postService := post.NewService(postRepo, commentRepo, sanitizer)

	catalogClient := catalog.NewClient(
		catalog.Config{TTBKey: cfg.CatalogAPIKey},
		guard.NewSafeClient(cfg.CatalogTimeout),
	)

	// 5. レート制限の構成（configはreq/min単位、limiterはreq/sec単位）
	rlCfg := middleware.DefaultRateLimiterConfig()
	rlCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rlCfg.GeneralBurst = cfg.RateLimitGeneral
	rlCfg.WriteRate = rate.Limit(float64(cfg.RateLimitWrite) / 60.0)
	rlCfg.WriteBurst = cfg.RateLimitWrite
	rateLimiter := middleware.NewRateLimiter(rlCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		TokenValidator:    authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		HealthChecker:     db,

		AuthService: authService,
		UserService: userService,

		BookService:     bookService,
		Catalog:         catalogClient,
		ReadingService:  readingService,
		WishlistService: wishlistService,

		GroupService: groupService,

		PostService: postService,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// メトリクスは外部に公開しないため別ポートで提供する
	opsServer := &http.Server{
		Addr:        ":" + cfg.MetricsPort,
		Handler:     metrics.SetupMetricsRoute(registry),
		ReadTimeout: 15 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("metrics server starting",
			slog.String("addr", opsServer.Addr),
		)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := opsServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runSweeper は期限切れリフレッシュトークンの掃除ワーカーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runSweeper(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (sweeper)")

	// 2. スイーパーの初期化
	tokenRepo := repository.NewPostgresTokenRepo(db)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	sweeper := tokensweep.NewSweeper(tokenRepo, collector, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down sweeper...")
		cancel()
	}()

	slog.Info("sweeper starting",
		slog.Duration("sweep_interval", cfg.SweepInterval),
	)

	// スイーパーをメインgoroutineで実行（ブロッキング）
	sweeper.Start(ctx, cfg.SweepInterval)

	slog.Info("sweeper stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
