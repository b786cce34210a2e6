package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tenkimark/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusRecorder    middleware.StatusRecorder

	// メトリクス公開
	MetricsHandler http.Handler

	// サービス
	AuthService     AuthServiceInterface
	WeatherService  WeatherServiceInterface
	FavoriteService FavoriteServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → CORSMiddleware → LoggingMiddleware → AuthMiddleware → RateLimitMiddleware
//
// 認証ルート（/auth/register, /auth/login）と公開天気ルート（/api/weather/*）は
// 認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))

	authHandler := NewAuthHandler(deps.AuthService)
	weatherHandler := NewWeatherHandler(deps.WeatherService)
	favHandler := NewFavoriteHandler(deps.FavoriteService)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 登録・ログイン
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		// GET /auth/me のみベアラートークンが必要
		r.With(middleware.NewAuthMiddleware(deps.TokenVerifier)).Get("/me", authHandler.Me)
	})

	// 公開天気エンドポイント
	r.Route("/api/weather", func(r chi.Router) {
		r.Get("/", weatherHandler.GetByCity)
		r.Get("/coordinates", weatherHandler.GetByCoordinates)
		r.Get("/search", weatherHandler.Search)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// お気に入り管理
		r.Route("/api/favorites", func(r chi.Router) {
			// POST /api/favorites - お気に入り登録（登録専用レート制限を追加）
			r.With(deps.RateLimiter.FavoriteAddMiddleware()).Post("/", favHandler.Add)

			r.Get("/", favHandler.List)
			r.Get("/check", favHandler.Check)
			r.Delete("/{id}", favHandler.Remove)
		})
	})

	return r
}

// newHealthHandler はDB接続を確認するヘルスチェックハンドラーを返す。
// 接続不可の場合は503を返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
