package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tenkimark/internal/favorite"
	"github.com/hitoshi/tenkimark/internal/middleware"
	"github.com/hitoshi/tenkimark/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	// Add はお気に入りを登録し、天気付きで返す。
	Add(ctx context.Context, userID string, input favorite.AddInput) (*model.FavoriteWithWeather, error)
	// Remove は指定ユーザー所有のお気に入りを削除する。
	Remove(ctx context.Context, userID, favoriteID string) error
	// ListWithWeather はお気に入り一覧を天気付きで返す。
	ListWithWeather(ctx context.Context, userID string) ([]model.FavoriteWithWeather, error)
	// IsFavorite は指定座標がお気に入り登録済みかを返す。
	IsFavorite(ctx context.Context, userID string, latitude, longitude float64) (bool, error)
}

// FavoriteHandler はお気に入り管理のHTTPハンドラー。
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{
		service: service,
	}
}

// addFavoriteRequest はお気に入り登録リクエストのボディ。
type addFavoriteRequest struct {
	CityName  string  `json:"city_name"`
	Country   string  `json:"country"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// favoriteResponse はお気に入りのAPIレスポンス。
// weatherはエンリッチ成功時のみ含まれる。
type favoriteResponse struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	CityName  string                 `json:"city_name"`
	Country   string                 `json:"country"`
	State     string                 `json:"state,omitempty"`
	Latitude  float64                `json:"latitude"`
	Longitude float64                `json:"longitude"`
	CreatedAt time.Time              `json:"created_at"`
	Weather   *model.WeatherSnapshot `json:"weather,omitempty"`
}

// checkFavoriteResponse はお気に入り存在確認のAPIレスポンス。
type checkFavoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// Add はお気に入り登録を処理する。
// POST /api/favorites
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req addFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.CityName == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("都市名を指定してください。"))
		return
	}
	if req.Country == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("国コードを指定してください。"))
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("latitudeは-90から90の範囲で指定してください。"))
		return
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("longitudeは-180から180の範囲で指定してください。"))
		return
	}

	result, err := h.service.Add(r.Context(), userID, favorite.AddInput{
		CityName:  req.CityName,
		Country:   req.Country,
		State:     req.State,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toFavoriteResponse(result))
}

// List はお気に入り一覧を天気付きで取得する。
// GET /api/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	results, err := h.service.ListWithWeather(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]favoriteResponse, len(results))
	for i := range results {
		responses[i] = toFavoriteResponse(&results[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Remove はお気に入り削除を処理する。
// DELETE /api/favorites/:id
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	favoriteID := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), userID, favoriteID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Check は指定座標のお気に入り登録状況を返す。
// GET /api/favorites/check?lat=&lon=
func (h *FavoriteHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	lat, lon, ok := parseCoordinates(w, r)
	if !ok {
		return
	}

	isFav, err := h.service.IsFavorite(r.Context(), userID, lat, lon)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(checkFavoriteResponse{IsFavorite: isFav})
}

// --- ヘルパー関数 ---

// toFavoriteResponse はmodel.FavoriteWithWeatherからAPIレスポンスに変換する。
func toFavoriteResponse(f *model.FavoriteWithWeather) favoriteResponse {
	return favoriteResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		CityName:  f.CityName,
		Country:   f.Country,
		State:     f.State,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		CreatedAt: f.CreatedAt,
		Weather:   f.Weather,
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeEmailTaken, model.ErrCodeDuplicateFavorite:
		return http.StatusConflict
	case model.ErrCodeUserNotFound, model.ErrCodeFavoriteNotFound, model.ErrCodeCityNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeWeatherUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
