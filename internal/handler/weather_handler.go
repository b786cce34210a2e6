package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/tenkimark/internal/model"
	"github.com/hitoshi/tenkimark/internal/weather"
)

// WeatherServiceInterface は天気ハンドラーが必要とするサービスインターフェース。
// weather.Clientがそのまま満たす。
type WeatherServiceInterface interface {
	// CurrentByCity は都市名から現在天気を取得する。
	CurrentByCity(ctx context.Context, city string) (*model.CurrentWeather, error)
	// CurrentByCoordinates は座標から現在天気を取得する。
	CurrentByCoordinates(ctx context.Context, lat, lon float64) (*model.CurrentWeather, error)
	// SearchCities は都市名のジオコーディング検索を行う。
	SearchCities(ctx context.Context, query string, limit int) ([]model.CityMatch, error)
}

// WeatherHandler は公開天気エンドポイントのHTTPハンドラー。
type WeatherHandler struct {
	service WeatherServiceInterface
}

// NewWeatherHandler はWeatherHandlerを生成する。
func NewWeatherHandler(service WeatherServiceInterface) *WeatherHandler {
	return &WeatherHandler{
		service: service,
	}
}

// GetByCity は都市名指定の現在天気取得を処理する。
// GET /api/weather?city=
func (h *WeatherHandler) GetByCity(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("cityパラメータを指定してください。"))
		return
	}

	current, err := h.service.CurrentByCity(r.Context(), city)
	if err != nil {
		handleWeatherError(w, err, city)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(current)
}

// GetByCoordinates は座標指定の現在天気取得を処理する。
// GET /api/weather/coordinates?lat=&lon=
func (h *WeatherHandler) GetByCoordinates(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoordinates(w, r)
	if !ok {
		return
	}

	current, err := h.service.CurrentByCoordinates(r.Context(), lat, lon)
	if err != nil {
		handleWeatherError(w, err, "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(current)
}

// Search は都市名のあいまい検索を処理する。
// GET /api/weather/search?query=&limit=
// queryが2文字未満の場合は空の配列を返す。
func (h *WeatherHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 10 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("limitは1から10の範囲で指定してください。"))
			return
		}
		limit = n
	}

	matches, err := h.service.SearchCities(r.Context(), query, limit)
	if err != nil {
		handleWeatherError(w, err, query)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(matches)
}

// handleWeatherError は天気プロバイダーのエラーをHTTPレスポンスに変換する。
// 都市未検出は404、それ以外のプロバイダー障害は502として返す。
// APIキー無効はクライアントの責任ではないため、詳細はログのみに記録する。
func handleWeatherError(w http.ResponseWriter, err error, city string) {
	if errors.Is(err, weather.ErrNotFound) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCityNotFoundError(city))
		return
	}

	slog.Error("weather provider call failed", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusBadGateway, model.NewWeatherUnavailableError())
}

// parseCoordinates はクエリパラメータlat/lonを解析・検証する。
// 不正な場合は400レスポンスを書き込みfalseを返す。
func parseCoordinates(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("latは-90から90の範囲で指定してください。"))
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("lonは-180から180の範囲で指定してください。"))
		return 0, 0, false
	}
	return lat, lon, true
}
