// Package weather はOpenWeatherMap APIとの連携を提供する。
// 座標・都市名による現在天気の取得と、都市名のジオコーディング検索を含む。
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/tenkimark/internal/model"
)

const (
	// defaultWeatherEndpoint は現在天気取得APIのエンドポイント。
	defaultWeatherEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	// defaultGeocodingEndpoint はジオコーディングAPIのエンドポイント。
	defaultGeocodingEndpoint = "https://api.openweathermap.org/geo/1.0/direct"
	// maxSearchLimit は都市検索1回あたりの最大取得件数。
	maxSearchLimit = 10
)

// ErrUnauthorized はAPIキーが無効な場合のエラー。
var ErrUnauthorized = errors.New("weather provider rejected the API key")

// ErrNotFound は指定した都市が見つからない場合のエラー。
var ErrNotFound = errors.New("city not found")

// CallRecorder はプロバイダー呼び出しのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type CallRecorder interface {
	RecordProviderCall(outcome string, duration time.Duration)
}

// Client はOpenWeatherMap APIのクライアント。
// リトライは行わず、1回の呼び出し失敗をそのまま結果とする。
type Client struct {
	httpClient        *http.Client
	logger            *slog.Logger
	apiKey            string
	weatherEndpoint   string // テスト用にエンドポイントを差し替え可能
	geocodingEndpoint string
	recorder          CallRecorder
}

// Config はClientの設定。
type Config struct {
	APIKey            string
	WeatherEndpoint   string // 空の場合はデフォルトを使用
	GeocodingEndpoint string
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderがnilの場合はメトリクスを記録しない。
func NewClient(httpClient *http.Client, logger *slog.Logger, config Config, recorder CallRecorder) *Client {
	weatherEndpoint := config.WeatherEndpoint
	if weatherEndpoint == "" {
		weatherEndpoint = defaultWeatherEndpoint
	}
	geocodingEndpoint := config.GeocodingEndpoint
	if geocodingEndpoint == "" {
		geocodingEndpoint = defaultGeocodingEndpoint
	}
	return &Client{
		httpClient:        httpClient,
		logger:            logger,
		apiKey:            config.APIKey,
		weatherEndpoint:   weatherEndpoint,
		geocodingEndpoint: geocodingEndpoint,
		recorder:          recorder,
	}
}

// currentWeatherResponse はOpenWeatherMapの現在天気レスポンス。
type currentWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// CurrentByCoordinates は座標を指定して現在天気を取得する。
func (c *Client) CurrentByCoordinates(ctx context.Context, lat, lon float64) (*model.CurrentWeather, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetchCurrent(ctx, query)
}

// CurrentByCity は都市名を指定して現在天気を取得する。
// 都市が見つからない場合はErrNotFoundを返す。
func (c *Client) CurrentByCity(ctx context.Context, city string) (*model.CurrentWeather, error) {
	query := url.Values{}
	query.Set("q", city)
	return c.fetchCurrent(ctx, query)
}

// fetchCurrent は現在天気APIを呼び出し、レスポンスをドメインモデルに変換する。
func (c *Client) fetchCurrent(ctx context.Context, query url.Values) (*model.CurrentWeather, error) {
	query.Set("appid", c.apiKey)
	query.Set("units", "imperial")

	body, err := c.get(ctx, c.weatherEndpoint, query)
	if err != nil {
		return nil, err
	}

	var resp currentWeatherResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("天気レスポンスのパースに失敗しました: %w", err)
	}

	description := ""
	if len(resp.Weather) > 0 {
		description = resp.Weather[0].Description
	}

	return &model.CurrentWeather{
		WeatherSnapshot: model.WeatherSnapshot{
			Temperature: int(math.Round(resp.Main.Temp)),
			Description: description,
			Humidity:    resp.Main.Humidity,
			Pressure:    resp.Main.Pressure,
			WindSpeed:   resp.Wind.Speed,
		},
		City:    resp.Name,
		Country: resp.Sys.Country,
	}, nil
}

// geocodingResult はジオコーディングAPIのレスポンス1件。
type geocodingResult struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// SearchCities は都市名のあいまい検索を行う。
// queryが2文字未満の場合はAPIを呼び出さず空の結果を返す。
// limitは1〜10の範囲にクランプする。
func (c *Client) SearchCities(ctx context.Context, searchQuery string, limit int) ([]model.CityMatch, error) {
	if len(searchQuery) < 2 {
		return []model.CityMatch{}, nil
	}
	if limit < 1 {
		limit = 5
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	query := url.Values{}
	query.Set("q", searchQuery)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("appid", c.apiKey)

	body, err := c.get(ctx, c.geocodingEndpoint, query)
	if err != nil {
		return nil, err
	}

	var results []geocodingResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("ジオコーディングレスポンスのパースに失敗しました: %w", err)
	}

	matches := make([]model.CityMatch, len(results))
	for i, r := range results {
		matches[i] = model.CityMatch{
			Name:    r.Name,
			Country: r.Country,
			State:   r.State,
			Lat:     r.Lat,
			Lon:     r.Lon,
		}
	}
	return matches, nil
}

// get はGETリクエストを実行し、レスポンスボディを返す。
// HTTPステータスを401→ErrUnauthorized、404→ErrNotFoundに変換する。
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Tenkimark/1.0 Weather Favorites")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.record("network_error", duration)
		c.logger.Error("天気プロバイダーの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.record("unauthorized", duration)
		c.logger.Error("天気プロバイダーがAPIキーを拒否しました")
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		c.record("not_found", duration)
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.record("http_error", duration)
		c.logger.Error("天気プロバイダーがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("天気プロバイダーがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record("read_error", duration)
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	c.record("success", duration)
	return body, nil
}

// record はメトリクスを記録する。recorderが未設定の場合は何もしない。
func (c *Client) record(outcome string, duration time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordProviderCall(outcome, duration)
	}
}
