package favorite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/tenkimark/internal/model"
	"github.com/hitoshi/tenkimark/internal/repository"
)

// --- モック定義 ---

type mockFavoriteRepo struct {
	createFn            func(ctx context.Context, favorite *model.Favorite) error
	deleteByUserAndIDFn func(ctx context.Context, userID, favoriteID string) error
	listByUserIDFn      func(ctx context.Context, userID string) ([]*model.Favorite, error)
	existsFn            func(ctx context.Context, userID string, latitude, longitude float64) (bool, error)
}

func (m *mockFavoriteRepo) Create(ctx context.Context, favorite *model.Favorite) error {
	if m.createFn != nil {
		return m.createFn(ctx, favorite)
	}
	return nil
}

func (m *mockFavoriteRepo) DeleteByUserAndID(ctx context.Context, userID, favoriteID string) error {
	if m.deleteByUserAndIDFn != nil {
		return m.deleteByUserAndIDFn(ctx, userID, favoriteID)
	}
	return nil
}

func (m *mockFavoriteRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Favorite, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFavoriteRepo) ExistsByUserAndCoords(ctx context.Context, userID string, latitude, longitude float64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID, latitude, longitude)
	}
	return false, nil
}

var _ repository.FavoriteRepository = (*mockFavoriteRepo)(nil)

type mockWeatherProvider struct {
	currentByCoordinatesFn func(ctx context.Context, lat, lon float64) (*model.CurrentWeather, error)
}

func (m *mockWeatherProvider) CurrentByCoordinates(ctx context.Context, lat, lon float64) (*model.CurrentWeather, error) {
	if m.currentByCoordinatesFn != nil {
		return m.currentByCoordinatesFn(ctx, lat, lon)
	}
	return nil, errors.New("no weather configured")
}

var _ WeatherProvider = (*mockWeatherProvider)(nil)

type mockMetricsRecorder struct {
	mu              sync.Mutex
	added           int
	removed         int
	enrichmentFails int
}

func (m *mockMetricsRecorder) RecordFavoriteAdded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added++
}

func (m *mockMetricsRecorder) RecordFavoriteRemoved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed++
}

func (m *mockMetricsRecorder) RecordEnrichmentFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrichmentFails++
}

var _ MetricsRecorder = (*mockMetricsRecorder)(nil)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// sunnyWeather は常に固定の晴れ天気を返すプロバイダー。
func sunnyWeather() *mockWeatherProvider {
	return &mockWeatherProvider{
		currentByCoordinatesFn: func(_ context.Context, _, _ float64) (*model.CurrentWeather, error) {
			return &model.CurrentWeather{
				WeatherSnapshot: model.WeatherSnapshot{
					Temperature: 72,
					Description: "clear sky",
					Humidity:    60,
					Pressure:    1013,
					WindSpeed:   3.2,
				},
			}, nil
		},
	}
}

// --- テスト ---

func TestAdd_Succeeds_WithWeather(t *testing.T) {
	var created *model.Favorite
	repo := &mockFavoriteRepo{
		createFn: func(_ context.Context, fav *model.Favorite) error {
			created = fav
			return nil
		},
	}
	recorder := &mockMetricsRecorder{}
	svc := NewService(repo, sunnyWeather(), newTestLogger(), recorder, 0)

	result, err := svc.Add(context.Background(), "user-1", AddInput{
		CityName:  "Tokyo",
		Country:   "JP",
		Latitude:  35.6762,
		Longitude: 139.6503,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if created == nil {
		t.Fatal("expected favorite to be persisted")
	}
	if created.ID == "" {
		t.Error("expected generated favorite ID")
	}
	if created.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", created.UserID)
	}

	if result.Weather == nil {
		t.Fatal("expected weather snapshot")
	}
	if result.Weather.Temperature != 72 {
		t.Errorf("Temperature = %d, want 72", result.Weather.Temperature)
	}
	if recorder.added != 1 {
		t.Errorf("added counter = %d, want 1", recorder.added)
	}
}

func TestAdd_WeatherFailure_StillSucceeds(t *testing.T) {
	repo := &mockFavoriteRepo{}
	provider := &mockWeatherProvider{
		currentByCoordinatesFn: func(_ context.Context, _, _ float64) (*model.CurrentWeather, error) {
			return nil, errors.New("provider down")
		},
	}
	recorder := &mockMetricsRecorder{}
	svc := NewService(repo, provider, newTestLogger(), recorder, 0)

	result, err := svc.Add(context.Background(), "user-1", AddInput{
		CityName: "Tokyo", Country: "JP", Latitude: 35.6762, Longitude: 139.6503,
	})
	if err != nil {
		t.Fatalf("Add must succeed even when enrichment fails: %v", err)
	}
	if result.Weather != nil {
		t.Error("expected nil weather on enrichment failure")
	}
	if recorder.enrichmentFails != 1 {
		t.Errorf("enrichment fail counter = %d, want 1", recorder.enrichmentFails)
	}
}

func TestAdd_Duplicate_ReturnsDuplicateFavorite(t *testing.T) {
	repo := &mockFavoriteRepo{
		createFn: func(_ context.Context, _ *model.Favorite) error {
			return repository.ErrDuplicate
		},
	}
	svc := NewService(repo, sunnyWeather(), newTestLogger(), nil, 0)

	_, err := svc.Add(context.Background(), "user-1", AddInput{
		CityName: "Tokyo", Country: "JP", Latitude: 35.6762, Longitude: 139.6503,
	})
	if err == nil {
		t.Fatal("expected error for duplicate favorite")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != model.ErrCodeDuplicateFavorite {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateFavorite)
	}
}

func TestRemove_Succeeds(t *testing.T) {
	var gotUserID, gotFavoriteID string
	repo := &mockFavoriteRepo{
		deleteByUserAndIDFn: func(_ context.Context, userID, favoriteID string) error {
			gotUserID = userID
			gotFavoriteID = favoriteID
			return nil
		},
	}
	recorder := &mockMetricsRecorder{}
	svc := NewService(repo, sunnyWeather(), newTestLogger(), recorder, 0)

	if err := svc.Remove(context.Background(), "user-1", "fav-1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if gotUserID != "user-1" || gotFavoriteID != "fav-1" {
		t.Errorf("delete called with (%q, %q), want (user-1, fav-1)", gotUserID, gotFavoriteID)
	}
	if recorder.removed != 1 {
		t.Errorf("removed counter = %d, want 1", recorder.removed)
	}
}

func TestRemove_NotFound(t *testing.T) {
	repo := &mockFavoriteRepo{
		deleteByUserAndIDFn: func(_ context.Context, _, _ string) error {
			return repository.ErrNotFound
		},
	}
	svc := NewService(repo, sunnyWeather(), newTestLogger(), nil, 0)

	err := svc.Remove(context.Background(), "user-1", "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != model.ErrCodeFavoriteNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeFavoriteNotFound)
	}
}

// listFixture はID順に作成日時が新しいお気に入りをn件返す。
func listFixture(n int) []*model.Favorite {
	favs := make([]*model.Favorite, n)
	base := time.Now()
	for i := range favs {
		favs[i] = &model.Favorite{
			ID:        fmt.Sprintf("fav-%d", i),
			UserID:    "user-1",
			CityName:  fmt.Sprintf("City %d", i),
			Country:   "JP",
			Latitude:  float64(i),
			Longitude: float64(i),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return favs
}

func TestListWithWeather_PreservesOrder(t *testing.T) {
	const n = 20
	repo := &mockFavoriteRepo{
		listByUserIDFn: func(_ context.Context, _ string) ([]*model.Favorite, error) {
			return listFixture(n), nil
		},
	}
	// 完了順が逆転するよう、若いインデックスほど遅延を大きくする
	provider := &mockWeatherProvider{
		currentByCoordinatesFn: func(_ context.Context, lat, _ float64) (*model.CurrentWeather, error) {
			time.Sleep(time.Duration(n-int(lat)) * time.Millisecond)
			return &model.CurrentWeather{
				WeatherSnapshot: model.WeatherSnapshot{Temperature: int(lat)},
			}, nil
		},
	}
	svc := NewService(repo, provider, newTestLogger(), nil, 5)

	results, err := svc.ListWithWeather(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListWithWeather failed: %v", err)
	}
	if len(results) != n {
		t.Fatalf("len(results) = %d, want %d", len(results), n)
	}

	// 結果はクエリ順（作成日時の降順）のまま返ること
	for i, r := range results {
		wantID := fmt.Sprintf("fav-%d", i)
		if r.ID != wantID {
			t.Errorf("results[%d].ID = %q, want %q", i, r.ID, wantID)
		}
		if r.Weather == nil {
			t.Errorf("results[%d].Weather is nil, want snapshot", i)
			continue
		}
		if r.Weather.Temperature != i {
			t.Errorf("results[%d].Weather.Temperature = %d, want %d", i, r.Weather.Temperature, i)
		}
	}
}

func TestListWithWeather_PartialEnrichmentFailure(t *testing.T) {
	repo := &mockFavoriteRepo{
		listByUserIDFn: func(_ context.Context, _ string) ([]*model.Favorite, error) {
			return listFixture(4), nil
		},
	}
	// 偶数インデックスの座標だけ失敗させる
	provider := &mockWeatherProvider{
		currentByCoordinatesFn: func(_ context.Context, lat, _ float64) (*model.CurrentWeather, error) {
			if int(lat)%2 == 0 {
				return nil, errors.New("provider down")
			}
			return &model.CurrentWeather{
				WeatherSnapshot: model.WeatherSnapshot{Temperature: int(lat)},
			}, nil
		},
	}
	recorder := &mockMetricsRecorder{}
	svc := NewService(repo, provider, newTestLogger(), recorder, 0)

	results, err := svc.ListWithWeather(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("a partial enrichment failure must not fail the list: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}

	for i, r := range results {
		if i%2 == 0 && r.Weather != nil {
			t.Errorf("results[%d].Weather = %+v, want nil", i, r.Weather)
		}
		if i%2 == 1 && r.Weather == nil {
			t.Errorf("results[%d].Weather is nil, want snapshot", i)
		}
	}
	if recorder.enrichmentFails != 2 {
		t.Errorf("enrichment fail counter = %d, want 2", recorder.enrichmentFails)
	}
}

func TestListWithWeather_AllEnrichmentFails(t *testing.T) {
	repo := &mockFavoriteRepo{
		listByUserIDFn: func(_ context.Context, _ string) ([]*model.Favorite, error) {
			return listFixture(3), nil
		},
	}
	provider := &mockWeatherProvider{
		currentByCoordinatesFn: func(_ context.Context, _, _ float64) (*model.CurrentWeather, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := NewService(repo, provider, newTestLogger(), nil, 0)

	results, err := svc.ListWithWeather(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListWithWeather failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Weather != nil {
			t.Errorf("results[%d].Weather = %+v, want nil", i, r.Weather)
		}
	}
}

func TestListWithWeather_EmptyList(t *testing.T) {
	repo := &mockFavoriteRepo{}
	called := false
	provider := &mockWeatherProvider{
		currentByCoordinatesFn: func(_ context.Context, _, _ float64) (*model.CurrentWeather, error) {
			called = true
			return nil, nil
		},
	}
	svc := NewService(repo, provider, newTestLogger(), nil, 0)

	results, err := svc.ListWithWeather(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListWithWeather failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
	if called {
		t.Error("weather provider must not be called for an empty list")
	}
}

func TestIsFavorite(t *testing.T) {
	repo := &mockFavoriteRepo{
		existsFn: func(_ context.Context, _ string, latitude, longitude float64) (bool, error) {
			return latitude == 35.6762 && longitude == 139.6503, nil
		},
	}
	svc := NewService(repo, sunnyWeather(), newTestLogger(), nil, 0)

	got, err := svc.IsFavorite(context.Background(), "user-1", 35.6762, 139.6503)
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if !got {
		t.Error("IsFavorite = false, want true for registered coordinates")
	}

	got, err = svc.IsFavorite(context.Background(), "user-1", 35.6763, 139.6503)
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if got {
		t.Error("IsFavorite = true, want false for nearby but different coordinates")
	}
}
