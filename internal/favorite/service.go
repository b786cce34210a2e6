// Package favorite はお気に入り都市管理のドメインロジックを提供する。
// 登録・削除・一覧・存在確認と、読み取り時の天気エンリッチを含む。
package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/tenkimark/internal/model"
	"github.com/hitoshi/tenkimark/internal/repository"
)

// WeatherProvider はエンリッチに必要な天気取得インターフェース。
// weather.Clientの部分集合として定義する。
type WeatherProvider interface {
	CurrentByCoordinates(ctx context.Context, lat, lon float64) (*model.CurrentWeather, error)
}

// MetricsRecorder はお気に入り操作とエンリッチ失敗のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordFavoriteAdded()
	RecordFavoriteRemoved()
	RecordEnrichmentFailure()
}

// AddInput はお気に入り登録の入力。
type AddInput struct {
	CityName  string
	Country   string
	State     string
	Latitude  float64
	Longitude float64
}

// Service はお気に入り管理のサービス層。
// 天気エンリッチはベストエフォートであり、失敗しても
// お気に入り操作自体は成功として扱う。リトライは行わない。
type Service struct {
	favRepo       repository.FavoriteRepository
	weather       WeatherProvider
	logger        *slog.Logger
	recorder      MetricsRecorder
	maxConcurrent int
}

// NewService はServiceの新しいインスタンスを生成する。
// maxConcurrentが0以下の場合はデフォルト値10を使用する。
// recorderがnilの場合はメトリクスを記録しない。
func NewService(
	favRepo repository.FavoriteRepository,
	weather WeatherProvider,
	logger *slog.Logger,
	recorder MetricsRecorder,
	maxConcurrent int,
) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Service{
		favRepo:       favRepo,
		weather:       weather,
		logger:        logger,
		recorder:      recorder,
		maxConcurrent: maxConcurrent,
	}
}

// Add はお気に入りを登録し、天気スナップショット付きで返す。
// 同一ユーザー・同一座標が既に存在する場合はDUPLICATE_FAVORITEエラーを返す。
// 重複判定はDBのユニーク制約のみに依存する（並行登録の競合もこれで防ぐ）。
// 天気の取得に失敗した場合、Weatherはnilのまま登録結果を返す。
func (s *Service) Add(ctx context.Context, userID string, input AddInput) (*model.FavoriteWithWeather, error) {
	fav := &model.Favorite{
		ID:        uuid.New().String(),
		UserID:    userID,
		CityName:  input.CityName,
		Country:   input.Country,
		State:     input.State,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		CreatedAt: time.Now(),
	}

	if err := s.favRepo.Create(ctx, fav); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateFavoriteError()
		}
		return nil, fmt.Errorf("お気に入りの登録に失敗しました: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordFavoriteAdded()
	}

	return &model.FavoriteWithWeather{
		Favorite: *fav,
		Weather:  s.enrich(ctx, fav),
	}, nil
}

// Remove は指定ユーザー所有のお気に入りを削除する。
// 存在しない場合と他ユーザー所有の場合はどちらも
// FAVORITE_NOT_FOUNDエラーを返し、他ユーザーの登録状況を漏らさない。
func (s *Service) Remove(ctx context.Context, userID, favoriteID string) error {
	if err := s.favRepo.DeleteByUserAndID(ctx, userID, favoriteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewFavoriteNotFoundError(favoriteID)
		}
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	if s.recorder != nil {
		s.recorder.RecordFavoriteRemoved()
	}
	return nil
}

// ListWithWeather はユーザーのお気に入り一覧を天気付きで返す。
// 一覧は作成日時の降順（クエリ順）で返し、完了順には並べ替えない。
// 各お気に入りの天気は独立に並列取得し、一部の取得失敗は
// そのお気に入りをWeather=nilのまま含める（一覧全体は失敗しない）。
func (s *Service) ListWithWeather(ctx context.Context, userID string) ([]model.FavoriteWithWeather, error) {
	favs, err := s.favRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}

	results := make([]model.FavoriteWithWeather, len(favs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, fav := range favs {
		i, fav := i, fav
		g.Go(func() error {
			results[i] = model.FavoriteWithWeather{
				Favorite: *fav,
				Weather:  s.enrich(gctx, fav),
			}
			// エンリッチ失敗は一覧の失敗としない
			return nil
		})
	}
	// 各goroutineは常にnilを返すため、Waitのエラーは発生しない
	_ = g.Wait()

	return results, nil
}

// IsFavorite は指定座標がお気に入り登録済みかを返す。
// 座標は厳密一致で比較する。UIのスター表示切り替えに使用する。
func (s *Service) IsFavorite(ctx context.Context, userID string, latitude, longitude float64) (bool, error) {
	exists, err := s.favRepo.ExistsByUserAndCoords(ctx, userID, latitude, longitude)
	if err != nil {
		return false, fmt.Errorf("お気に入りの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// enrich はお気に入りの座標の現在天気を取得する。
// 取得に失敗した場合はWARNログとメトリクスを記録してnilを返す。
// 失敗を呼び出し元のエラーとして伝播させることはない。
func (s *Service) enrich(ctx context.Context, fav *model.Favorite) *model.WeatherSnapshot {
	current, err := s.weather.CurrentByCoordinates(ctx, fav.Latitude, fav.Longitude)
	if err != nil {
		s.logger.Warn("天気エンリッチに失敗しました",
			slog.String("favorite_id", fav.ID),
			slog.String("city", fav.CityName),
			slog.String("error", err.Error()),
		)
		if s.recorder != nil {
			s.recorder.RecordEnrichmentFailure()
		}
		return nil
	}

	snapshot := current.WeatherSnapshot
	return &snapshot
}
