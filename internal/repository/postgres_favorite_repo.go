package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tenkimark/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// Create はお気に入りを作成する。
// (user_id, latitude, longitude)のユニーク制約違反時はErrDuplicateを返す。
// 同一座標への並行登録の競合制御はこの制約のみに依存する。
func (r *PostgresFavoriteRepo) Create(ctx context.Context, fav *model.Favorite) error {
	var state sql.NullString
	if fav.State != "" {
		state = sql.NullString{String: fav.State, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, city_name, country, state, latitude, longitude, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		fav.ID, fav.UserID, fav.CityName, fav.Country, state, fav.Latitude, fav.Longitude, fav.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("favorite (%s, %f, %f): %w", fav.UserID, fav.Latitude, fav.Longitude, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("お気に入りの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserAndID は指定ユーザー所有のお気に入りを削除する。
// 削除行数0の場合はErrNotFoundを返す。事前のSELECTは行わず、
// 所有チェックはDELETE文のWHERE句で行う。
func (r *PostgresFavoriteRepo) DeleteByUserAndID(ctx context.Context, userID, favoriteID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE id = $1 AND user_id = $2`,
		favoriteID, userID,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("favorite %s: %w", favoriteID, ErrNotFound)
	}
	return nil
}

// ListByUserID はユーザーのお気に入り一覧を作成日時の降順で返す。
func (r *PostgresFavoriteRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, city_name, country, COALESCE(state, ''), latitude, longitude, created_at
		 FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var favs []*model.Favorite
	for rows.Next() {
		fav := &model.Favorite{}
		if err := rows.Scan(&fav.ID, &fav.UserID, &fav.CityName, &fav.Country, &fav.State, &fav.Latitude, &fav.Longitude, &fav.CreatedAt); err != nil {
			return nil, fmt.Errorf("お気に入り行の読み取りに失敗しました: %w", err)
		}
		favs = append(favs, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入り一覧の走査に失敗しました: %w", err)
	}
	return favs, nil
}

// ExistsByUserAndCoords は指定座標のお気に入りが存在するかを返す。
// 座標は厳密な浮動小数点一致で比較する。近接許容は行わない。
func (r *PostgresFavoriteRepo) ExistsByUserAndCoords(ctx context.Context, userID string, latitude, longitude float64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM favorites WHERE user_id = $1 AND latitude = $2 AND longitude = $3
		 )`,
		userID, latitude, longitude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("お気に入りの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
