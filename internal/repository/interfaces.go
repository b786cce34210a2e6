// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/tenkimark/internal/model"
)

// ErrDuplicate はユニーク制約違反を示すセンチネルエラー。
// サービス層がerrors.Isで判別し、Conflict系のAPIErrorに変換する。
var ErrDuplicate = errors.New("duplicate key")

// ErrNotFound は削除対象の行が存在しなかったことを示すセンチネルエラー。
// 「存在しない」と「他ユーザー所有」を区別しない。
var ErrNotFound = errors.New("not found")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// ログイン検証用にパスワードハッシュを含む完全な行を返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// FavoriteRepository はお気に入りデータの永続化インターフェース。
type FavoriteRepository interface {
	// Create はお気に入りを作成する。
	// 同一ユーザー・同一座標の行が既に存在する場合はErrDuplicateを返す。
	// 重複判定はDBのユニーク制約のみに依存し、事前チェックは行わない。
	Create(ctx context.Context, favorite *model.Favorite) error

	// DeleteByUserAndID は指定ユーザー所有のお気に入りを削除する。
	// 1行も削除されなかった場合はErrNotFoundを返す。
	DeleteByUserAndID(ctx context.Context, userID, favoriteID string) error

	// ListByUserID はユーザーのお気に入り一覧を作成日時の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Favorite, error)

	// ExistsByUserAndCoords は指定座標のお気に入りが存在するかを返す。
	// 座標は厳密一致で比較する。
	ExistsByUserAndCoords(ctx context.Context, userID string, latitude, longitude float64) (bool, error)
}
