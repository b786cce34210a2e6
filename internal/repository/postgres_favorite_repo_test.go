package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/tenkimark/internal/model"
)

// PostgresFavoriteRepoはFavoriteRepositoryインターフェースを満たすことを検証
func TestPostgresFavoriteRepo_ImplementsInterface(t *testing.T) {
	var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
}

// NewPostgresFavoriteRepoが正しく初期化されることを検証
func TestNewPostgresFavoriteRepo_Initializes(t *testing.T) {
	repo := NewPostgresFavoriteRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Favoriteモデルのフィールドが正しく構築されることを検証
func TestPostgresFavoriteRepo_FavoriteModel_Fields(t *testing.T) {
	now := time.Now()
	fav := &model.Favorite{
		ID:        "fav-1",
		UserID:    "user-1",
		CityName:  "東京",
		Country:   "JP",
		State:     "",
		Latitude:  35.6762,
		Longitude: 139.6503,
		CreatedAt: now,
	}

	if fav.ID != "fav-1" {
		t.Errorf("fav.ID = %q, want %q", fav.ID, "fav-1")
	}
	if fav.CityName != "東京" {
		t.Errorf("fav.CityName = %q, want %q", fav.CityName, "東京")
	}
	if fav.Latitude != 35.6762 || fav.Longitude != 139.6503 {
		t.Errorf("coordinates = (%v, %v), want (35.6762, 139.6503)", fav.Latitude, fav.Longitude)
	}
	// stateは任意フィールド
	if fav.State != "" {
		t.Errorf("fav.State = %q, want empty", fav.State)
	}
}
