package model

import "time"

// Favorite はユーザーがお気に入り登録した都市・座標を表す。
// (UserID, Latitude, Longitude) の組はDBのユニーク制約により一意。
// 座標の比較は厳密な浮動小数点一致であり、近接許容は行わない。
type Favorite struct {
	ID        string
	UserID    string
	CityName  string
	Country   string
	State     string // 州・県。存在しない地域では空文字列。
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}

// FavoriteWithWeather はFavoriteに読み取り時点の天気スナップショットを
// 付加した一時的なビュー。永続化はしない。
// Weatherがnilの場合は天気の取得に失敗したことを示す（お気に入り自体は有効）。
type FavoriteWithWeather struct {
	Favorite
	Weather *WeatherSnapshot
}
