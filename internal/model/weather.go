package model

// WeatherSnapshot は外部天気プロバイダーから取得した現在の気象情報。
type WeatherSnapshot struct {
	Temperature int     `json:"temperature"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
}

// CurrentWeather は都市名・国コード付きの現在天気。
// 公開天気エンドポイントのレスポンスに使用する。
type CurrentWeather struct {
	WeatherSnapshot
	City    string `json:"city"`
	Country string `json:"country"`
}

// CityMatch はジオコーディング検索の結果1件を表す。
type CityMatch struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}
