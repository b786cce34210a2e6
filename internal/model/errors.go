package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, favorite, weather, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateFavorite  = "DUPLICATE_FAVORITE"
	ErrCodeFavoriteNotFound   = "FAVORITE_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeCityNotFound       = "CITY_NOT_FOUND"
	ErrCodeWeatherUnavailable = "WEATHER_UNAVAILABLE"
)

// NewUnauthorizedError は認証トークン未提示のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてからアクセスしてください。",
	}
}

// NewForbiddenError は無効または期限切れトークンのエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "トークンが無効または期限切れです。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレス不存在とパスワード不一致を区別しない（意図的な仕様）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewDuplicateFavoriteError は同一座標の重複お気に入り登録エラーを生成する。
func NewDuplicateFavoriteError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFavorite,
		Message:  "この都市は既にお気に入りに登録されています。",
		Category: "favorite",
		Action:   "お気に入り一覧から該当都市を確認してください。",
	}
}

// NewFavoriteNotFoundError はお気に入りが見つからない場合のエラーを生成する。
// 他ユーザー所有の場合も同一のエラーを返し、存在を漏らさない。
func NewFavoriteNotFoundError(favoriteID string) *APIError {
	return &APIError{
		Code:     ErrCodeFavoriteNotFound,
		Message:  fmt.Sprintf("指定されたお気に入りが見つかりません: %s", favoriteID),
		Category: "favorite",
		Action:   "お気に入りIDを確認してください。",
	}
}

// NewValidationError は入力バリデーションエラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewCityNotFoundError は天気プロバイダーが都市を検出できなかったエラーを生成する。
func NewCityNotFoundError(city string) *APIError {
	return &APIError{
		Code:     ErrCodeCityNotFound,
		Message:  fmt.Sprintf("指定された都市が見つかりません: %s", city),
		Category: "weather",
		Action:   "都市名のつづりを確認してください。",
	}
}

// NewWeatherUnavailableError は天気プロバイダー呼び出し失敗のエラーを生成する。
// お気に入り操作では使用しない（エンリッチ失敗は操作の失敗としない）。
func NewWeatherUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeWeatherUnavailable,
		Message:  "天気情報の取得に失敗しました。",
		Category: "weather",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
