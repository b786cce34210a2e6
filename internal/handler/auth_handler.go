// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"

	"github.com/hitoshi/tenkimark/internal/auth"
	"github.com/hitoshi/tenkimark/internal/middleware"
	"github.com/hitoshi/tenkimark/internal/model"
)

// minPasswordLength は登録時に要求するパスワードの最小文字数。
const minPasswordLength = 6

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、トークンを発行する。
	Register(ctx context.Context, email, password, name string) (*auth.AuthResult, error)
	// Login は資格情報を検証し、トークンを発行する。
	Login(ctx context.Context, email, password string) (*auth.AuthResult, error)
	// GetUserByID はユーザーの公開プロジェクションを返す。
	GetUserByID(ctx context.Context, id string) (*model.PublicUser, error)
}

// AuthHandler は登録・ログイン・ユーザー情報取得のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse は登録・ログイン成功時のAPIレスポンス。
// パスワードハッシュは含まれない。
type authResponse struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// meResponse はユーザー情報取得のAPIレスポンス。
type meResponse struct {
	User model.PublicUser `json:"user"`
}

// Register は新規ユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスの形式が正しくありません。"))
		return
	}
	if len(req.Password) < minPasswordLength {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("パスワードは6文字以上で指定してください。"))
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("名前を入力してください。"))
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(authResponse{User: result.User, Token: result.Token})
}

// Login はログインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスとパスワードを入力してください。"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(authResponse{User: result.User, Token: result.Token})
}

// Me は認証済みユーザー自身の情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse{User: *user})
}
