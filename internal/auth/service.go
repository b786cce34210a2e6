package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/tenkimark/internal/model"
	"github.com/hitoshi/tenkimark/internal/repository"
)

// AuthResult は登録・ログイン成功時の結果。
// ユーザーの公開プロジェクションと新規発行トークンを含む。
type AuthResult struct {
	User  model.PublicUser
	Token string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// BCryptCost はパスワードハッシュのコスト。0以下の場合は12を使用する。
	BCryptCost int
}

// Service はユーザー登録・ログイン・ユーザー取得のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenService
	cost     int
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenService, config ServiceConfig) *Service {
	cost := config.BCryptCost
	if cost <= 0 {
		cost = 12
	}
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		cost:     cost,
	}
}

// Register は新規ユーザーを登録し、トークンを発行する。
// メールアドレスが既に存在する場合はEMAIL_TAKENエラーを返す。
// 重複判定はDBのユニーク制約に委ね、事前のSELECTは行わない。
func (s *Service) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID))

	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
// ユーザー不存在とパスワード不一致はどちらも同一の
// INVALID_CREDENTIALSエラーを返し、どちらの検証で失敗したかを漏らさない。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	return &AuthResult{User: user.Public(), Token: token}, nil
}

// GetUserByID は指定IDのユーザーの公開プロジェクションを返す。
// 見つからない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) GetUserByID(ctx context.Context, id string) (*model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	public := user.Public()
	return &public, nil
}
