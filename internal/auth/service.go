package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
	"github.com/nikhilkumar688/SamayBihar/internal/user"
)

// usernameSuffixRange は連携ログインで生成するユーザー名の数値サフィックスの上限（排他）です。
const usernameSuffixRange = 10000

// Session はサインイン成功時の結果です。
type Session struct {
	User  *user.User
	Token string
}

// ServiceOptions は Service の任意設定です。
type ServiceOptions struct {
	DefaultProfilePicture string
	Logger                *slog.Logger
	// UsernameSuffix は生成ユーザー名の数値サフィックスを返します。nil なら乱数です。
	UsernameSuffix func() int
}

// Service はサインアップ・サインイン・連携サインインの処理を担います。
type Service struct {
	users         user.Store
	hasher        *PasswordHasher
	tokens        *TokenIssuer
	logger        *slog.Logger
	defaultAvatar string
	suffix        func() int
}

// NewService は Service を作成します。
func NewService(users user.Store, hasher *PasswordHasher, tokens *TokenIssuer, opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	suffix := opts.UsernameSuffix
	if suffix == nil {
		suffix = func() int { return rand.IntN(usernameSuffixRange) }
	}
	return &Service{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		logger:        logger,
		defaultAvatar: opts.DefaultProfilePicture,
		suffix:        suffix,
	}
}

// Signup は新しいユーザーを登録します。トークンは発行しません。
// メールアドレスの重複はストアの一意制約でのみ判定します。
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		ProfilePicture: s.defaultAvatar,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, apperr.Conflict("User already exists with this email")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Signin はメールアドレスとパスワードで認証し、トークンを発行します。
func (s *Service) Signin(ctx context.Context, req SigninRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperr.NotFound("User not found!")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, apperr.Authentication(http.StatusBadRequest, "Wrong credentials!")
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	return s.startSession(ctx, u, "user signed in")
}

// Google は連携ログインです。既存ユーザーならパスワード検証なしでサインインし、
// 未登録なら使い捨てパスワードでユーザーを作成してからサインインします。
func (s *Service) Google(ctx context.Context, req GoogleRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return s.startSession(ctx, u, "federated user signed in")
	case !errors.Is(err, user.ErrNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	u, err = s.createFederated(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, u, "federated user signed in")
}

func (s *Service) createFederated(ctx context.Context, req GoogleRequest) (*user.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation(msgNameRequired)
	}

	hash, err := s.hashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	picture := strings.TrimSpace(req.ProfilePhotoURL)
	if picture == "" {
		picture = s.defaultAvatar
	}

	u := &user.User{
		ID:             uuid.NewString(),
		Username:       GenerateUsername(req.Name, s.suffix()),
		Email:          req.Email,
		PasswordHash:   hash,
		ProfilePicture: picture,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// 同時に作成された側のレコードを使う
			existing, findErr := s.users.FindByEmail(ctx, req.Email)
			if findErr != nil {
				return nil, fmt.Errorf("find user after conflict: %w", findErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "federated user created", "user_id", u.ID)
	return u, nil
}

func (s *Service) startSession(ctx context.Context, u *user.User, event string) (*Session, error) {
	token, err := s.tokens.Issue(Identity{ID: u.ID, IsAdmin: u.IsAdmin})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, event, "user_id", u.ID)
	return &Session{User: u, Token: token}, nil
}

func (s *Service) hashPassword(plain string) (string, error) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return "", apperr.Validation("Password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// GenerateUsername は表示名を小文字化して空白を除き、数値サフィックスを付けます。
func GenerateUsername(name string, suffix int) string {
	base := strings.ToLower(strings.Join(strings.Fields(name), ""))
	return base + strconv.Itoa(suffix)
}
