package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix  = "user:id:"
	emailKeyPrefix = "user:email:"

	maxTxRetries = 16
)

// RedisStore はユーザーを Redis に JSON で保存する Store です。
//
// user:id:<id> にレコード本体、user:email:<email> に ID を保持します。
// メールアドレスの一意性は SETNX と WATCH によるトランザクションで保証します。
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// redisRecord は Redis 上の表現です。User と違いパスワードハッシュを含みます。
type redisRecord struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"passwordHash"`
	ProfilePicture string    `json:"profilePicture"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toRecord(u *User) redisRecord {
	return redisRecord{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		ProfilePicture: u.ProfilePicture,
		IsAdmin:        u.IsAdmin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (r redisRecord) toUser() *User {
	return &User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		PasswordHash:   r.PasswordHash,
		ProfilePicture: r.ProfilePicture,
		IsAdmin:        r.IsAdmin,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// Create はメールアドレスのインデックスとレコード本体を1つの MULTI で書き込みます。
// インデックスだけが残り本体が無い場合は、そのメールアドレスを未使用として扱います。
func (s *RedisStore) Create(ctx context.Context, u *User) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	stamp(u, time.Now().UTC())

	payload, err := json.Marshal(toRecord(u))
	if err != nil {
		return err
	}

	ekey := emailKey(u.Email)
	txf := func(tx *redis.Tx) error {
		taken, err := emailTaken(ctx, tx, u.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateEmail
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ekey, u.ID, 0)
			pipe.Set(ctx, userKey(u.ID), payload, 0)
			return nil
		})
		return err
	}
	return s.withRetry(ctx, txf, ekey)
}

func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.rdb.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return s.FindByID(ctx, id)
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*User, error) {
	return load(ctx, s.rdb, id)
}

func (s *RedisStore) Update(ctx context.Context, id string, upd Update) (*User, error) {
	key := userKey(id)
	var updated *User

	txf := func(tx *redis.Tx) error {
		current, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		oldEmail := current.Email
		current.apply(upd, time.Now().UTC())
		emailChanged := current.Email != oldEmail

		if emailChanged {
			if err := tx.Watch(ctx, emailKey(current.Email)).Err(); err != nil {
				return err
			}
			taken, err := emailTaken(ctx, tx, current.Email)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateEmail
			}
		}

		payload, err := json.Marshal(toRecord(current))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			if emailChanged {
				pipe.Del(ctx, emailKey(oldEmail))
				pipe.Set(ctx, emailKey(current.Email), id, 0)
			}
			return nil
		})
		if err == nil {
			updated = current
		}
		return err
	}

	if err := s.withRetry(ctx, txf, key); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	key := userKey(id)
	txf := func(tx *redis.Tx) error {
		current, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.Del(ctx, emailKey(current.Email))
			return nil
		})
		return err
	}
	return s.withRetry(ctx, txf, key)
}

// withRetry は WATCH 対象が他から更新された場合にトランザクションをやり直します。
func (s *RedisStore) withRetry(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicateEmail) {
			return fmt.Errorf("redis error: %w", err)
		}
		return err
	}
	return fmt.Errorf("redis error: transaction retries exhausted")
}

// emailTaken はメールアドレスが既存レコードに使われているかを返します。
// 呼び出し側はインデックスのキーを WATCH 済みであることが前提です。
func emailTaken(ctx context.Context, tx *redis.Tx, email string) (bool, error) {
	owner, err := tx.Get(ctx, emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := tx.Watch(ctx, userKey(owner)).Err(); err != nil {
		return false, err
	}
	n, err := tx.Exists(ctx, userKey(owner)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func load(ctx context.Context, c getter, id string) (*User, error) {
	data, err := c.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return rec.toUser(), nil
}

// getter は *redis.Client と *redis.Tx の双方が満たします。
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}
