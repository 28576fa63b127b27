package access

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("invalid username or password")

// Identity 认证通过后的身份
type Identity struct {
	UserID   string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
}

// CredentialStore 凭据来源
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
	Lookup(ctx context.Context, userID string) (*Identity, error)
}

// User 配置中的账号
type User struct {
	Username     string   `mapstructure:"username"`
	Name         string   `mapstructure:"name"`
	PasswordHash string   `mapstructure:"password_hash"`
	Roles        []string `mapstructure:"roles"`
}

// ConfigCredentials 基于配置文件的账号，密码以 bcrypt 哈希保存
type ConfigCredentials struct {
	users map[string]User
}

// NewConfigCredentials 用户名大小写不敏感
func NewConfigCredentials(users []User) *ConfigCredentials {
	m := make(map[string]User, len(users))
	for _, u := range users {
		m[strings.ToLower(u.Username)] = u
	}
	return &ConfigCredentials{users: m}
}

func (s *ConfigCredentials) Authenticate(_ context.Context, username, password string) (*Identity, error) {
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u.identity(), nil
}

func (s *ConfigCredentials) Lookup(_ context.Context, userID string) (*Identity, error) {
	u, ok := s.users[strings.ToLower(userID)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u.identity(), nil
}

func (u User) identity() *Identity {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return &Identity{
		UserID:   strings.ToLower(u.Username),
		Username: u.Username,
		Name:     name,
		Roles:    append([]string(nil), u.Roles...),
	}
}

// HashPassword 生成 bcrypt 哈希，用于写入配置
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
