package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/partsdesk/internal/access"
	"github.com/bitfantasy/partsdesk/internal/config"
	"github.com/bitfantasy/partsdesk/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "token:refresh:"

// ErrInvalidRefreshToken refresh token 无效、过期或已注销
var ErrInvalidRefreshToken = errors.New("refresh token expired or invalid")

// AuthService 登录与令牌
type AuthService struct {
	creds   access.CredentialStore
	policy  *access.Policy
	rdb     *redis.Client
	cfg     config.JWTConfig
	metrics *metrics.Metrics
}

func NewAuthService(creds access.CredentialStore, policy *access.Policy, rdb *redis.Client, cfg config.JWTConfig, m *metrics.Metrics) *AuthService {
	return &AuthService{creds: creds, policy: policy, rdb: rdb, cfg: cfg, metrics: m}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenPair 令牌对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// CurrentUser 当前用户及其权限
type CurrentUser struct {
	*access.Identity
	Permissions []string `json:"permissions"`
}

// Login 校验账号密码并签发令牌
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, *CurrentUser, error) {
	identity, err := s.creds.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.metrics.RecordAuth("failure")
		return nil, nil, err
	}
	s.metrics.RecordAuth("success")

	pair, err := s.generateTokenPair(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return pair, s.current(identity), nil
}

// Me 当前用户
func (s *AuthService) Me(ctx context.Context, userID string) (*CurrentUser, error) {
	identity, err := s.creds.Lookup(ctx, userID)
	if err != nil {
		return nil, &NotFoundError{Entity: "User", ID: userID}
	}
	return s.current(identity), nil
}

func (s *AuthService) current(identity *access.Identity) *CurrentUser {
	return &CurrentUser{Identity: identity, Permissions: s.policy.Permissions(identity.Roles)}
}

func (s *AuthService) generateTokenPair(ctx context.Context, identity *access.Identity) (*TokenPair, error) {
	now := time.Now()

	// Access Token
	accessClaims := jwt.MapClaims{
		"sub":   identity.UserID,
		"uid":   identity.UserID,
		"name":  identity.Name,
		"roles": identity.Roles,
		"perms": s.policy.Permissions(identity.Roles),
		"iss":   s.cfg.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.AccessTokenExpire).Unix(),
		"jti":   uuid.New().String(),
	}
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	// Refresh Token
	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub":  identity.UserID,
		"type": "refresh",
		"iss":  s.cfg.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.RefreshTokenExpire).Unix(),
		"jti":  refreshJti,
	}
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	// 存储Refresh Token到Redis
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, refreshKeyPrefix+refreshJti, identity.UserID, s.cfg.RefreshTokenExpire).Err(); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.cfg.AccessTokenExpire.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func (s *AuthService) parseRefresh(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["type"] != "refresh" {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

// Refresh 用 refresh token 换新令牌对，旧 refresh token 作废。
// 未启用 Redis 时只校验签名和有效期。
func (s *AuthService) Refresh(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	claims, err := s.parseRefresh(refreshTokenString)
	if err != nil {
		return nil, err
	}
	jti, _ := claims["jti"].(string)
	userID, _ := claims["sub"].(string)

	if s.rdb != nil {
		stored, err := s.rdb.Get(ctx, refreshKeyPrefix+jti).Result()
		if err != nil || stored != userID {
			return nil, ErrInvalidRefreshToken
		}
		s.rdb.Del(ctx, refreshKeyPrefix+jti)
	}

	identity, err := s.creds.Lookup(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	return s.generateTokenPair(ctx, identity)
}

// Logout 注销 refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenString string) error {
	if s.rdb == nil || refreshTokenString == "" {
		return nil
	}
	claims, err := s.parseRefresh(refreshTokenString)
	if err != nil {
		return nil
	}
	jti, _ := claims["jti"].(string)
	return s.rdb.Del(ctx, refreshKeyPrefix+jti).Err()
}
