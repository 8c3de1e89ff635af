package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	redis "github.com/redis/go-redis/v9"
)

type contextKey string

const (
	AdminIDKey   = contextKey("adminID")
	RequestIDKey = contextKey("requestID")
)

// RedisClient is an optional shared Redis client used for token
// revocation. Nil when REDIS_ADDR is not configured; logout then only
// takes effect at token expiry.
var RedisClient *redis.Client

func init() {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return
	}
	opts := &redis.Options{Addr: addr}
	if p := os.Getenv("REDIS_PASS"); p != "" {
		opts.Password = p
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		log.Printf("[redis] ping failed, revocation disabled: %v", err)
		return
	}
	RedisClient = rc
}

const tokenTTL = 12 * time.Hour

// GenerateJWT issues an HS256 admin token.
func GenerateJWT(adminID int64, username string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"id":       adminID,
		"username": username,
		"role":     "admin",
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken parses and validates a token, then checks the
// revocation list when Redis is configured.
func ValidateAccessToken(tokenString string) (jwt.MapClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	if RedisClient != nil {
		revoked, err := RedisClient.Exists(context.Background(), revocationKey(tokenString)).Result()
		if err == nil && revoked > 0 {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

// RevokeToken blacklists a token until its natural expiry. No-op without
// Redis.
func RevokeToken(tokenString string, claims jwt.MapClaims) error {
	if RedisClient == nil {
		return nil
	}
	ttl := tokenTTL
	if exp, ok := claims["exp"].(float64); ok {
		if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
			ttl = until
		}
	}
	return RedisClient.Set(context.Background(), revocationKey(tokenString), "1", ttl).Err()
}

func revocationKey(token string) string {
	return fmt.Sprintf("revoked:%s", token)
}
