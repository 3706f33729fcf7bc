package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// claims - полезная нагрузка токена; id пользователя лежит в "id", sub используется как запасной вариант
type claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Verifier проверяет и выпускает HS256 токены
type Verifier struct {
	secret    []byte
	clockSkew time.Duration
	now       func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	return &Verifier{
		secret:    []byte(secret),
		clockSkew: 30 * time.Second,
		now:       time.Now,
	}, nil
}

// Verify возвращает id пользователя из валидного токена
func (v *Verifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID := c.UserID
	if userID == "" {
		userID = c.Subject
	}
	if userID == "" {
		return "", fmt.Errorf("%w: no user id in claims", ErrInvalidToken)
	}
	return userID, nil
}

// Issue подписывает токен для пользователя; используется сервисом логина и тестами
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
