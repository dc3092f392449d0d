package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localmart/localmart-backend/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the composite participant key carried through the whole
// system: user and seller ids live in separate sequences, so a bare
// integer is not enough to name a participant.
type Identity struct {
	Role model.ParticipantRole
	ID   uint64
}

func (id Identity) String() string {
	return fmt.Sprintf("%s:%d", id.Role, id.ID)
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: 24 * time.Hour}
}

func (t *TokenIssuer) Issue(id Identity) (string, error) {
	if id.ID == 0 || !id.Role.Valid() {
		return "", errors.New("identity is incomplete")
	}
	now := time.Now()
	c := claims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *TokenIssuer) Parse(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	sub, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || sub == 0 {
		return Identity{}, ErrInvalidToken
	}
	role := model.ParticipantRole(c.Role)
	if !role.Valid() {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Role: role, ID: sub}, nil
}
