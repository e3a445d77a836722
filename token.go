package main

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// tokenClaims is the payload of a bearer token: the user id and an expiry in
// epoch milliseconds, JSON encoded and then base64 encoded.
type tokenClaims struct {
	UserID int   `json:"userId"`
	Exp    int64 `json:"exp"`
}

func issueToken(userID int, now time.Time, ttl time.Duration) string {
	data, _ := json.Marshal(tokenClaims{UserID: userID, Exp: now.Add(ttl).UnixMilli()})
	return base64.StdEncoding.EncodeToString(data)
}

func parseToken(token string) (tokenClaims, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return tokenClaims{}, ErrUnauthorized
	}

	var claims tokenClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return tokenClaims{}, ErrUnauthorized
	}
	if claims.UserID < 1 {
		return tokenClaims{}, ErrUnauthorized
	}
	return claims, nil
}

func (c tokenClaims) expiresAt() time.Time {
	return time.UnixMilli(c.Exp)
}

func (c tokenClaims) expired(now time.Time) bool {
	return !now.Before(c.expiresAt())
}
