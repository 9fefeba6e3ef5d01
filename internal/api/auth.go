// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenSubject is the sole principal; Pulseboard has exactly one
// operator.
const tokenSubject = "admin"

// IssueToken mints a shared-secret HS256 admin token.
func IssueToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, algorithm, expiry, and subject.
func VerifyToken(secret, tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
	if err != nil {
		return fmt.Errorf("parse admin token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid admin token")
	}
	if claims.Subject != tokenSubject {
		return fmt.Errorf("unexpected token subject %q", claims.Subject)
	}
	return nil
}
