// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth hashes and verifies user credentials with argon2id.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters (OWASP second recommended configuration).
const (
	argonTime    = 2
	argonMemory  = 19 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// PasswordMinLen is the minimum accepted password length.
const PasswordMinLen = 8

// ErrPasswordTooShort is returned by HashPassword for passwords shorter than
// PasswordMinLen.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", PasswordMinLen)

// argonParams holds the parameters recovered from an encoded hash.
type argonParams struct {
	version int
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

// HashPassword hashes a password with argon2id. The result is self-describing
// in the standard $argon2id$v=19$m=...,t=...,p=...$salt$hash form.
func HashPassword(password string) (string, error) {
	if len(password) < PasswordMinLen {
		return "", ErrPasswordTooShort
	}

	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks a password against an encoded argon2id hash using a
// constant-time comparison. The hash's own parameters are honored, so hashes
// created under older settings still verify.
func VerifyPassword(password, encoded string) (bool, error) {
	p, err := parseHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(computed, p.hash) == 1, nil
}

// NeedsRehash reports whether an encoded hash was created with parameters
// other than the current ones and should be regenerated on next login.
func NeedsRehash(encoded string) bool {
	p, err := parseHash(encoded)
	if err != nil {
		return true
	}
	return p.memory != argonMemory || p.time != argonTime || p.threads != argonThreads
}

func parseHash(encoded string) (argonParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return argonParams{}, errors.New("malformed password hash")
	}
	if parts[1] != "argon2id" {
		return argonParams{}, fmt.Errorf("unsupported hash type %q", parts[1])
	}

	var p argonParams
	if _, err := fmt.Sscanf(parts[2], "v=%d", &p.version); err != nil {
		return argonParams{}, fmt.Errorf("parsing version: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return argonParams{}, fmt.Errorf("parsing parameters: %w", err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return argonParams{}, fmt.Errorf("decoding salt: %w", err)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return argonParams{}, fmt.Errorf("decoding hash: %w", err)
	}
	return p, nil
}
