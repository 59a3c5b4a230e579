package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Password hashes come in two schemes: bcrypt for everything created by this
// service, and passlib-style pbkdf2-sha256 for hashes imported from the
// legacy deployment ($pbkdf2-sha256$<rounds>$<salt>$<checksum>, where salt
// and checksum use passlib's adapted base64 alphabet: '.' instead of '+',
// no padding).

const (
	pbkdf2Prefix = "$pbkdf2-sha256$"
	pbkdf2Rounds = 29000
)

var ab64 = base64.RawStdEncoding

// HashPassword hashes a plaintext password with the primary scheme (bcrypt).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// LegacyHash produces a passlib-compatible pbkdf2-sha256 hash. Used only to
// seed identities that must match hashes from the legacy deployment.
func LegacyHash(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, sha256.Size, sha256.New)
	return fmt.Sprintf("%s%d$%s$%s", pbkdf2Prefix, pbkdf2Rounds, ab64Encode(salt), ab64Encode(key)), nil
}

// VerifyPassword checks a plaintext password against a stored hash in either
// scheme. A false return covers both mismatches and unrecognised hash
// formats.
func VerifyPassword(password, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	case strings.HasPrefix(hash, pbkdf2Prefix):
		return verifyPBKDF2(password, hash)
	default:
		return false
	}
}

func verifyPBKDF2(password, hash string) bool {
	parts := strings.Split(strings.TrimPrefix(hash, pbkdf2Prefix), "$")
	if len(parts) != 3 {
		return false
	}
	rounds, err := strconv.Atoi(parts[0])
	if err != nil || rounds <= 0 {
		return false
	}
	salt, err := ab64Decode(parts[1])
	if err != nil {
		return false
	}
	want, err := ab64Decode(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func ab64Encode(b []byte) string {
	return strings.ReplaceAll(ab64.EncodeToString(b), "+", ".")
}

func ab64Decode(s string) ([]byte, error) {
	return ab64.DecodeString(strings.ReplaceAll(s, ".", "+"))
}
