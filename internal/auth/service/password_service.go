package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/Pelan2022/Koulio/config"
)

//go:generate mockgen -destination=../../mocks/mock_password_hasher.go -package=mocks github.com/Pelan2022/Koulio/internal/auth/service PasswordHasher

const argonSaltLength = 16
const argonKeyLength = 32

// PasswordHasher derives and verifies password hashes. Hash failures are
// fatal to the caller; Verify never fails outward, a malformed or foreign
// hash simply does not match.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

type PasswordService struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	bcryptCost  int
}

func NewPasswordService(cfg config.HashConfig) *PasswordService {
	return &PasswordService{
		memory:      cfg.ArgonMemory,
		iterations:  cfg.ArgonIterations,
		parallelism: cfg.ArgonParallelism,
		bcryptCost:  cfg.BcryptCost,
	}
}

// Hash derives an Argon2id hash in the standard encoded form
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>.
// If Argon2 derivation is unavailable it falls back to bcrypt.
func (s *PasswordService) Hash(password string) (string, error) {
	encoded, err := s.hashArgon2id(password)
	if err == nil {
		return encoded, nil
	}

	bytes, berr := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if berr != nil {
		return "", fmt.Errorf("password hashing failed: %w", berr)
	}
	return string(bytes), nil
}

func (s *PasswordService) hashArgon2id(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, s.iterations, s.memory, s.parallelism, argonKeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, s.memory, s.iterations, s.parallelism, b64Salt, b64Hash), nil
}

// Verify detects the producing algorithm from the hash prefix and dispatches.
// Any parse or comparison error is reported as a non-match so a caller
// cannot tell a malformed hash from a wrong password.
func (s *PasswordService) Verify(password, encodedHash string) bool {
	if strings.HasPrefix(encodedHash, "$argon2") {
		match, err := verifyArgon2id(password, encodedHash)
		return err == nil && match
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

func verifyArgon2id(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, errors.New("unsupported argon2 variant")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errors.New("unsupported argon2 version")
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("malformed argon2 params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	// Parameters come from the stored hash so verification keeps working
	// after the configured costs change.
	comparison := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, comparison) == 1, nil
}

var _ PasswordHasher = (*PasswordService)(nil)
