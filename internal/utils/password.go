package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Paramètres Argon2id optimisés pour la performance
const (
	Argon2Time    = 1         // Nombre d'itérations
	Argon2Memory  = 32 * 1024 // 32 MB de mémoire
	Argon2Threads = 4         // Nombre de threads parallèles
	Argon2KeyLen  = 32        // Longueur de la clé (256 bits)
	Argon2SaltLen = 16        // Longueur du salt
)

// HashPassword hash un mot de passe avec Argon2id
func HashPassword(password string) (string, error) {
	// Générer un salt aléatoire
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	// Hasher le mot de passe
	hash := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)

	// Encoder en base64 pour le stockage
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format: $argon2id$v=19$m=32768,t=1,p=4$salt$hash
	encodedHash := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Threads, b64Salt, b64Hash)

	return encodedHash, nil
}

// VerifyPassword vérifie si un mot de passe correspond au hash
func VerifyPassword(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, errors.New("hash invalide")
	}

	var version int
	var memory, time uint32
	var threads uint8

	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, err
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	// Calculer le hash avec les mêmes paramètres
	otherHash := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(hash)))

	// Comparaison en temps constant
	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}

// IsArgon2Hash vérifie si un hash est au format Argon2
func IsArgon2Hash(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}
