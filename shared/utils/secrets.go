package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir - стандартный путь Docker Secrets.
const DefaultSecretsDir = "/run/secrets"

// SecretsDirEnv переопределяет каталог секретов (локальный запуск, тесты).
const SecretsDirEnv = "SECRETS_DIR"

// ReadSecret читает секрет из каталога секретов.
func ReadSecret(secretName string) (string, error) {
	dir := os.Getenv(SecretsDirEnv)
	if dir == "" {
		dir = DefaultSecretsDir
	}
	return ReadSecretFrom(dir, secretName)
}

// ReadSecretFrom читает секрет из файла dir/secretName. Пустой файл - ошибка.
func ReadSecretFrom(dir, secretName string) (string, error) {
	filePath := filepath.Join(dir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
