package utils

import "github.com/google/uuid"

// GenerateID создает уникальный ID для клиентской сессии.
func GenerateID() string {
	return uuid.NewString()
}
