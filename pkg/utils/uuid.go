package utils

import "github.com/google/uuid"

// GenerateID returns a random UUID for object keys and token ids.
func GenerateID() string {
	return uuid.New().String()
}
