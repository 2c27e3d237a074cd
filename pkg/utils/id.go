package utils

import (
	"log"
	"strings"

	"github.com/google/uuid"
)

// GenerateID generates a new UUID v4 string
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Printf("Failed to generate UUID: %v", err)
		return ""
	}
	return id.String()
}

// GenerateRequestID generates a short correlation ID for log lines
func GenerateRequestID() string {
	id := GenerateID()
	if id == "" {
		return "req_unknown"
	}
	return "req_" + strings.SplitN(id, "-", 2)[0]
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}
