package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func GenerateNanoID(size int) string {
	id, err := gonanoid.Generate(idAlphabet, size)
	if err != nil {
		panic(err)
	}
	return id
}

func GenerateNanoIDWithPrefix(prefix string, size int) string {
	return fmt.Sprintf("%s_%s", prefix, GenerateNanoID(size))
}

// GenerateRequestID mints a correlation id for one inbound webhook request.
func GenerateRequestID() string {
	return GenerateNanoIDWithPrefix("req", 21)
}

// GenerateEventID mints the id assigned to a canonical inbound event.
func GenerateEventID() string {
	return GenerateNanoIDWithPrefix("event", 21)
}
