package security

import (
	"crypto/rand"
	"errors"
)

const feedTokenAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const FeedTokenLength = 40

var (
	ErrNegativeLength  = errors.New("length must be non-negative")
	ErrAlphabetInvalid = errors.New("alphabet must hold between 1 and 256 bytes")
)

// RandomString draws length characters uniformly from alphabet using
// crypto/rand. Bytes that would bias the modulo are rejected and redrawn.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", ErrNegativeLength
	}
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", ErrAlphabetInvalid
	}
	if length == 0 {
		return "", nil
	}

	size := len(alphabet)
	limit := 256 - 256%size
	result := make([]byte, 0, length)
	buffer := make([]byte, length)
	for len(result) < length {
		if _, err := rand.Read(buffer); err != nil {
			return "", err
		}
		for _, value := range buffer {
			if int(value) >= limit {
				continue
			}
			result = append(result, alphabet[int(value)%size])
			if len(result) == length {
				break
			}
		}
	}
	return string(result), nil
}

// NewFeedToken returns the secret path segment of a user's calendar feed.
func NewFeedToken() (string, error) {
	return RandomString(FeedTokenLength, feedTokenAlphabet)
}
