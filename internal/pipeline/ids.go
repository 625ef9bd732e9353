package pipeline

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewJobID returns a lexicographically sortable job id.
func NewJobID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
