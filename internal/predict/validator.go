package predict

import (
	"strings"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

// ValidateSequence trims raw and rejects an empty result. The alphabet is
// left to the backend.
func ValidateSequence(raw string) (string, error) {
	seq := strings.TrimSpace(raw)
	if seq == "" {
		return "", &domain.ValidationError{Reason: "missing sequence"}
	}
	return seq, nil
}
