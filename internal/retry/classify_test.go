package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		expect Kind
	}{
		{context.DeadlineExceeded, KindTimeout},
		{fmt.Errorf("inference call: %w", context.Canceled), KindCanceled},
		{errors.New("timeout"), KindTimeout},
		{errors.New("rate limited (429), retry after: 3"), KindRateLimited},
		{errors.New("http 503: service unavailable"), KindServer},
		{errors.New("http 404: not found"), KindClient},
		{errors.New("parse response: invalid character '<'"), KindDecode},
		{errors.New("dial tcp: connection refused"), KindNetwork},
		{errors.New("something odd"), KindUnknown},
		{nil, KindUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expect {
			t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}
