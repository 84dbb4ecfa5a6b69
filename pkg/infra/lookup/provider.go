package lookup

import (
	"context"
	"errors"
)

//go:generate mockery --name=Provider --dir=. --output=./mocks --filename=lookup_provider_mock.go --case=underscore --with-expecter

// Provider is the external free-text lookup source the learner probes. The
// returned string is an opaque snippet digest used only for heuristic
// keyword scanning.
type Provider interface {
	Search(ctx context.Context, query string, count int) (string, error)
}

// ErrUnavailable covers quota, auth, network and timeout failures of the
// provider. Callers treat it identically to "no informative result".
var ErrUnavailable = errors.New("lookup provider unavailable")
