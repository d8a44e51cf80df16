package oracle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"weatherpredict/internal/external"
)

// Source says where to load the model from. URL takes precedence over Path.
type Source struct {
	Path       string
	URL        string
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// Open loads the model described by src and wraps it in an Oracle. Callers
// treat a failure as degraded service, not as fatal.
func Open(ctx context.Context, src Source) (*Oracle, error) {
	var (
		m   Model
		err error
	)

	switch {
	case src.URL != "":
		policy := external.DefaultRetryPolicy()
		policy.MaxRetries = src.MaxRetries
		client := external.NewBaseClient(
			&http.Client{Timeout: src.Timeout},
			"scoring-service",
			policy,
			src.UserAgent,
		)
		m, err = DialRemote(ctx, src.URL, client)
	case src.Path != "":
		m, err = LoadFile(src.Path)
	default:
		err = errors.New("no model path or URL configured")
	}
	if err != nil {
		return nil, err
	}

	return New(m)
}
