package driven

import (
	"context"
)

// Downloader fetches a presigned URL into a local temporary file and returns
// its path. The caller owns the file and removes it on every exit path.
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}
