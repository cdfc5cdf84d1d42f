package driven

import (
	"context"
)

// ArtifactStore persists debug artifacts from a pipeline run (parse dumps,
// raw LLM responses). Uploads are best effort; failures never fail a job.
type ArtifactStore interface {
	// Put stores body under key with the given content type.
	Put(ctx context.Context, key, contentType string, body []byte) error
}
