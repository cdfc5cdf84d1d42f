package mocks

import (
	"context"
	"os"
)

// MockDownloader is a mock implementation of Downloader for testing.
// It writes Content to a fresh temporary file and returns its path.
type MockDownloader struct {
	// Content is the file body to produce
	Content []byte

	// Err fails Download when set
	Err error

	// Paths records every produced file path
	Paths []string
}

// NewMockDownloader creates a new MockDownloader
func NewMockDownloader(content []byte) *MockDownloader {
	return &MockDownloader{Content: content}
}

func (m *MockDownloader) Download(ctx context.Context, url string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	f, err := os.CreateTemp("", "mock-download-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(m.Content); err != nil {
		return "", err
	}
	m.Paths = append(m.Paths, f.Name())
	return f.Name(), nil
}
