package verification

import (
	"context"
	"fmt"
	"sync"
)

// Image is an uploaded picture.
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

// TextExtractor reads printed text from an image (OCR).
type TextExtractor interface {
	ExtractText(ctx context.Context, image Image) (string, error)
}

// FaceDetector reports whether an image contains a face.
type FaceDetector interface {
	DetectFace(ctx context.Context, image Image) (bool, error)
}

// ImageStore persists images and returns a URL for them.
type ImageStore interface {
	Put(ctx context.Context, key string, image Image) (string, error)
}

// StaticFaceDetector reports a face in every non-empty image. Only for
// development and tests; deployed environments use RekognitionFaceDetector.
type StaticFaceDetector struct{}

// DetectFace approves any image with content.
func (StaticFaceDetector) DetectFace(_ context.Context, image Image) (bool, error) {
	return len(image.Data) > 0, nil
}

// MemoryImageStore keeps images in process. Used in development and tests.
type MemoryImageStore struct {
	mu     sync.RWMutex
	images map[string]Image
}

// NewMemoryImageStore builds an empty in-memory image store.
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{images: make(map[string]Image)}
}

func (s *MemoryImageStore) Put(_ context.Context, key string, image Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[key] = image
	return fmt.Sprintf("memory://%s", key), nil
}

// Get returns a stored image.
func (s *MemoryImageStore) Get(key string) (Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[key]
	return img, ok
}

// Len returns the number of stored images.
func (s *MemoryImageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}
