package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/logging"
)

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) ExtractText(context.Context, Image) (string, error) { return f.text, f.err }

type failingStore struct{}

func (failingStore) Put(context.Context, string, Image) (string, error) {
	return "", errors.New("bucket unavailable")
}

var (
	docImage    = Image{Data: []byte("document"), ContentType: "image/jpeg"}
	selfieImage = Image{Data: []byte("selfie"), ContentType: "image/jpeg"}
)

func TestAnalyzerInspect(t *testing.T) {
	a := NewAnalyzer(fakeOCR{text: sampleID}, nil, NewMemoryImageStore(), logging.Discard())

	ins, err := a.Inspect(context.Background(), docImage, selfieImage)
	require.NoError(t, err)
	assert.Equal(t, "31234567", ins.Extraction.NationalID.Value)
	assert.True(t, ins.FaceInDocument)
	assert.True(t, ins.FaceInSelfie)

	rec := NewRecord(ins, StoredImages{}, ins.Extraction.Checks(), time.Now())
	assert.Equal(t, 100, rec.Score)
	assert.Equal(t, StatusApproved, rec.Status)
}

func TestAnalyzerInspectDegradesOnOCRFailure(t *testing.T) {
	a := NewAnalyzer(fakeOCR{err: errors.New("timeout")}, nil, NewMemoryImageStore(), logging.Discard())

	ins, err := a.Inspect(context.Background(), docImage, selfieImage)
	require.NoError(t, err)
	assert.True(t, ins.Extraction.Failed())

	rec := NewRecord(ins, StoredImages{}, ins.Extraction.Checks(), time.Now())
	assert.Equal(t, 20, rec.Score)
	assert.Equal(t, StatusRejected, rec.Status)
}

func TestAnalyzerStore(t *testing.T) {
	store := NewMemoryImageStore()
	a := NewAnalyzer(fakeOCR{}, nil, store, logging.Discard())

	out, err := a.Store(context.Background(), "abc", docImage, selfieImage)
	require.NoError(t, err)
	assert.Equal(t, "memory://id_documents/abc", out.DocumentURL)
	assert.Equal(t, "memory://selfies/abc", out.SelfieURL)
	assert.Equal(t, 2, store.Len())
}

func TestAnalyzerStoreFailureIsUpstream(t *testing.T) {
	a := NewAnalyzer(fakeOCR{}, nil, failingStore{}, logging.Discard())

	_, err := a.Store(context.Background(), "abc", docImage, selfieImage)
	require.ErrorIs(t, err, apperr.ErrUpstream)
}
