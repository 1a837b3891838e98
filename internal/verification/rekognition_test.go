package verification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkash/gkash_api/internal/logging"
)

type fakeRekognition struct {
	rekognitioniface.RekognitionAPI
	mu          sync.Mutex
	confidences []float64
	err         error
	calls       int
	lastBytes   []byte
}

func (f *fakeRekognition) DetectFacesWithContext(_ aws.Context, in *rekognition.DetectFacesInput, _ ...request.Option) (*rekognition.DetectFacesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastBytes = in.Image.Bytes
	if f.err != nil {
		return nil, f.err
	}
	out := &rekognition.DetectFacesOutput{}
	for _, c := range f.confidences {
		out.FaceDetails = append(out.FaceDetails, &rekognition.FaceDetail{Confidence: aws.Float64(c)})
	}
	return out, nil
}

func TestRekognitionFaceDetector(t *testing.T) {
	cases := []struct {
		name        string
		confidences []float64
		want        bool
	}{
		{"no faces", nil, false},
		{"confident face", []float64{99.2}, true},
		{"only weak detections", []float64{40, 89.9}, false},
		{"one of several passes", []float64{12, 90}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeRekognition{confidences: tc.confidences}
			got, err := newRekognitionFaceDetector(fake, 0).DetectFace(context.Background(), Image{Data: []byte("jpeg")})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, []byte("jpeg"), fake.lastBytes)
		})
	}
}

func TestRekognitionFaceDetectorSkipsEmptyImage(t *testing.T) {
	fake := &fakeRekognition{confidences: []float64{99}}
	got, err := newRekognitionFaceDetector(fake, 0).DetectFace(context.Background(), Image{})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Zero(t, fake.calls)
}

func TestRekognitionFaceDetectorErrors(t *testing.T) {
	fake := &fakeRekognition{err: errors.New("throttled")}
	_, err := newRekognitionFaceDetector(fake, 80).DetectFace(context.Background(), Image{Data: []byte("jpeg")})
	require.Error(t, err)

	_, err = newRekognitionFaceDetector(&fakeRekognition{}, 80).DetectFace(context.Background(), Image{Data: make([]byte, maxRekognitionBytes+1)})
	require.Error(t, err)
}

func TestAnalyzerTreatsDetectorErrorAsNoFace(t *testing.T) {
	detector := newRekognitionFaceDetector(&fakeRekognition{err: errors.New("throttled")}, 0)
	analyzer := NewAnalyzer(fakeOCR{text: sampleID}, detector, NewMemoryImageStore(), logging.Discard())

	ins, err := analyzer.Inspect(context.Background(), docImage, selfieImage)
	require.NoError(t, err)
	assert.False(t, ins.FaceInDocument)
	assert.False(t, ins.FaceInSelfie)
	assert.True(t, ins.Extraction.NationalID.Present())
}
