package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
)

// DefaultFaceConfidence is the minimum Rekognition confidence, in percent,
// for a detection to count as a face.
const DefaultFaceConfidence = 90.0

// maxRekognitionBytes is the DetectFaces limit for inline image bytes.
const maxRekognitionBytes = 5 << 20

// RekognitionFaceDetector finds faces with AWS Rekognition DetectFaces.
type RekognitionFaceDetector struct {
	client        rekognitioniface.RekognitionAPI
	minConfidence float64
}

// NewRekognitionFaceDetector creates a detector over a new AWS session.
// minConfidence <= 0 selects DefaultFaceConfidence.
func NewRekognitionFaceDetector(opts AWSOptions, minConfidence float64) (*RekognitionFaceDetector, error) {
	sess, err := opts.newSession(false)
	if err != nil {
		return nil, err
	}
	return newRekognitionFaceDetector(rekognition.New(sess), minConfidence), nil
}

func newRekognitionFaceDetector(client rekognitioniface.RekognitionAPI, minConfidence float64) *RekognitionFaceDetector {
	if minConfidence <= 0 {
		minConfidence = DefaultFaceConfidence
	}
	return &RekognitionFaceDetector{client: client, minConfidence: minConfidence}
}

// DetectFace reports whether at least one face meets the confidence floor.
func (d *RekognitionFaceDetector) DetectFace(ctx context.Context, image Image) (bool, error) {
	if len(image.Data) == 0 {
		return false, nil
	}
	if len(image.Data) > maxRekognitionBytes {
		return false, errors.New("image exceeds the face detection size limit")
	}
	out, err := d.client.DetectFacesWithContext(ctx, &rekognition.DetectFacesInput{
		Image: &rekognition.Image{Bytes: image.Data},
	})
	if err != nil {
		return false, fmt.Errorf("detect faces: %w", err)
	}
	for _, face := range out.FaceDetails {
		if aws.Float64Value(face.Confidence) >= d.minConfidence {
			return true, nil
		}
	}
	return false, nil
}
