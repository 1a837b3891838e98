package verification

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Inspection is everything learned from a document/selfie pair before storage.
type Inspection struct {
	Extraction     Extraction
	FaceInDocument bool
	FaceInSelfie   bool
}

// StoredImages are the hosted locations of an uploaded pair.
type StoredImages struct {
	DocumentURL string
	SelfieURL   string
}

// Analyzer drives the OCR, face detection and image hosting collaborators.
type Analyzer struct {
	text   TextExtractor
	faces  FaceDetector
	images ImageStore
	logger *slog.Logger
}

// NewAnalyzer builds an analyzer. A nil face detector falls back to StaticFaceDetector.
func NewAnalyzer(text TextExtractor, faces FaceDetector, images ImageStore, logger *slog.Logger) *Analyzer {
	if faces == nil {
		faces = StaticFaceDetector{}
	}
	return &Analyzer{text: text, faces: faces, images: images, logger: logger}
}

// Inspect runs OCR and both face detections concurrently. Collaborator
// failures degrade the result instead of failing it: OCR errors produce a
// failed extraction and detector errors count as no face.
func (a *Analyzer) Inspect(ctx context.Context, document, selfie Image) (Inspection, error) {
	var ins Inspection
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		text, err := a.text.ExtractText(gctx, document)
		if err != nil {
			a.logger.Warn("text extraction failed, continuing with manual verification", slog.Any("error", err))
			ins.Extraction = FailedExtraction()
			return nil
		}
		ins.Extraction = ParseDocument(text)
		return nil
	})
	g.Go(func() error {
		ins.FaceInDocument = a.detect(gctx, "document", document)
		return nil
	})
	g.Go(func() error {
		ins.FaceInSelfie = a.detect(gctx, "selfie", selfie)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Inspection{}, err
	}
	if err := ctx.Err(); err != nil {
		return Inspection{}, err
	}
	return ins, nil
}

func (a *Analyzer) detect(ctx context.Context, which string, image Image) bool {
	ok, err := a.faces.DetectFace(ctx, image)
	if err != nil {
		a.logger.Warn("face detection failed", slog.String("image", which), slog.Any("error", err))
		return false
	}
	return ok
}

// Store uploads both images concurrently under a per-identity prefix.
func (a *Analyzer) Store(ctx context.Context, identityID string, document, selfie Image) (StoredImages, error) {
	var out StoredImages
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		url, err := a.images.Put(gctx, fmt.Sprintf("id_documents/%s", identityID), document)
		if err != nil {
			return apperr.Upstream("upload document image", err)
		}
		out.DocumentURL = url
		return nil
	})
	g.Go(func() error {
		url, err := a.images.Put(gctx, fmt.Sprintf("selfies/%s", identityID), selfie)
		if err != nil {
			return apperr.Upstream("upload selfie image", err)
		}
		out.SelfieURL = url
		return nil
	})

	if err := g.Wait(); err != nil {
		return StoredImages{}, err
	}
	return out, nil
}
