package domain

import (
	"context"
)

// CardRepository defines the interface for card persistence
type CardRepository interface {
	Get(ctx context.Context, id string) (*SavedCard, error)
	Save(ctx context.Context, card *SavedCard) error
	Exists(ctx context.Context, id string) (bool, error)
}

// VisionClient defines the interface for the vision model collaborator.
// It returns the raw text of the model's answer.
type VisionClient interface {
	IdentifyCollection(ctx context.Context, mediaType, base64Data, prompt string) (string, error)
}

// ImageCatalog resolves reference image URLs for model numbers
type ImageCatalog interface {
	Lookup(modelNumber string) (string, bool)
}
