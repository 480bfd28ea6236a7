package repositories

import (
	"context"

	"github.com/satriahrh/voxlate/domain/entities"
)

// Transcriber abstracts speech recognition services
type Transcriber interface {
	// Transcribe converts canonical-encoded audio to text. languageHint is a
	// two-letter code and may be empty.
	Transcribe(ctx context.Context, audio entities.AudioAsset, languageHint string) (string, error)
}
