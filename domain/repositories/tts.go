package repositories

import (
	"context"

	"github.com/satriahrh/voxlate/domain/entities"
)

// Synthesizer abstracts text-to-speech services. Implementations accept text
// up to a provider-specific length; callers segment longer text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, languageCode string, slow bool) (entities.AudioAsset, error)
}
