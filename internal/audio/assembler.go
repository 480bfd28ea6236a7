package audio

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/workdir"
)

// Assembler synthesizes segments and joins the results in segment order
type Assembler struct {
	store       *workdir.Store
	concurrency int
	logger      *zap.Logger
}

// NewAssembler writes per-segment and combined audio into store.
// concurrency bounds in-flight synthesis calls; values below 1 mean 1.
func NewAssembler(store *workdir.Store, concurrency int, logger *zap.Logger) *Assembler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Assembler{store: store, concurrency: concurrency, logger: logger}
}

// SynthesizeAndJoin calls synthesizer once per segment and concatenates the
// audio in index order. Any failure discards every partial result.
func (a *Assembler) SynthesizeAndJoin(ctx context.Context, segments []entities.TextSegment, targetLang string, synthesizer repositories.Synthesizer, slow bool) (entities.AudioAsset, error) {
	if len(segments) == 0 {
		return entities.AudioAsset{}, domain.Errorf(domain.CodeEmptySegmentList, "nothing to synthesize")
	}

	start := time.Now()
	parts := make([]entities.AudioAsset, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, seg := range segments {
		g.Go(func() error {
			asset, err := synthesizer.Synthesize(gctx, seg.Text, targetLang, slow)
			if err != nil {
				return domain.NewError(domain.CodeSynthesisFailure, fmt.Sprintf("segment %d", seg.Index), err)
			}
			data, err := assetBytes(asset)
			if err != nil {
				return domain.NewError(domain.CodeSynthesisFailure, fmt.Sprintf("segment %d", seg.Index), err)
			}
			asset.Data = data
			parts[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.Error("Segment synthesis failed",
			zap.Int("segments", len(segments)),
			zap.String("language", targetLang),
			zap.Error(err))
		return entities.AudioAsset{}, err
	}

	for i := range parts {
		prefix := fmt.Sprintf("tts_%s_part%d", targetLang, i+1)
		entry, err := a.store.Write(prefix, parts[i].Encoding.Extension(), parts[i].Data)
		if err != nil {
			return entities.AudioAsset{}, domain.NewError(domain.CodeSynthesisFailure, "failed to stage segment audio", err)
		}
		parts[i] = parts[i].WithPath(entry.Path())
	}

	combined, err := Join(parts)
	if err != nil {
		return entities.AudioAsset{}, domain.NewError(domain.CodeSynthesisFailure, "failed to join segment audio", err)
	}

	entry, err := a.store.Write("tts_combined", combined.Encoding.Extension(), combined.Data)
	if err != nil {
		return entities.AudioAsset{}, domain.NewError(domain.CodeSynthesisFailure, "failed to write combined audio", err)
	}

	a.logger.Info("Segments assembled",
		zap.Int("segments", len(segments)),
		zap.String("language", targetLang),
		zap.String("output", entry.Name),
		zap.Duration("audioDuration", combined.Duration),
		zap.Duration("elapsed", time.Since(start)))

	return combined.WithPath(entry.Path()), nil
}

// Join concatenates assets of a single encoding without re-encoding
func Join(parts []entities.AudioAsset) (entities.AudioAsset, error) {
	if len(parts) == 0 {
		return entities.AudioAsset{}, fmt.Errorf("no audio to join")
	}

	enc := parts[0].Encoding
	chunks := make([][]byte, len(parts))
	for i, p := range parts {
		if p.Encoding != enc {
			return entities.AudioAsset{}, fmt.Errorf("part %d is %s, expected %s", i, p.Encoding, enc)
		}
		chunks[i] = p.Data
	}

	switch enc {
	case entities.EncodingWAV:
		data, info, err := ConcatWAV(chunks)
		if err != nil {
			return entities.AudioAsset{}, err
		}
		return entities.AudioAsset{
			Data:          data,
			Encoding:      entities.EncodingWAV,
			SampleRate:    info.SampleRate,
			Channels:      info.Channels,
			BitsPerSample: info.BitsPerSample,
			Duration:      info.Duration,
		}, nil
	case entities.EncodingMP3:
		data, duration, err := ConcatMP3(chunks)
		if err != nil {
			return entities.AudioAsset{}, err
		}
		return entities.AudioAsset{Data: data, Encoding: entities.EncodingMP3, Duration: duration}, nil
	default:
		return entities.AudioAsset{}, fmt.Errorf("cannot join %q audio", enc)
	}
}

// assetBytes returns the content of a synthesized asset
func assetBytes(asset entities.AudioAsset) ([]byte, error) {
	if asset.InMemory() {
		return asset.Data, nil
	}
	if asset.Path == "" {
		return nil, fmt.Errorf("synthesizer returned empty audio")
	}
	data, err := os.ReadFile(asset.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("synthesizer returned empty audio")
	}
	return data, nil
}
