package stt

import (
	"fmt"
	"os"

	"github.com/satriahrh/voxlate/domain/entities"
)

// readAsset returns the bytes of an asset, loading them from disk if needed
func readAsset(asset entities.AudioAsset) ([]byte, error) {
	if asset.InMemory() {
		return asset.Data, nil
	}
	if asset.Path == "" {
		return nil, fmt.Errorf("no audio data received")
	}
	data, err := os.ReadFile(asset.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return data, nil
}
