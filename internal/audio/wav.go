// Package audio holds the audio side of the pipeline: WAV and MP3 codecs,
// format normalisation through ffmpeg and ordered assembly of synthesized
// segments.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Canonical encoding produced by the format converter
const (
	CanonicalSampleRate    = 16000
	CanonicalChannels      = 1
	CanonicalBitsPerSample = 16
)

const wavHeaderSize = 44

// WAVHeader represents the header structure of a canonical PCM WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// WAVInfo describes a parsed WAV file
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataOffset    int
	DataSize      int
	Duration      time.Duration
}

// SameFormat reports whether PCM from both files can be appended verbatim
func (i WAVInfo) SameFormat(o WAVInfo) bool {
	return i.SampleRate == o.SampleRate && i.Channels == o.Channels && i.BitsPerSample == o.BitsPerSample
}

// EncodeWAV wraps raw little-endian PCM in a WAV header
func EncodeWAV(pcm []byte, sampleRate, channels, bitsPerSample int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 || bitsPerSample <= 0 || bitsPerSample%8 != 0 {
		return nil, fmt.Errorf("invalid sample layout: %d channels, %d bits", channels, bitsPerSample)
	}

	blockAlign := channels * bitsPerSample / 8
	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(bitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// EncodeSamples encodes mono 16-bit samples into WAV format
func EncodeSamples(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}
	pcm := new(bytes.Buffer)
	pcm.Grow(len(samples) * 2)
	if err := binary.Write(pcm, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return EncodeWAV(pcm.Bytes(), sampleRate, 1, 16)
}

// ParseWAV walks the RIFF chunks of data and returns the format of the first
// PCM "fmt " chunk and the location of the "data" chunk. Unknown chunks such
// as LIST are skipped.
func ParseWAV(data []byte) (*WAVInfo, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("WAV data too short: got %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	var (
		info    WAVInfo
		haveFmt bool
	)
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, fmt.Errorf("invalid WAV file: truncated fmt chunk")
			}
			if format := binary.LittleEndian.Uint16(data[body : body+2]); format != 1 {
				return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", format)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("invalid WAV file: data chunk before fmt chunk")
			}
			// Streaming writers leave the size unset; clamp to what is present
			if body+size > len(data) || size == 0 {
				size = len(data) - body
			}
			info.DataOffset = body
			info.DataSize = size
			if info.SampleRate <= 0 || info.Channels <= 0 || info.BitsPerSample <= 0 {
				return nil, fmt.Errorf("invalid WAV file: bad sample layout")
			}
			bytesPerSecond := info.SampleRate * info.Channels * info.BitsPerSample / 8
			info.Duration = time.Duration(int64(size) * int64(time.Second) / int64(bytesPerSecond))
			return &info, nil
		}

		offset = body + size + size%2
	}

	return nil, fmt.Errorf("invalid WAV file: missing data chunk")
}

// PCM returns the sample payload of a WAV file
func PCM(data []byte) ([]byte, *WAVInfo, error) {
	info, err := ParseWAV(data)
	if err != nil {
		return nil, nil, err
	}
	return data[info.DataOffset : info.DataOffset+info.DataSize], info, nil
}

// ConcatWAV appends the PCM payloads of parts, in order, under a single
// header. All parts must share sample rate, channel count and bit depth.
func ConcatWAV(parts [][]byte) ([]byte, *WAVInfo, error) {
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("no WAV parts to concatenate")
	}

	var (
		first *WAVInfo
		pcm   bytes.Buffer
	)
	for i, part := range parts {
		payload, info, err := PCM(part)
		if err != nil {
			return nil, nil, fmt.Errorf("part %d: %w", i, err)
		}
		if first == nil {
			first = info
		} else if !first.SameFormat(*info) {
			return nil, nil, fmt.Errorf("part %d: format %d Hz/%d ch/%d bit does not match %d Hz/%d ch/%d bit",
				i, info.SampleRate, info.Channels, info.BitsPerSample,
				first.SampleRate, first.Channels, first.BitsPerSample)
		}
		pcm.Write(payload)
	}

	out, err := EncodeWAV(pcm.Bytes(), first.SampleRate, first.Channels, first.BitsPerSample)
	if err != nil {
		return nil, nil, err
	}
	info, err := ParseWAV(out)
	if err != nil {
		return nil, nil, err
	}
	return out, info, nil
}
