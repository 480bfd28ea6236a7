package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tcolgate/mp3"
)

// MP3Duration sums the duration of every frame in data
func MP3Duration(data []byte) (time.Duration, error) {
	var total time.Duration
	frames, err := eachMP3Frame(data, func(frame *mp3.Frame) error {
		total += frame.Duration()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if frames == 0 {
		return 0, fmt.Errorf("no MP3 frames found")
	}
	return total, nil
}

// ConcatMP3 appends the audio frames of parts, in order. Tags and any bytes
// between frames are dropped.
func ConcatMP3(parts [][]byte) ([]byte, time.Duration, error) {
	if len(parts) == 0 {
		return nil, 0, fmt.Errorf("no MP3 parts to concatenate")
	}

	var (
		out   bytes.Buffer
		total time.Duration
	)
	for i, part := range parts {
		frames, err := eachMP3Frame(part, func(frame *mp3.Frame) error {
			total += frame.Duration()
			_, err := io.Copy(&out, frame.Reader())
			return err
		})
		if err != nil {
			return nil, 0, fmt.Errorf("part %d: %w", i, err)
		}
		if frames == 0 {
			return nil, 0, fmt.Errorf("part %d: no MP3 frames found", i)
		}
	}
	return out.Bytes(), total, nil
}

func eachMP3Frame(data []byte, fn func(frame *mp3.Frame) error) (int, error) {
	d := mp3.NewDecoder(bytes.NewReader(data))
	var (
		frame   mp3.Frame
		skipped int
		count   int
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return count, nil
			}
			return count, fmt.Errorf("failed to decode MP3 frame %d: %w", count, err)
		}
		if err := fn(&frame); err != nil {
			return count, err
		}
		count++
	}
}
