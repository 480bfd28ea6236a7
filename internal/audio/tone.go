package audio

import (
	"math"
	"time"
)

// GenerateTone returns mono 16-bit samples of a sine wave at half amplitude
func GenerateTone(frequency float64, duration time.Duration, sampleRate int) []int16 {
	n := int(int64(duration) * int64(sampleRate) / int64(time.Second))
	samples := make([]int16, n)
	for i := range samples {
		v := 0.5 * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate))
		samples[i] = int16(v * math.MaxInt16)
	}
	return samples
}

// ToneWAV renders a tone as a canonical WAV file
func ToneWAV(frequency float64, duration time.Duration) ([]byte, error) {
	return EncodeSamples(GenerateTone(frequency, duration, CanonicalSampleRate), CanonicalSampleRate)
}
