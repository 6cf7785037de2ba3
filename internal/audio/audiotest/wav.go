// Package audiotest builds WAV fixtures for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV returns a 16-bit PCM WAV holding a short sine tone.
func WAV(t testing.TB, sampleRate, channels int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	WriteWAV(t, path, sampleRate, channels)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav fixture: %v", err)
	}
	return data
}

// WriteWAV writes the same fixture to path.
func WriteWAV(t testing.TB, path string, sampleRate, channels int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav fixture: %v", err)
	}
	defer f.Close()

	frames := sampleRate / 10
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
}
