package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16

	wavFormatPCM = 1
)

var errNotWAV = errors.New("not a wav file")

// Format is what a WAV header says about its payload.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	PCM        bool
}

// Canonical reports whether f is mono 16 kHz 16-bit linear PCM.
func (f Format) Canonical() bool {
	return f.PCM && f.SampleRate == SampleRate && f.Channels == Channels && f.BitDepth == BitDepth
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d bit, pcm=%t", f.SampleRate, f.Channels, f.BitDepth, f.PCM)
}

// ProbeWAV reads the header of a WAV file.
func ProbeWAV(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Format{}, errNotWAV
	}
	return Format{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		PCM:        d.WavAudioFormat == wavFormatPCM,
	}, nil
}
