package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

// errSkip tells the normalizer to try the next decode strategy.
var errSkip = errors.New("decode strategy not applicable")

// Normalized is canonical PCM audio on disk, scoped to one run.
type Normalized struct {
	Path    string
	Format  Format
	Decoder string

	dir       string
	removeAll func(string) error
}

// Close removes the raw upload and the normalized file. Safe to call twice.
func (n *Normalized) Close() error {
	if n == nil || n.dir == "" {
		return nil
	}
	if err := n.removeAll(n.dir); err != nil {
		return err
	}
	n.dir = ""
	return nil
}

type Options struct {
	// TempRoot holds the per-run scratch directories. Empty means os.TempDir().
	TempRoot string
	// FFmpegPath is tried before ffmpeg and avconv on PATH.
	FFmpegPath string
	Log        *logger.Logger
}

// Normalizer turns any supported upload into mono 16 kHz 16-bit PCM WAV.
type Normalizer struct {
	tempRoot   string
	candidates []string
	runner     commandRunner
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(string) error
	log        *logger.Logger
}

func NewNormalizer(opts Options) *Normalizer {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	var candidates []string
	if p := strings.TrimSpace(opts.FFmpegPath); p != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, "ffmpeg", "avconv")
	return &Normalizer{
		tempRoot:   opts.TempRoot,
		candidates: candidates,
		runner:     &execRunner{},
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		log:        log.Component("audio"),
	}
}

type decodeStrategy struct {
	name   string
	decode func(ctx context.Context, in, out string) (string, error)
}

// Normalize writes raw to a scoped temp dir and decodes it. On error nothing is left behind.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte, ext string) (*Normalized, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty audio", types.ErrDecode)
	}

	root := n.tempRoot
	if root == "" {
		root = os.TempDir()
	}
	if err := n.mkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: temp root: %w", types.ErrDecode, err)
	}
	dir, err := n.mkdirTemp(root, "audio-*")
	if err != nil {
		return nil, fmt.Errorf("%w: temp dir: %w", types.ErrDecode, err)
	}
	keep := false
	defer func() {
		if !keep {
			_ = n.removeAll(dir)
		}
	}()

	in := filepath.Join(dir, "input"+safeExt(ext))
	if err := os.WriteFile(in, raw, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write upload: %w", types.ErrDecode, err)
	}
	out := filepath.Join(dir, "normalized.wav")

	strategies := []decodeStrategy{
		{name: "passthrough", decode: n.passthrough},
		{name: "external", decode: n.external},
	}
	for _, s := range strategies {
		decoder, err := s.decode(ctx, in, out)
		if errors.Is(err, errSkip) {
			n.log.WithField("strategy", s.name).Debug("decode strategy skipped")
			continue
		}
		if err != nil {
			n.log.WithError(err).WithField("strategy", s.name).Warn("audio decode failed")
			return nil, fmt.Errorf("%w: %w", types.ErrDecode, err)
		}

		format, err := ProbeWAV(out)
		if err != nil {
			return nil, fmt.Errorf("%w: %s produced unreadable output: %w", types.ErrDecode, decoder, err)
		}
		if !format.Canonical() {
			return nil, fmt.Errorf("%w: %s produced %s", types.ErrDecode, decoder, format)
		}

		keep = true
		n.log.WithField("decoder", decoder).WithField("bytes", len(raw)).Info("audio normalized")
		return &Normalized{Path: out, Format: format, Decoder: decoder, dir: dir, removeAll: n.removeAll}, nil
	}
	return nil, fmt.Errorf("%w: no audio decoder available (tried %s)", types.ErrDecode, strings.Join(n.candidates, ", "))
}

// passthrough accepts uploads that are already canonical WAV.
func (n *Normalizer) passthrough(_ context.Context, in, out string) (string, error) {
	format, err := ProbeWAV(in)
	if err != nil || !format.Canonical() {
		return "", errSkip
	}
	if err := copyFile(in, out); err != nil {
		return "", err
	}
	return "passthrough", nil
}

// external re-encodes with the first decoder binary found.
func (n *Normalizer) external(ctx context.Context, in, out string) (string, error) {
	bin, ok := n.resolveDecoder()
	if !ok {
		return "", errSkip
	}
	args := buildDecodeArgs(in, out)
	res, err := n.runner.Run(ctx, bin, args...)
	if err != nil {
		return "", fmt.Errorf("%s exit=%d: %s: %w", filepath.Base(bin), res.ExitCode, lastLine(res.Stderr), err)
	}
	return filepath.Base(bin), nil
}

func (n *Normalizer) resolveDecoder() (string, bool) {
	for _, c := range n.candidates {
		if p, err := n.lookPath(c); err == nil {
			return p, true
		}
	}
	return "", false
}

// buildDecodeArgs builds CLI args for mono 16k PCM WAV output.
func buildDecodeArgs(in, out string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		out,
	}
}

func safeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ".bin"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Base(ext)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
