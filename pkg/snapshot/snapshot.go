package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vango-dev/vtree/internal/config"
)

var (
	// ErrNotFound is returned when no snapshot exists under a name.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidName is returned for names outside [A-Za-z0-9._-] segments
	// separated by "/".
	ErrInvalidName = errors.New("snapshot: invalid name")

	// ErrCorrupt is returned when stored content does not match its hash.
	ErrCorrupt = errors.New("snapshot: content does not match hash")
)

// Store persists snapshots.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Meta describes a stored snapshot.
type Meta struct {
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"created_at"`
}

func newMeta(data []byte) Meta {
	return Meta{Size: int64(len(data)), SHA256: digest(data), CreatedAt: time.Now().UTC()}
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var segment = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateName checks that name is a relative slash-separated path without
// dot segments.
func ValidateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	for _, s := range strings.Split(name, "/") {
		if s == "." || s == ".." || !segment.MatchString(s) {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// MismatchError reports the first line where a snapshot and the current
// output differ.
type MismatchError struct {
	Name string
	Line int
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("snapshot %s differs at line %d:\n  want: %s\n  got:  %s", e.Name, e.Line, e.Want, e.Got)
}

// Check compares got with the snapshot stored under name.
func Check(ctx context.Context, s Store, name string, got []byte) error {
	want, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if bytes.Equal(want, got) {
		return nil
	}
	wl := strings.Split(string(want), "\n")
	gl := strings.Split(string(got), "\n")
	for i := 0; ; i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g || i >= len(wl) || i >= len(gl) {
			return &MismatchError{Name: name, Line: i + 1, Want: w, Got: g}
		}
	}
}

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.SnapshotConfig) (Store, error) {
	switch cfg.Backend {
	case "", "disk":
		return NewDiskStore(cfg.Dir)
	case "s3":
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.Bucket, cfg.Prefix), nil
	}
	return nil, fmt.Errorf("snapshot: unknown backend %q", cfg.Backend)
}
