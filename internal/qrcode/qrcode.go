// Package qrcode renders pickup codes as PNG files served from a static path.
package qrcode

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	qr "github.com/skip2/go-qrcode"
)

const size = 256

// FileStore writes {Dir}/{code}.png and hands out {URLPrefix}/{code}.png.
type FileStore struct {
	Dir       string
	URLPrefix string
}

func (s *FileStore) Encode(_ context.Context, code string) (string, error) {
	if code == "" || filepath.Base(code) != code {
		return "", fmt.Errorf("qrcode: unsafe code %q", code)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("qrcode: %w", err)
	}
	name := code + ".png"
	if err := qr.WriteFile(code, qr.Medium, size, filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("qrcode: encode %s: %w", code, err)
	}
	return path.Join(s.URLPrefix, name), nil
}
