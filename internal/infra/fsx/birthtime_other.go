//go:build !linux && !darwin && !windows

package fsx

import (
	"fmt"
	"io/fs"
	"time"
)

func BirthTime(path string, _ fs.FileInfo) (time.Time, error) {
	return time.Time{}, fmt.Errorf("%q: %w", path, ErrBirthTimeUnavailable)
}
