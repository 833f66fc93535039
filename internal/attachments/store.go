// Package attachments stores the source files of import jobs.
package attachments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// Store persists attachment bytes and returns the location to record on the job.
type Store interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, location string) ([]byte, error)
}

// Checksum is the hex sha256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key builds the object key for a file of a job. Directory parts of name are dropped.
func Key(jobID, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "attachment"
	}
	return jobID + "/" + base
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("attachment key is required")
	}
	clean := path.Clean(key)
	if strings.HasPrefix(clean, "../") || clean == ".." || strings.HasPrefix(clean, "/") {
		return fmt.Errorf("invalid attachment key %q", key)
	}
	return nil
}
