// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package representor

import (
	"fmt"
	"io"
)

// BinaryFile is the payload of a binary field. It is streamed to the client
// out-of-band from the model document, which only carries a link to it.
type BinaryFile struct {
	Content     io.ReadCloser
	ContentType string

	// Size is the payload length in bytes. Zero or less means unknown.
	Size int64
}

// BinaryNotFoundError is returned when a binary key is not declared by the
// representor or the model has no payload for it.
type BinaryNotFoundError struct {
	Key string
}

func (e BinaryNotFoundError) Error() string {
	return fmt.Sprintf("binary not found: %s", e.Key)
}
