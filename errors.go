// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/laz/items"
	"github.com/ulikunitz/laz/rc"
)

// ErrorKind classifies the errors of the package.
type ErrorKind int

// Error kinds.
const (
	// KindTruncated reports a stream that ended before a read completed.
	KindTruncated ErrorKind = iota + 1
	// KindCorruptChunk reports a chunk that can't be decoded. The
	// reader may continue with the next chunk using SkipChunk.
	KindCorruptChunk
	// KindUnsupported reports a configuration that can't be handled.
	KindUnsupported
	// KindChunkTable reports a missing or invalid chunk table.
	KindChunkTable
)

func (k ErrorKind) String() string {
	switch k {
	case KindTruncated:
		return "truncated stream"
	case KindCorruptChunk:
		return "corrupt chunk"
	case KindUnsupported:
		return "unsupported configuration"
	case KindChunkTable:
		return "invalid chunk table"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error type returned by readers and writers. Chunk is the
// index of the chunk the error occurred in or -1.
type Error struct {
	Kind  ErrorKind
	Chunk int
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	s := "laz: "
	if e.Chunk >= 0 {
		s += fmt.Sprintf("chunk %d: ", e.Chunk)
	}
	s += e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// Sentinel errors for the use with errors.Is.
var (
	ErrTruncated    = &Error{Kind: KindTruncated, Chunk: -1}
	ErrCorruptChunk = &Error{Kind: KindCorruptChunk, Chunk: -1}
	ErrUnsupported  = &Error{Kind: KindUnsupported, Chunk: -1}
	ErrChunkTable   = &Error{Kind: KindChunkTable, Chunk: -1}
)

func errorf(kind ErrorKind, chunk int, format string, a ...any) *Error {
	return &Error{Kind: kind, Chunk: chunk, Msg: fmt.Sprintf(format, a...)}
}

func unsupported(format string, a ...any) *Error {
	return errorf(KindUnsupported, -1, format, a...)
}

// chunkError classifies an error that occurred in the given chunk.
// Errors that are already of type *Error are returned unchanged.
func chunkError(chunk int, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return &Error{Kind: KindTruncated, Chunk: chunk, Err: err}
	case errors.Is(err, rc.ErrCorrupt), errors.Is(err, items.ErrCorrupt):
		return &Error{Kind: KindCorruptChunk, Chunk: chunk, Err: err}
	case errors.Is(err, items.ErrUnsupported):
		return &Error{Kind: KindUnsupported, Chunk: chunk, Err: err}
	}
	return err
}
