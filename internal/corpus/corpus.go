// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corpus provides real-world byte payloads for tests. The data
// comes from the Silesia corpus shipped by github.com/ulikunitz/zdata.
package corpus

import (
	"fmt"
	"io/fs"
	"sync"

	"github.com/ulikunitz/zdata"
)

// File is a named payload.
type File struct {
	Name string
	Data []byte
}

// Files loads all regular files of the file system.
func Files(corpus fs.FS) (files []File, err error) {
	err = fs.WalkDir(corpus, ".",
		func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			data, err := fs.ReadFile(corpus, path)
			if err != nil {
				return err
			}
			files = append(files, File{Name: path, Data: data})
			return nil
		})
	return files, err
}

var (
	silesiaFiles []File
	silesiaErr   error
	silesiaOnce  sync.Once
)

// Silesia returns the files of the Silesia corpus, each truncated to at
// most limit bytes. A limit <= 0 returns the complete files.
func Silesia(limit int) ([]File, error) {
	silesiaOnce.Do(func() {
		silesiaFiles, silesiaErr = Files(zdata.Silesia)
		if silesiaErr != nil {
			silesiaErr = fmt.Errorf("corpus: loading silesia: %w",
				silesiaErr)
		}
	})
	if silesiaErr != nil {
		return nil, silesiaErr
	}
	files := make([]File, len(silesiaFiles))
	for i, f := range silesiaFiles {
		if limit > 0 && len(f.Data) > limit {
			f.Data = f.Data[:limit]
		}
		files[i] = f
	}
	return files, nil
}
