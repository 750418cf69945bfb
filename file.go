package teehistorian

import (
	"github.com/spf13/afero"
)

func osFs(fs afero.Fs) afero.Fs {
	if fs == nil {
		return afero.NewOsFs()
	}
	return fs
}

// ReadFile reads a recording from fs and decompresses it. A nil fs reads
// from the OS filesystem.
func ReadFile(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(osFs(fs), path)
	if err != nil {
		return nil, &FileError{Op: "read", Path: path, Err: err}
	}

	plain, err := Decompress(data)
	if err != nil {
		return nil, &FileError{Op: "decompress", Path: path, Err: err}
	}
	return plain, nil
}

// OpenFile reads a recording and returns a Reader over it.
func OpenFile(fs afero.Fs, path string, o *ReaderOptions) (*Reader, error) {
	data, err := ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return NewReader(data, o)
}

// WriteFile saves the output of w to path, compressed with c.
func WriteFile(fs afero.Fs, path string, w *Writer, c Compression) error {
	f, err := osFs(fs).Create(path)
	if err != nil {
		return &FileError{Op: "create", Path: path, Err: err}
	}
	defer f.Close()

	cw, err := NewCompressWriter(f, c)
	if err != nil {
		return &FileError{Op: "write", Path: path, Err: err}
	}
	if _, err := w.WriteTo(cw); err != nil {
		_ = cw.Close()
		return &FileError{Op: "write", Path: path, Err: err}
	}
	if err := cw.Close(); err != nil {
		return &FileError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &FileError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// CreateFile runs fn on a new writer, closes it and saves the stream to
// path. Nothing is left at path if fn or the write fails.
func CreateFile(fs afero.Fs, path string, o *WriterOptions, c Compression, fn func(*Writer) error) error {
	fs = osFs(fs)

	w := NewWriter(o)
	defer func() { _ = w.Close() }()

	if err := fn(w); err != nil {
		return err
	}
	if w.State() != StateClosed {
		if err := w.Close(); err != nil {
			return err
		}
	}

	if err := WriteFile(fs, path, w, c); err != nil {
		_ = fs.Remove(path)
		return err
	}
	return nil
}
