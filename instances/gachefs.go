package instances

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// memFs adapts an afero filesystem to gache.FileSystem.
type memFs struct {
	fs afero.Fs
}

func (m *memFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return m.fs.OpenFile(name, flag, perm)
}

func (m *memFs) MkdirAll(path string, perm os.FileMode) error {
	return m.fs.MkdirAll(path, perm)
}
