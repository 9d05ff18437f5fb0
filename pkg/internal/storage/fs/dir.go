package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/yeisme/fileuploader/pkg/rule"
)

// ErrInvalidName 文件名不能作为上传目录下的普通文件名.
var ErrInvalidName = errors.New("invalid file name")

// Dir 最终上传目录.
type Dir struct {
	fs   afero.Fs
	root string
}

// NewDir 创建上传目录访问器，目录不存在时自动创建.
func NewDir(fsys afero.Fs, root string) (*Dir, error) {
	if ok, _ := afero.DirExists(fsys, root); ok {
		return &Dir{fs: fsys, root: root}, nil
	}

	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", root, err)
	}

	return &Dir{fs: fsys, root: root}, nil
}

// Root 返回上传目录.
func (d *Dir) Root() string { return d.root }

// Path 返回 name 在上传目录下的完整路径. name 必须是单个路径元素.
func (d *Dir) Path(name string) (string, error) {
	if err := rule.ValidateVar(name, "filename"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return filepath.Join(d.root, name), nil
}

// Create 在上传目录下创建（或截断已有的）文件.
func (d *Dir) Create(name string) (afero.File, string, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, "", err
	}

	f, err := d.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}

	return f, path, nil
}

// CheckWritable 通过创建并删除探测文件检查上传目录是否可写.
func (d *Dir) CheckWritable() error {
	f, err := afero.TempFile(d.fs, d.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("upload dir not writable: %w", err)
	}

	name := f.Name()
	_ = f.Close()

	return d.fs.Remove(name)
}

// Exists 判断上传目录下是否已有同名文件.
func (d *Dir) Exists(name string) (bool, error) {
	path, err := d.Path(name)
	if err != nil {
		return false, err
	}

	return afero.Exists(d.fs, path)
}
