// Package fs 管理本地文件系统上的两个目录：请求级临时文件目录（scratch）与最终上传目录.
// 所有操作都基于 afero.Fs，测试中可以替换为内存文件系统.
package fs

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid"
	"github.com/spf13/afero"
)

// ScratchExt 临时文件扩展名.
const ScratchExt = ".part"

// Scratch 请求级临时文件存储. 每个文件字段对应一个以 ULID 命名的独立文件，
// 并发请求之间不会共享路径.
type Scratch struct {
	fs  afero.Fs
	dir string
}

// NewScratch 创建临时文件存储并确保目录存在.
func NewScratch(fsys afero.Fs, dir string) (*Scratch, error) {
	if ok, _ := afero.DirExists(fsys, dir); ok {
		return &Scratch{fs: fsys, dir: dir}, nil
	}

	if err := fsys.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}

	return &Scratch{fs: fsys, dir: dir}, nil
}

// Dir 返回临时文件目录.
func (s *Scratch) Dir() string { return s.dir }

// Fs 返回底层文件系统.
func (s *Scratch) Fs() afero.Fs { return s.fs }

// Create 创建一个新的临时文件，返回打开的文件和它的路径.
func (s *Scratch) Create() (afero.File, string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, "", fmt.Errorf("generate scratch name: %w", err)
	}

	path := filepath.Join(s.dir, id.String()+ScratchExt)

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, "", err
	}

	return f, path, nil
}

// Open 以只读方式打开临时文件.
func (s *Scratch) Open(path string) (afero.File, error) {
	return s.fs.Open(path)
}

// Release 删除临时文件，文件不存在不算错误.
func (s *Scratch) Release(path string) error {
	if path == "" {
		return nil
	}

	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// Reap 删除最后修改时间早于 now-maxAge 的临时文件，返回删除数量.
// 只处理由 Create 生成的文件（ULID 名称 + .part），目录中的其他文件保持不动.
func (s *Scratch) Reap(now time.Time, maxAge time.Duration) (int, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return 0, fmt.Errorf("read scratch dir: %w", err)
	}

	var (
		removed int
		errs    []error
	)

	cutoff := now.Add(-maxAge)

	for _, e := range entries {
		if e.IsDir() || !IsScratchName(e.Name()) || !e.ModTime().Before(cutoff) {
			continue
		}

		if err := s.Release(filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}

		removed++
	}

	return removed, errors.Join(errs...)
}

// IsScratchName 判断文件名是否由 Create 生成.
func IsScratchName(name string) bool {
	base, ok := strings.CutSuffix(name, ScratchExt)
	if !ok {
		return false
	}

	_, err := ulid.Parse(base)

	return err == nil
}
