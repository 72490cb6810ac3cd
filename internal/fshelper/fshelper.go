package fshelper

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NameFS is a filesystem that has a name
type NameFS interface {
	fs.FS
	Name() string
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	rc   io.Closer
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.rc != nil {
		return z.rc.Close()
	}
	return nil
}

// Entry is one file inside a directory or zip archive
type Entry struct {
	fsys   fs.FS
	Name   string
	Source string
}

// Read returns the file contents
func (e Entry) Read() ([]byte, error) {
	return fs.ReadFile(e.fsys, e.Name)
}

func (e Entry) String() string {
	return path.Join(e.Source, e.Name)
}

// Collection holds the matched files and keeps their archives open
type Collection struct {
	Entries []Entry
	closers []io.Closer
}

// Close releases any zip files opened by Collect
func (c *Collection) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Collect expands paths (files, directories, zip archives or glob patterns) into the
// files accepted by match. Directories and archives are walked recursively.
func Collect(paths []string, match func(name string) bool) (*Collection, error) {
	c := &Collection{}

	for _, p := range paths {
		matches, err := expand(p)
		if err != nil {
			c.Close()
			return nil, err
		}

		for _, m := range matches {
			if err := c.add(m, match); err != nil {
				c.Close()
				return nil, err
			}
		}
	}

	return c, nil
}

func expand(p string) ([]string, error) {
	// Check if the path is a glob pattern
	matches, err := filepath.Glob(p)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %s: %w", p, err)
	}
	if len(matches) > 0 {
		return matches, nil
	}

	// No matches, try as a direct path
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path does not exist: %s", p)
		}
		return nil, fmt.Errorf("error accessing path %s: %w", p, err)
	}
	return []string{p}, nil
}

func (c *Collection) add(p string, match func(string) bool) error {
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("error accessing path %s: %w", p, err)
	}

	switch {
	case info.IsDir():
		return c.walk(&DirFS{FS: os.DirFS(p), name: p}, match)
	case strings.HasSuffix(strings.ToLower(p), ".zip"):
		zfs, err := OpenZip(p)
		if err != nil {
			return fmt.Errorf("error opening zip file %s: %w", p, err)
		}
		c.closers = append(c.closers, zfs)
		return c.walk(zfs, match)
	case match(p):
		c.Entries = append(c.Entries, Entry{
			fsys:   os.DirFS(filepath.Dir(p)),
			Name:   filepath.Base(p),
			Source: filepath.Dir(p),
		})
		return nil
	default:
		return fmt.Errorf("unsupported file type: %s", p)
	}
}

func (c *Collection) walk(fsys NameFS, match func(string) bool) error {
	var found []Entry
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !match(name) {
			return nil
		}
		found = append(found, Entry{fsys: fsys, Name: name, Source: fsys.Name()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking %s: %w", fsys.Name(), err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	c.Entries = append(c.Entries, found...)
	return nil
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(p string) (*ZipFS, error) {
	zipFile, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	return &ZipFS{
		Reader: zipReader,
		name:   filepath.Base(p),
		rc:     zipFile,
	}, nil
}
