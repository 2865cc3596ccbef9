package authority

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"ciudamos/types"
)

var ErrUnknownAuthority = errors.New("unknown authority")

type directoryFile struct {
	Authorities []types.Authority `yaml:"authorities"`
}

// Directory holds the authority accounts and the areas each one handles.
type Directory struct {
	path string

	mu          sync.RWMutex
	authorities map[string]types.Authority
}

// NewDirectory builds an in-memory directory, mostly for tests and mock mode.
func NewDirectory(authorities ...types.Authority) *Directory {
	d := &Directory{}
	d.replace(authorities)
	return d
}

// LoadDirectory reads authorities from a YAML file of the form
//
//	authorities:
//	  - id: obras
//	    name: Obras Públicas
//	    areas: [Infraestructura, Movilidad]
func LoadDirectory(path string) (*Directory, error) {
	d := &Directory{path: path}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-reads the backing file. The previous contents are kept when the
// file cannot be parsed.
func (d *Directory) Reload() error {
	if d.path == "" {
		return nil
	}
	raw, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("read authorities: %w", err)
	}
	var f directoryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse authorities %s: %w", d.path, err)
	}
	for i, a := range f.Authorities {
		if a.ID == "" {
			return fmt.Errorf("parse authorities %s: entry %d has no id", d.path, i)
		}
	}
	d.replace(f.Authorities)
	return nil
}

func (d *Directory) replace(list []types.Authority) {
	m := make(map[string]types.Authority, len(list))
	for _, a := range list {
		m[a.ID] = a
	}
	d.mu.Lock()
	d.authorities = m
	d.mu.Unlock()
}

// Get looks up an authority by id.
func (d *Directory) Get(id string) (types.Authority, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.authorities[id]
	if !ok {
		return types.Authority{}, fmt.Errorf("%w: %s", ErrUnknownAuthority, id)
	}
	return a, nil
}

// List returns all authorities ordered by id.
func (d *Directory) List() []types.Authority {
	d.mu.RLock()
	out := make([]types.Authority, 0, len(d.authorities))
	for _, a := range d.authorities {
		out = append(out, a)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Watch reloads the directory whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are picked up too.
func (d *Directory) Watch(ctx context.Context) error {
	if d.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	target := filepath.Clean(d.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := d.Reload(); err != nil {
					log.WithError(err).Warn("authorities reload failed")
					continue
				}
				log.WithField("path", d.path).Info("authorities reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Error("authorities watcher error")
			}
		}
	}()
	return watcher.Add(filepath.Dir(target))
}
