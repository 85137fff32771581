package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
)

type memoryObject struct {
	data  []byte
	props models.Properties
	meta  map[string]string
}

// MemoryStore keeps documents in process memory. It is safe for
// concurrent use and lists names in lexical order, like Azure does.
type MemoryStore struct {
	container string
	objects   map[string]memoryObject
	now       func() time.Time
	mu        sync.RWMutex
}

func NewMemoryStore(container string) *MemoryStore {
	return &MemoryStore{
		container: container,
		objects:   make(map[string]memoryObject),
		now:       time.Now,
	}
}

// Put seeds a document together with its user metadata.
func (m *MemoryStore) Put(name string, data []byte, meta map[string]string, opts UploadOptions) {
	sum := md5.Sum(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[name] = memoryObject{
		data: bytes.Clone(data),
		props: models.Properties{
			ContentLength: int64(len(data)),
			ContentType:   opts.ContentType,
			CacheControl:  opts.CacheControl,
			LastModified:  m.now().UTC(),
			ETag:          `"` + hex.EncodeToString(sum[:]) + `"`,
		},
		meta: maps.Clone(meta),
	}
}

func (m *MemoryStore) get(name string) (memoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[name]
	return obj, ok
}

func (m *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	_, ok := m.get(name)
	return ok, nil
}

func (m *MemoryStore) GetProperties(_ context.Context, name string) (*models.Metadata, error) {
	obj, ok := m.get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, name)
	}
	return &models.Metadata{Name: name, Properties: obj.props, Metadata: maps.Clone(obj.meta)}, nil
}

func (m *MemoryStore) Download(_ context.Context, name string) (io.ReadCloser, error) {
	obj, ok := m.get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, name)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryStore) Upload(_ context.Context, name string, data []byte, opts UploadOptions) error {
	m.Put(name, data, nil, opts)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]models.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := slices.Sorted(maps.Keys(m.objects))

	out := make([]models.Metadata, 0, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		obj := m.objects[name]
		out = append(out, models.Metadata{Name: name, Properties: obj.props, Metadata: maps.Clone(obj.meta)})
	}
	return out, nil
}

// SignedReadURL returns a memory:// URL carrying the expiry as "se", the
// way a SAS token does. It is only meaningful inside the process.
func (m *MemoryStore) SignedReadURL(_ context.Context, name string, ttl time.Duration) (string, error) {
	if _, ok := m.get(name); !ok {
		return "", fmt.Errorf("%w: %s", common.ErrNotFound, name)
	}

	q := url.Values{}
	q.Set("se", strconv.FormatInt(m.now().Add(ttl).Unix(), 10))
	q.Set("sp", "r")

	u := url.URL{Scheme: "memory", Host: m.container, Path: "/" + name, RawQuery: q.Encode()}
	return u.String(), nil
}
