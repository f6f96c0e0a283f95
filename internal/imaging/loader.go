package imaging

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// DefaultCacheFrames is the frame cache size used when none is configured.
const DefaultCacheFrames = 8

// FrameCache keeps recently decoded CBF frames keyed by path.
//
// A full 6M-pixel frame decodes to about 50 MB of samples, so the cache is
// bounded: once it holds size frames, loading another evicts the least
// recently used one.
//
// Cached images are shared between callers and must not be modified. Copy
// the header or samples before editing them.
//
// FrameCache is safe for concurrent use. Concurrent loads of the same
// uncached path decode the file once.
//
// # Example Usage
//
//	cache, err := imaging.NewFrameCache(afero.NewOsFs(), 8)
//	if err != nil {
//	    return err
//	}
//	img, err := cache.Load("/data/frame_0001.cbf")
type FrameCache struct {
	fs     afero.Fs
	opts   []cbf.Option
	frames *lru.Cache[string, *cbf.Image]

	mu      sync.Mutex
	loading map[string]*sync.Mutex
}

// NewFrameCache creates a cache holding up to size frames read from fs with
// opts.
func NewFrameCache(fs afero.Fs, size int, opts ...cbf.Option) (*FrameCache, error) {
	frames, err := lru.New[string, *cbf.Image](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame cache: %w", err)
	}
	return &FrameCache{
		fs:      fs,
		opts:    opts,
		frames:  frames,
		loading: make(map[string]*sync.Mutex),
	}, nil
}

// Fs returns the filesystem frames are read from.
func (c *FrameCache) Fs() afero.Fs {
	return c.fs
}

// Load returns the frame at path, decoding it on a cache miss.
//
// Returns:
//   - *cbf.Image: The decoded frame. Shared; do not modify.
//   - error: Non-nil if the file cannot be opened or is not a valid CBF frame.
func (c *FrameCache) Load(path string) (*cbf.Image, error) {
	if img, ok := c.frames.Get(path); ok {
		return img, nil
	}

	c.mu.Lock()
	pathMu, ok := c.loading[path]
	if !ok {
		pathMu = &sync.Mutex{}
		c.loading[path] = pathMu
	}
	c.mu.Unlock()

	pathMu.Lock()
	defer func() {
		pathMu.Unlock()
		c.mu.Lock()
		delete(c.loading, path)
		c.mu.Unlock()
	}()

	if img, ok := c.frames.Get(path); ok {
		return img, nil
	}
	img, err := cbf.ReadFile(c.fs, path, c.opts...)
	if err != nil {
		return nil, err
	}
	c.frames.Add(path, img)
	return img, nil
}

// Evict drops one path from the cache.
func (c *FrameCache) Evict(path string) {
	c.frames.Remove(path)
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	return c.frames.Len()
}

// Contains reports whether path is cached, without touching its recency.
func (c *FrameCache) Contains(path string) bool {
	return c.frames.Contains(path)
}

// FrameInfo summarizes a CBF frame.
type FrameInfo struct {
	Path          string `json:"path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ElementType   string `json:"element_type"`
	BitsPerPixel  int    `json:"bits_per_pixel"`
	BinarySize    string `json:"binary_size"`
	HeaderKeys    int    `json:"header_keys"`
	Loops         int    `json:"loops"`
	Compressed    bool   `json:"gzip"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// LoadFrameInfo loads a frame through cache and describes it.
func LoadFrameInfo(cache *FrameCache, path string) (*FrameInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	stat, err := cache.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &FrameInfo{
		Path:          path,
		Width:         img.Data.Cols,
		Height:        img.Data.Rows,
		ElementType:   img.Data.Type.Tag(),
		BitsPerPixel:  img.Data.Type.Bits(),
		BinarySize:    img.Header.Value(cbf.KeyBinarySize),
		HeaderKeys:    img.Header.Len(),
		Compressed:    strings.HasSuffix(path, cbf.GzipExt),
		FileSizeBytes: stat.Size(),
	}
	if img.CIF != nil {
		info.Loops = len(img.CIF.Loops())
	}
	return info, nil
}

// DimensionsResult is the size of a frame in pixels.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions loads a frame through cache and returns its size.
func GetDimensions(cache *FrameCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Width: img.Data.Cols, Height: img.Data.Rows}, nil
}
