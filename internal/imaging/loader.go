package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// Volume is a loaded phantom scan: one or more slices plus the acquisition
// metadata needed to turn pixels into millimetres.
//
// Raster images (PNG, JPEG, GIF, TIFF) load as a single-slice volume with no
// pixel spacing. DICOM files contribute one slice per frame of Pixel Data.
type Volume struct {
	// Slices in file order. Slice indices used by profiles refer to this order.
	Slices []*Slice

	// PixelSpacingMM is the row spacing from the DICOM Pixel Spacing attribute,
	// or 0 when the file does not carry one.
	PixelSpacingMM float64

	// Modality and SeriesDescription are copied from DICOM headers when present.
	Modality          string
	SeriesDescription string

	// Format is "dicom", "png", "jpeg", "gif" or "tiff".
	Format string
}

// Slice returns slice i, or an error naming the valid range.
func (v *Volume) Slice(i int) (*Slice, error) {
	if i < 0 || i >= len(v.Slices) {
		return nil, fmt.Errorf("slice index %d out of range [0, %d)", i, len(v.Slices))
	}
	return v.Slices[i], nil
}

// VolumeCache provides thread-safe caching of loaded volumes to avoid redundant
// disk reads and DICOM parsing.
//
// Volumes are keyed by the exact path string passed to Load. Cached volumes
// remain in memory until removed via Evict or Clear.
//
// # Example Usage
//
//	cache := imaging.NewVolumeCache()
//	vol, err := cache.Load("/data/phantom/t1_flat.dcm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := vol.Slice(18)
type VolumeCache struct {
	mu      sync.RWMutex
	volumes map[string]*Volume
}

// NewVolumeCache creates an empty cache, safe for concurrent use.
func NewVolumeCache() *VolumeCache {
	return &VolumeCache{
		volumes: make(map[string]*Volume),
	}
}

// Load retrieves a volume from the cache or reads it from disk.
//
// DICOM is recognized by a .dcm/.dicom extension or by the "DICM" magic at
// byte offset 128. Anything else is handed to image.Decode.
//
// # Errors
//
//   - the file does not exist or cannot be read
//   - the file is neither valid DICOM nor a supported raster format
//   - a DICOM file has no Pixel Data or a frame cannot be decoded
func (c *VolumeCache) Load(path string) (*Volume, error) {
	c.mu.RLock()
	if vol, ok := c.volumes[path]; ok {
		c.mu.RUnlock()
		return vol, nil
	}
	c.mu.RUnlock()

	isDICOM, err := looksLikeDICOM(path)
	if err != nil {
		return nil, err
	}

	var vol *Volume
	if isDICOM {
		vol, err = loadDICOM(path)
	} else {
		vol, err = loadRaster(path)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.volumes[path] = vol
	c.mu.Unlock()

	return vol, nil
}

// Clear removes all volumes from the cache.
func (c *VolumeCache) Clear() {
	c.mu.Lock()
	c.volumes = make(map[string]*Volume)
	c.mu.Unlock()
}

// Evict removes a specific volume from the cache by its path. Unknown paths
// are ignored.
func (c *VolumeCache) Evict(path string) {
	c.mu.Lock()
	delete(c.volumes, path)
	c.mu.Unlock()
}

// Len reports the number of cached volumes.
func (c *VolumeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.volumes)
}

var dicomMagic = []byte("DICM")

func looksLikeDICOM(path string) (bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcm", ".dicom":
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 132)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("failed to read file header: %w", err)
	}
	return n == len(header) && bytes.Equal(header[128:], dicomMagic), nil
}

func loadRaster(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Volume{
		Slices: []*Slice{SliceFromImage(img)},
		Format: format,
	}, nil
}

func loadDICOM(path string) (*Volume, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DICOM: %w", err)
	}

	pixelData, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("failed to find pixel data: %w", err)
	}

	info := dicom.MustGetPixelDataInfo(pixelData.Value)
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("DICOM file has no frames")
	}

	vol := &Volume{
		Slices: make([]*Slice, 0, len(info.Frames)),
		Format: "dicom",
	}
	for i, fr := range info.Frames {
		img, err := fr.GetImage()
		if err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		vol.Slices = append(vol.Slices, SliceFromImage(img))
	}

	if el, err := ds.FindElementByTag(tag.PixelSpacing); err == nil {
		if vals := dicom.MustGetStrings(el.Value); len(vals) > 0 {
			if mm, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64); err == nil {
				vol.PixelSpacingMM = mm
			}
		}
	}
	vol.Modality = firstString(ds, tag.Modality)
	vol.SeriesDescription = firstString(ds, tag.SeriesDescription)

	return vol, nil
}

func firstString(ds dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	vals := dicom.MustGetStrings(el.Value)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// VolumeInfo contains metadata about a loaded volume file.
type VolumeInfo struct {
	// Rows and Cols are the dimensions of the first slice in pixels.
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// SliceCount is the number of slices in the volume.
	SliceCount int `json:"slice_count"`

	// Format is the decoded container format.
	Format string `json:"format"`

	// PixelSpacingMM is 0 when the file carries no spacing.
	PixelSpacingMM float64 `json:"pixel_spacing_mm,omitempty"`

	Modality          string `json:"modality,omitempty"`
	SeriesDescription string `json:"series_description,omitempty"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadVolumeInfo loads a volume through the cache and reports its shape and
// acquisition metadata.
func LoadVolumeInfo(cache *VolumeCache, path string) (*VolumeInfo, error) {
	vol, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &VolumeInfo{
		SliceCount:        len(vol.Slices),
		Format:            vol.Format,
		PixelSpacingMM:    vol.PixelSpacingMM,
		Modality:          vol.Modality,
		SeriesDescription: vol.SeriesDescription,
		FileSizeBytes:     stat.Size(),
	}
	if len(vol.Slices) > 0 {
		info.Rows = vol.Slices[0].Rows
		info.Cols = vol.Slices[0].Cols
	}
	return info, nil
}

// LoadSlice is a convenience for the common "file + slice index" lookup.
func LoadSlice(cache *VolumeCache, path string, index int) (*Slice, error) {
	vol, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return vol.Slice(index)
}
