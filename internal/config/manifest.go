package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/scrollshot"
)

// Manifest describes one capture: the segment files in capture order and
// their geometry.
//
//	overlap_pixels: 20
//	total_height_hint: 1730
//	segments:
//	  - file: seg-000.png
//	    y: 0
//	    height: 800
//	  - file: seg-002.png
//	    y: 1330
//	    height: 400
//	    last: true
//	    remaining_content_height: 150
type Manifest struct {
	OverlapPixels   *int              `yaml:"overlap_pixels"`
	TotalWidthHint  int               `yaml:"total_width_hint"`
	TotalHeightHint int               `yaml:"total_height_hint"`
	Segments        []ManifestSegment `yaml:"segments"`

	dir string
}

// ManifestSegment is one entry of a Manifest.
type ManifestSegment struct {
	File                   string `yaml:"file"`
	Y                      int    `yaml:"y"`
	ActualScrollY          int    `yaml:"actual_scroll_y"`
	Height                 int    `yaml:"height"`
	Last                   bool   `yaml:"last"`
	RemainingContentHeight *int   `yaml:"remaining_content_height"`
}

// LoadManifest reads a YAML manifest. Relative segment paths resolve against
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes and validates a YAML manifest.
//
// When no segment is marked last, the final one is. Only the final segment
// may be marked last or carry remaining_content_height.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	n := len(m.Segments)
	for i, s := range m.Segments {
		if s.File == "" {
			return nil, fmt.Errorf("segment %d: file is required", i)
		}
		if i < n-1 && (s.Last || s.RemainingContentHeight != nil) {
			return nil, fmt.Errorf("segment %d: only the final segment may be last", i)
		}
	}
	if n > 1 && !m.Segments[n-1].Last {
		m.Segments[n-1].Last = true
	}
	return &m, nil
}

// Path returns the file path of segment i.
func (m *Manifest) Path(i int) string {
	p := m.Segments[i].File
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Request reads every segment with read (os.ReadFile when nil) and builds a
// stitch request.
func (m *Manifest) Request(read func(string) ([]byte, error)) (scrollshot.StitchRequest, error) {
	if read == nil {
		read = os.ReadFile
	}
	req := scrollshot.StitchRequest{
		TotalWidthHint:  m.TotalWidthHint,
		TotalHeightHint: m.TotalHeightHint,
		Config:          scrollshot.DefaultConfig(),
	}
	if m.OverlapPixels != nil {
		req.Config.OverlapPixels = *m.OverlapPixels
	}

	var errs []error
	for i, s := range m.Segments {
		data, err := read(m.Path(i))
		if err != nil {
			errs = append(errs, fmt.Errorf("segment %d: %w", i, err))
			continue
		}
		req.Segments = append(req.Segments, scrollshot.Segment{
			Data:                   data,
			Y:                      s.Y,
			ActualScrollY:          s.ActualScrollY,
			Height:                 s.Height,
			IsLastSegment:          s.Last,
			RemainingContentHeight: s.RemainingContentHeight,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return scrollshot.StitchRequest{}, err
	}
	return req, nil
}
