// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"cellseg/internal/segmentation"
)

// File represents a segmentation project file (.cellseg).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// ImagePath is relative to the project file when possible.
	ImagePath string `json:"image,omitempty"`

	// SegmentationPath is where the polygon data lives, relative to the
	// project file.
	SegmentationPath string `json:"segmentation,omitempty"`

	// MicronsPerPixel overrides any calibration read from the image.
	MicronsPerPixel float64 `json:"microns_per_pixel,omitempty"`

	Settings Settings `json:"settings,omitempty"`
}

// Settings holds user preferences for the project.
type Settings struct {
	AutoSegmentOnOpen bool    `json:"auto_segment_on_open"`
	MinArea           float64 `json:"min_area,omitempty"`
	SimplifyTolerance float64 `json:"simplify_tolerance,omitempty"`
	InvertThreshold   bool    `json:"invert_threshold,omitempty"`
}

// New creates a project with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
		Settings: Settings{
			AutoSegmentOnOpen: true,
			MinArea:           100,
			SimplifyTolerance: 1.5,
		},
	}
}

// Load reads a project from a .cellseg file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// Save writes the project to a file, bumping the modified timestamp.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetImage records the image path relative to the project file.
func (p *File) SetImage(projectPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the project's image.
func (p *File) GetImagePath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}

// GetSegmentationPath returns the absolute path to the polygon data file,
// defaulting to <project>_segmentation.json beside the project.
func (p *File) GetSegmentationPath(projectPath string) string {
	if p.SegmentationPath == "" {
		base := projectPath[:len(projectPath)-len(filepath.Ext(projectPath))]
		return base + "_segmentation.json"
	}
	if filepath.IsAbs(p.SegmentationPath) {
		return p.SegmentationPath
	}
	return filepath.Join(filepath.Dir(projectPath), p.SegmentationPath)
}

// LoadSegmentation reads the polygon data referenced by the project.
// A missing file yields an empty segmentation rather than an error.
func (p *File) LoadSegmentation(projectPath string) (*segmentation.Data, error) {
	data, err := os.ReadFile(p.GetSegmentationPath(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return &segmentation.Data{}, nil
		}
		return nil, err
	}
	return segmentation.Parse(data)
}

// SaveSegmentation writes the polygon data beside the project file.
func (p *File) SaveSegmentation(projectPath string, d *segmentation.Data) error {
	data, err := segmentation.Encode(d)
	if err != nil {
		return err
	}
	return os.WriteFile(p.GetSegmentationPath(projectPath), data, 0644)
}
