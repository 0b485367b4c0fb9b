package reference

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/detection"
)

// maxFileSize bounds every YAML file the module reads.
const maxFileSize = 1 * 1024 * 1024

// FileConfig is the module's configuration file.
//
//	computation_mode: cpu
//	num_threads: 2
//	detection:
//	  config_directory: det
//	  config_file: windshield.yaml
//	  min_confidence: 0.5
//	classification:
//	  model_directory: scl
//	  model_filename: seats.yaml
//	  p_table_filename: calibration.yaml
type FileConfig struct {
	ComputationMode string               `yaml:"computation_mode"`
	GPUDeviceID     int                  `yaml:"gpu_device_id"`
	NumThreads      int                  `yaml:"num_threads"`
	Detection       DetectionConfig      `yaml:"detection"`
	Classification  ClassificationConfig `yaml:"classification"`
}

// DetectionConfig is the detection section of FileConfig.
type DetectionConfig struct {
	SDKDirectory    string `yaml:"sdk_directory"`
	ConfigDirectory string `yaml:"config_directory"`
	// ConfigFile holds detector tuning (detection.Params) in YAML.
	ConfigFile string `yaml:"config_file"`
	// MinConfidence drops weaker detections.
	MinConfidence float64 `yaml:"min_confidence"`
	// MaxDetections caps the detections of one call. Zero means no cap.
	MaxDetections int `yaml:"max_detections"`
}

// ClassificationConfig is the classification section of FileConfig.
type ClassificationConfig struct {
	ModelDirectory string `yaml:"model_directory"`
	// ModelFilename holds a Model in YAML.
	ModelFilename string `yaml:"model_filename"`
	// PTableFilename holds a PTable in YAML.
	PTableFilename string `yaml:"p_table_filename"`
	// UndeterminedMargin is the distance from 0.5 inside which a task
	// leans towards "?".
	UndeterminedMargin float64 `yaml:"undetermined_margin"`
}

// Model tunes the built-in seat heuristics.
type Model struct {
	// DriverSide is the seat of the driver as seen by the camera, "left"
	// or "right".
	DriverSide string `yaml:"driver_side"`
	// EdgeDensityScale is the edge density read as a fully cluttered seat.
	EdgeDensityScale float64 `yaml:"edge_density_scale"`
	// BeltMinLineRatio is the shortest belt line relative to the seat
	// height.
	BeltMinLineRatio float64 `yaml:"belt_min_line_ratio"`
}

// DefaultModel returns the heuristics used without a model file.
func DefaultModel() Model {
	return Model{DriverSide: "left", EdgeDensityScale: 0.1, BeltMinLineRatio: 0.25}
}

// Validate checks the model values.
func (m Model) Validate() error {
	var errs []error
	if m.DriverSide != "left" && m.DriverSide != "right" {
		errs = append(errs, fmt.Errorf("driver_side must be left or right, got %q", m.DriverSide))
	}
	if m.EdgeDensityScale <= 0 || m.EdgeDensityScale > 1 {
		errs = append(errs, fmt.Errorf("edge_density_scale must be in (0, 1], got %f", m.EdgeDensityScale))
	}
	if m.BeltMinLineRatio <= 0 || m.BeltMinLineRatio > 1 {
		errs = append(errs, fmt.Errorf("belt_min_line_ratio must be in (0, 1], got %f", m.BeltMinLineRatio))
	}
	return errors.Join(errs...)
}

// PTable calibrates raw occupancy scores into probabilities by linear
// interpolation between breakpoints.
type PTable struct {
	Breakpoints []Breakpoint `yaml:"breakpoints"`
}

// Breakpoint maps one raw score to a probability.
type Breakpoint struct {
	Score       float64 `yaml:"score"`
	Probability float64 `yaml:"probability"`
}

// Apply returns the calibrated probability of raw. An empty table is the
// identity.
func (p PTable) Apply(raw float64) float64 {
	bp := p.Breakpoints
	if len(bp) == 0 {
		return raw
	}
	if raw <= bp[0].Score {
		return bp[0].Probability
	}
	for i := 1; i < len(bp); i++ {
		if raw <= bp[i].Score {
			lo, hi := bp[i-1], bp[i]
			f := (raw - lo.Score) / (hi.Score - lo.Score)
			return lo.Probability + f*(hi.Probability-lo.Probability)
		}
	}
	return bp[len(bp)-1].Probability
}

// Validate checks ordering and range of the breakpoints.
func (p PTable) Validate() error {
	for i, b := range p.Breakpoints {
		if b.Probability < 0 || b.Probability > 1 {
			return fmt.Errorf("breakpoint %d: probability must be between 0 and 1, got %f", i, b.Probability)
		}
		if i > 0 && b.Score <= p.Breakpoints[i-1].Score {
			return fmt.Errorf("breakpoint %d: scores must increase", i)
		}
	}
	return nil
}

// ConfigFileName is the configuration file an SDK directory holds for this
// module.
const ConfigFileName = "config.yaml"

// DefaultConfigPath returns <sdkDir>/config.yaml.
func DefaultConfigPath(sdkDir string) string {
	return filepath.Join(sdkDir, ConfigFileName)
}

// LoadFileConfig reads and validates the configuration file at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Mode parses ComputationMode; empty means cpu.
func (c *FileConfig) Mode() (seatsanalyzer.ComputationMode, error) {
	if c.ComputationMode == "" {
		return seatsanalyzer.ModeCPU, nil
	}
	return seatsanalyzer.ParseComputationMode(c.ComputationMode)
}

// Validate checks the values that do not touch the filesystem.
func (c *FileConfig) Validate() error {
	var errs []error

	mode, err := c.Mode()
	if err != nil {
		errs = append(errs, err)
	}
	if mode != seatsanalyzer.ModeCPU && c.GPUDeviceID < 0 {
		errs = append(errs, fmt.Errorf("gpu_device_id must be >= 0, got %d", c.GPUDeviceID))
	}
	if c.NumThreads < 0 {
		errs = append(errs, fmt.Errorf("num_threads must be >= 0, got %d", c.NumThreads))
	}
	if v := c.Detection.MinConfidence; v < 0 || v > 1 {
		errs = append(errs, fmt.Errorf("detection.min_confidence must be between 0 and 1, got %f", v))
	}
	if c.Detection.MaxDetections < 0 {
		errs = append(errs, fmt.Errorf("detection.max_detections must be >= 0, got %d", c.Detection.MaxDetections))
	}
	if v := c.Classification.UndeterminedMargin; v < 0 || v >= 0.5 {
		errs = append(errs, fmt.Errorf("classification.undetermined_margin must be in [0, 0.5), got %f", v))
	}

	return errors.Join(errs...)
}

// apply overlays the non-zero paths and thread count of o. The computation
// mode of a supplied override always wins.
func (c *FileConfig) apply(o *seatsanalyzer.Config) {
	if o == nil {
		return
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Detection.SDKDirectory, o.DetSDKDirectory)
	set(&c.Detection.ConfigDirectory, o.DetConfigDirectory)
	set(&c.Detection.ConfigFile, o.DetConfigFile)
	set(&c.Classification.ModelDirectory, o.SclModelDirectory)
	set(&c.Classification.ModelFilename, o.SclModelFilename)
	set(&c.Classification.PTableFilename, o.SclModelPTableFilename)

	c.ComputationMode = o.ComputationMode.String()
	if o.ComputationMode == seatsanalyzer.ModeGPU || o.ComputationMode == seatsanalyzer.ModeTPU {
		c.GPUDeviceID = o.GPUDeviceID
	}
	if o.NumThreads > 0 {
		c.NumThreads = o.NumThreads
	}
}

// assets are the sidecar files named by a FileConfig.
type assets struct {
	params detection.Params
	model  Model
	ptable PTable
}

// assetError reports a sidecar that is absent (missing) or malformed.
type assetError struct {
	missing bool
	err     error
}

func (e *assetError) Error() string { return e.err.Error() }
func (e *assetError) Unwrap() error { return e.err }

// loadAssets reads the sidecar files, resolving relative paths against
// baseDir and file names against their section directory.
func (c *FileConfig) loadAssets(baseDir string) (*assets, error) {
	a := &assets{model: DefaultModel()}

	if d := c.Detection.SDKDirectory; d != "" {
		if err := checkDir(seatsanalyzer.ResolvePath(baseDir, d)); err != nil {
			return nil, &assetError{missing: true, err: fmt.Errorf("detection.sdk_directory: %w", err)}
		}
	}

	detDir := baseDir
	if d := c.Detection.ConfigDirectory; d != "" {
		detDir = seatsanalyzer.ResolvePath(baseDir, d)
		if err := checkDir(detDir); err != nil {
			return nil, &assetError{missing: true, err: fmt.Errorf("detection.config_directory: %w", err)}
		}
	}
	if f := c.Detection.ConfigFile; f != "" {
		if err := loadAsset(seatsanalyzer.ResolvePath(detDir, f), &a.params); err != nil {
			return nil, err
		}
	}

	sclDir := baseDir
	if d := c.Classification.ModelDirectory; d != "" {
		sclDir = seatsanalyzer.ResolvePath(baseDir, d)
		if err := checkDir(sclDir); err != nil {
			return nil, &assetError{missing: true, err: fmt.Errorf("classification.model_directory: %w", err)}
		}
	}
	if f := c.Classification.ModelFilename; f != "" {
		if err := loadAsset(seatsanalyzer.ResolvePath(sclDir, f), &a.model); err != nil {
			return nil, err
		}
		if err := a.model.Validate(); err != nil {
			return nil, &assetError{err: fmt.Errorf("model: %w", err)}
		}
	}
	if f := c.Classification.PTableFilename; f != "" {
		if err := loadAsset(seatsanalyzer.ResolvePath(sclDir, f), &a.ptable); err != nil {
			return nil, err
		}
		sort.Slice(a.ptable.Breakpoints, func(i, j int) bool {
			return a.ptable.Breakpoints[i].Score < a.ptable.Breakpoints[j].Score
		})
		if err := a.ptable.Validate(); err != nil {
			return nil, &assetError{err: fmt.Errorf("p-table: %w", err)}
		}
	}

	return a, nil
}

func loadAsset(path string, out any) error {
	if _, err := os.Stat(path); err != nil {
		return &assetError{missing: true, err: err}
	}
	if err := readYAML(path, out); err != nil {
		return &assetError{err: err}
	}
	return nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// readYAML decodes the YAML file at path into out, rejecting unknown keys.
// The file must have a .yaml or .yml extension and be at most 1MB.
func readYAML(path string, out any) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(cleanPath), err)
	}
	return nil
}
