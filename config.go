package seatsanalyzer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config overrides values of the module's configuration file. An empty path
// or a zero thread count means "use the configuration file default", and a
// nil inferencer keeps the module's built-in inference. ComputationMode has
// no unset value: a supplied Config always selects the mode.
type Config struct {
	// Detection assets.
	DetSDKDirectory    string `json:"det_sdk_directory,omitempty"`
	DetConfigDirectory string `json:"det_config_directory,omitempty"`
	DetConfigFile      string `json:"det_config_file,omitempty"`

	// Classification assets.
	SclModelDirectory      string `json:"scl_model_directory,omitempty"`
	SclModelFilename       string `json:"scl_model_filename,omitempty"`
	SclModelPTableFilename string `json:"scl_model_p_table_filename,omitempty"`

	ComputationMode ComputationMode `json:"computation_mode"`
	// GPUDeviceID is only read when ComputationMode is GPU or TPU.
	GPUDeviceID int `json:"gpu_device_id"`
	// NumThreads bounds parallelism inside one call. Zero leaves the
	// module's default.
	NumThreads int `json:"num_threads"`

	// External inference. Each inferencer needs a positive output size.
	DetInference           Inferencer `json:"-"`
	DetInferenceOutputSize int        `json:"det_inference_output_buffer_size,omitempty"`
	SclInference           Inferencer `json:"-"`
	SclInferenceOutputSize int        `json:"scl_inference_output_buffer_size,omitempty"`
}

// Validate checks the non-path settings.
func (c *Config) Validate() error {
	var errs []error

	if !c.ComputationMode.Valid() {
		errs = append(errs, fmt.Errorf("computation_mode %d is not cpu, gpu or tpu", int(c.ComputationMode)))
	}
	if c.ComputationMode != ModeCPU && c.GPUDeviceID < 0 {
		errs = append(errs, fmt.Errorf("gpu_device_id must be >= 0 for %s mode, got %d", c.ComputationMode, c.GPUDeviceID))
	}
	if c.NumThreads < 0 {
		errs = append(errs, fmt.Errorf("num_threads must be >= 0, got %d", c.NumThreads))
	}
	if err := checkInference("det", c.DetInference, c.DetInferenceOutputSize); err != nil {
		errs = append(errs, err)
	}
	if err := checkInference("scl", c.SclInference, c.SclInferenceOutputSize); err != nil {
		errs = append(errs, err)
	}
	for name, p := range c.paths() {
		if len(p) >= MaxPath {
			errs = append(errs, fmt.Errorf("%s is %d bytes, limit is %d", name, len(p), MaxPath-1))
		}
	}

	return errors.Join(errs...)
}

func checkInference(prefix string, inf Inferencer, size int) error {
	switch {
	case size < 0:
		return fmt.Errorf("%s_inference_output_buffer_size must be >= 0, got %d", prefix, size)
	case inf != nil && size == 0:
		return fmt.Errorf("%s_inference_callback needs a positive output buffer size", prefix)
	case inf == nil && size > 0:
		return fmt.Errorf("%s_inference_output_buffer_size set without a callback", prefix)
	}
	return nil
}

func (c *Config) paths() map[string]string {
	return map[string]string{
		"det_sdk_directory":          c.DetSDKDirectory,
		"det_config_directory":       c.DetConfigDirectory,
		"det_config_file":            c.DetConfigFile,
		"scl_model_directory":        c.SclModelDirectory,
		"scl_model_filename":         c.SclModelFilename,
		"scl_model_p_table_filename": c.SclModelPTableFilename,
	}
}

// CheckPaths verifies that every provided path can be read. Relative
// directories resolve against baseDir. A file name is checked only when it is
// absolute or its directory field is also set; otherwise it resolves against
// the directory named in the configuration file, which only the module knows.
func (c *Config) CheckPaths(baseDir string) error {
	var errs []error

	var detDir, sclDir string
	if c.DetConfigDirectory != "" {
		detDir = ResolvePath(baseDir, c.DetConfigDirectory)
	}
	if c.SclModelDirectory != "" {
		sclDir = ResolvePath(baseDir, c.SclModelDirectory)
	}

	dirs := []struct{ name, path string }{
		{"det_sdk_directory", c.DetSDKDirectory},
		{"det_config_directory", c.DetConfigDirectory},
		{"scl_model_directory", c.SclModelDirectory},
	}
	for _, d := range dirs {
		if d.path == "" {
			continue
		}
		if err := readableDir(ResolvePath(baseDir, d.path)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		}
	}

	files := []struct{ name, dir, path string }{
		{"det_config_file", detDir, c.DetConfigFile},
		{"scl_model_filename", sclDir, c.SclModelFilename},
		{"scl_model_p_table_filename", sclDir, c.SclModelPTableFilename},
	}
	for _, f := range files {
		if f.path == "" || (f.dir == "" && !filepath.IsAbs(f.path)) {
			continue
		}
		if err := readableFile(ResolvePath(f.dir, f.path)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}

	return errors.Join(errs...)
}

// ResolvePath joins a relative p onto base. Absolute and empty paths are
// returned unchanged.
func ResolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

func readableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func readableFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
