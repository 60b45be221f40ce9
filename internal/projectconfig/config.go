// Package projectconfig provides the ProjectConfig struct and loader for
// .tissuerank.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/tissuerank/internal/classifiers"
	"github.com/spboyer/tissuerank/internal/validation"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up from the working directory.
const FileName = ".tissuerank.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultCorpusPath = "data/corpus.tsv"

	DefaultHoldout = 0.20
	DefaultSeed    = 27

	DefaultEvaluate = "first"
	DefaultWorkers  = 4

	DefaultFormat = "text"

	DefaultCacheDir = ".tissuerank-cache"

	maxSearchDepth = 10
)

// CorpusConfig locates the specimen matrix.
type CorpusConfig struct {
	Path string `yaml:"path,omitempty"`
}

// SplitConfig holds the train/eval partition parameters.
type SplitConfig struct {
	Holdout  float64 `yaml:"holdout,omitempty"`
	Seed     *int64  `yaml:"seed,omitempty"`
	Stratify *bool   `yaml:"stratify,omitempty"`
}

// ClassifierConfig is one ensemble member.
type ClassifierConfig struct {
	Name   string           `yaml:"name"`
	Type   classifiers.Kind `yaml:"type"`
	Config map[string]any   `yaml:"config,omitempty"`
}

// EnsembleConfig holds the classifier list and how it is run.
type EnsembleConfig struct {
	// Timeout is a per-classifier fit deadline in seconds; 0 means none.
	Timeout     int                `yaml:"timeout,omitempty"`
	Evaluate    string             `yaml:"evaluate,omitempty"`
	Workers     int                `yaml:"workers,omitempty"`
	Classifiers []ClassifierConfig `yaml:"classifiers,omitempty"`
}

// ReportConfig holds output defaults.
type ReportConfig struct {
	Format    string  `yaml:"format,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .tissuerank.yaml.
type ProjectConfig struct {
	Corpus   CorpusConfig   `yaml:"corpus,omitempty"`
	Split    SplitConfig    `yaml:"split,omitempty"`
	Ensemble EnsembleConfig `yaml:"ensemble,omitempty"`
	Report   ReportConfig   `yaml:"report,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// DefaultClassifiers returns the reference ensemble, in run order.
func DefaultClassifiers() []ClassifierConfig {
	return []ClassifierConfig{
		{Name: "KNN", Type: classifiers.KindKNN, Config: map[string]any{"neighbors": 5}},
		{Name: "Decision Tree", Type: classifiers.KindDecisionTree},
		{Name: "skmulti", Type: classifiers.KindOneVsRest, Config: map[string]any{"base": string(classifiers.KindDecisionTree)}},
		{Name: "Logistic regression", Type: classifiers.KindLogisticRegression},
		{Name: "Support Vector Machine Linear", Type: classifiers.KindCalibratedLinearSVC},
	}
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Corpus: CorpusConfig{Path: DefaultCorpusPath},
		Split: SplitConfig{
			Holdout:  DefaultHoldout,
			Seed:     int64Ptr(DefaultSeed),
			Stratify: boolPtr(false),
		},
		Ensemble: EnsembleConfig{
			Evaluate:    DefaultEvaluate,
			Workers:     DefaultWorkers,
			Classifiers: DefaultClassifiers(),
		},
		Report: ReportConfig{Format: DefaultFormat},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load finds .tissuerank.yaml by walking up from startDir (max 10 levels),
// validates and unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	return parse(path, data)
}

// LoadFile reads an explicit config path. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*ProjectConfig, error) {
	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return nil, &validation.Error{Path: path, Problems: errs}
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := New()
	mergeConfig(cfg, &fileCfg)
	cfg.Path = path

	baseDir := filepath.Dir(path)
	cfg.Corpus.Path = resolvePath(cfg.Corpus.Path, baseDir)
	cfg.Cache.Dir = resolvePath(cfg.Cache.Dir, baseDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks constraints the schema cannot express.
func (c *ProjectConfig) Validate() error {
	if len(c.Ensemble.Classifiers) == 0 {
		return errors.New("ensemble needs at least one classifier")
	}
	seen := make(map[string]bool, len(c.Ensemble.Classifiers))
	for i, cc := range c.Ensemble.Classifiers {
		if cc.Name == "" {
			return fmt.Errorf("classifier %d has no name", i+1)
		}
		if seen[cc.Name] {
			return fmt.Errorf("duplicate classifier name %q", cc.Name)
		}
		seen[cc.Name] = true
	}
	if c.Split.Holdout <= 0 || c.Split.Holdout >= 1 {
		return fmt.Errorf("split.holdout must be in (0, 1), got %g", c.Split.Holdout)
	}
	return nil
}

// BuildClassifiers instantiates the configured ensemble in order.
func (c *ProjectConfig) BuildClassifiers() ([]classifiers.Classifier, error) {
	out := make([]classifiers.Classifier, 0, len(c.Ensemble.Classifiers))
	for _, cc := range c.Ensemble.Classifiers {
		clf, err := classifiers.Create(cc.Type, cc.Name, cc.Config)
		if err != nil {
			return nil, fmt.Errorf("classifier %q: %w", cc.Name, err)
		}
		out = append(out, clf)
	}
	return out, nil
}

// resolvePath anchors a relative path at baseDir. URLs and absolute paths are
// returned unchanged.
func resolvePath(p, baseDir string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(baseDir, p)
}

// findConfigFile walks up from dir looking for .tissuerank.yaml. Returns
// os.ErrNotExist if no config file is found; real I/O errors propagate.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < maxSearchDepth; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst. A non-empty
// classifier list replaces the default ensemble wholesale.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Corpus.Path != "" {
		dst.Corpus.Path = src.Corpus.Path
	}

	if src.Split.Holdout != 0 {
		dst.Split.Holdout = src.Split.Holdout
	}
	if src.Split.Seed != nil {
		dst.Split.Seed = src.Split.Seed
	}
	if src.Split.Stratify != nil {
		dst.Split.Stratify = src.Split.Stratify
	}

	if src.Ensemble.Timeout != 0 {
		dst.Ensemble.Timeout = src.Ensemble.Timeout
	}
	if src.Ensemble.Evaluate != "" {
		dst.Ensemble.Evaluate = src.Ensemble.Evaluate
	}
	if src.Ensemble.Workers != 0 {
		dst.Ensemble.Workers = src.Ensemble.Workers
	}
	if len(src.Ensemble.Classifiers) > 0 {
		dst.Ensemble.Classifiers = src.Ensemble.Classifiers
	}

	if src.Report.Format != "" {
		dst.Report.Format = src.Report.Format
	}
	if src.Report.Threshold != 0 {
		dst.Report.Threshold = src.Report.Threshold
	}

	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func int64Ptr(v int64) *int64 {
	return &v
}
