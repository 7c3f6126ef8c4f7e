package generator

import (
	"context"
)

// Base implements the state every generator shares: configuration, target directory
// and prepared files. Service kinds embed it and add Prepare.
type Base struct {
	config    *ServiceConfig
	targetDir string
	files     FileSet
	defaults  func() *ServiceConfig
}

// NewBase constructs a Base whose default configuration is produced by defaults.
// A nil defaults yields an empty configuration.
func NewBase(defaults func() *ServiceConfig) Base {
	return Base{defaults: defaults}
}

// Reset drops prepared files and restores the default configuration.
func (b *Base) Reset() {
	b.files.Reset()
	b.config = b.defaultConfig()
}

// Config returns the current configuration.
func (b *Base) Config() *ServiceConfig {
	return b.config
}

// SetConfig merges cfg into the current configuration; nil restores the defaults.
func (b *Base) SetConfig(cfg *ServiceConfig) error {
	if cfg == nil {
		b.config = b.defaultConfig()
		return nil
	}
	if b.config == nil {
		b.config = b.defaultConfig()
	}
	b.config.Merge(cfg)
	return nil
}

// SetTargetDirectory sets the output directory.
func (b *Base) SetTargetDirectory(dir string) {
	b.targetDir = dir
}

// TargetDirectory returns the output directory.
func (b *Base) TargetDirectory() string {
	return b.targetDir
}

// AddFile queues a file for WriteFiles.
func (b *Base) AddFile(f File) {
	b.files.Add(f)
}

// Files returns the queued files.
func (b *Base) Files() []File {
	return b.files.Files()
}

// WriteFiles writes the queued files into the target directory.
func (b *Base) WriteFiles(ctx context.Context) error {
	return b.files.Write(ctx, b.targetDir)
}

// PostInstallActions is a no-op by default.
func (b *Base) PostInstallActions(context.Context) error {
	return nil
}

func (b *Base) defaultConfig() *ServiceConfig {
	if b.defaults == nil {
		return &ServiceConfig{}
	}
	return b.defaults()
}
