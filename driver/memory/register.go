package memory

import "github.com/gobeaver/imagefield"

func init() {
	imagefield.RegisterDriver("memory", func(cfg *imagefield.Config) (imagefield.FileSystem, error) {
		return New(Config{MaxSize: cfg.MemoryMaxSize}), nil
	})
}
