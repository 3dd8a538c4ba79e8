package local

import "github.com/gobeaver/imagefield"

func init() {
	imagefield.RegisterDriver("local", func(cfg *imagefield.Config) (imagefield.FileSystem, error) {
		return New(cfg.LocalBasePath)
	})
}
