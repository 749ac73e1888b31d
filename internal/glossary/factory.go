// Package glossary selects a glossary source implementation from the
// process environment.
package glossary

import (
	"context"
	"fmt"
	"os"

	"refmap/internal/infra/glossary/fs"
	"refmap/internal/infra/glossary/memory"
	"refmap/internal/infra/glossary/s3"
	"refmap/pkg/domain"
)

// Driver identifies a glossary source backend.
type Driver string

// Supported drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Source aliases the domain glossary source contract.
type Source = domain.GlossarySource

// Open selects a glossary source using environment variables.
//
//	REFMAP_GLOSSARY_DRIVER: fs|s3|memory (default fs)
//	REFMAP_GLOSSARY_FS_PATH: JSON document path when driver=fs (default ./glossary.json)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Source, error) {
	driver := os.Getenv("REFMAP_GLOSSARY_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		path := os.Getenv("REFMAP_GLOSSARY_FS_PATH")
		if path == "" {
			path = "glossary.json"
		}
		return fs.NewSource(path)
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.NewSource(nil), nil
	default:
		return nil, fmt.Errorf("unknown glossary driver %s", driver)
	}
}
