package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// OptionsFromEnv reads backend selection from the environment:
//
//	PROTEOME_BLOB_DRIVER: fs|s3|memory (default fs)
//	PROTEOME_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	PROTEOME_BLOB_S3_*: see the s3 infra package
func OptionsFromEnv() Options {
	return Options{
		Driver: Driver(strings.ToLower(os.Getenv("PROTEOME_BLOB_DRIVER"))),
		FSRoot: os.Getenv("PROTEOME_BLOB_FS_ROOT"),
		S3:     S3ConfigFromEnv(),
	}
}

// Open builds the store described by opts. An empty driver selects fs.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}

// OpenFromEnv is Open(ctx, OptionsFromEnv()).
func OpenFromEnv(ctx context.Context) (Store, error) {
	return Open(ctx, OptionsFromEnv())
}
