// Package blob is the entry point for object storage: it re-exports the
// contract from internal/blob/core and selects a backend from configuration.
// Only this package imports the infra implementations.
package blob

import (
	"proteomecore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound reports a missing key.
	ErrNotFound = core.ErrNotFound
	// ErrExists reports a Put onto a taken key.
	ErrExists = core.ErrExists
	// ErrInvalidKey reports a malformed key.
	ErrInvalidKey = core.ErrInvalidKey
)
