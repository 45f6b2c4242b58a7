package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// ScannerVersion is stored with every scan record.
	ScannerVersion = "1.1.0"
	// DefaultScanTimeout bounds a whole scan request, fetch through persistence.
	DefaultScanTimeout = 90 * time.Second
	// DefaultNarrativeItemTimeout bounds one summary or fix generation call.
	DefaultNarrativeItemTimeout = 15 * time.Second
	// DefaultHistoryLimit is used when a history query gives no limit.
	DefaultHistoryLimit = 20
)
