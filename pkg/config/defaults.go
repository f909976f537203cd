package config

// Table defaults.
const (
	DefaultTableSize = 1024
)

// Snapshot defaults.
const (
	DefaultSnapshotDirectory = "."
	DefaultSnapshotBasename  = "pieces"
	DefaultSnapshotCodec     = CodecBinary
	DefaultSnapshotMaxSize   = "64MB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Observability defaults.
const (
	DefaultServiceName     = "pieces"
	DefaultShutdownTimeout = "5s"
)
