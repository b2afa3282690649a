package units

// Byte size constants for consistent usage across the codebase.
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * 1024
	BytesPerGB int64 = 1024 * 1024 * 1024 // 1,073,741,824
)
