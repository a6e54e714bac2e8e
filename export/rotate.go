package export

import "gopkg.in/natefinch/lumberjack.v2"

// RotatingFile opens a size- and age-rotated destination for the raw
// field-record or diagnostic log streams, the way the teacher's own
// corpus hands a lumberjack.Logger to its structured logger instead
// of a bare os.File.
func RotatingFile(path string, maxSizeMB, maxBackups, maxAgeDays int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
}
