// Package audit writes the attendance audit trail to a rotating log
// file. Every check-in and check-out attempt is recorded, including
// rejected QR payloads, so disputes can be resolved after the fact.
package audit

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger appends audit lines to a size-rotated file.
type Logger struct {
	out *log.Logger
}

// New creates an audit logger writing to path. Rotation keeps the trail
// bounded: 10 MB per file, 5 backups, 90 days.
func New(path string) *Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     90,
	}
	return &Logger{out: log.New(w, "", log.LstdFlags|log.LUTC)}
}

// CheckAttempt records a check-in/check-out attempt and whether the QR
// payload was accepted.
func (l *Logger) CheckAttempt(userID int64, kind, rawQR string, accepted bool) {
	verdict := "accepted"
	if !accepted {
		verdict = "rejected"
	}
	l.out.Printf("[%s] user=%d qr=%q %s", kind, userID, rawQR, verdict)
}
