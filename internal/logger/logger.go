package logger

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"sync"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const SystemTag = "SYSTEM"

var (
	mu                  sync.RWMutex
	logChan             chan model.LogRecord
	drained             chan struct{}
	loggerBufferSize    = 1000
	LoggerSleepDuration = 100 * time.Millisecond
)

func SetupLogger(level string) {
	loggerLevel, err := log.ParseLevel(level)
	log.SetReportCaller(true)

	log.SetFormatter(&log.JSONFormatter{
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
		},
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if err != nil {
		log.Infof("Level setup default INFO, err: %v", err)
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(loggerLevel)
	}
}

// InitLogger starts persisting system events into the system project of repo.
func InitLogger(repo repository.LogRepository) {
	mu.Lock()
	defer mu.Unlock()
	logChan = make(chan model.LogRecord, loggerBufferSize)
	drained = make(chan struct{})
	go processLogs(repo, logChan, drained)
}

func processLogs(repo repository.LogRepository, ch <-chan model.LogRecord, done chan<- struct{}) {
	defer close(done)
	for record := range ch {
		if _, err := repo.Append(context.Background(), &record); err != nil {
			log.Errorf("failed to save system log: %v", err)
		}
	}
}

func logAsync(level string, tags []string, metadata map[string]any, message string) {
	entry := log.WithField("tags", tags)
	if len(metadata) > 0 {
		entry = entry.WithField("metadata", metadata)
	}
	switch level {
	case model.LogLevelError, model.LogLevelCritical:
		entry.Error(message)
	case model.LogLevelWarning:
		entry.Warn(message)
	default:
		entry.Info(message)
	}

	mu.RLock()
	defer mu.RUnlock()
	if logChan == nil {
		return
	}

	record := model.LogRecord{
		ProjectID: model.SystemProjectID,
		Level:     level,
		Message:   message,
		Tags:      append([]string{SystemTag}, tags...),
		Metadata:  systemMetadata(metadata),
		Timestamp: time.Now().UTC(),
	}

	select {
	case logChan <- record:
	default:
		log.Errorf("log channel full. Dropping log: %s", message)
	}
}

func Info(v ...interface{}) {
	logAsync(model.LogLevelInfo, nil, nil, fmt.Sprint(v...))
}

func Infof(format string, v ...interface{}) {
	logAsync(model.LogLevelInfo, nil, nil, fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	logAsync(model.LogLevelWarning, nil, nil, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	logAsync(model.LogLevelError, nil, nil, fmt.Sprintf(format, v...))
}

// Event records a system event carrying extra tags, e.g. VALIDATION or PING.
func Event(level string, tags []string, format string, v ...interface{}) {
	logAsync(level, tags, nil, fmt.Sprintf(format, v...))
}

// EventWith is Event with metadata attached to the stored record. A service
// key in metadata replaces the default one.
func EventWith(level string, tags []string, metadata map[string]any, format string, v ...interface{}) {
	logAsync(level, tags, metadata, fmt.Sprintf(format, v...))
}

func systemMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	out[model.MetadataService] = "logpulse"
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

// CronLogger routes cron's own diagnostics through logrus.
func CronLogger() cron.Logger {
	return cron.PrintfLogger(log.StandardLogger())
}

// Shutdown stops accepting system events and waits for the queued ones to be stored.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	ch, done := logChan, drained
	logChan, drained = nil, nil
	mu.Unlock()
	if ch == nil {
		return nil
	}
	close(ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case <-time.After(LoggerSleepDuration):
			log.Debugf("waiting for %d system logs to be stored", len(ch))
		}
	}
}
