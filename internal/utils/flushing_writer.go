package utils

import (
	"io"
	"sync"

	"go.uber.org/zap/zapcore"
)

type flusher interface {
	Flush() error
}

// consoleWriteSyncer serializes console log lines and flushes buffered destinations after each line.
type consoleWriteSyncer struct {
	mutex       sync.Mutex
	destination io.Writer
}

func newConsoleWriteSyncer(destination io.Writer) zapcore.WriteSyncer {
	if syncer, isSyncer := destination.(*consoleWriteSyncer); isSyncer {
		return syncer
	}
	return &consoleWriteSyncer{destination: destination}
}

func (syncer *consoleWriteSyncer) Write(line []byte) (int, error) {
	syncer.mutex.Lock()
	defer syncer.mutex.Unlock()

	written, writeError := syncer.destination.Write(line)
	if writeError != nil {
		return written, writeError
	}
	return written, syncer.flushLocked()
}

// Sync flushes the destination when it buffers.
func (syncer *consoleWriteSyncer) Sync() error {
	syncer.mutex.Lock()
	defer syncer.mutex.Unlock()
	return syncer.flushLocked()
}

func (syncer *consoleWriteSyncer) flushLocked() error {
	buffered, buffers := syncer.destination.(flusher)
	if !buffers {
		return nil
	}
	return buffered.Flush()
}
