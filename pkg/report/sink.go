package report

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// FileSink is an append-only audit log. It satisfies the verification
// core's LogSink; entries are timestamped and never read back.
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
	path   string
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file %s: %v", path, err)
	}
	return &FileSink{
		file:   f,
		logger: log.New(f, "", log.LstdFlags),
		path:   path,
	}, nil
}

func (s *FileSink) Record(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Print(entry)
}

func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Close() error {
	return s.file.Close()
}
