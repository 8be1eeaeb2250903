// Package largefiles finds tracked files big enough to be rejected by hosted git remotes.
package largefiles

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/shared"
)

const (
	defaultLimitMegabytesConstant  = 50
	bytesPerMegabyteConstant       = 1024 * 1024
	limitConfigKeySuffix           = ".limit_mb"
	gitManagerNotConfiguredMessage = "git repository manager not configured"
	listTrackedFilesErrorTemplate  = "list tracked files in %s: %w"
	trackedFileSkippedLogMessage   = "tracked file missing from working tree"
	logFieldPathConstant           = "path"
)

// ErrGitManagerNotConfigured indicates the scanner was built without git access.
var ErrGitManagerNotConfigured = errors.New(gitManagerNotConfiguredMessage)

// Configuration holds the size threshold in mebibytes.
type Configuration struct {
	LimitMegabytes int `mapstructure:"limit_mb"`
}

// DefaultConfiguration returns the GitHub hard limit.
func DefaultConfiguration() Configuration {
	return Configuration{LimitMegabytes: defaultLimitMegabytesConstant}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{prefix + limitConfigKeySuffix: defaultLimitMegabytesConstant}
}

// LimitBytes converts the threshold to bytes, falling back to the default for non-positive values.
func (configuration Configuration) LimitBytes() int64 {
	limit := configuration.LimitMegabytes
	if limit <= 0 {
		limit = defaultLimitMegabytesConstant
	}
	return int64(limit) * bytesPerMegabyteConstant
}

// LargeFile is a tracked file above the threshold. Path is relative to the project.
type LargeFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// HumanSize renders the size with binary units, e.g. "64 MiB".
func (file LargeFile) HumanSize() string {
	return humanize.IBytes(uint64(file.Size))
}

// Report lists the large files of one project, largest first.
type Report struct {
	Project shared.Project `json:"project"`
	Files   []LargeFile    `json:"files"`
}

// GitRepositoryManager lists tracked files.
type GitRepositoryManager interface {
	ListTrackedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
}

// Scanner stats tracked files against a size threshold.
type Scanner struct {
	fileSystem afero.Fs
	gitManager GitRepositoryManager
	logger     *zap.Logger
}

// NewScanner constructs a Scanner.
func NewScanner(fileSystem afero.Fs, gitManager GitRepositoryManager, logger *zap.Logger) (*Scanner, error) {
	if gitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{fileSystem: fileSystem, gitManager: gitManager, logger: logger}, nil
}

// Scan reports tracked files strictly larger than limitBytes. Tracked files that are missing
// from the working tree or are not regular files are skipped.
func (scanner *Scanner) Scan(executionContext context.Context, project shared.Project, limitBytes int64) (Report, error) {
	trackedFiles, listError := scanner.gitManager.ListTrackedFiles(executionContext, project.Path)
	if listError != nil {
		return Report{}, fmt.Errorf(listTrackedFilesErrorTemplate, project.Path, listError)
	}

	report := Report{Project: project, Files: []LargeFile{}}
	for _, trackedFile := range trackedFiles {
		info, statError := scanner.fileSystem.Stat(filepath.Join(project.Path, filepath.FromSlash(trackedFile)))
		if statError != nil {
			scanner.logger.Debug(trackedFileSkippedLogMessage, zap.String(logFieldPathConstant, trackedFile), zap.Error(statError))
			continue
		}
		if !info.Mode().IsRegular() || info.Size() <= limitBytes {
			continue
		}
		report.Files = append(report.Files, LargeFile{Path: trackedFile, Size: info.Size()})
	}

	sort.Slice(report.Files, func(left int, right int) bool {
		if report.Files[left].Size != report.Files[right].Size {
			return report.Files[left].Size > report.Files[right].Size
		}
		return report.Files[left].Path < report.Files[right].Path
	})
	return report, nil
}
