package protocol

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	gitManagerNotConfiguredMessage = "git repository manager not configured"
	notGitRepositoryMessage        = "not a git repository"
	noRemoteMessage                = "no origin remote"
	alreadySSHMessage              = "already using ssh"
	foreignHostTemplate            = "origin %s is not hosted on %s"
	unparsableRemoteTemplate       = "origin %s is not a recognized remote url"
	readRemoteFailedTemplate       = "read origin: %v"
	setRemoteFailedTemplate        = "set origin to %s: %v"
	formatRemoteFailedTemplate     = "build ssh url: %v"
	defaultGitHubHostConstant      = "github.com"
	convertedLogMessage            = "origin converted to ssh"
	plannedLogMessage              = "origin would be converted to ssh"
	logFieldProjectConstant        = "project"
	logFieldPreviousURLConstant    = "previous_remote_url"
	logFieldRemoteURLConstant      = "remote_url"
)

// ErrGitManagerNotConfigured indicates the converter was built without git access.
var ErrGitManagerNotConfigured = errors.New(gitManagerNotConfiguredMessage)

// Status classifies one conversion.
type Status string

// Conversion statuses.
const (
	StatusConverted  Status = "converted"
	StatusPlanned    Status = "planned"
	StatusAlreadySSH Status = "already-ssh"
	StatusNoRemote   Status = "no-remote"
	StatusError      Status = "error"
)

// Result reports the conversion of one project.
type Result struct {
	Project     shared.Project `json:"project"`
	Status      Status         `json:"status"`
	PreviousURL string         `json:"previous_url,omitempty"`
	RemoteURL   string         `json:"remote_url,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// Summary counts conversions by status. Results follow the input order.
type Summary struct {
	Converted  int      `json:"converted"`
	Planned    int      `json:"planned"`
	AlreadySSH int      `json:"already_ssh"`
	NoRemote   int      `json:"no_remote"`
	Errors     int      `json:"errors"`
	Results    []Result `json:"results"`
}

// GitRepositoryManager is the subset of gitrepo.RepositoryManager used for conversion.
type GitRepositoryManager interface {
	LookupRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, bool, error)
	SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
}

// Options configures a conversion run.
type Options struct {
	DryRun     bool
	GitHubHost string
}

// Dependencies supplies collaborators required for protocol conversion.
type Dependencies struct {
	FileSystem afero.Fs
	GitManager GitRepositoryManager
	Logger     *zap.Logger
}

// Converter rewrites HTTPS origins to their SSH form.
type Converter struct {
	fileSystem afero.Fs
	gitManager GitRepositoryManager
	logger     *zap.Logger
}

// NewConverter constructs a Converter with the provided dependencies.
func NewConverter(dependencies Dependencies) (*Converter, error) {
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{fileSystem: fileSystem, gitManager: dependencies.GitManager, logger: logger}, nil
}

// ConvertAll converts each project in order.
func (converter *Converter) ConvertAll(executionContext context.Context, projects []shared.Project, options Options) Summary {
	summary := Summary{Results: make([]Result, 0, len(projects))}
	for _, project := range projects {
		result := converter.Convert(executionContext, project, options)
		switch result.Status {
		case StatusConverted:
			summary.Converted++
		case StatusPlanned:
			summary.Planned++
		case StatusAlreadySSH:
			summary.AlreadySSH++
		case StatusNoRemote:
			summary.NoRemote++
		default:
			summary.Errors++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

// Convert rewrites the origin of a single project when it is an HTTPS remote on the GitHub host.
func (converter *Converter) Convert(executionContext context.Context, project shared.Project, options Options) Result {
	host := options.GitHubHost
	if len(host) == 0 {
		host = defaultGitHubHostConstant
	}
	projectPath := filepath.Clean(project.Path)
	result := Result{Project: project}

	if _, statError := converter.fileSystem.Stat(filepath.Join(projectPath, shared.GitDirectoryNameConstant)); statError != nil {
		result.Status = StatusNoRemote
		result.Message = notGitRepositoryMessage
		return result
	}

	currentURL, configured, lookupError := converter.gitManager.LookupRemoteURL(executionContext, projectPath, shared.OriginRemoteNameConstant)
	if lookupError != nil {
		return errorResult(result, fmt.Sprintf(readRemoteFailedTemplate, lookupError))
	}
	if !configured {
		result.Status = StatusNoRemote
		result.Message = noRemoteMessage
		return result
	}
	result.PreviousURL = currentURL

	parsedRemote, parseError := gitrepo.ParseRemoteURL(currentURL)
	if parseError != nil {
		return errorResult(result, fmt.Sprintf(unparsableRemoteTemplate, currentURL))
	}
	if !parsedRemote.HostMatches(host) {
		return errorResult(result, fmt.Sprintf(foreignHostTemplate, currentURL, host))
	}
	if parsedRemote.Protocol == gitrepo.RemoteProtocolSSH {
		result.Status = StatusAlreadySSH
		result.RemoteURL = currentURL
		result.Message = alreadySSHMessage
		return result
	}

	parsedRemote.Protocol = gitrepo.RemoteProtocolSSH
	targetURL, formatError := gitrepo.FormatRemoteURL(parsedRemote)
	if formatError != nil {
		return errorResult(result, fmt.Sprintf(formatRemoteFailedTemplate, formatError))
	}
	result.RemoteURL = targetURL

	logFields := []zap.Field{
		zap.String(logFieldProjectConstant, project.Name),
		zap.String(logFieldPreviousURLConstant, currentURL),
		zap.String(logFieldRemoteURLConstant, targetURL),
	}
	if options.DryRun {
		converter.logger.Info(plannedLogMessage, logFields...)
		result.Status = StatusPlanned
		return result
	}

	if setError := converter.gitManager.SetRemoteURL(executionContext, projectPath, shared.OriginRemoteNameConstant, targetURL); setError != nil {
		return errorResult(result, fmt.Sprintf(setRemoteFailedTemplate, targetURL, setError))
	}
	converter.logger.Info(convertedLogMessage, logFields...)
	result.Status = StatusConverted
	return result
}

func errorResult(result Result, message string) Result {
	result.Status = StatusError
	result.Message = message
	return result
}
