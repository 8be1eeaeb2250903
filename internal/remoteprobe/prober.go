package remoteprobe

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	remoteManagerNotConfiguredMessage = "remote manager not configured"
	remoteReadFailedLogMessage        = "unable to read remote configuration"
	remoteListingFailedLogMessage     = "unable to list remote references"
	logFieldPathConstant              = "path"
	logFieldRemoteConstant            = "remote"
)

// State classifies the origin remote of a project.
type State string

// Remote states.
const (
	StateAbsent                State = "absent"
	StateConfiguredEmpty       State = "configured-empty"
	StateConfiguredWithHistory State = "configured-with-history"
	StateUnknown               State = "unknown"
)

// ErrRemoteManagerNotConfigured indicates the prober was constructed without git access.
var ErrRemoteManagerNotConfigured = errors.New(remoteManagerNotConfiguredMessage)

// RemoteManager is the subset of gitrepo.RepositoryManager the prober relies on.
type RemoteManager interface {
	LookupRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, bool, error)
	ListRemoteReferences(executionContext context.Context, repositoryPath string, remoteName string) ([]gitrepo.RemoteReference, error)
}

// Prober inspects the origin remote of a repository.
type Prober struct {
	manager    RemoteManager
	logger     *zap.Logger
	remoteName string
}

// NewProber constructs a Prober for the origin remote.
func NewProber(manager RemoteManager, logger *zap.Logger) (*Prober, error) {
	if manager == nil {
		return nil, ErrRemoteManagerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{manager: manager, logger: logger, remoteName: shared.OriginRemoteNameConstant}, nil
}

// Probe reports the remote state. Failures degrade to StateUnknown and are logged at warn.
func (prober *Prober) Probe(executionContext context.Context, repositoryPath string) State {
	_, configured, lookupError := prober.manager.LookupRemoteURL(executionContext, repositoryPath, prober.remoteName)
	if lookupError != nil {
		prober.logger.Warn(remoteReadFailedLogMessage,
			zap.String(logFieldPathConstant, repositoryPath),
			zap.String(logFieldRemoteConstant, prober.remoteName),
			zap.Error(lookupError))
		return StateUnknown
	}
	if !configured {
		return StateAbsent
	}

	references, listingError := prober.manager.ListRemoteReferences(executionContext, repositoryPath, prober.remoteName)
	if listingError != nil {
		prober.logger.Warn(remoteListingFailedLogMessage,
			zap.String(logFieldPathConstant, repositoryPath),
			zap.String(logFieldRemoteConstant, prober.remoteName),
			zap.Error(listingError))
		return StateUnknown
	}
	if len(references) == 0 {
		return StateConfiguredEmpty
	}
	return StateConfiguredWithHistory
}
