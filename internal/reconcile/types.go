package reconcile

import (
	"context"

	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/githubcli"
	"github.com/temirov/projectdesk/internal/remoteprobe"
)

// Status is the terminal result of a reconciliation.
type Status string

// Reconciliation statuses.
const (
	StatusCreated        Status = "created"
	StatusLinkedExisting Status = "linked-existing"
	StatusPushed         Status = "pushed"
	StatusUpToDate       Status = "up-to-date"
	StatusFailed         Status = "failed"
)

// Outcome is reported for every reconciliation. Message carries raw command output on failure.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Succeeded reports whether the outcome is not a failure.
func (outcome Outcome) Succeeded() bool {
	return outcome.Status != StatusFailed
}

// Published reports whether the hosted repository was created or linked by this reconciliation.
func (outcome Outcome) Published() bool {
	return outcome.Status == StatusCreated || outcome.Status == StatusLinkedExisting
}

// Request identifies the project to reconcile and the hosted repository it should map to.
type Request struct {
	ProjectPath    string
	RepositoryName string
	Visibility     githubcli.RepositoryVisibility
}

// GitRepositoryManager is the subset of gitrepo.RepositoryManager used by the reconciler.
type GitRepositoryManager interface {
	InitializeRepository(executionContext context.Context, repositoryPath string, initialBranch string) error
	StageAll(executionContext context.Context, repositoryPath string) error
	Commit(executionContext context.Context, repositoryPath string, options gitrepo.CommitOptions) error
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	CreateAndCheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	LookupRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, bool, error)
	ListRemoteReferences(executionContext context.Context, repositoryPath string, remoteName string) ([]gitrepo.RemoteReference, error)
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error
	Pull(executionContext context.Context, repositoryPath string, options gitrepo.PullOptions) error
	Push(executionContext context.Context, repositoryPath string, options gitrepo.PushOptions) (gitrepo.PushResult, error)
}

// GitHubClient is the subset of githubcli.Client used by the reconciler.
type GitHubClient interface {
	ResolveAuthenticatedLogin(executionContext context.Context) (string, error)
	CreateRepository(executionContext context.Context, options githubcli.RepositoryCreationOptions) error
}

// RemoteProber reports the state of the origin remote.
type RemoteProber interface {
	Probe(executionContext context.Context, repositoryPath string) remoteprobe.State
}
