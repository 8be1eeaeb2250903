package gitrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/temirov/projectdesk/internal/execshell"
)

const (
	gitInitSubcommandConstant           = "init"
	gitInitialBranchFlagTemplate        = "--initial-branch="
	gitAddSubcommandConstant            = "add"
	gitAllFlagConstant                  = "-A"
	gitCommitSubcommandConstant         = "commit"
	gitAllowEmptyFlagConstant           = "--allow-empty"
	gitMessageFlagConstant              = "-m"
	gitStatusSubcommandConstant         = "status"
	gitPorcelainFlagConstant            = "--porcelain"
	gitShortBranchFlagConstant          = "-sb"
	gitBranchSubcommandConstant         = "branch"
	gitShowCurrentFlagConstant          = "--show-current"
	gitCheckoutSubcommandConstant       = "checkout"
	gitCreateBranchFlagConstant         = "-b"
	gitRemoteSubcommandConstant         = "remote"
	gitRemoteGetURLSubcommandConstant   = "get-url"
	gitRemoteSetURLSubcommandConstant   = "set-url"
	gitRemoteAddSubcommandConstant      = "add"
	gitRemoteRemoveSubcommandConstant   = "remove"
	gitLSRemoteSubcommandConstant       = "ls-remote"
	gitPullSubcommandConstant           = "pull"
	gitNoRebaseFlagConstant             = "--no-rebase"
	gitNoEditFlagConstant               = "--no-edit"
	gitAllowUnrelatedFlagConstant       = "--allow-unrelated-histories"
	gitPushSubcommandConstant           = "push"
	gitForceFlagConstant                = "--force"
	gitSetUpstreamFlagConstant          = "-u"
	gitLSFilesSubcommandConstant        = "ls-files"
	gitNullTerminatedFlagConstant       = "-z"
	terminalPromptEnvironmentVariable   = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledValue         = "0"
	missingRemoteExitCodeConstant       = 2
	missingRemoteMessageFragment        = "no such remote"
	everythingUpToDateMessageFragment   = "everything up-to-date"
	pushUpToDateFlagConstant            = "="
	pushRejectedFlagConstant            = "!"
	branchStatusHeaderPrefixConstant    = "## "
	branchStatusNoCommitsPrefixConstant = "No commits yet on "
	branchStatusInitialPrefixConstant   = "Initial commit on "
	branchStatusDetachedPrefixConstant  = "HEAD (no branch)"
	branchStatusUpstreamSeparator       = "..."
	branchStatusTrackingOpenConstant    = " ["
	branchStatusTrackingCloseConstant   = "]"
	branchStatusAheadPrefixConstant     = "ahead "
	branchStatusBehindPrefixConstant    = "behind "
	branchStatusGoneConstant            = "gone"
	trackingEntrySeparatorConstant      = ", "
	repositoryPathRequiredMessage       = "repository path required"
	gitExecutorNotConfiguredMessage     = "git executor not configured"
	remoteNameRequiredMessage           = "remote name required"
	branchNameRequiredMessage           = "branch name required"
)

// ErrGitExecutorNotConfigured indicates the manager was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessage)

// ErrRepositoryPathRequired indicates an operation was invoked without a repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessage)

// ErrRemoteNameRequired indicates an operation was invoked without a remote name.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessage)

// ErrBranchNameRequired indicates an operation was invoked without a branch name.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessage)

// GitCommandExecutor runs git commands.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommitOptions configure a commit.
type CommitOptions struct {
	Message    string
	AllowEmpty bool
}

// PullOptions configure a pull.
type PullOptions struct {
	RemoteName              string
	BranchName              string
	AllowUnrelatedHistories bool
}

// PushOptions configure a push.
type PushOptions struct {
	RemoteName  string
	BranchName  string
	SetUpstream bool
	Force       bool
}

// PushResult summarizes the references reported by git push --porcelain.
type PushResult struct {
	UpToDate        bool
	UpdatedRefCount int
}

// RemoteReference is a single line of git ls-remote output.
type RemoteReference struct {
	Hash string
	Name string
}

// BranchStatus is the parsed header of git status -sb.
type BranchStatus struct {
	Header    string
	Branch    string
	Upstream  string
	Ahead     int
	Behind    int
	Detached  bool
	NoCommits bool
	Gone      bool
}

// HasUpstream reports whether the branch tracks a remote branch that still exists.
func (status BranchStatus) HasUpstream() bool {
	return len(status.Upstream) > 0 && !status.Gone
}

// RepositoryManager performs git operations on a repository path.
type RepositoryManager struct {
	executor GitCommandExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitCommandExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// InitializeRepository runs git init, optionally naming the initial branch.
func (manager *RepositoryManager) InitializeRepository(executionContext context.Context, repositoryPath string, initialBranch string) error {
	arguments := []string{gitInitSubcommandConstant}
	if trimmedBranch := strings.TrimSpace(initialBranch); len(trimmedBranch) > 0 {
		arguments = append(arguments, gitInitialBranchFlagTemplate+trimmedBranch)
	}
	_, executionError := manager.run(executionContext, repositoryPath, arguments...)
	return executionError
}

// StageAll stages every change in the working tree.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, gitAddSubcommandConstant, gitAllFlagConstant)
	return executionError
}

// Commit records staged changes.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, options CommitOptions) error {
	arguments := []string{gitCommitSubcommandConstant}
	if options.AllowEmpty {
		arguments = append(arguments, gitAllowEmptyFlagConstant)
	}
	arguments = append(arguments, gitMessageFlagConstant, options.Message)
	_, executionError := manager.run(executionContext, repositoryPath, arguments...)
	return executionError
}

// CheckCleanWorktree reports whether git status --porcelain is empty.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(result.StandardOutput)) == 0, nil
}

// ReadBranchStatus parses the branch header of git status -sb.
func (manager *RepositoryManager) ReadBranchStatus(executionContext context.Context, repositoryPath string) (BranchStatus, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitStatusSubcommandConstant, gitShortBranchFlagConstant)
	if executionError != nil {
		return BranchStatus{}, executionError
	}
	return ParseBranchStatus(result.StandardOutput), nil
}

// GetCurrentBranch returns the checked out branch, or an empty string when HEAD is detached.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitShowCurrentFlagConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// CreateAndCheckoutBranch runs git checkout -b.
func (manager *RepositoryManager) CreateAndCheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	trimmedBranch := strings.TrimSpace(branchName)
	if len(trimmedBranch) == 0 {
		return ErrBranchNameRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, trimmedBranch)
	return executionError
}

// LookupRemoteURL returns the remote URL and whether the remote is configured.
// A missing remote is not an error.
func (manager *RepositoryManager) LookupRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, bool, error) {
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return "", false, ErrRemoteNameRequired
	}
	result, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemote)
	if executionError != nil {
		if IsMissingRemoteError(executionError) {
			return "", false, nil
		}
		return "", false, executionError
	}
	remoteURL := strings.TrimSpace(result.StandardOutput)
	return remoteURL, len(remoteURL) > 0, nil
}

// AddRemote registers a new remote.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return ErrRemoteNameRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, trimmedRemote, strings.TrimSpace(remoteURL))
	return executionError
}

// RemoveRemote deletes a remote.
func (manager *RepositoryManager) RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return ErrRemoteNameRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteRemoveSubcommandConstant, trimmedRemote)
	return executionError
}

// SetRemoteURL updates the URL of an existing remote.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return ErrRemoteNameRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteSetURLSubcommandConstant, trimmedRemote, strings.TrimSpace(remoteURL))
	return executionError
}

// ListRemoteReferences runs git ls-remote against a remote.
func (manager *RepositoryManager) ListRemoteReferences(executionContext context.Context, repositoryPath string, remoteName string) ([]RemoteReference, error) {
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return nil, ErrRemoteNameRequired
	}
	result, executionError := manager.run(executionContext, repositoryPath, gitLSRemoteSubcommandConstant, trimmedRemote)
	if executionError != nil {
		return nil, executionError
	}

	references := []RemoteReference{}
	for _, line := range strings.Split(result.StandardOutput, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		references = append(references, RemoteReference{Hash: fields[0], Name: fields[1]})
	}
	return references, nil
}

// Pull merges a remote branch into the current branch.
func (manager *RepositoryManager) Pull(executionContext context.Context, repositoryPath string, options PullOptions) error {
	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		return ErrRemoteNameRequired
	}
	branchName := strings.TrimSpace(options.BranchName)
	if len(branchName) == 0 {
		return ErrBranchNameRequired
	}

	arguments := []string{gitPullSubcommandConstant, gitNoRebaseFlagConstant, gitNoEditFlagConstant}
	if options.AllowUnrelatedHistories {
		arguments = append(arguments, gitAllowUnrelatedFlagConstant)
	}
	arguments = append(arguments, remoteName, branchName)
	_, executionError := manager.run(executionContext, repositoryPath, arguments...)
	return executionError
}

// Push publishes a branch and reports whether anything was transferred.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, options PushOptions) (PushResult, error) {
	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		return PushResult{}, ErrRemoteNameRequired
	}
	branchName := strings.TrimSpace(options.BranchName)
	if len(branchName) == 0 {
		return PushResult{}, ErrBranchNameRequired
	}

	arguments := []string{gitPushSubcommandConstant, gitPorcelainFlagConstant}
	if options.Force {
		arguments = append(arguments, gitForceFlagConstant)
	}
	if options.SetUpstream {
		arguments = append(arguments, gitSetUpstreamFlagConstant)
	}
	arguments = append(arguments, remoteName, branchName)

	result, executionError := manager.run(executionContext, repositoryPath, arguments...)
	if executionError != nil {
		return PushResult{}, executionError
	}
	return ParsePushOutput(result.StandardOutput, result.StandardError), nil
}

// ListTrackedFiles returns paths reported by git ls-files, relative to the repository root.
func (manager *RepositoryManager) ListTrackedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitLSFilesSubcommandConstant, gitNullTerminatedFlagConstant)
	if executionError != nil {
		return nil, executionError
	}
	trackedFiles := []string{}
	for _, entry := range strings.Split(result.StandardOutput, "\x00") {
		if len(entry) == 0 {
			continue
		}
		trackedFiles = append(trackedFiles, entry)
	}
	return trackedFiles, nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return execshell.ExecutionResult{}, ErrRepositoryPathRequired
	}
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{terminalPromptEnvironmentVariable: terminalPromptDisabledValue},
	})
}

// IsMissingRemoteError reports whether a git remote get-url failure means the remote is not configured.
func IsMissingRemoteError(err error) bool {
	var commandFailure execshell.CommandFailedError
	if !errors.As(err, &commandFailure) {
		return false
	}
	if commandFailure.Result.ExitCode == missingRemoteExitCodeConstant {
		return true
	}
	return strings.Contains(strings.ToLower(commandFailure.Result.StandardError), missingRemoteMessageFragment)
}

// ParseBranchStatus interprets the first line of git status -sb output.
func ParseBranchStatus(output string) BranchStatus {
	header := strings.TrimSpace(strings.SplitN(output, "\n", 2)[0])
	status := BranchStatus{Header: header}
	if !strings.HasPrefix(header, branchStatusHeaderPrefixConstant) {
		return status
	}
	body := strings.TrimPrefix(header, branchStatusHeaderPrefixConstant)

	switch {
	case strings.HasPrefix(body, branchStatusDetachedPrefixConstant):
		status.Detached = true
		return status
	case strings.HasPrefix(body, branchStatusNoCommitsPrefixConstant):
		status.NoCommits = true
		body = strings.TrimPrefix(body, branchStatusNoCommitsPrefixConstant)
	case strings.HasPrefix(body, branchStatusInitialPrefixConstant):
		status.NoCommits = true
		body = strings.TrimPrefix(body, branchStatusInitialPrefixConstant)
	}

	trackingInformation := ""
	if trackingIndex := strings.Index(body, branchStatusTrackingOpenConstant); trackingIndex != -1 {
		trackingInformation = strings.TrimSuffix(body[trackingIndex+len(branchStatusTrackingOpenConstant):], branchStatusTrackingCloseConstant)
		body = body[:trackingIndex]
	}

	if upstreamIndex := strings.Index(body, branchStatusUpstreamSeparator); upstreamIndex != -1 {
		status.Branch = strings.TrimSpace(body[:upstreamIndex])
		status.Upstream = strings.TrimSpace(body[upstreamIndex+len(branchStatusUpstreamSeparator):])
	} else {
		status.Branch = strings.TrimSpace(body)
	}

	for _, entry := range strings.Split(trackingInformation, trackingEntrySeparatorConstant) {
		trimmedEntry := strings.TrimSpace(entry)
		switch {
		case strings.HasPrefix(trimmedEntry, branchStatusAheadPrefixConstant):
			status.Ahead, _ = strconv.Atoi(strings.TrimPrefix(trimmedEntry, branchStatusAheadPrefixConstant))
		case strings.HasPrefix(trimmedEntry, branchStatusBehindPrefixConstant):
			status.Behind, _ = strconv.Atoi(strings.TrimPrefix(trimmedEntry, branchStatusBehindPrefixConstant))
		case trimmedEntry == branchStatusGoneConstant:
			status.Gone = true
		}
	}

	return status
}

// ParsePushOutput interprets git push --porcelain output. Each reference line has the
// form "<flag>\t<from>:<to>\t<summary>"; "=" marks a reference that was already current.
func ParsePushOutput(standardOutput string, standardError string) PushResult {
	referenceLines := 0
	upToDateLines := 0
	for _, line := range strings.Split(standardOutput, "\n") {
		if len(line) < 2 || line[1] != '\t' {
			continue
		}
		flag := line[:1]
		if flag == pushRejectedFlagConstant {
			continue
		}
		referenceLines++
		if flag == pushUpToDateFlagConstant {
			upToDateLines++
		}
	}

	if referenceLines == 0 {
		combined := strings.ToLower(standardOutput + "\n" + standardError)
		return PushResult{UpToDate: strings.Contains(combined, everythingUpToDateMessageFragment)}
	}

	return PushResult{
		UpToDate:        upToDateLines == referenceLines,
		UpdatedRefCount: referenceLines - upToDateLines,
	}
}
