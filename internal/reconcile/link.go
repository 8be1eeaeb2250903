package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/remoteprobe"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	identityResolutionFailedTemplate = "identity resolution: %s"
	remoteRemovalFailedTemplate      = "remove origin: %s"
	remoteAdditionFailedTemplate     = "add origin %s: %s"
	remoteURLBuildFailedTemplate     = "build origin url: %s"
	linkedMessageTemplate            = "linked %s and pushed %s"
	replacingOriginLogMessage        = "replacing origin remote"
	pullFailedLogMessage             = "pull failed, continuing with push"
	forcePushRetryLogMessage         = "push rejected on remote without history, retrying with force"
	logFieldPreviousRemoteURL        = "previous_remote_url"
	logFieldBranchConstant           = "branch"
	logFieldRemoteStateConstant      = "remote_state"
)

// link points origin at <host>/<login>/<repositoryName>, merges any existing remote
// history and pushes. Force is only used when the remote had no observed history.
func (reconciler *Reconciler) link(executionContext context.Context, projectPath string, repositoryName string) Outcome {
	login, loginError := reconciler.gitHubClient.ResolveAuthenticatedLogin(executionContext)
	if loginError != nil {
		return failedOutcome(fmt.Sprintf(identityResolutionFailedTemplate, describeFailure(loginError)))
	}

	previousURL, originConfigured, lookupError := reconciler.gitManager.LookupRemoteURL(executionContext, projectPath, shared.OriginRemoteNameConstant)
	if lookupError != nil {
		return failedOutcome(fmt.Sprintf(remoteReadFailedTemplate, describeFailure(lookupError)))
	}

	targetURL, formatError := gitrepo.FormatRemoteURL(gitrepo.RemoteURL{
		Protocol:   gitrepo.RemoteProtocolHTTPS,
		Host:       reconciler.configuration.GitHubHost,
		Owner:      login,
		Repository: repositoryName,
	})
	if formatError != nil {
		return failedOutcome(fmt.Sprintf(remoteURLBuildFailedTemplate, formatError))
	}

	if originConfigured {
		reconciler.logger.Warn(replacingOriginLogMessage,
			zap.String(logFieldPathConstant, projectPath),
			zap.String(logFieldPreviousRemoteURL, previousURL),
			zap.String(logFieldRemoteURLConstant, targetURL))
		if removeError := reconciler.gitManager.RemoveRemote(executionContext, projectPath, shared.OriginRemoteNameConstant); removeError != nil {
			return failedOutcome(fmt.Sprintf(remoteRemovalFailedTemplate, describeFailure(removeError)))
		}
	}

	if addError := reconciler.gitManager.AddRemote(executionContext, projectPath, shared.OriginRemoteNameConstant, targetURL); addError != nil {
		return failedOutcome(fmt.Sprintf(remoteAdditionFailedTemplate, targetURL, describeFailure(addError)))
	}

	branchName, branchError := reconciler.ensureBranch(executionContext, projectPath)
	if branchError != nil {
		return failedOutcome(fmt.Sprintf(branchResolutionFailedTemplate, describeFailure(branchError)))
	}

	remoteState := reconciler.prober.Probe(executionContext, projectPath)
	remoteHasHistory := remoteState == remoteprobe.StateConfiguredWithHistory
	if remoteHasHistory {
		reconciler.pullUnrelatedHistory(executionContext, projectPath, branchName)
	}

	pushOptions := gitrepo.PushOptions{
		RemoteName:  shared.OriginRemoteNameConstant,
		BranchName:  branchName,
		SetUpstream: true,
	}
	_, pushError := reconciler.gitManager.Push(executionContext, projectPath, pushOptions)
	if pushError != nil && !remoteHasHistory {
		reconciler.logger.Warn(forcePushRetryLogMessage,
			zap.String(logFieldPathConstant, projectPath),
			zap.String(logFieldRemoteStateConstant, string(remoteState)),
			zap.Error(pushError))
		pushOptions.Force = true
		_, pushError = reconciler.gitManager.Push(executionContext, projectPath, pushOptions)
	}
	if pushError != nil {
		return failedOutcome(fmt.Sprintf(pushFailedTemplate, branchName, describeFailure(pushError)))
	}

	return Outcome{Status: StatusLinkedExisting, Message: fmt.Sprintf(linkedMessageTemplate, targetURL, branchName)}
}

// pullUnrelatedHistory merges the remote branch, retrying master when main is absent.
// Failures are logged and never abort the link.
func (reconciler *Reconciler) pullUnrelatedHistory(executionContext context.Context, projectPath string, branchName string) {
	pullOptions := gitrepo.PullOptions{
		RemoteName:              shared.OriginRemoteNameConstant,
		BranchName:              branchName,
		AllowUnrelatedHistories: true,
	}
	pullError := reconciler.gitManager.Pull(executionContext, projectPath, pullOptions)
	if pullError != nil && branchName == shared.DefaultBranchNameConstant {
		pullOptions.BranchName = shared.LegacyDefaultBranchNameConstant
		pullError = reconciler.gitManager.Pull(executionContext, projectPath, pullOptions)
	}
	if pullError != nil {
		reconciler.logger.Warn(pullFailedLogMessage,
			zap.String(logFieldPathConstant, projectPath),
			zap.String(logFieldBranchConstant, branchName),
			zap.String(logFieldMessageConstant, describeFailure(pullError)))
	}
}
