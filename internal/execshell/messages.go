package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant          = "Running %s"
	genericSuccessTemplateConstant        = "Completed %s"
	failureTemplateConstant               = "Failed to %s (exit code %d%s)"
	executionFailureTemplateConstant      = "Unable to %s: %s"
	commandLabelTemplateConstant          = "%s%s"
	workingDirectorySuffixTemplateConstant = " (in %s)"
	commandArgumentsJoinSeparatorConstant = " "
	standardErrorSuffixTemplateConstant   = ": %s"
	unknownFailureMessageConstant         = "unknown error"
	emptyStringConstant                   = ""
	defaultWorkingDirectoryLabelConstant  = "current directory"
	fallbackUnknownValueLabelConstant     = "unknown"
	flagPrefixConstant                    = "-"
)

const (
	gitInitSubcommandNameConstant         = "init"
	gitAddSubcommandNameConstant          = "add"
	gitCommitSubcommandNameConstant       = "commit"
	gitStatusSubcommandNameConstant       = "status"
	gitRemoteSubcommandNameConstant       = "remote"
	gitLSRemoteSubcommandNameConstant     = "ls-remote"
	gitBranchSubcommandNameConstant       = "branch"
	gitCheckoutSubcommandNameConstant     = "checkout"
	gitPullSubcommandNameConstant         = "pull"
	gitPushSubcommandNameConstant         = "push"
	gitLSFilesSubcommandNameConstant      = "ls-files"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	gitRemoteSetURLSubcommandNameConstant = "set-url"
	gitRemoteAddSubcommandNameConstant    = "add"
	gitRemoteRemoveSubcommandNameConstant = "remove"
	gitMessageFlagConstant                = "-m"
	gitForceFlagConstant                  = "--force"
	gitShowCurrentFlagConstant            = "--show-current"
	gitShortBranchFlagConstant            = "-sb"
	githubRepoSubcommandNameConstant      = "repo"
	githubRepoCreateSubcommandNameConstant = "create"
	githubAPISubcommandNameConstant       = "api"
	githubUserEndpointConstant            = "user"
	githubRepositoryEndpointPrefixConstant = "repos/"
	githubPrivateFlagConstant             = "--private"
)

// commandDescription holds the three phrasings used for one command: in progress,
// completed, and the bare action used inside failure templates.
type commandDescription struct {
	inProgress string
	completed  string
	action     string
}

type commandDescriber func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, result ExecutionResult) (commandDescription, bool)

var gitCommandDescribers = map[string]commandDescriber{
	gitInitSubcommandNameConstant: func(_ CommandMessageFormatter, _ []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		return commandDescription{
			inProgress: fmt.Sprintf("Initializing repository in %s", workingDirectory),
			completed:  fmt.Sprintf("Initialized repository in %s", workingDirectory),
			action:     fmt.Sprintf("initialize repository in %s", workingDirectory),
		}, true
	},
	gitAddSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		paths := formatter.joinNonFlagArguments(arguments[1:])
		if len(paths) == 0 {
			paths = "changes"
		}
		return commandDescription{
			inProgress: fmt.Sprintf("Staging %s in %s", paths, workingDirectory),
			completed:  fmt.Sprintf("Staged %s in %s", paths, workingDirectory),
			action:     fmt.Sprintf("stage %s in %s", paths, workingDirectory),
		}, true
	},
	gitCommitSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		message := formatter.ensureValue(findFlagValue(arguments, gitMessageFlagConstant))
		return commandDescription{
			inProgress: fmt.Sprintf("Creating commit in %s with message %q", workingDirectory, message),
			completed:  fmt.Sprintf("Created commit in %s with message %q", workingDirectory, message),
			action:     fmt.Sprintf("create commit in %s with message %q", workingDirectory, message),
		}, true
	},
	gitStatusSubcommandNameConstant: func(_ CommandMessageFormatter, arguments []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		subject := "working tree status"
		if containsArgument(arguments, gitShortBranchFlagConstant) {
			subject = "branch tracking status"
		}
		return commandDescription{
			inProgress: fmt.Sprintf("Reviewing %s in %s", subject, workingDirectory),
			completed:  fmt.Sprintf("Collected %s for %s", subject, workingDirectory),
			action:     fmt.Sprintf("review %s in %s", subject, workingDirectory),
		}, true
	},
	gitRemoteSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, result ExecutionResult) (commandDescription, bool) {
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		targetURL := formatter.ensureValue(formatter.argumentAtIndex(arguments, 3))
		switch strings.TrimSpace(formatter.argumentAtIndex(arguments, 1)) {
		case gitRemoteGetURLSubcommandNameConstant:
			return commandDescription{
				inProgress: fmt.Sprintf("Checking %s remote for %s", remoteName, workingDirectory),
				completed:  fmt.Sprintf("%s remote for %s points to %s", remoteName, workingDirectory, formatter.ensureValue(result.StandardOutput)),
				action:     fmt.Sprintf("read %s remote for %s", remoteName, workingDirectory),
			}, true
		case gitRemoteSetURLSubcommandNameConstant:
			return commandDescription{
				inProgress: fmt.Sprintf("Updating %s remote for %s to %s", remoteName, workingDirectory, targetURL),
				completed:  fmt.Sprintf("%s remote for %s now points to %s", remoteName, workingDirectory, targetURL),
				action:     fmt.Sprintf("update %s remote for %s to %s", remoteName, workingDirectory, targetURL),
			}, true
		case gitRemoteAddSubcommandNameConstant:
			return commandDescription{
				inProgress: fmt.Sprintf("Adding %s remote %s to %s", remoteName, targetURL, workingDirectory),
				completed:  fmt.Sprintf("Added %s remote %s to %s", remoteName, targetURL, workingDirectory),
				action:     fmt.Sprintf("add %s remote %s to %s", remoteName, targetURL, workingDirectory),
			}, true
		case gitRemoteRemoveSubcommandNameConstant:
			return commandDescription{
				inProgress: fmt.Sprintf("Removing %s remote from %s", remoteName, workingDirectory),
				completed:  fmt.Sprintf("Removed %s remote from %s", remoteName, workingDirectory),
				action:     fmt.Sprintf("remove %s remote from %s", remoteName, workingDirectory),
			}, true
		}
		return commandDescription{}, false
	},
	gitLSRemoteSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		remoteName := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
		return commandDescription{
			inProgress: fmt.Sprintf("Listing references on %s from %s", remoteName, workingDirectory),
			completed:  fmt.Sprintf("Listed references on %s from %s", remoteName, workingDirectory),
			action:     fmt.Sprintf("list references on %s from %s", remoteName, workingDirectory),
		}, true
	},
	gitBranchSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, result ExecutionResult) (commandDescription, bool) {
		if !containsArgument(arguments, gitShowCurrentFlagConstant) {
			return commandDescription{}, false
		}
		completed := fmt.Sprintf("Current branch in %s is %s", workingDirectory, strings.TrimSpace(result.StandardOutput))
		if len(strings.TrimSpace(result.StandardOutput)) == 0 {
			completed = fmt.Sprintf("%s has no current branch", workingDirectory)
		}
		return commandDescription{
			inProgress: fmt.Sprintf("Identifying current branch in %s", workingDirectory),
			completed:  completed,
			action:     fmt.Sprintf("identify current branch in %s", workingDirectory),
		}, true
	},
	gitCheckoutSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		branchName := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
		return commandDescription{
			inProgress: fmt.Sprintf("Switching %s to branch %s", workingDirectory, branchName),
			completed:  fmt.Sprintf("%s now on branch %s", workingDirectory, branchName),
			action:     fmt.Sprintf("switch %s to branch %s", workingDirectory, branchName),
		}, true
	},
	gitPullSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		remoteName, references := formatter.extractRemoteAndReferences(arguments[1:])
		branchName := formatter.ensureValue(strings.Join(references, ", "))
		remoteLabel := formatter.ensureValue(remoteName)
		return commandDescription{
			inProgress: fmt.Sprintf("Pulling %s from %s into %s", branchName, remoteLabel, workingDirectory),
			completed:  fmt.Sprintf("Pulled %s from %s into %s", branchName, remoteLabel, workingDirectory),
			action:     fmt.Sprintf("pull %s from %s into %s", branchName, remoteLabel, workingDirectory),
		}, true
	},
	gitPushSubcommandNameConstant: func(formatter CommandMessageFormatter, arguments []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		remoteName, references := formatter.extractRemoteAndReferences(arguments[1:])
		branchName := formatter.ensureValue(strings.Join(references, ", "))
		remoteLabel := formatter.ensureValue(remoteName)
		verb, pastVerb, infinitive := "Pushing", "Pushed", "push"
		if containsArgument(arguments, gitForceFlagConstant) {
			verb, pastVerb, infinitive = "Force pushing", "Force pushed", "force push"
		}
		return commandDescription{
			inProgress: fmt.Sprintf("%s %s to %s from %s", verb, branchName, remoteLabel, workingDirectory),
			completed:  fmt.Sprintf("%s %s to %s from %s", pastVerb, branchName, remoteLabel, workingDirectory),
			action:     fmt.Sprintf("%s %s to %s from %s", infinitive, branchName, remoteLabel, workingDirectory),
		}, true
	},
	gitLSFilesSubcommandNameConstant: func(_ CommandMessageFormatter, _ []string, workingDirectory string, _ ExecutionResult) (commandDescription, bool) {
		return commandDescription{
			inProgress: fmt.Sprintf("Listing tracked files in %s", workingDirectory),
			completed:  fmt.Sprintf("Listed tracked files in %s", workingDirectory),
			action:     fmt.Sprintf("list tracked files in %s", workingDirectory),
		}, true
	},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	description, described := formatter.describe(command, result)
	if !described {
		label := formatter.formatCommandLabel(command)
		description = commandDescription{
			inProgress: fmt.Sprintf(genericStartTemplateConstant, label),
			completed:  fmt.Sprintf(genericSuccessTemplateConstant, label),
			action:     fmt.Sprintf("run %s", label),
		}
	}

	switch stage {
	case messageStageStart:
		return description.inProgress
	case messageStageSuccess:
		return description.completed
	case messageStageFailure:
		return fmt.Sprintf(failureTemplateConstant, description.action, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionFailureTemplateConstant, description.action, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describe(command ShellCommand, result ExecutionResult) (commandDescription, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return commandDescription{}, false
	}
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch command.Name {
	case CommandGit:
		describer, exists := gitCommandDescribers[strings.TrimSpace(arguments[0])]
		if !exists {
			return commandDescription{}, false
		}
		return describer(formatter, arguments, workingDirectory, result)
	case CommandGitHub:
		return formatter.describeGitHubCommand(arguments, workingDirectory, result)
	default:
		return commandDescription{}, false
	}
}

func (formatter CommandMessageFormatter) describeGitHubCommand(arguments []string, workingDirectory string, result ExecutionResult) (commandDescription, bool) {
	primary := strings.TrimSpace(arguments[0])
	secondary := strings.TrimSpace(formatter.argumentAtIndex(arguments, 1))

	switch {
	case primary == githubRepoSubcommandNameConstant && secondary == githubRepoCreateSubcommandNameConstant:
		repositoryName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		visibility := "public"
		if containsArgument(arguments, githubPrivateFlagConstant) {
			visibility = "private"
		}
		return commandDescription{
			inProgress: fmt.Sprintf("Creating %s GitHub repository %s from %s", visibility, repositoryName, workingDirectory),
			completed:  fmt.Sprintf("Created %s GitHub repository %s from %s", visibility, repositoryName, workingDirectory),
			action:     fmt.Sprintf("create %s GitHub repository %s from %s", visibility, repositoryName, workingDirectory),
		}, true
	case primary == githubAPISubcommandNameConstant && secondary == githubUserEndpointConstant:
		return commandDescription{
			inProgress: "Resolving authenticated GitHub account",
			completed:  fmt.Sprintf("Authenticated GitHub account is %s", formatter.ensureValue(result.StandardOutput)),
			action:     "resolve authenticated GitHub account",
		}, true
	case primary == githubAPISubcommandNameConstant && strings.HasPrefix(secondary, githubRepositoryEndpointPrefixConstant):
		repository := strings.TrimPrefix(secondary, githubRepositoryEndpointPrefixConstant)
		return commandDescription{
			inProgress: fmt.Sprintf("Checking visibility of %s", repository),
			completed:  fmt.Sprintf("Retrieved visibility of %s", repository),
			action:     fmt.Sprintf("check visibility of %s", repository),
		}, true
	}
	return commandDescription{}, false
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	workingDirectorySuffix := emptyStringConstant
	if trimmed := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmed) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmed)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractRemoteAndReferences(arguments []string) (string, []string) {
	remoteName := emptyStringConstant
	references := []string{}
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		if len(remoteName) == 0 {
			remoteName = trimmed
			continue
		}
		references = append(references, trimmed)
	}
	return remoteName, references
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) joinNonFlagArguments(arguments []string) string {
	collected := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		collected = append(collected, trimmed)
	}
	return strings.Join(collected, ", ")
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
