package sweep

import (
	"context"

	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/shared"
)

// Status classifies the result of sweeping one project.
type Status string

// Sweep statuses. StatusFailed means a push was attempted and rejected; StatusError means
// the project could not be inspected or the command could not run at all.
const (
	StatusPushed   Status = "pushed"
	StatusUpToDate Status = "up-to-date"
	StatusFailed   Status = "failed"
	StatusError    Status = "error"
)

// Result reports the outcome for a single project.
type Result struct {
	Project shared.Project `json:"project"`
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
}

// Summary aggregates a sweep. Results preserve the input order.
type Summary struct {
	Pushed   int      `json:"pushed"`
	UpToDate int      `json:"up_to_date"`
	Failed   int      `json:"failed"`
	Errors   int      `json:"errors"`
	Results  []Result `json:"results"`
}

func (summary *Summary) add(result Result) {
	switch result.Status {
	case StatusPushed:
		summary.Pushed++
	case StatusUpToDate:
		summary.UpToDate++
	case StatusFailed:
		summary.Failed++
	default:
		summary.Errors++
	}
}

// GitRepositoryManager is the subset of gitrepo.RepositoryManager used during a sweep.
type GitRepositoryManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	StageAll(executionContext context.Context, repositoryPath string) error
	Commit(executionContext context.Context, repositoryPath string, options gitrepo.CommitOptions) error
	ReadBranchStatus(executionContext context.Context, repositoryPath string) (gitrepo.BranchStatus, error)
	Push(executionContext context.Context, repositoryPath string, options gitrepo.PushOptions) (gitrepo.PushResult, error)
}
