package dashboard

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/projectdesk/internal/annotations"
	"github.com/temirov/projectdesk/internal/classifier"
	"github.com/temirov/projectdesk/internal/githubcli"
	"github.com/temirov/projectdesk/internal/reconcile"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	projectNamePathValue            = "name"
	filePathQueryParameter          = "path"
	indexFilePath                   = "static/index.html"
	htmlContentTypeConstant         = "text/html; charset=utf-8"
	initializedStatusConstant       = "initialized"
	openedStatusConstant            = "opened"
	annotationsLoadFailedLogMessage = "unable to load annotations"
	metadataReadFailedLogMessage    = "unable to read project metadata"
	markPublishedFailedLogMessage   = "unable to record github_created annotation"
	logFieldProjectConstant         = "project"
)

// ProjectView is a classified project merged with its annotation and metadata file.
type ProjectView struct {
	classifier.ProjectRecord
	Annotation annotations.Annotation `json:"annotation"`
	Metadata   map[string]any         `json:"metadata"`
}

type operationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type createRepositoryRequest struct {
	Private *bool `json:"private"`
}

type sweepRequest struct {
	Projects []string `json:"projects"`
}

func (server *Server) handleIndex(responseWriter http.ResponseWriter, request *http.Request) {
	page, readError := staticFiles.ReadFile(indexFilePath)
	if readError != nil {
		server.writeError(responseWriter, request, readError)
		return
	}
	responseWriter.Header().Set(contentTypeHeaderConstant, htmlContentTypeConstant)
	_, _ = responseWriter.Write(page)
}

func (server *Server) handleProjects(responseWriter http.ResponseWriter, request *http.Request) {
	projects, listError := server.catalog.ListProjects()
	if listError != nil {
		server.writeError(responseWriter, request, listError)
		return
	}

	storedAnnotations, loadError := server.annotations.Load()
	if loadError != nil {
		server.logger.Warn(annotationsLoadFailedLogMessage, zap.Error(loadError))
		storedAnnotations = map[string]annotations.Annotation{}
	}

	views := make([]ProjectView, len(projects))
	group, groupContext := errgroup.WithContext(request.Context())
	group.SetLimit(defaultClassificationLimit)
	for index, project := range projects {
		group.Go(func() error {
			view := ProjectView{
				ProjectRecord: server.classifier.Classify(groupContext, project.Path),
				Annotation:    annotations.DefaultAnnotation(),
				Metadata:      map[string]any{},
			}
			if annotation, exists := storedAnnotations[project.Name]; exists {
				view.Annotation = annotation
			}
			metadata, metadataError := annotations.ReadProjectMetadata(server.fileSystem, project.Path)
			if metadataError != nil {
				server.logger.Warn(metadataReadFailedLogMessage,
					zap.String(logFieldProjectConstant, project.Name),
					zap.Error(metadataError))
			} else {
				view.Metadata = metadata
			}
			views[index] = view
			return nil
		})
	}
	_ = group.Wait()

	server.writeJSON(responseWriter, http.StatusOK, views)
}

func (server *Server) handleAnnotate(responseWriter http.ResponseWriter, request *http.Request) {
	project, resolveError := server.catalog.ResolveProject(request.PathValue(projectNamePathValue))
	if resolveError != nil {
		server.writeError(responseWriter, request, resolveError)
		return
	}
	annotation := annotations.DefaultAnnotation()
	if decodeError := readJSON(request, &annotation); decodeError != nil {
		server.writeError(responseWriter, request, decodeError)
		return
	}
	if annotateError := server.annotations.Annotate(project.Name, annotation); annotateError != nil {
		server.writeError(responseWriter, request, annotateError)
		return
	}
	stored, getError := server.annotations.Get(project.Name)
	if getError != nil {
		server.writeError(responseWriter, request, getError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, stored)
}

func (server *Server) handleMetadata(responseWriter http.ResponseWriter, request *http.Request) {
	project, resolveError := server.catalog.ResolveProject(request.PathValue(projectNamePathValue))
	if resolveError != nil {
		server.writeError(responseWriter, request, resolveError)
		return
	}
	metadata, readError := annotations.ReadProjectMetadata(server.fileSystem, project.Path)
	if readError != nil {
		server.writeError(responseWriter, request, readError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, metadata)
}

func (server *Server) handleMergeMetadata(responseWriter http.ResponseWriter, request *http.Request) {
	project, resolveError := server.catalog.ResolveProject(request.PathValue(projectNamePathValue))
	if resolveError != nil {
		server.writeError(responseWriter, request, resolveError)
		return
	}
	updates := map[string]any{}
	if decodeError := readJSON(request, &updates); decodeError != nil {
		server.writeError(responseWriter, request, decodeError)
		return
	}
	merged, mergeError := annotations.MergeProjectMetadata(server.fileSystem, project.Path, updates)
	if mergeError != nil {
		server.writeError(responseWriter, request, mergeError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, merged)
}

// handleCreateGitHub answers with the reconciliation Outcome, including failed outcomes.
func (server *Server) handleCreateGitHub(responseWriter http.ResponseWriter, request *http.Request) {
	project, resolveError := server.catalog.ResolveProject(request.PathValue(projectNamePathValue))
	if resolveError != nil {
		server.writeError(responseWriter, request, resolveError)
		return
	}
	body := createRepositoryRequest{}
	if decodeError := readJSON(request, &body); decodeError != nil {
		server.writeError(responseWriter, request, decodeError)
		return
	}

	reconcileRequest := reconcile.Request{ProjectPath: project.Path, RepositoryName: project.Name}
	if body.Private != nil {
		reconcileRequest.Visibility = githubcli.VisibilityFromPrivateFlag(*body.Private)
	}
	outcome := server.reconciler.Reconcile(request.Context(), reconcileRequest)
	if outcome.Published() {
		if markError := server.annotations.MarkGitHubCreated(project.Name); markError != nil {
			server.logger.Warn(markPublishedFailedLogMessage,
				zap.String(logFieldProjectConstant, project.Name),
				zap.Error(markError))
		}
	}
	server.writeJSON(responseWriter, http.StatusOK, outcome)
}

func (server *Server) handleInitGit(responseWriter http.ResponseWriter, request *http.Request) {
	project, resolveError := server.catalog.ResolveProject(request.PathValue(projectNamePathValue))
	if resolveError != nil {
		server.writeError(responseWriter, request, resolveError)
		return
	}
	if initError := server.reconciler.InitializeRepository(request.Context(), project.Path); initError != nil {
		server.writeError(responseWriter, request, initError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, operationResponse{Status: initializedStatusConstant, Message: project.Path})
}

func (server *Server) handleOpenEditor(responseWriter http.ResponseWriter, request *http.Request) {
	project, resolveError := server.catalog.ResolveProject(request.PathValue(projectNamePathValue))
	if resolveError != nil {
		server.writeError(responseWriter, request, resolveError)
		return
	}
	if openError := server.editor.Open(request.Context(), project.Path); openError != nil {
		server.writeError(responseWriter, request, openError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, operationResponse{Status: openedStatusConstant, Message: project.Path})
}

func (server *Server) handleFiles(responseWriter http.ResponseWriter, request *http.Request) {
	tree, treeError := server.catalog.BuildFileTree(request.PathValue(projectNamePathValue))
	if treeError != nil {
		server.writeError(responseWriter, request, treeError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, tree)
}

func (server *Server) handleFile(responseWriter http.ResponseWriter, request *http.Request) {
	content, readError := server.catalog.ReadFile(request.PathValue(projectNamePathValue), request.URL.Query().Get(filePathQueryParameter))
	if readError != nil {
		server.writeError(responseWriter, request, readError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, content)
}

func (server *Server) handleSweep(responseWriter http.ResponseWriter, request *http.Request) {
	body := sweepRequest{}
	if decodeError := readJSON(request, &body); decodeError != nil {
		server.writeError(responseWriter, request, decodeError)
		return
	}
	projects, selectionError := server.selectSweepProjects(body.Projects)
	if selectionError != nil {
		server.writeError(responseWriter, request, selectionError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, server.sweeper.Sweep(request.Context(), projects))
}

// selectSweepProjects accepts workspace project names only; an empty list selects every project.
func (server *Server) selectSweepProjects(names []string) ([]shared.Project, error) {
	if len(names) == 0 {
		return server.catalog.ListProjects()
	}
	projects := make([]shared.Project, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		project, resolveError := server.catalog.ResolveProject(name)
		if resolveError != nil {
			return nil, resolveError
		}
		if _, duplicate := seen[project.Path]; duplicate {
			continue
		}
		seen[project.Path] = struct{}{}
		projects = append(projects, project)
	}
	return projects, nil
}
