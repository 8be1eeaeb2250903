package dashboard

import (
	"context"
	"embed"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/annotations"
	"github.com/temirov/projectdesk/internal/classifier"
	"github.com/temirov/projectdesk/internal/reconcile"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/sweep"
	"github.com/temirov/projectdesk/internal/workspace"
)

const (
	defaultListenAddressConstant    = "127.0.0.1:5000"
	listenAddressConfigKeySuffix    = ".listen_address"
	readHeaderTimeout               = 10 * time.Second
	shutdownTimeout                 = 5 * time.Second
	defaultClassificationLimit      = 4
	catalogNotConfiguredMessage     = "project catalog not configured"
	annotationsNotConfiguredMessage = "annotation store not configured"
	classifierNotConfiguredMessage  = "classifier not configured"
	reconcilerNotConfiguredMessage  = "reconciler not configured"
	sweeperNotConfiguredMessage     = "sweeper not configured"
	editorNotConfiguredMessage      = "editor opener not configured"
	serverStartedLogMessage         = "dashboard listening"
	serverStoppedLogMessage         = "dashboard stopped"
	logFieldAddressConstant         = "address"
)

//go:embed static/index.html
var staticFiles embed.FS

// Dependency sentinels reported by NewServer.
var (
	ErrCatalogNotConfigured     = errors.New(catalogNotConfiguredMessage)
	ErrAnnotationsNotConfigured = errors.New(annotationsNotConfiguredMessage)
	ErrClassifierNotConfigured  = errors.New(classifierNotConfiguredMessage)
	ErrReconcilerNotConfigured  = errors.New(reconcilerNotConfiguredMessage)
	ErrSweeperNotConfigured     = errors.New(sweeperNotConfiguredMessage)
	ErrEditorNotConfigured      = errors.New(editorNotConfiguredMessage)
)

// Configuration holds the dashboard listener settings.
type Configuration struct {
	ListenAddress string `mapstructure:"listen_address"`
}

// DefaultConfiguration binds the dashboard to the loopback interface.
func DefaultConfiguration() Configuration {
	return Configuration{ListenAddress: defaultListenAddressConstant}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{prefix + listenAddressConfigKeySuffix: defaultListenAddressConstant}
}

// ProjectCatalog resolves workspace projects and their files.
type ProjectCatalog interface {
	ListProjects() ([]shared.Project, error)
	ResolveProject(name string) (shared.Project, error)
	BuildFileTree(name string) ([]workspace.FileNode, error)
	ReadFile(name string, relativePath string) (workspace.FileContent, error)
}

// AnnotationStore persists per-project notes.
type AnnotationStore interface {
	Load() (map[string]annotations.Annotation, error)
	Get(name string) (annotations.Annotation, error)
	Annotate(name string, annotation annotations.Annotation) error
	MarkGitHubCreated(name string) error
}

// ProjectClassifier derives project records.
type ProjectClassifier interface {
	Classify(executionContext context.Context, projectPath string) classifier.ProjectRecord
}

// RepositoryReconciler publishes and initializes repositories.
type RepositoryReconciler interface {
	Reconcile(executionContext context.Context, request reconcile.Request) reconcile.Outcome
	InitializeRepository(executionContext context.Context, projectPath string) error
}

// ProjectSweeper commits and pushes a set of projects.
type ProjectSweeper interface {
	Sweep(executionContext context.Context, projects []shared.Project) sweep.Summary
}

// EditorOpener opens a directory in an editor.
type EditorOpener interface {
	Open(executionContext context.Context, directoryPath string) error
}

// Dependencies enumerates collaborators of the dashboard server.
type Dependencies struct {
	Catalog            ProjectCatalog
	Annotations        AnnotationStore
	Classifier         ProjectClassifier
	Reconciler         RepositoryReconciler
	Sweeper            ProjectSweeper
	Editor             EditorOpener
	FileSystem         afero.Fs
	Logger             *zap.Logger
	Clock              shared.Clock
	RequestIDGenerator func() string
}

// Server exposes the dashboard endpoints.
type Server struct {
	catalog            ProjectCatalog
	annotations        AnnotationStore
	classifier         ProjectClassifier
	reconciler         RepositoryReconciler
	sweeper            ProjectSweeper
	editor             EditorOpener
	fileSystem         afero.Fs
	logger             *zap.Logger
	clock              shared.Clock
	requestIDGenerator func() string
	configuration      Configuration
}

// NewServer validates dependencies and applies configuration defaults.
func NewServer(dependencies Dependencies, configuration Configuration) (*Server, error) {
	switch {
	case dependencies.Catalog == nil:
		return nil, ErrCatalogNotConfigured
	case dependencies.Annotations == nil:
		return nil, ErrAnnotationsNotConfigured
	case dependencies.Classifier == nil:
		return nil, ErrClassifierNotConfigured
	case dependencies.Reconciler == nil:
		return nil, ErrReconcilerNotConfigured
	case dependencies.Sweeper == nil:
		return nil, ErrSweeperNotConfigured
	case dependencies.Editor == nil:
		return nil, ErrEditorNotConfigured
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	requestIDGenerator := dependencies.RequestIDGenerator
	if requestIDGenerator == nil {
		requestIDGenerator = uuid.NewString
	}
	if len(strings.TrimSpace(configuration.ListenAddress)) == 0 {
		configuration.ListenAddress = defaultListenAddressConstant
	}

	return &Server{
		catalog:            dependencies.Catalog,
		annotations:        dependencies.Annotations,
		classifier:         dependencies.Classifier,
		reconciler:         dependencies.Reconciler,
		sweeper:            dependencies.Sweeper,
		editor:             dependencies.Editor,
		fileSystem:         fileSystem,
		logger:             logger,
		clock:              clock,
		requestIDGenerator: requestIDGenerator,
		configuration:      configuration,
	}, nil
}

// Handler returns the routed handler wrapped in request logging.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", server.handleIndex)
	mux.HandleFunc("GET /api/projects", server.handleProjects)
	mux.HandleFunc("POST /api/project/{name}/annotate", server.handleAnnotate)
	mux.HandleFunc("GET /api/project/{name}/metadata", server.handleMetadata)
	mux.HandleFunc("POST /api/project/{name}/metadata", server.handleMergeMetadata)
	mux.HandleFunc("POST /api/project/{name}/create-github", server.handleCreateGitHub)
	mux.HandleFunc("POST /api/project/{name}/init-git", server.handleInitGit)
	mux.HandleFunc("POST /api/project/{name}/open-editor", server.handleOpenEditor)
	mux.HandleFunc("GET /api/project/{name}/files", server.handleFiles)
	mux.HandleFunc("GET /api/project/{name}/file", server.handleFile)
	mux.HandleFunc("POST /api/sweep", server.handleSweep)

	return server.withRequestLogging(mux)
}

// ListenAndServe binds the configured address and serves until the context ends.
func (server *Server) ListenAndServe(executionContext context.Context) error {
	listener, listenError := net.Listen("tcp", server.configuration.ListenAddress)
	if listenError != nil {
		return listenError
	}
	return server.Serve(executionContext, listener)
}

// Serve accepts connections on listener until the context ends, then shuts down gracefully.
func (server *Server) Serve(executionContext context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- httpServer.Serve(listener)
	}()
	server.logger.Info(serverStartedLogMessage, zap.String(logFieldAddressConstant, listener.Addr().String()))

	select {
	case serveError := <-serveErrors:
		if errors.Is(serveError, http.ErrServerClosed) {
			return nil
		}
		return serveError
	case <-executionContext.Done():
	}

	shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownError := httpServer.Shutdown(shutdownContext)
	server.logger.Info(serverStoppedLogMessage, zap.String(logFieldAddressConstant, listener.Addr().String()))
	return shutdownError
}
