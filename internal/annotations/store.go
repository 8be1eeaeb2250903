package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	defaultPriorityConstant      = "normal"
	storePathRequiredMessage     = "annotation store path required"
	readStoreErrorTemplate       = "read annotations %s: %w"
	decodeStoreErrorTemplate     = "decode annotations %s: %w"
	encodeStoreErrorTemplate     = "encode annotations: %w"
	writeStoreErrorTemplate      = "write %s: %w"
	temporaryFilePatternConstant = ".annotations-*.json"
	jsonIndentConstant           = "  "
	storeFilePermissions         = 0o644
	storeDirectoryPermissions    = 0o755
)

// ErrStorePathRequired indicates a store constructed without a file path.
var ErrStorePathRequired = errors.New(storePathRequiredMessage)

// Annotation holds user notes for one project.
type Annotation struct {
	Notes         string   `json:"notes"`
	Tags          []string `json:"tags"`
	GitHubCreated bool     `json:"github_created"`
	Priority      string   `json:"priority"`
}

// DefaultAnnotation is reported for projects that were never annotated.
func DefaultAnnotation() Annotation {
	return Annotation{Tags: []string{}, Priority: defaultPriorityConstant}
}

func (annotation Annotation) normalize() Annotation {
	normalized := annotation
	normalized.Notes = strings.TrimSpace(annotation.Notes)
	normalized.Tags = make([]string, 0, len(annotation.Tags))
	for _, tag := range annotation.Tags {
		if trimmed := strings.TrimSpace(tag); len(trimmed) > 0 {
			normalized.Tags = append(normalized.Tags, trimmed)
		}
	}
	normalized.Priority = strings.TrimSpace(annotation.Priority)
	if len(normalized.Priority) == 0 {
		normalized.Priority = defaultPriorityConstant
	}
	return normalized
}

// Store reads and rewrites the annotation file. Writes replace the file atomically.
type Store struct {
	fileSystem afero.Fs
	filePath   string
	mutex      sync.Mutex
}

// NewStore constructs a Store backed by filePath.
func NewStore(fileSystem afero.Fs, filePath string) (*Store, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return nil, ErrStorePathRequired
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Store{fileSystem: fileSystem, filePath: filepath.Clean(trimmedPath)}, nil
}

// Load returns every stored annotation. A missing file is an empty store.
func (store *Store) Load() (map[string]Annotation, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.load()
}

// Get returns the annotation for name or DefaultAnnotation when none is stored.
func (store *Store) Get(name string) (Annotation, error) {
	annotations, loadError := store.Load()
	if loadError != nil {
		return Annotation{}, loadError
	}
	if annotation, exists := annotations[name]; exists {
		return annotation.normalize(), nil
	}
	return DefaultAnnotation(), nil
}

// Annotate replaces the annotation for name.
func (store *Store) Annotate(name string, annotation Annotation) error {
	return store.update(func(annotations map[string]Annotation) {
		annotations[name] = annotation.normalize()
	})
}

// MarkGitHubCreated records that the project has a hosted repository, keeping other fields.
func (store *Store) MarkGitHubCreated(name string) error {
	return store.update(func(annotations map[string]Annotation) {
		annotation, exists := annotations[name]
		if !exists {
			annotation = DefaultAnnotation()
		}
		annotation.GitHubCreated = true
		annotations[name] = annotation.normalize()
	})
}

func (store *Store) update(mutate func(map[string]Annotation)) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	annotations, loadError := store.load()
	if loadError != nil {
		return loadError
	}
	mutate(annotations)
	return store.save(annotations)
}

func (store *Store) load() (map[string]Annotation, error) {
	contents, readError := afero.ReadFile(store.fileSystem, store.filePath)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return map[string]Annotation{}, nil
		}
		return nil, fmt.Errorf(readStoreErrorTemplate, store.filePath, readError)
	}
	annotations := map[string]Annotation{}
	if len(strings.TrimSpace(string(contents))) == 0 {
		return annotations, nil
	}
	if decodeError := json.Unmarshal(contents, &annotations); decodeError != nil {
		return nil, fmt.Errorf(decodeStoreErrorTemplate, store.filePath, decodeError)
	}
	return annotations, nil
}

func (store *Store) save(annotations map[string]Annotation) error {
	encoded, encodeError := json.MarshalIndent(annotations, "", jsonIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(encodeStoreErrorTemplate, encodeError)
	}
	return writeFileAtomically(store.fileSystem, store.filePath, encoded)
}

// writeFileAtomically writes to a sibling temporary file and renames it over the target.
func writeFileAtomically(fileSystem afero.Fs, targetPath string, contents []byte) error {
	directory := filepath.Dir(targetPath)
	if mkdirError := fileSystem.MkdirAll(directory, storeDirectoryPermissions); mkdirError != nil {
		return fmt.Errorf(writeStoreErrorTemplate, targetPath, mkdirError)
	}

	temporaryFile, createError := afero.TempFile(fileSystem, directory, temporaryFilePatternConstant)
	if createError != nil {
		return fmt.Errorf(writeStoreErrorTemplate, targetPath, createError)
	}
	temporaryPath := temporaryFile.Name()

	_, writeError := temporaryFile.Write(append(contents, '\n'))
	closeError := temporaryFile.Close()
	if writeError == nil {
		writeError = closeError
	}
	if writeError == nil {
		writeError = fileSystem.Chmod(temporaryPath, storeFilePermissions)
	}
	if writeError == nil {
		writeError = fileSystem.Rename(temporaryPath, targetPath)
	}
	if writeError != nil {
		_ = fileSystem.Remove(temporaryPath)
		return fmt.Errorf(writeStoreErrorTemplate, targetPath, writeError)
	}
	return nil
}
