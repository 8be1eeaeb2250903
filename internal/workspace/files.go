package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	maximumTreeDepthConstant     = 5
	maximumFileSizeBytesConstant = 1 << 20
	binarySniffLengthConstant    = 8000
	nodeTypeFileConstant         = "file"
	nodeTypeDirectoryConstant    = "directory"
	relativePathRequiredMessage  = "file path required"
	pathEscapesProjectTemplate   = "path %s escapes the project directory"
	fileNotFoundTemplate         = "file %s not found"
	pathIsDirectoryMessage       = "path is a directory"
	wrappedPathErrorTemplate     = "%s: %w"
	readFileErrorTemplate        = "read %s: %w"
	parentDirectoryReference     = ".."
)

// ContentKind classifies what ReadFile returned.
type ContentKind string

// File content kinds.
const (
	ContentKindText     ContentKind = "text"
	ContentKindBinary   ContentKind = "binary"
	ContentKindTooLarge ContentKind = "too-large"
)

var skippedTreeEntries = map[string]struct{}{
	"node_modules": {},
	"__pycache__":  {},
	"dist":         {},
	"build":        {},
	".git":         {},
	"venv":         {},
	"env":          {},
	".venv":        {},
	"target":       {},
	".idea":        {},
	".vscode":      {},
}

var binaryMediaPrefixes = []string{"image/", "audio/", "video/", "font/"}

var binaryApplicationTypes = map[string]struct{}{
	"application/pdf":          {},
	"application/zip":          {},
	"application/gzip":         {},
	"application/x-gzip":       {},
	"application/x-tar":        {},
	"application/octet-stream": {},
	"application/wasm":         {},
}

// sourceExtensionsWithMediaTypes are registered as media in common mime tables but hold source code.
var sourceExtensionsWithMediaTypes = map[string]struct{}{
	".ts":  {},
	".svg": {},
}

// ErrRelativePathRequired indicates ReadFile was called without a file path.
var ErrRelativePathRequired = errors.New(relativePathRequiredMessage)

// ErrPathIsDirectory indicates ReadFile was pointed at a directory.
var ErrPathIsDirectory = errors.New(pathIsDirectoryMessage)

// PathEscapeError reports a relative path that resolves outside the project.
type PathEscapeError struct {
	Path string
}

// Error describes the rejected path.
func (escapeError PathEscapeError) Error() string {
	return fmt.Sprintf(pathEscapesProjectTemplate, escapeError.Path)
}

// FileNotFoundError reports a relative path with no regular file behind it.
type FileNotFoundError struct {
	Path string
}

// Error describes the missing file.
func (notFoundError FileNotFoundError) Error() string {
	return fmt.Sprintf(fileNotFoundTemplate, notFoundError.Path)
}

// FileNode is one entry of a project file tree. Paths are relative to the project.
type FileNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     string     `json:"type"`
	Size     int64      `json:"size,omitempty"`
	Children []FileNode `json:"children,omitempty"`
}

// FileContent is the result of reading a project file.
type FileContent struct {
	Path    string      `json:"path"`
	Size    int64       `json:"size"`
	Kind    ContentKind `json:"kind"`
	Content string      `json:"content,omitempty"`
}

// BuildFileTree lists the project's files, directories first, to a bounded depth.
func (workspace *Workspace) BuildFileTree(name string) ([]FileNode, error) {
	project, resolveError := workspace.ResolveProject(name)
	if resolveError != nil {
		return nil, resolveError
	}
	return workspace.buildTree(project.Path, "", 1), nil
}

func (workspace *Workspace) buildTree(absoluteDirectory string, relativeDirectory string, depth int) []FileNode {
	if depth > maximumTreeDepthConstant {
		return nil
	}
	entries, readError := afero.ReadDir(workspace.fileSystem, absoluteDirectory)
	if readError != nil {
		return nil
	}

	nodes := make([]FileNode, 0, len(entries))
	for _, entry := range entries {
		entryName := entry.Name()
		if strings.HasPrefix(entryName, hiddenEntryPrefixConstant) {
			continue
		}
		if _, skipped := skippedTreeEntries[entryName]; skipped {
			continue
		}

		relativePath := filepath.ToSlash(filepath.Join(relativeDirectory, entryName))
		if entry.IsDir() {
			nodes = append(nodes, FileNode{
				Name:     entryName,
				Path:     relativePath,
				Type:     nodeTypeDirectoryConstant,
				Children: workspace.buildTree(filepath.Join(absoluteDirectory, entryName), relativePath, depth+1),
			})
			continue
		}
		nodes = append(nodes, FileNode{Name: entryName, Path: relativePath, Type: nodeTypeFileConstant, Size: entry.Size()})
	}

	sort.SliceStable(nodes, func(left int, right int) bool {
		leftIsDirectory := nodes[left].Type == nodeTypeDirectoryConstant
		rightIsDirectory := nodes[right].Type == nodeTypeDirectoryConstant
		if leftIsDirectory != rightIsDirectory {
			return leftIsDirectory
		}
		return strings.ToLower(nodes[left].Name) < strings.ToLower(nodes[right].Name)
	})
	return nodes
}

// ReadFile returns the text of a project file. Files above 1 MiB and binary files are
// reported by kind without content.
func (workspace *Workspace) ReadFile(name string, relativePath string) (FileContent, error) {
	project, resolveError := workspace.ResolveProject(name)
	if resolveError != nil {
		return FileContent{}, resolveError
	}

	trimmedPath := strings.TrimSpace(relativePath)
	if len(trimmedPath) == 0 {
		return FileContent{}, ErrRelativePathRequired
	}
	absolutePath, containmentError := containedPath(project.Path, trimmedPath)
	if containmentError != nil {
		return FileContent{}, containmentError
	}

	info, statError := workspace.fileSystem.Stat(absolutePath)
	if statError != nil {
		return FileContent{}, FileNotFoundError{Path: trimmedPath}
	}
	if info.IsDir() {
		return FileContent{}, fmt.Errorf(wrappedPathErrorTemplate, trimmedPath, ErrPathIsDirectory)
	}

	content := FileContent{Path: filepath.ToSlash(trimmedPath), Size: info.Size()}
	if info.Size() > maximumFileSizeBytesConstant {
		content.Kind = ContentKindTooLarge
		return content, nil
	}
	if hasBinaryMimeType(absolutePath) {
		content.Kind = ContentKindBinary
		return content, nil
	}

	file, openError := workspace.fileSystem.Open(absolutePath)
	if openError != nil {
		return FileContent{}, fmt.Errorf(readFileErrorTemplate, trimmedPath, openError)
	}
	defer file.Close()

	data, readError := io.ReadAll(io.LimitReader(file, maximumFileSizeBytesConstant+1))
	if readError != nil {
		return FileContent{}, fmt.Errorf(readFileErrorTemplate, trimmedPath, readError)
	}
	if looksBinary(data) {
		content.Kind = ContentKindBinary
		return content, nil
	}

	content.Kind = ContentKindText
	content.Content = string(data)
	return content, nil
}

// containedPath joins relativePath onto projectPath and rejects results outside it.
func containedPath(projectPath string, relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return "", PathEscapeError{Path: relativePath}
	}
	joined := filepath.Join(projectPath, relativePath)
	relative, relativeError := filepath.Rel(projectPath, joined)
	if relativeError != nil || relative == parentDirectoryReference || strings.HasPrefix(relative, parentDirectoryReference+string(filepath.Separator)) {
		return "", PathEscapeError{Path: relativePath}
	}
	return joined, nil
}

func hasBinaryMimeType(filePath string) bool {
	extension := strings.ToLower(filepath.Ext(filePath))
	if _, source := sourceExtensionsWithMediaTypes[extension]; source {
		return false
	}
	mediaType, _, parseError := mime.ParseMediaType(mime.TypeByExtension(extension))
	if parseError != nil {
		return false
	}
	if _, binary := binaryApplicationTypes[mediaType]; binary {
		return true
	}
	for _, prefix := range binaryMediaPrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

func looksBinary(data []byte) bool {
	sniffed := data
	if len(sniffed) > binarySniffLengthConstant {
		sniffed = sniffed[:binarySniffLengthConstant]
	}
	return bytes.IndexByte(sniffed, 0) != -1
}
