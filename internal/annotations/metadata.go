package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	// ProjectMetadataFileName is stored inside each project directory.
	ProjectMetadataFileName = ".project-meta.json"

	readMetadataErrorTemplate   = "read project metadata %s: %w"
	decodeMetadataErrorTemplate = "decode project metadata %s: %w"
	encodeMetadataErrorTemplate = "encode project metadata: %w"
)

// ReadProjectMetadata returns the free-form metadata object of a project, or an empty object
// when the project has none.
func ReadProjectMetadata(fileSystem afero.Fs, projectPath string) (map[string]any, error) {
	metadataPath := filepath.Join(projectPath, ProjectMetadataFileName)
	contents, readError := afero.ReadFile(fileSystem, metadataPath)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf(readMetadataErrorTemplate, metadataPath, readError)
	}

	metadata := map[string]any{}
	if decodeError := json.Unmarshal(contents, &metadata); decodeError != nil {
		return nil, fmt.Errorf(decodeMetadataErrorTemplate, metadataPath, decodeError)
	}
	return metadata, nil
}

// MergeProjectMetadata overlays updates onto the stored metadata at the top level and returns
// the merged object.
func MergeProjectMetadata(fileSystem afero.Fs, projectPath string, updates map[string]any) (map[string]any, error) {
	metadata, readError := ReadProjectMetadata(fileSystem, projectPath)
	if readError != nil {
		return nil, readError
	}
	for key, value := range updates {
		metadata[key] = value
	}

	encoded, encodeError := json.MarshalIndent(metadata, "", jsonIndentConstant)
	if encodeError != nil {
		return nil, fmt.Errorf(encodeMetadataErrorTemplate, encodeError)
	}
	if writeError := writeFileAtomically(fileSystem, filepath.Join(projectPath, ProjectMetadataFileName), encoded); writeError != nil {
		return nil, writeError
	}
	return metadata, nil
}
