package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/projectdesk/cmd/cli"
	"github.com/temirov/projectdesk/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	readmeSnippetTemporaryPattern    = "readme-config-*.yaml"
	parentDirectoryReferenceConstant = ".."
	environmentPrefixConstant        = "PROJECTDESKDOCS"
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	unknownSectionMessageTemplate    = "README section %s is not part of the default configuration"
	defaultTempDirectoryRootConstant = ""
)

func readReadmeConfiguration(testInstance *testing.T) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	contentBytes, readError := os.ReadFile(filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant))
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	fenceEndRelativeIndex := strings.Index(contentText[headerIndex:], yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : headerIndex+fenceEndRelativeIndex])
}

func TestReadmeConfigurationSectionsAreKnown(testInstance *testing.T) {
	snippet := readReadmeConfiguration(testInstance)
	defaultContent := cli.EmbeddedDefaultConfiguration()

	readmeSections := map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippet), &readmeSections))
	defaultSections := map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal(defaultContent, &defaultSections))

	require.NotEmpty(testInstance, readmeSections)
	for sectionName := range readmeSections {
		_, known := defaultSections[sectionName]
		require.Truef(testInstance, known, unknownSectionMessageTemplate, sectionName)
	}
}

func TestReadmeConfigurationLoads(testInstance *testing.T) {
	snippet := readReadmeConfiguration(testInstance)

	tempFile, tempFileError := os.CreateTemp(defaultTempDirectoryRootConstant, readmeSnippetTemporaryPattern)
	require.NoError(testInstance, tempFileError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Remove(tempFile.Name()))
	})
	_, writeError := tempFile.WriteString(snippet)
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, tempFile.Close())

	loader := utils.NewConfigurationLoader("config", "yaml", environmentPrefixConstant, nil)
	loader.SetEmbeddedConfiguration(cli.EmbeddedDefaultConfiguration(), "yaml")

	configuration := cli.ApplicationConfiguration{}
	metadata, loadError := loader.LoadConfiguration(tempFile.Name(), nil, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, tempFile.Name(), metadata.ConfigFileUsed)

	require.Equal(testInstance, "console", configuration.Common.LogFormat)
	require.Equal(testInstance, 2*time.Minute, configuration.Execution.CommandTimeout)
	require.Equal(testInstance, 4, configuration.Sweep.Parallelism)
	require.Equal(testInstance, []string{"api", "web"}, configuration.Sweep.Projects)
	require.Equal(testInstance, []string{"code"}, configuration.Editor.Candidates)
	require.Equal(testInstance, 50, configuration.LargeFiles.LimitMegabytes)
}
