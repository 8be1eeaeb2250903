package utils

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	environmentListSeparatorConstant                = ","
)

var environmentKeyReplacer = strings.NewReplacer(".", "_")

// ConfigurationLoader resolves configuration in layers: explicit defaults, the embedded
// configuration, the first config file found (or the explicit one), then PREFIX_SECTION_KEY
// environment variables.
type ConfigurationLoader struct {
	configurationName string
	configurationType string
	environmentPrefix string
	searchPaths       []string
	embeddedContent   []byte
	embeddedType      string
	fileSystem        afero.Fs
}

// LoadedConfiguration reports which configuration file was used, if any.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader constructs a loader looking for configurationName.configurationType in searchPaths.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       slices.Clone(searchPaths),
	}
}

// SetFileSystem makes the loader read configuration files from fileSystem instead of the OS.
func (loader *ConfigurationLoader) SetFileSystem(fileSystem afero.Fs) {
	if loader != nil {
		loader.fileSystem = fileSystem
	}
}

// SetEmbeddedConfiguration registers content layered under any configuration file. An empty
// configurationType means the loader's own type.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(content []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedContent = bytes.Clone(content)
	loader.embeddedType = strings.TrimSpace(configurationType)
}

// LoadConfiguration decodes the layered configuration into targetConfiguration. A missing
// configuration file is not an error; an unreadable or malformed one is.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	layers := loader.newViper(defaultValues)

	if mergeError := loader.mergeEmbedded(layers); mergeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}

	if len(configurationFilePath) > 0 {
		layers.SetConfigFile(configurationFilePath)
	}
	if readError := layers.MergeInConfig(); readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(environmentListSeparatorConstant),
	)
	if unmarshalError := layers.Unmarshal(targetConfiguration, viper.DecodeHook(decodeHooks)); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: layers.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) newViper(defaultValues map[string]any) *viper.Viper {
	layers := viper.New()
	if loader.fileSystem != nil {
		layers.SetFs(loader.fileSystem)
	}
	layers.SetConfigName(loader.configurationName)
	layers.SetConfigType(loader.configurationType)
	for _, searchPath := range loader.searchPaths {
		layers.AddConfigPath(searchPath)
	}

	layers.SetEnvPrefix(loader.environmentPrefix)
	layers.SetEnvKeyReplacer(environmentKeyReplacer)
	layers.AutomaticEnv()

	for key, value := range defaultValues {
		layers.SetDefault(key, value)
	}
	return layers
}

func (loader *ConfigurationLoader) mergeEmbedded(layers *viper.Viper) error {
	if len(loader.embeddedContent) == 0 {
		return nil
	}
	if len(loader.embeddedType) > 0 {
		layers.SetConfigType(loader.embeddedType)
		defer layers.SetConfigType(loader.configurationType)
	}
	return layers.MergeConfig(bytes.NewReader(loader.embeddedContent))
}
