package config

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/cometbft/cometbft/libs/os"
)

//go:embed config.toml.tpl
var configTemplateText string

// The template renders the cometbft sections plus the [app] section; field
// names must stay in sync with the mapstructure tags in config.go.
var configTemplate = template.Must(template.New("configFile").Parse(configTemplateText))

// WriteConfigFile renders the node configuration into configFilePath.
func WriteConfigFile(configFilePath string, config *Config) {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, config); err != nil {
		panic(err)
	}

	os.MustWriteFile(configFilePath, buffer.Bytes(), 0o644)
}
