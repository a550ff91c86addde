// Package assets provides embedded default pipeline definitions.
package assets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed pipelines/*.yaml
var pipelinesFS embed.FS

// LoadPipeline returns the content of a pipeline YAML by name.
// Override lookup order: project .pcb-maker/pipelines/ > user
// ~/.pcb-maker/pipelines/ > embedded.
func LoadPipeline(name string) ([]byte, error) {
	content, err := loadWithOverride("pipelines", name+".yaml", pipelinesFS)
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func loadWithOverride(dir, filename string, embedded embed.FS) (string, error) {
	// 1. project-level override
	projectPath := filepath.Join(".pcb-maker", dir, filename)
	if data, err := os.ReadFile(projectPath); err == nil {
		return string(data), nil
	}

	// 2. user-level override
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".pcb-maker", dir, filename)
		if data, err := os.ReadFile(userPath); err == nil {
			return string(data), nil
		}
	}

	// 3. embedded default
	embeddedPath := dir + "/" + filename
	data, err := embedded.ReadFile(embeddedPath)
	if err != nil {
		return "", fmt.Errorf("%s %q not found", dir, filename)
	}
	return string(data), nil
}
