package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rushteam/tunekit/core"
)

// 模板文件扩展名，按查找优先级排列。
var templateExts = []string{".yaml", ".yml", ".json"}

// Discover 列出目录下可用的模板名（去掉扩展名），可用 pattern 做子串过滤。
func Discover(dir, pattern string) ([]string, error) {
	paths, err := DiscoverPaths(dir, pattern)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DiscoverPaths 列出目录下可用的模板，返回 模板名 -> 绝对路径。
func DiscoverPaths(dir, pattern string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	paths := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isTemplateExt(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if pattern != "" && !strings.Contains(name, pattern) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		paths[name] = abs
	}
	return paths, nil
}

// Load 按路径加载模板，按扩展名选择解析器。
func Load(path string) (*Template, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return LoadFromYAML(path)
	case ".json":
		return LoadFromJSON(path)
	default:
		return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeInvalidInput,
			fmt.Sprintf("template: unsupported file type %q", path))
	}
}

// LoadNamed 在目录下按模板名查找并加载模板文件。
func LoadNamed(dir, name string) (*Template, error) {
	for _, ext := range templateExts {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeNotFound,
		fmt.Sprintf("template: %q not found in %s", name, dir))
}

func isTemplateExt(ext string) bool {
	for _, e := range templateExts {
		if ext == e {
			return true
		}
	}
	return false
}
