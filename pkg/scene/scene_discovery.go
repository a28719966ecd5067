package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"
)

const (
	builtInGroup = "Built-in Scenes"
	fileGroup    = "Scene Files"
	filePrefix   = "file:"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the config file (file type only)
	Base        string `json:"base"`        // Built-in scene a file starts from
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// ScenesDirs are searched in order for scene files
var ScenesDirs = []string{"scenes", "../scenes"}

func findScenesDir() string {
	for _, path := range ScenesDirs {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

// ListFileScenes scans the scenes directory and returns discovered scene files
func ListFileScenes() ([]SceneInfo, error) {
	scenesDir := findScenesDir()
	if scenesDir == "" {
		// No scenes directory found, return empty list
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(scenesDir, "*.ini"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %v", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		sceneInfo, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Log warning but continue processing other files
			fmt.Printf("Warning: failed to parse metadata for %s: %v\n", filePath, err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseSceneMetadata reads the [scene] section of a scene file
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:          filePrefix + nameWithoutExt,
		Name:        nameWithoutExt,
		DisplayName: titleCase(nameWithoutExt),
		Group:       fileGroup,
		Type:        "file",
		FilePath:    filePath,
		Base:        DefaultSceneName,
	}

	var header struct{ Scene SceneSection }
	if err := gcfg.FatalOnly(gcfg.ReadFileInto(&header, filePath)); err != nil {
		return sceneInfo, err
	}

	if header.Scene.Name != "" {
		sceneInfo.Name = header.Scene.Name
		sceneInfo.DisplayName = header.Scene.Name
	}
	if header.Scene.Description != "" {
		sceneInfo.Description = header.Scene.Description
	}
	if header.Scene.Group != "" {
		sceneInfo.Group = header.Scene.Group
	}
	if header.Scene.Base != "" {
		sceneInfo.Base = header.Scene.Base
	}

	return sceneInfo, nil
}

// ListBuiltinScenes returns metadata for every built-in scene
func ListBuiltinScenes() []SceneInfo {
	var scenes []SceneInfo
	for _, name := range BuiltinNames() {
		b := builtins[name]
		scenes = append(scenes, SceneInfo{
			ID:          b.name,
			Name:        b.name,
			DisplayName: b.displayName,
			Description: b.description,
			Group:       builtInGroup,
			Type:        "builtin",
			Base:        b.name,
		})
	}
	return scenes
}

// ListAllScenes returns both built-in and file scenes, grouped by category
func ListAllScenes() (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListFileScenes()
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %v", err)
	}

	allScenes := append(ListBuiltinScenes(), fileScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtIn, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{Name: builtInGroup, Scenes: builtIn})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}

	return response, nil
}

// LoadConfig resolves a scene ID from ListAllScenes (a built-in name or
// "file:<name>") to its config
func LoadConfig(id string) (Config, error) {
	if id == "" {
		id = DefaultSceneName
	}
	if !strings.HasPrefix(id, filePrefix) {
		return BuiltinConfig(id)
	}

	name := strings.TrimPrefix(id, filePrefix)
	scenesDir := findScenesDir()
	if scenesDir == "" || name == "" || name != filepath.Base(name) {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	path := filepath.Join(scenesDir, name+".ini")
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	return LoadConfigFile(path)
}

// Load resolves and builds a scene by ID
func Load(id string) (*Scene, error) {
	cfg, err := LoadConfig(id)
	if err != nil {
		return nil, err
	}
	return Build(cfg)
}

// titleCase converts a filename-style string to title case
// e.g., "wide-binary" -> "Wide Binary"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
