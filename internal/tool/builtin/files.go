package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/harunnryd/hibiki/internal/tool"
)

type FindFile struct {
	env *Env
}

func (t *FindFile) Name() string { return "find_file" }

func (t *FindFile) Description() string {
	return "Search for a file or folder anywhere on the computer by name. Returns the file locations. Use when user asks 'where is my file' or 'find this file' or 'locate file'."
}

func (t *FindFile) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"filename": map[string]interface{}{
			"type":        "string",
			"description": "Name or partial name of the file to search for, e.g. 'resume.pdf' or 'project'",
		},
		"search_path": map[string]interface{}{
			"type":        "string",
			"description": "Optional. Where to search: 'desktop', 'downloads', 'documents', 'home', or a full path",
		},
	}, "filename")
}

func (t *FindFile) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Filename   string `json:"filename"`
		SearchPath string `json:"search_path"`
	}
	if err := json.Unmarshal(input, &args); err != nil || strings.TrimSpace(args.Filename) == "" {
		return tool.Fail("Please specify a file name to search for.")
	}

	searchPath := t.env.Home
	if args.SearchPath != "" {
		searchPath = ResolveLocation(t.env.Home, args.SearchPath, "home")
	}
	if _, err := os.Stat(searchPath); err != nil {
		searchPath = t.env.Home
	}

	var results []string
	cmd := []string{"-name", args.Filename}
	if searchPath != t.env.Home {
		cmd = []string{"-onlyin", searchPath, "-name", args.Filename}
	}
	if out, err := t.env.Runner.Run(ctx, "mdfind", cmd...); err == nil && out != "" {
		results = strings.Split(out, "\n")
	}

	// Spotlight unavailable: walk the tree ourselves.
	if len(results) == 0 {
		needle := strings.ToLower(args.Filename)
		filepath.WalkDir(searchPath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if len(results) >= 10 {
				return filepath.SkipAll
			}
			if strings.Contains(strings.ToLower(d.Name()), needle) {
				results = append(results, path)
			}
			return nil
		})
	}

	if len(results) > 10 {
		results = results[:10]
	}
	if len(results) == 0 {
		return tool.Fail(fmt.Sprintf("Could not find '%s' in %s", args.Filename, displayPath(t.env.Home, searchPath)))
	}

	formatted := make([]string, 0, len(results))
	for _, p := range results {
		formatted = append(formatted, displayPath(t.env.Home, p))
	}

	var msg string
	if len(formatted) == 1 {
		msg = fmt.Sprintf("Found '%s' at: %s", args.Filename, formatted[0])
	} else {
		preview := formatted
		if len(preview) > 5 {
			preview = preview[:5]
		}
		msg = fmt.Sprintf("Found %d matches for '%s': %s", len(formatted), args.Filename, strings.Join(preview, ", "))
	}

	return tool.OkData(msg, map[string]interface{}{
		"paths": formatted,
		"count": len(formatted),
	})
}

type CreateFolder struct {
	env *Env
}

func (t *CreateFolder) Name() string { return "create_folder" }

func (t *CreateFolder) Description() string {
	return "Creates a new folder/directory. Default location is Desktop."
}

func (t *CreateFolder) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"folder_name": map[string]interface{}{
			"type":        "string",
			"description": "Name of the folder to create",
		},
		"location": map[string]interface{}{
			"type":        "string",
			"description": "Optional. Where to create: 'desktop' (default), 'documents', 'downloads', or full path",
		},
	}, "folder_name")
}

func (t *CreateFolder) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		FolderName string `json:"folder_name"`
		Location   string `json:"location"`
	}
	if err := json.Unmarshal(input, &args); err != nil || strings.TrimSpace(args.FolderName) == "" {
		return tool.Fail("Please tell me what to name the folder.")
	}

	base := ResolveLocation(t.env.Home, args.Location, "desktop")
	full := filepath.Join(base, args.FolderName)
	display := displayPath(t.env.Home, full)

	if _, err := os.Stat(full); err == nil {
		return tool.Fail(fmt.Sprintf("Folder '%s' already exists at %s", args.FolderName, display))
	}

	if err := os.MkdirAll(full, 0o755); err != nil {
		return tool.Fail(fmt.Sprintf("Could not create folder: %v", err))
	}

	return tool.OkData(fmt.Sprintf("Created folder '%s' at %s", args.FolderName, display), map[string]interface{}{
		"path": display,
	})
}

type OpenFolder struct {
	env *Env
}

func (t *OpenFolder) Name() string { return "open_folder" }

func (t *OpenFolder) Description() string {
	return "Open a folder in the file manager. Use for requests like 'open the projects folder on desktop'."
}

func (t *OpenFolder) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"folder_name": map[string]interface{}{
			"type":        "string",
			"description": "Folder name or path to open, e.g. 'projects'",
		},
		"location": map[string]interface{}{
			"type":        "string",
			"description": "Optional base location, e.g. 'desktop', 'documents', or full path",
		},
	}, "folder_name")
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]`)

func (t *OpenFolder) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		FolderName string `json:"folder_name"`
		Location   string `json:"location"`
	}
	if err := json.Unmarshal(input, &args); err != nil || strings.TrimSpace(args.FolderName) == "" {
		return tool.Fail("Please specify a folder name to open.")
	}

	name := strings.TrimSpace(args.FolderName)
	if strings.HasSuffix(strings.ToLower(name), " folder") {
		name = strings.TrimSpace(name[:len(name)-len(" folder")])
	}

	var target string
	if filepath.IsAbs(name) {
		target = name
	} else if strings.HasPrefix(name, "~") {
		target = filepath.Join(t.env.Home, strings.TrimPrefix(name, "~"))
	} else {
		target = filepath.Join(ResolveLocation(t.env.Home, args.Location, "desktop"), name)
	}

	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		if match := fuzzyFindDir(filepath.Dir(target), filepath.Base(target)); match != "" {
			target = match
		}
	}

	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return tool.Fail(fmt.Sprintf("Directory '%s' not found", displayPath(t.env.Home, target)))
	}

	if _, err := t.env.Runner.Run(ctx, "open", target); err != nil {
		return tool.Fail(fmt.Sprintf("Could not open folder: %v", err))
	}

	display := displayPath(t.env.Home, target)
	return tool.OkData(fmt.Sprintf("Opened folder %s", display), map[string]interface{}{"path": display})
}

// fuzzyFindDir locates a directory under parent by case-insensitive, then
// punctuation-insensitive, then containment matching.
func fuzzyFindDir(parent, name string) string {
	norm := func(s string) string {
		return nonAlnumPattern.ReplaceAllString(strings.ToLower(s), "")
	}
	targetNorm := norm(name)
	if targetNorm == "" {
		return ""
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		return ""
	}

	var normalizedEq, containsMatch string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		full := filepath.Join(parent, entry.Name())
		if strings.EqualFold(entry.Name(), name) {
			return full
		}
		entryNorm := norm(entry.Name())
		if entryNorm == targetNorm && normalizedEq == "" {
			normalizedEq = full
		} else if containsMatch == "" && (strings.Contains(entryNorm, targetNorm) || strings.Contains(targetNorm, entryNorm)) {
			containsMatch = full
		}
	}
	if normalizedEq != "" {
		return normalizedEq
	}
	return containsMatch
}

type ListContents struct {
	env *Env
}

func (t *ListContents) Name() string { return "list_contents" }

func (t *ListContents) Description() string {
	return "List all files and folders inside a directory. Use when user asks 'how many folders are on my desktop' or 'what files are in downloads' or 'list my desktop'."
}

func (t *ListContents) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"location": map[string]interface{}{
			"type":        "string",
			"description": "Which folder to list: 'desktop', 'downloads', 'documents', 'home', or a full path. Default is 'desktop'.",
		},
	}, "location")
}

func (t *ListContents) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		args.Location = "desktop"
	}

	dir := ResolveLocation(t.env.Home, args.Location, "desktop")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return tool.Fail(fmt.Sprintf("Directory '%s' not found", args.Location))
	}

	var folders, files []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(folders)
	sort.Strings(files)

	display := displayPath(t.env.Home, dir)
	msg := fmt.Sprintf("Found %d folders and %d files in %s", len(folders), len(files), display)

	return tool.OkData(msg, map[string]interface{}{
		"folders":  folders,
		"files":    files,
		"location": display,
	})
}
