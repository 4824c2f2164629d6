package project

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/openlovable/lovable/code_parser/models"
)

// FileNode is either a directory with children or a leaf with optional content.
// ID stays stable across content edits.
type FileNode struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	IsDirectory bool        `json:"is_directory"`
	Children    []*FileNode `json:"children,omitempty"`
	Content     *string     `json:"content,omitempty"`
}

// Project is the live, in-memory mirror of the sandbox directory.
type Project struct {
	Name     string      `json:"name"`
	RootPath string      `json:"root_path"`
	Files    []*FileNode `json:"files"`
}

func New(name string, rootPath string, files []*FileNode) *Project {
	return &Project{Name: name, RootPath: rootPath, Files: files}
}

func Empty() *Project {
	return &Project{Name: "Untitled", Files: []*FileNode{}}
}

func NewFile(filePath string, content string) *FileNode {
	filePath = CleanPath(filePath)
	return &FileNode{
		ID:      uuid.NewString(),
		Name:    path.Base(filePath),
		Path:    filePath,
		Content: &content,
	}
}

func NewDirectory(dirPath string, children ...*FileNode) *FileNode {
	dirPath = CleanPath(dirPath)
	return &FileNode{
		ID:          uuid.NewString(),
		Name:        path.Base(dirPath),
		Path:        dirPath,
		IsDirectory: true,
		Children:    children,
	}
}

// CleanPath normalises a relative path to slash form without a leading "./" or "/".
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// AllFiles returns every leaf, depth first in tree order.
func (p *Project) AllFiles() []*FileNode {
	var leaves []*FileNode
	var walk func(nodes []*FileNode)
	walk = func(nodes []*FileNode) {
		for _, node := range nodes {
			if node.IsDirectory {
				walk(node.Children)
				continue
			}
			leaves = append(leaves, node)
		}
	}
	walk(p.Files)
	return leaves
}

func (p *Project) FindByID(id string) *FileNode {
	return find(p.Files, func(node *FileNode) bool { return node.ID == id })
}

func (p *Project) FindByPath(filePath string) *FileNode {
	filePath = CleanPath(filePath)
	return find(p.Files, func(node *FileNode) bool { return node.Path == filePath })
}

func find(nodes []*FileNode, match func(*FileNode) bool) *FileNode {
	for _, node := range nodes {
		if match(node) {
			return node
		}
		if node.IsDirectory {
			if found := find(node.Children, match); found != nil {
				return found
			}
		}
	}
	return nil
}

// UpdateFileContent replaces the content of a leaf; directories are left alone.
func (p *Project) UpdateFileContent(id string, content string) bool {
	node := p.FindByID(id)
	if node == nil || node.IsDirectory {
		return false
	}
	node.Content = &content
	return true
}

// Upsert updates the leaf at filePath or inserts a new one, creating any
// missing parent directory nodes on the way.
func (p *Project) Upsert(filePath string, content string) (node *FileNode, created bool) {
	filePath = CleanPath(filePath)
	if existing := p.FindByPath(filePath); existing != nil && !existing.IsDirectory {
		existing.Content = &content
		return existing, false
	}

	segments := strings.Split(filePath, "/")
	level := &p.Files
	for i := range segments[:len(segments)-1] {
		dirPath := strings.Join(segments[:i+1], "/")
		var dir *FileNode
		for _, candidate := range *level {
			if candidate.IsDirectory && candidate.Path == dirPath {
				dir = candidate
				break
			}
		}
		if dir == nil {
			dir = NewDirectory(dirPath)
			*level = append(*level, dir)
		}
		level = &dir.Children
	}

	node = NewFile(filePath, content)
	*level = append(*level, node)
	return node, true
}

// DefaultSelectedFileID picks the first script file, else the first file.
func (p *Project) DefaultSelectedFileID() string {
	files := p.AllFiles()
	for _, file := range files {
		switch path.Ext(file.Path) {
		case ".tsx", ".ts", ".jsx", ".js":
			return file.ID
		}
	}
	if len(files) > 0 {
		return files[0].ID
	}
	return ""
}

// GeneratedFiles lists the leaves that carry content, ready to be written to disk.
func (p *Project) GeneratedFiles() []models.GeneratedFile {
	var files []models.GeneratedFile
	for _, leaf := range p.AllFiles() {
		if leaf.Content == nil {
			continue
		}
		files = append(files, models.GeneratedFile{Path: leaf.Path, Content: *leaf.Content})
	}
	return files
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	return &Project{Name: p.Name, RootPath: p.RootPath, Files: cloneNodes(p.Files)}
}

func cloneNodes(nodes []*FileNode) []*FileNode {
	if nodes == nil {
		return nil
	}
	cloned := make([]*FileNode, 0, len(nodes))
	for _, node := range nodes {
		copyNode := *node
		if node.Content != nil {
			content := *node.Content
			copyNode.Content = &content
		}
		copyNode.Children = cloneNodes(node.Children)
		cloned = append(cloned, &copyNode)
	}
	return cloned
}

// Render draws the tree with box characters, for terminal output.
func (p *Project) Render() string {
	var builder strings.Builder
	builder.WriteString(p.Name + "/\n")
	var walk func(nodes []*FileNode, indent string)
	walk = func(nodes []*FileNode, indent string) {
		for i, node := range nodes {
			branch, next := "├── ", "│   "
			if i == len(nodes)-1 {
				branch, next = "└── ", "    "
			}
			name := node.Name
			if node.IsDirectory {
				name += "/"
			}
			builder.WriteString(indent + branch + name + "\n")
			if node.IsDirectory {
				walk(node.Children, indent+next)
			}
		}
	}
	walk(p.Files, "")
	return builder.String()
}
