package app

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore persists lessons the user has imported from disk, plus a
// separately stored selected-index pointer, as JSON under the XDG data dir.
// The stored shape mirrors what the browser build kept in client-side
// storage: name, size, mime type, mtime, base64 content.
type FileStore struct {
	Root string
}

type StoredFile struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	LastModified time.Time `json:"last_modified"`
	Content      string    `json:"content"`
}

func DefaultFileRoot() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "codepeer", "storage")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "codepeer", "storage")
	}
	return filepath.Join(os.TempDir(), "codepeer", "storage")
}

func NewFileStore(root string) *FileStore {
	if strings.TrimSpace(root) == "" {
		root = DefaultFileRoot()
	}
	return &FileStore{Root: root}
}

func (s *FileStore) filesPath() string {
	return filepath.Join(s.Root, "files.json")
}

func (s *FileStore) selectedPath() string {
	return filepath.Join(s.Root, "selected")
}

// Import reads a lesson file from disk and appends it to the store.
func (s *FileStore) Import(path string) (StoredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return StoredFile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return StoredFile{}, err
	}

	file := StoredFile{
		Name:         filepath.Base(path),
		Size:         info.Size(),
		Type:         "text/markdown",
		LastModified: info.ModTime(),
		Content:      base64.StdEncoding.EncodeToString(data),
	}

	files, err := s.List()
	if err != nil {
		return StoredFile{}, err
	}
	files = append(files, file)
	if err := s.save(files); err != nil {
		return StoredFile{}, err
	}
	return file, nil
}

func (s *FileStore) List() ([]StoredFile, error) {
	data, err := os.ReadFile(s.filesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []StoredFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("corrupt file store: %w", err)
	}
	return files, nil
}

// Content decodes the stored bytes of the file at index i.
func (s *FileStore) Content(i int) ([]byte, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(files) {
		return nil, fmt.Errorf("file index %d out of range", i)
	}
	return base64.StdEncoding.DecodeString(files[i].Content)
}

// Selected returns the persisted selection pointer, or -1 when none is set.
func (s *FileStore) Selected() (int, error) {
	data, err := os.ReadFile(s.selectedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}
		return -1, err
	}
	var i int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &i); err != nil {
		return -1, nil
	}
	return i, nil
}

func (s *FileStore) Select(i int) error {
	files, err := s.List()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(files) {
		return fmt.Errorf("file index %d out of range", i)
	}
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.selectedPath(), []byte(fmt.Sprintf("%d\n", i)), 0o644)
}

func (s *FileStore) save(files []StoredFile) error {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filesPath(), data, 0o644)
}
