package service

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/enexview/internal/filestore"
	"github.com/xxxsen/enexview/internal/model"
	apperr "github.com/xxxsen/enexview/internal/pkg/errors"
	"github.com/xxxsen/enexview/internal/repo"
)

// BundleStagingPrefix names the temp directories holding bundle contents
// while the zip streams out. The cleanup job sweeps leftovers by prefix.
const BundleStagingPrefix = "enexview-bundle-"

const defaultMimeType = "application/octet-stream"

type ResourceService struct {
	repo  *repo.ImportRepo
	store filestore.Store
}

func NewResourceService(r *repo.ImportRepo, store filestore.Store) *ResourceService {
	return &ResourceService{repo: r, store: store}
}

// ResourceDownload is a single attachment ready to stream. Content must be
// closed by the caller.
type ResourceDownload struct {
	FileName string
	Mime     string
	Size     *int64
	Content  io.ReadCloser
}

func (s *ResourceService) FetchResourceDownload(ctx context.Context, importID, noteID, resourceID string) (*ResourceDownload, error) {
	resource, err := s.repo.GetStoredResource(ctx, importID, noteID, resourceID)
	if err != nil {
		return nil, err
	}
	if resource.StorageKey == "" {
		return nil, apperr.ErrResourceNotFound
	}
	content, err := s.store.Open(ctx, resource.StorageKey)
	if err != nil {
		logutil.GetLogger(ctx).Error("resource blob missing from store",
			zap.String("storage_key", resource.StorageKey), zap.Error(err))
		return nil, apperr.ErrResourceNotFound
	}
	fileName := strings.TrimSpace(resource.FileName)
	if fileName == "" {
		fileName = resource.ID + ".bin"
	}
	mime := resource.Mime
	if mime == "" {
		mime = defaultMimeType
	}
	return &ResourceDownload{
		FileName: fileName,
		Mime:     mime,
		Size:     resource.Size,
		Content:  content,
	}, nil
}

// Bundle is a staged multi-resource download. Close removes the staging
// directory and must be called on every path.
type Bundle struct {
	stagingDir string
}

func (b *Bundle) Close() error {
	if b == nil || b.stagingDir == "" {
		return nil
	}
	dir := b.stagingDir
	b.stagingDir = ""
	return os.RemoveAll(dir)
}

// WriteZip streams the staged files as a zip archive, one directory per
// note, without loading file contents into memory.
func (b *Bundle) WriteZip(w io.Writer) error {
	zw := zip.NewWriter(w)
	err := filepath.WalkDir(b.stagingDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.stagingDir, p)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(entry, src)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// PrepareBundle copies every selected resource into a fresh staging
// directory. All selections must resolve to stored blobs or the whole
// request fails; nothing partial ever streams out.
func (s *ResourceService) PrepareBundle(ctx context.Context, importID string, selections []model.ResourceRef) (*Bundle, error) {
	deduped := dedupRefs(selections)
	if len(deduped) == 0 {
		return nil, fmt.Errorf("%w: at least one resource must be selected", apperr.ErrInvalid)
	}
	resources, err := s.repo.ListStoredResourcesByIDs(ctx, importID, deduped)
	if err != nil {
		return nil, err
	}
	if len(resources) != len(deduped) {
		return nil, apperr.ErrResourceNotFound
	}
	stagingDir, err := os.MkdirTemp("", BundleStagingPrefix+"*")
	if err != nil {
		return nil, err
	}
	bundle := &Bundle{stagingDir: stagingDir}
	usedNames := make(map[string]struct{})
	for _, resource := range resources {
		if resource.StorageKey == "" {
			_ = bundle.Close()
			return nil, apperr.ErrResourceNotFound
		}
		noteDir := safePathSegment(resource.NoteID, "note")
		if err := os.MkdirAll(filepath.Join(stagingDir, noteDir), 0o755); err != nil {
			_ = bundle.Close()
			return nil, err
		}
		fallback := resource.NoteID + "-" + resource.ID + ".bin"
		name := safeFileName(resource.FileName, fallback)
		name = uniqueName(usedNames, noteDir, name)
		if err := s.stageResource(ctx, resource.StorageKey, filepath.Join(stagingDir, noteDir, name)); err != nil {
			_ = bundle.Close()
			return nil, err
		}
	}
	return bundle, nil
}

func (s *ResourceService) stageResource(ctx context.Context, storageKey, destPath string) error {
	src, err := s.store.Open(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("%w: blob %s missing", apperr.ErrResourceNotFound, storageKey)
	}
	defer src.Close()
	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()
	_, err = io.Copy(dest, src)
	return err
}

func dedupRefs(refs []model.ResourceRef) []model.ResourceRef {
	seen := make(map[model.ResourceRef]struct{}, len(refs))
	out := make([]model.ResourceRef, 0, len(refs))
	for _, ref := range refs {
		if ref.NoteID == "" || ref.ResourceID == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// safeFileName reduces a declared file name to its final path component so
// traversal sequences cannot escape the staging directory.
func safeFileName(declared, fallback string) string {
	trimmed := strings.TrimSpace(declared)
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	base := path.Base(trimmed)
	if base == "" || base == "." || base == ".." || base == "/" {
		return fallback
	}
	return base
}

func safePathSegment(value, fallback string) string {
	return safeFileName(value, fallback)
}

// uniqueName appends a numeric suffix before the extension when two
// resources in the same note declare the same file name.
func uniqueName(used map[string]struct{}, dir, name string) string {
	key := dir + "/" + name
	if _, ok := used[key]; !ok {
		used[key] = struct{}{}
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, ok := used[dir+"/"+candidate]; !ok {
			used[dir+"/"+candidate] = struct{}{}
			return candidate
		}
	}
}
