package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/kiosk404/nubabel/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func (s *loaderServiceImpl) LoadAllFromDirectory(ctx context.Context, root string) *BulkLoadResult {
	out := &BulkLoadResult{Results: make(map[string]*entity.LoadResult)}

	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Error("[ExtensionLoader] read extensions directory %s: %v", root, err)
		out.Failed = append(out.Failed, root)
		out.Results[root] = failure(fmt.Sprintf("read extensions directory: %v", err))
		return out
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)

	// Pre-parse manifests concurrently; the scan never fails as a whole.
	parsed := make([]*manifest.Manifest, len(dirs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ParseConcurrency)
	for i, dir := range dirs {
		g.Go(func() error {
			if res := manifest.ParseFromDirectory(dir); res.Success {
				parsed[i] = res.Manifest
			}
			return nil
		})
	}
	_ = g.Wait()

	dirOf := make(map[*manifest.Manifest]string, len(dirs))
	pending := make(map[string]*manifest.Manifest, len(dirs))
	var manifests []*manifest.Manifest
	var unparsed []string
	for i, m := range parsed {
		if m == nil {
			unparsed = append(unparsed, dirs[i])
			continue
		}
		dirOf[m] = dirs[i]
		manifests = append(manifests, m)
		if _, dup := pending[m.ID]; !dup {
			pending[m.ID] = m
		}
	}

	ordered := make([]string, 0, len(dirs))
	for _, m := range LoadOrder(manifests) {
		ordered = append(ordered, dirOf[m])
	}
	ordered = append(ordered, unparsed...)

	for _, dir := range ordered {
		res := s.load(ctx, loadRequest{dir: dir, source: entity.SourceDirectory, pending: pending})
		out.record(dir, res)
	}

	logger.Info("[ExtensionLoader] bulk load from %s: %d loaded, %d failed", root, len(out.Loaded), len(out.Failed))
	return out
}

func (s *loaderServiceImpl) Restore(ctx context.Context) *BulkLoadResult {
	out := &BulkLoadResult{Results: make(map[string]*entity.LoadResult)}
	if s.deps.State == nil {
		return out
	}
	records, err := s.deps.State.List(ctx)
	if err != nil {
		logger.Error("[ExtensionLoader] list state records: %v", err)
		return out
	}

	// Load in dependency order using the manifests currently on disk.
	byManifest := make(map[*manifest.Manifest]*entity.ExtensionRecord, len(records))
	var manifests []*manifest.Manifest
	var unparsed []*entity.ExtensionRecord
	for _, rec := range records {
		if s.reg.has(rec.ID) {
			continue
		}
		res := manifest.ParseFromDirectory(rec.BasePath)
		if !res.Success {
			unparsed = append(unparsed, rec)
			continue
		}
		byManifest[res.Manifest] = rec
		manifests = append(manifests, res.Manifest)
	}
	ordered := make([]*entity.ExtensionRecord, 0, len(records))
	for _, m := range LoadOrder(manifests) {
		ordered = append(ordered, byManifest[m])
	}
	ordered = append(ordered, unparsed...)

	for _, rec := range ordered {
		var res *entity.LoadResult
		if rec.Source == entity.SourcePackage && rec.Package != "" {
			res = s.LoadFromPackage(ctx, rec.Package)
		} else {
			res = s.LoadFromDirectory(ctx, rec.BasePath)
		}
		out.record(rec.ID, res)
	}

	logger.Info("[ExtensionLoader] restored %d extensions, %d failed", len(out.Loaded), len(out.Failed))
	return out
}

func (b *BulkLoadResult) record(key string, res *entity.LoadResult) {
	b.Results[key] = res
	if res.Success {
		b.Loaded = append(b.Loaded, key)
		return
	}
	b.Failed = append(b.Failed, key)
	logger.Warn("[ExtensionLoader] %s failed to load: %v", key, res.Errors)
}
