package main

import (
	"fmt"

	"bazi/internal/cases"
	"bazi/internal/chart"
	"bazi/internal/errors"
	"bazi/internal/jobs"
	"bazi/internal/lunar"
	"bazi/internal/storage"
	"bazi/internal/version"
)

func (a *app) engine() *chart.Engine {
	return chart.NewEngine(lunar.New(), a.logger)
}

// openLibrary opens the case database with a snapshot cache keyed to this
// binary's version. The returned func closes both.
func (a *app) openLibrary() (*cases.Library, func(), error) {
	dir, err := a.cfg.ResolveDataDir()
	if err != nil {
		return nil, nil, errors.New(errors.StorageError, "resolve data directory", err)
	}
	db, err := storage.Open(dir, a.logger)
	if err != nil {
		return nil, nil, errors.New(errors.StorageError, fmt.Sprintf("open database in %s", dir), err)
	}
	cache, err := storage.NewSnapshotCache(db, version.Version)
	if err != nil {
		_ = db.Close()
		return nil, nil, errors.New(errors.StorageError, "open snapshot cache", err)
	}
	if n, err := cache.PurgeStale(); err != nil {
		a.logger.Warn("Failed to purge stale snapshots", "error", err.Error())
	} else if n > 0 {
		a.logger.Info("Purged stale snapshots", "count", n)
	}

	closeAll := func() {
		_ = cache.Close()
		_ = db.Close()
	}
	return cases.NewLibrary(db, cache, a.engine(), a.logger), closeAll, nil
}

func (a *app) openJobStore() (*jobs.Store, error) {
	dir, err := a.cfg.ResolveDataDir()
	if err != nil {
		return nil, errors.New(errors.StorageError, "resolve data directory", err)
	}
	store, err := jobs.OpenStore(dir, a.logger)
	if err != nil {
		return nil, errors.New(errors.StorageError, fmt.Sprintf("open job store in %s", dir), err)
	}
	return store, nil
}
