package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/internal/extract"
	"github.com/standardbeagle/rup/internal/logging"
	"github.com/standardbeagle/rup/internal/symbols"
	"github.com/standardbeagle/rup/internal/walk"
)

var symbolsCommand = &cli.Command{
	Name:  "symbols",
	Usage: "Build or refresh the symbol index",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Rebuild the index on file changes until interrupted",
		},
	},
	Action: symbolsActionFunc,
}

func symbolsActionFunc(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	if err := buildSymbolIndex(cfg.Project.Root, filepath.Join(cfg.Project.Root, cfg.Index.Path)); err != nil {
		return err
	}
	fmt.Println(filepath.Join(cfg.Project.Root, cfg.Index.Path))

	if !c.Bool("watch") {
		return nil
	}
	return watchAndRebuild(cfg.Project.Root, filepath.Join(cfg.Project.Root, cfg.Index.Path))
}

// buildSymbolIndex walks root with the default FileWalker, extracts symbols
// from every file the default SymbolExtractor supports, and writes the
// result as sorted JSONL to indexPath.
func buildSymbolIndex(root, indexPath string) error {
	files, err := walk.Walk(root, walk.Options{})
	if err != nil {
		return rerrors.RepoIssue("walk repository: %s", root).WithCause(err)
	}

	ex := extract.New()
	var all []symbols.Symbol
	for _, rel := range files {
		ext := filepath.Ext(rel)
		if !ex.SupportsExtension(ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			logging.Warnf("symbols: skip unreadable file %s: %v", rel, err)
			continue
		}
		syms, err := ex.Extract(data, rel)
		if err != nil {
			logging.Warnf("symbols: skip unparsable file %s: %v", rel, err)
			continue
		}
		extract.Postprocess(syms)
		all = append(all, syms...)
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return rerrors.Internal("create index directory: %s", filepath.Dir(indexPath)).WithCause(err)
	}

	tmp := indexPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return rerrors.Internal("create index file: %s", tmp).WithCause(err)
	}
	enc := json.NewEncoder(f)
	for _, s := range all {
		if err := enc.Encode(s); err != nil {
			f.Close()
			os.Remove(tmp)
			return rerrors.Internal("encode symbol index entry").WithCause(err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return rerrors.Internal("close index file: %s", tmp).WithCause(err)
	}
	if err := os.Rename(tmp, indexPath); err != nil {
		return rerrors.Internal("rename index into place: %s", indexPath).WithCause(err)
	}
	return nil
}

// watchAndRebuild rebuilds the symbol index whenever a file under root
// changes, logging failures rather than exiting so a transient syntax error
// mid-edit doesn't kill the watcher.
func watchAndRebuild(root, indexPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return rerrors.Internal("start file watcher").WithCause(err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return err
	}

	logging.Infof("symbols: watching %s for changes", root)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debugf("symbols: rebuild triggered by %s", event.Name)
			if err := buildSymbolIndex(root, indexPath); err != nil {
				logging.Warnf("symbols: rebuild failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("symbols: watcher error: %v", err)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := d.Name()
		if base == ".git" || base == ".rup" || base == "node_modules" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
