package knowledge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadFile reads articles from a YAML file of the form:
//
//	articles:
//	  - id: kb-shipping
//	    title: Shipping policy
//	    topics: [shipping, delivery]
//	    body: ...
func LoadFile(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: read %s: %w", path, err)
	}

	var doc struct {
		Articles []Article `yaml:"articles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("knowledge: parse %s: %w", path, err)
	}
	if len(doc.Articles) == 0 {
		return nil, fmt.Errorf("knowledge: %s contains no articles", path)
	}
	for i, a := range doc.Articles {
		if a.ID == "" || a.Title == "" || a.Body == "" {
			return nil, fmt.Errorf("knowledge: %s: article %d missing id, title or body", path, i)
		}
	}
	return doc.Articles, nil
}

// Watch reloads the base whenever the article file changes. It returns a
// stop function. A reload that fails to parse keeps the previous article
// set.
func Watch(base *Base, path string, logger *slog.Logger) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("knowledge: watch %s: %w", path, err)
	}
	// Watch the directory: editors replace files on save, which drops
	// watches placed on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("knowledge: watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				articles, err := LoadFile(path)
				if err != nil {
					logger.Warn("knowledge base reload failed", "path", path, "error", err)
					continue
				}
				base.Replace(articles)
				logger.Info("knowledge base reloaded", "path", path, "articles", len(articles))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("knowledge base watcher error", "error", err)
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
