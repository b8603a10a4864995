package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	ignore "github.com/sabhiram/go-gitignore"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"amalgam/internal/decl"
	"amalgam/util"
)

const defaultCacheSize = 256

// language bundles a loaded grammar with its compiled top-level query.
type language struct {
	name  string
	lang  *tree_sitter.Language
	query *tree_sitter.Query
}

// Scanner turns C/C++ source trees into streams of declaration records.
// Files parse concurrently; the returned slice preserves sorted file order
// so downstream admission is deterministic.
type Scanner struct {
	languages map[string]*language
	cache     *lru.Cache[string, []*decl.Record]
	logger    *slog.Logger
	workers   int
}

// ScanOption configures a Scanner.
type ScanOption func(*Scanner)

// WithWorkers bounds the parse worker pool.
func WithWorkers(n int) ScanOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithScanLogger sets the diagnostic logger.
func WithScanLogger(logger *slog.Logger) ScanOption {
	return func(s *Scanner) { s.logger = logger }
}

// New creates a scanner for the given language names (nil means all
// supported languages).
func New(langs []string, opts ...ScanOption) (*Scanner, error) {
	if len(langs) == 0 {
		langs = []string{"c", "cpp"}
	}

	s := &Scanner{
		languages: make(map[string]*language, len(langs)),
		logger:    slog.Default(),
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, name := range langs {
		tsl, err := loadLanguage(name)
		if err != nil {
			return nil, err
		}
		src, ok := Queries[name]
		if !ok {
			return nil, fmt.Errorf("no query for language %q", name)
		}
		q, qerr := tree_sitter.NewQuery(tsl, src)
		if qerr != nil {
			return nil, fmt.Errorf("compiling %s query: %s", name, qerr.Message)
		}
		s.languages[name] = &language{name: name, lang: tsl, query: q}
	}

	cache, err := lru.New[string, []*decl.Record](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Close releases the compiled queries.
func (s *Scanner) Close() {
	for _, l := range s.languages {
		l.query.Close()
	}
}

// Scan walks the given files and directories and returns the declaration
// records of every supported source file, in sorted file order. Directory
// walks honor a root .gitignore. Files with syntax errors still contribute
// the declarations that parsed; the error is reported on stderr only,
// matching compiler-frontend behavior of continuing past diagnostics.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]*decl.Record, error) {
	files, err := s.collectFiles(roots)
	if err != nil {
		return nil, err
	}

	results := make([][]*decl.Record, len(files))
	errs := make([]error, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parser := tree_sitter.NewParser()
			defer parser.Close()
			for idx := range jobs {
				if ctx.Err() != nil {
					errs[idx] = ctx.Err()
					continue
				}
				results[idx], errs[idx] = s.parseFile(parser, files[idx])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var out []*decl.Record
	for i, recs := range results {
		if errs[i] != nil {
			return nil, fmt.Errorf("scanning %s: %w", files[i], errs[i])
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ScanFile parses a single file.
func (s *Scanner) ScanFile(path string) ([]*decl.Record, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	return s.parseFile(parser, path)
}

func (s *Scanner) parseFile(parser *tree_sitter.Parser, path string) ([]*decl.Record, error) {
	lang, ok := s.languages[extLanguages[filepath.Ext(path)]]
	if !ok {
		return nil, fmt.Errorf("no grammar for %q", path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key := path + "#" + util.ContentHash(src)
	if recs, ok := s.cache.Get(key); ok {
		s.logger.Debug("parse cache hit", "file", path)
		return recs, nil
	}

	if err := parser.SetLanguage(lang.lang); err != nil {
		return nil, fmt.Errorf("setting %s grammar: %w", lang.name, err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed for %q", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		fmt.Fprintf(os.Stderr, "Warning: syntax errors while parsing %s\n", path)
	}

	ex := &extractor{path: path, src: src, query: lang.query}
	recs := ex.records(root)
	s.cache.Add(key, recs)
	return recs, nil
}

// collectFiles expands the roots into a sorted, deduplicated list of
// supported source files.
func (s *Scanner) collectFiles(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		if _, ok := s.languages[extLanguages[filepath.Ext(path)]]; !ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		var matcher *ignore.GitIgnore
		if m, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			matcher = m
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				if matcher != nil && rel != "." && matcher.MatchesPath(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if matcher != nil && matcher.MatchesPath(rel) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
