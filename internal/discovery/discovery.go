// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
)

// LargeRepositoryFiles is the file count above which discovery reports a
// large_repository diagnostic. It is a warning, not a budget.
const LargeRepositoryFiles = 500

type (
	// Options configures one discovery walk.
	Options struct {
		// IgnorePatterns are user-supplied gitignore-style patterns.
		IgnorePatterns []string
		// MaxFiles stops discovery after this many files (<=0 = unlimited).
		MaxFiles int
		// MaxBytes stops discovery once the summed file size would exceed it (<=0 = unlimited).
		MaxBytes int64
		// MaxReadBytes caps a single content read (0 = DefaultMaxReadBytes).
		MaxReadBytes int64
		// CacheEntries bounds the content cache (0 = default).
		CacheEntries int
		// Logger receives debug output; nil discards.
		Logger *log.Logger
	}

	// Stats counts what the walk saw.
	Stats struct {
		Visited int   `json:"visited"`
		Ignored int   `json:"ignored"`
		Skipped int   `json:"skipped"`
		Bytes   int64 `json:"bytes"`
	}

	// Result is the immutable snapshot of one discovery run.
	Result struct {
		root        string
		files       []FileRecord
		rules       Rules
		diagnostics []Diagnostic
		truncated   bool
		stats       Stats
	}

	walker struct {
		ctx    context.Context
		root   string
		opts   Options
		rules  Rules
		loader *contentLoader
		logger *log.Logger
		res    *Result
	}
)

// Discover walks root and returns the classified file snapshot, sorted by path.
// Only an unreadable root is fatal (*AccessError); everything else becomes a
// Diagnostic on the result.
func Discover(ctx context.Context, root string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &AccessError{Root: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &AccessError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &AccessError{Root: root, Err: ErrNotDirectory}
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, &AccessError{Root: root, Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	loader, err := newContentLoader(abs, opts.MaxReadBytes, opts.CacheEntries)
	if err != nil {
		return nil, err
	}

	w := &walker{
		ctx:    ctx,
		root:   abs,
		opts:   opts,
		loader: loader,
		logger: logger,
		res:    &Result{root: abs},
	}
	w.rules = w.buildRules()
	w.res.rules = w.rules

	if err := filepath.WalkDir(abs, w.visit); err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, &AccessError{Root: root, Err: err}
	}

	slices.SortFunc(w.res.files, func(a, b FileRecord) int {
		switch {
		case a.path < b.path:
			return -1
		case a.path > b.path:
			return 1
		default:
			return 0
		}
	})
	logger.Debug("discovery complete", "root", abs, "files", len(w.res.files), "truncated", w.res.truncated)
	return w.res, nil
}

func (w *walker) buildRules() Rules {
	rules := DefaultRules()

	data, err := os.ReadFile(filepath.Join(w.root, ".gitignore"))
	switch {
	case err == nil:
		gi, negated := ParsePatterns(data, RuleSourceGitignore)
		rules = append(rules, gi...)
		for _, p := range negated {
			w.diag(SeverityInfo, CodeIgnorePatternUnsupported, ".gitignore",
				fmt.Sprintf("negated pattern %q is not supported and was ignored", p), nil)
		}
	case !errors.Is(err, fs.ErrNotExist):
		w.diag(SeverityWarning, CodeGitignoreUnreadable, ".gitignore", "root .gitignore could not be read", err)
	}

	for _, p := range w.opts.IgnorePatterns {
		if p == "" {
			continue
		}
		if p[0] == '!' {
			w.diag(SeverityInfo, CodeIgnorePatternUnsupported, "",
				fmt.Sprintf("negated pattern %q is not supported and was ignored", p), nil)
			continue
		}
		if r, ok := parsePattern(p, RuleSourceUser); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

func (w *walker) visit(abs string, d fs.DirEntry, walkErr error) error {
	if abs == w.root {
		if walkErr != nil {
			return walkErr
		}
		return nil
	}

	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	if walkErr != nil {
		w.diag(SeverityWarning, CodeSubtreeUnreadable, rel, "path could not be read and was skipped", walkErr)
		w.logger.Debug("skipping unreadable path", "path", rel, "err", walkErr)
		if d != nil && d.IsDir() {
			return fs.SkipDir
		}
		return nil
	}

	if err := w.ctx.Err(); err != nil {
		w.truncate("deadline", 0, err)
		return fs.SkipAll
	}

	if d.Type()&fs.ModeSymlink != 0 {
		w.diag(SeverityInfo, CodeSymlinkSkipped, rel, "symbolic link not followed", nil)
		return nil
	}

	if rule, ok := w.rules.Match(rel, d.IsDir()); ok {
		w.res.stats.Ignored++
		w.logger.Debug("ignored", "path", rel, "pattern", rule.Pattern, "source", rule.Source)
		if d.IsDir() {
			return fs.SkipDir
		}
		return nil
	}
	if d.IsDir() || !d.Type().IsRegular() {
		return nil
	}
	if isLockFile(d.Name()) {
		if info, err := d.Info(); err == nil && info.Size() > w.loader.maxRead {
			w.res.stats.Ignored++
			w.logger.Debug("ignored", "path", rel, "pattern", d.Name(), "source", RuleSourceDenylist, "size", info.Size())
			return nil
		}
	}
	w.res.stats.Visited++

	category, ok := Classify(rel)
	if !ok && path.Ext(rel) == "" && peekShebang(abs) {
		category, ok = CategorySource, true
	}
	if !ok {
		w.res.stats.Skipped++
		return nil
	}

	info, err := d.Info()
	if err != nil {
		w.diag(SeverityWarning, CodeSubtreeUnreadable, rel, "file metadata could not be read", err)
		return nil
	}

	if w.opts.MaxFiles > 0 && len(w.res.files) >= w.opts.MaxFiles {
		w.truncate("file", int64(w.opts.MaxFiles), nil)
		return fs.SkipAll
	}
	if w.opts.MaxBytes > 0 && w.res.stats.Bytes+info.Size() > w.opts.MaxBytes {
		w.truncate("byte", w.opts.MaxBytes, nil)
		return fs.SkipAll
	}

	w.res.stats.Bytes += info.Size()
	w.res.files = append(w.res.files, FileRecord{
		path:     rel,
		category: category,
		size:     info.Size(),
		loader:   w.loader,
	})
	if len(w.res.files) == LargeRepositoryFiles+1 {
		w.diag(SeverityWarning, CodeLargeRepository, "",
			fmt.Sprintf("repository has more than %d files; extraction may be slow", LargeRepositoryFiles), nil)
		w.logger.Warn("large repository", "files", len(w.res.files))
	}
	return nil
}

func (w *walker) truncate(limit string, value int64, cause error) {
	w.res.truncated = true
	var err error = &BudgetError{Limit: limit, Value: value}
	if cause != nil {
		err = errors.Join(err, cause)
	}
	w.diag(SeverityWarning, CodeBudgetExceeded, "",
		fmt.Sprintf("discovery stopped after %d files (%s budget)", len(w.res.files), limit), err)
	w.logger.Warn("discovery truncated", "limit", limit, "files", len(w.res.files))
}

func (w *walker) diag(sev Severity, code DiagnosticCode, rel, msg string, cause error) {
	w.res.diagnostics = append(w.res.diagnostics, Diagnostic{
		Severity:  sev,
		Code:      code,
		Message:   msg,
		Path:      rel,
		Component: "discovery",
		Cause:     cause,
	})
}

// Root returns the absolute repository root.
func (r *Result) Root() string { return r.root }

// Files returns a copy of the ordered file records.
func (r *Result) Files() []FileRecord { return slices.Clone(r.files) }

// Len returns the number of discovered files.
func (r *Result) Len() int { return len(r.files) }

// Rules returns a copy of the ignore rules that were applied.
func (r *Result) Rules() Rules { return slices.Clone(r.rules) }

// Diagnostics returns a copy of the discovery diagnostics.
func (r *Result) Diagnostics() []Diagnostic { return slices.Clone(r.diagnostics) }

// Truncated reports whether discovery stopped at its budget.
func (r *Result) Truncated() bool { return r.truncated }

// Stats returns walk counters.
func (r *Result) Stats() Stats { return r.stats }

// Select returns the records accepted by keep, in path order.
func (r *Result) Select(keep func(FileRecord) bool) []FileRecord {
	var out []FileRecord
	for _, f := range r.files {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// ByCategory returns the records of one category, in path order.
func (r *Result) ByCategory(c Category) []FileRecord {
	return r.Select(func(f FileRecord) bool { return f.category == c })
}

// Named returns the records whose base name equals one of names, in path order.
func (r *Result) Named(names ...string) []FileRecord {
	return r.Select(func(f FileRecord) bool { return slices.Contains(names, f.Name()) })
}

// HasDir reports whether any record lives under a top-level directory named dir.
func (r *Result) HasDir(dir string) bool {
	for _, f := range r.files {
		if underDir(f.path, dir) {
			return true
		}
	}
	return false
}
