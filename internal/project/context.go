// Package project loads a project's manifest into the immutable snapshot the
// sync engine works from, and owns the backups taken during the run.
package project

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/license"
	"git.home.luguber.info/inful/metasync/internal/logfields"
	"git.home.luguber.info/inful/metasync/internal/manifest"
	"git.home.luguber.info/inful/metasync/internal/storage"
	"git.home.luguber.info/inful/metasync/internal/syncer"
	"git.home.luguber.info/inful/metasync/internal/util/sets"
)

// Tool tables searched for metasync settings, in order.
var toolTables = []string{"tool.metasync", "tool.tyrannosaurus"}

// Options controls how a Context is loaded.
type Options struct {
	// Root is the project directory. Defaults to the working directory.
	Root string
	// ManifestPath defaults to pyproject.toml below Root; relative paths are resolved against Root.
	ManifestPath string
	DryRun       bool
	// BackupDir defaults to storage.DefaultDir below Root.
	BackupDir string
	// Now is used for run ids and date variables. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Context is the metadata snapshot for one sync run.
type Context struct {
	root         string
	project      string
	pkg          string
	doc          *manifest.Document
	version      string
	description  string
	keywords     []string
	authors      []string
	license      license.License
	deps         map[string]string
	buildSysReqs map[string]string
	sources      map[string]string
	targets      sets.Set[string]
	paths        map[string]string
	dryRun       bool
	store        *storage.FSStore
	runID        string
	log          *slog.Logger
}

var _ syncer.Context = (*Context)(nil)

// Load reads the manifest and builds a Context.
func Load(opts Options) (*Context, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	doc, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return nil, err
	}
	return New(doc, opts)
}

// New builds a Context from an already decoded manifest.
func New(doc *manifest.Document, opts Options) (*Context, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	c := &Context{
		root:   opts.Root,
		doc:    doc,
		dryRun: opts.DryRun,
		log:    opts.Logger,
	}
	if err := c.loadMetadata(); err != nil {
		return nil, err
	}

	store, err := storage.NewFSStore(c.root, opts.BackupDir)
	if err != nil {
		return nil, err
	}
	c.store = store
	c.runID = storage.NewRunID(opts.Now())

	c.loadSources(opts.Now())
	c.loadTargets()
	c.log.Debug("Loaded project context",
		logfields.Manifest(doc.Path()),
		"project", c.project,
		"version", c.version,
		logfields.RunID(c.runID),
		logfields.DryRun(c.dryRun))
	return c, nil
}

func (o Options) withDefaults() (Options, error) {
	if o.Root == "" {
		o.Root = "."
	}
	root, err := filepath.Abs(o.Root)
	if err != nil {
		return o, errors.WrapError(err, errors.CategoryConfig, "failed to resolve project root").
			WithContext("root", o.Root).
			Build()
	}
	o.Root = root
	if o.ManifestPath == "" {
		o.ManifestPath = manifest.DefaultFileName
	}
	if !filepath.IsAbs(o.ManifestPath) {
		o.ManifestPath = filepath.Join(root, o.ManifestPath)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o, nil
}

func (c *Context) loadMetadata() error {
	name, ok := c.Manifest("name")
	if !ok || name == "" {
		return errors.ManifestError("manifest has no project name").
			WithContext("fields", "tool.poetry.name, project.name").
			Build()
	}
	c.project = name

	version, ok := c.Manifest("version")
	if !ok || version == "" {
		return errors.ManifestError("manifest has no version").
			WithContext("fields", "tool.poetry.version, project.version").
			Build()
	}
	c.version = version

	c.description, _ = c.Manifest("description")
	c.keywords = c.stringList("keywords")
	c.authors = c.authorList()

	raw, ok := c.licenseString()
	if !ok {
		return errors.ManifestError("manifest has no license").
			WithContext("fields", "tool.poetry.license, project.license").
			Build()
	}
	lic, err := license.Parse(raw)
	if err != nil {
		return err
	}
	c.license = lic

	c.pkg = c.packageName()
	c.deps = c.dependencies()
	c.buildSysReqs = c.buildRequirements()
	return nil
}

// toolValue looks up a key in the first tool table that has it.
func (c *Context) toolValue(key string) (any, bool) {
	for _, table := range toolTables {
		if v, ok := c.doc.Lookup(table + "." + key); ok {
			return v, true
		}
	}
	return nil, false
}

func (c *Context) loadTargets() {
	c.targets = sets.New[string]()
	raw, ok := c.toolValue("targets")
	switch v := raw.(type) {
	case map[string]any:
		for key, enabled := range v {
			if b, isBool := enabled.(bool); isBool && b {
				c.addTarget(key)
			}
		}
	case []any:
		for _, key := range v {
			c.addTarget(manifest.Stringify(key))
		}
	default:
		if ok {
			c.log.Debug("Ignoring malformed targets setting, registering all targets")
		}
		for _, key := range syncer.Targets() {
			c.targets.Add(key)
		}
	}

	c.paths = map[string]string{
		syncer.TargetInit:     filepath.Join(c.pkg, "__init__.py"),
		syncer.TargetRecipe:   filepath.Join("recipes", c.project, "meta.yaml"),
		syncer.TargetCodemeta: "codemeta.json",
		syncer.TargetCitation: "CITATION.cff",
	}
	if overrides, ok := c.toolValue("paths"); ok {
		if table, isTable := overrides.(map[string]any); isTable {
			for key, p := range table {
				c.paths[key] = filepath.FromSlash(manifest.Stringify(p))
			}
		}
	}
	for key, p := range c.paths {
		if !filepath.IsAbs(p) {
			c.paths[key] = filepath.Join(c.root, p)
		}
	}
}

func (c *Context) addTarget(key string) {
	if !syncer.IsTarget(key) {
		c.log.Debug("Ignoring unknown target", logfields.Target(key))
		return
	}
	c.targets.Add(key)
}

// HasTarget reports whether key is registered.
func (c *Context) HasTarget(key string) bool {
	return c.targets.Has(key)
}

// PathSource returns the absolute path of a target file.
func (c *Context) PathSource(key string) string {
	return c.paths[key]
}

// Targets returns the registered target keys in sync order.
func (c *Context) Targets() []string {
	var out []string
	for _, key := range syncer.Targets() {
		if c.targets.Has(key) {
			out = append(out, key)
		}
	}
	return out
}

// Lookup resolves a dotted path in the raw manifest.
func (c *Context) Lookup(dotted string) (any, bool) {
	return c.doc.Lookup(dotted)
}

// Document returns the decoded manifest.
func (c *Context) Document() *manifest.Document { return c.doc }

func (c *Context) Deps() map[string]string         { return c.deps }
func (c *Context) BuildSysReqs() map[string]string { return c.buildSysReqs }
func (c *Context) Version() string                 { return c.version }
func (c *Context) Description() string             { return c.description }
func (c *Context) License() license.License        { return c.license }
func (c *Context) DryRun() bool                    { return c.dryRun }
func (c *Context) Root() string                    { return c.root }
func (c *Context) Project() string                 { return c.project }
func (c *Context) Package() string                 { return c.pkg }
func (c *Context) RunID() string                   { return c.runID }
func (c *Context) Store() *storage.FSStore         { return c.store }

func (c *Context) Keywords() []string { return slices.Clone(c.keywords) }
func (c *Context) Authors() []string  { return slices.Clone(c.authors) }

// BackUp stores the current content of path under this run.
func (c *Context) BackUp(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.WrapError(err, errors.CategoryBackup, "cannot back up missing file").
			WithContext("path", path).
			Build()
	}
	entry, err := c.store.BackUp(c.runID, path)
	if err != nil {
		return err
	}
	c.log.Debug("Backed up file", logfields.Path(entry.Path), logfields.RunID(c.runID))
	return nil
}
