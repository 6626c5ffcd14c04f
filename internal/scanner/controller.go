package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"photoscan/internal/classify"
	"photoscan/internal/config"
	"photoscan/internal/fingerprint"
	"photoscan/internal/identity"
	"photoscan/internal/logging"
	"photoscan/internal/store"
	"photoscan/internal/vision"
)

// State is the scan lifecycle phase.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StatePaused     State = "paused"
	StateCancelling State = "cancelling"
)

var (
	ErrAlreadyRunning    = errors.New("a scan is already running")
	ErrInvalidPath       = errors.New("scan path is not a directory")
	ErrInvalidTransition = errors.New("invalid scan state transition")
)

// Status is a point-in-time snapshot of the controller.
type Status struct {
	State     State  `json:"state"`
	JobID     string `json:"job_id,omitempty"`
	Directory string `json:"directory,omitempty"`
	Force     bool   `json:"force"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Pending   int    `json:"pending"`
}

// Enricher produces the AI enrichment result for one photo.
type Enricher interface {
	Enrich(ctx context.Context, imagePath string) vision.Result
}

// Resolver clusters detections into entity links.
type Resolver interface {
	Resolve(ctx context.Context, detections []vision.Detection) ([]store.LinkInsert, string, error)
}

// Controller owns the single process-wide scan job. Control calls and
// status reads never block on in-flight file work; pause, resume, and
// cancel take effect at the between-files checkpoint.
type Controller struct {
	store      *store.Store
	enricher   Enricher
	resolver   Resolver
	logger     *slog.Logger
	extensions map[string]struct{}

	mu        sync.Mutex
	cond      *sync.Cond
	state     State
	jobID     string
	directory string
	force     bool
	total     int
	processed int
	done      chan struct{}
	cancelJob context.CancelFunc
}

// New builds an idle controller.
func New(cfg *config.Config, s *store.Store, enricher Enricher, resolver Resolver, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	extensions := make(map[string]struct{}, len(cfg.Scanner.Extensions))
	for _, ext := range cfg.Scanner.Extensions {
		extensions[strings.ToLower(ext)] = struct{}{}
	}
	c := &Controller{
		store:      s,
		enricher:   enricher,
		resolver:   resolver,
		logger:     logger.With(logging.String(logging.FieldComponent, "scanner")),
		extensions: extensions,
		state:      StateIdle,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// NewResolver wires the default identity registry as the controller's
// resolver.
func NewResolver(cfg *config.Config, s *store.Store, logger *slog.Logger) Resolver {
	return identity.NewRegistry(s, cfg.Entities.MatchThreshold, logger)
}

// Start begins scanning the directory. Discovery, the force purge, and
// the scan-history record happen before Start returns; file processing
// runs on a dedicated goroutine. Only an in-progress scan or an invalid
// path fail Start; per-file errors are logged and never surface here.
func (c *Controller) Start(ctx context.Context, directory string, force bool) (string, error) {
	resolved, err := validateDirectory(directory)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	// Hold idle until setup finishes so a second Start cannot slip in.
	c.state = StateRunning
	c.mu.Unlock()

	files, err := c.discover(ctx, resolved, force)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return "", err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	jobID := uuid.NewString()
	done := make(chan struct{})

	c.mu.Lock()
	c.jobID = jobID
	c.directory = resolved
	c.force = force
	c.total = len(files)
	c.processed = 0
	c.done = done
	c.cancelJob = cancel
	c.mu.Unlock()

	logger := c.logger.With(logging.ScanID(jobID))
	logger.Info("scan started",
		logging.String("directory", resolved),
		logging.Bool("force", force),
		logging.Int("total", len(files)))

	go func() {
		// Wake the checkpoint when the daemon context goes away.
		<-jobCtx.Done()
		c.cond.Broadcast()
	}()
	go c.run(jobCtx, logger, files, done)
	return jobID, nil
}

// Pause suspends processing at the next between-files checkpoint.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidTransition, c.state)
	}
	c.state = StatePaused
	c.cond.Broadcast()
	c.logger.Info("scan paused", logging.ScanID(c.jobID))
	return nil
}

// Resume continues a paused scan.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidTransition, c.state)
	}
	c.state = StateRunning
	c.cond.Broadcast()
	c.logger.Info("scan resumed", logging.ScanID(c.jobID))
	return nil
}

// Cancel stops the scan at the next checkpoint. Work already committed
// stays committed.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning && c.state != StatePaused {
		return fmt.Errorf("%w: cannot cancel while %s", ErrInvalidTransition, c.state)
	}
	c.state = StateCancelling
	c.cond.Broadcast()
	c.logger.Info("scan cancelling", logging.ScanID(c.jobID))
	return nil
}

// Status returns a snapshot copy of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.total - c.processed
	if pending < 0 {
		pending = 0
	}
	return Status{
		State:     c.state,
		JobID:     c.jobID,
		Directory: c.directory,
		Force:     c.force,
		Total:     c.total,
		Processed: c.processed,
		Pending:   pending,
	}
}

// Wait blocks until the current scan goroutine exits. It returns
// immediately when no scan has run.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func validateDirectory(directory string) (string, error) {
	trimmed := strings.TrimSpace(directory)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, trimmed)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, abs)
	}
	return abs, nil
}

// discover walks the tree in lexical order, applies the extension
// allow-list, and either purges prior rows (force) or filters paths
// already on record.
func (c *Controller) discover(ctx context.Context, root string, force bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := c.extensions[ext]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)

	if force {
		// Quarantine rows under the root are re-evaluated from scratch;
		// photo rows stay and are overwritten in place to preserve ids
		// and per-model history.
		if err := c.store.PurgeQuarantineUnderPath(ctx, root); err != nil {
			return nil, fmt.Errorf("reset quarantine: %w", err)
		}
	} else {
		known, err := c.store.KnownPaths(ctx)
		if err != nil {
			return nil, fmt.Errorf("load known paths: %w", err)
		}
		kept := files[:0]
		for _, path := range files {
			if _, seen := known[path]; !seen {
				kept = append(kept, path)
			}
		}
		files = kept
	}

	if err := c.store.TouchScanHistory(ctx, root); err != nil {
		return nil, fmt.Errorf("record scan history: %w", err)
	}
	return files, nil
}

func (c *Controller) run(ctx context.Context, logger *slog.Logger, files []string, done chan struct{}) {
	defer close(done)
	defer c.finish(logger)

	known, err := c.store.KnownHashes(ctx)
	if err != nil {
		logger.Error("load known hashes", logging.Error(err))
		return
	}
	classifier := classify.New(known)

	for _, path := range files {
		if !c.checkpoint(ctx) {
			logger.Info("scan stopped", logging.Int("processed", c.Status().Processed))
			return
		}
		c.processFile(ctx, logger, classifier, path)
		c.mu.Lock()
		c.processed++
		c.mu.Unlock()
	}
	logger.Info("scan finished", logging.Int("total", len(files)))
}

// checkpoint blocks while paused and reports whether processing should
// continue.
func (c *Controller) checkpoint(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.state == StatePaused && ctx.Err() == nil {
		c.cond.Wait()
	}
	return c.state == StateRunning && ctx.Err() == nil
}

func (c *Controller) finish(logger *slog.Logger) {
	c.mu.Lock()
	cancel := c.cancelJob
	c.state = StateIdle
	c.cancelJob = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	logger.Debug("scan goroutine exited")
}

func (c *Controller) processFile(ctx context.Context, logger *slog.Logger, classifier *classify.Classifier, path string) {
	fp, err := fingerprint.Compute(path)
	if err != nil {
		logger.Warn("unreadable file", logging.Path(path), logging.Error(err))
		if err := c.store.AddSkipped(ctx, store.SkippedItem{Filepath: path, Reason: classify.ReasonUnreadable}); err != nil {
			logger.Error("record skipped file", logging.Path(path), logging.Error(err))
		}
		return
	}

	decision := classifier.Classify(fp)
	switch decision.Kind {
	case classify.KindSkip:
		logger.Info("skipping file", logging.Path(path), logging.String("reason", decision.Reason))
		if err := c.store.AddSkipped(ctx, store.SkippedItem{Filepath: path, Reason: decision.Reason, FileSize: fp.Size}); err != nil {
			logger.Error("record skipped file", logging.Path(path), logging.Error(err))
		}
	case classify.KindDuplicate:
		// A force rescan revisits the original itself; its hash is already
		// on record for its own path, so re-enrich instead of quarantining.
		if original, err := c.store.PhotoByID(ctx, decision.OriginalPhotoID); err == nil && original != nil && original.Filepath == path {
			if _, err := c.enrichAndCommit(ctx, logger, path, fp); err != nil {
				logger.Error("commit photo", logging.Path(path), logging.Error(err))
			}
			return
		}
		logger.Info("duplicate file", logging.Path(path), logging.Int64("original_photo_id", decision.OriginalPhotoID))
		dup := store.DuplicateCopy{
			ContentHash:     fp.Hash,
			OriginalPhotoID: decision.OriginalPhotoID,
			Filepath:        path,
			FileSize:        fp.Size,
		}
		if err := c.store.AddDuplicate(ctx, dup); err != nil {
			logger.Error("record duplicate", logging.Path(path), logging.Error(err))
		}
	case classify.KindNew:
		photoID, err := c.enrichAndCommit(ctx, logger, path, fp)
		if err != nil {
			logger.Error("commit photo", logging.Path(path), logging.Error(err))
			return
		}
		classifier.Observe(fp.Hash, photoID)
	}
}

// enrichAndCommit runs the AI services and writes the photo, its entity
// links, and its history row in one transaction. Enrichment failures
// degrade to an empty description so the file is still on record.
func (c *Controller) enrichAndCommit(ctx context.Context, logger *slog.Logger, path string, fp fingerprint.Fingerprint) (int64, error) {
	result := c.enricher.Enrich(ctx, path)
	if result.DescribeErr != nil {
		logger.Warn("describe failed", logging.Path(path), logging.Error(result.DescribeErr))
	}
	if result.RecognizeErr != nil {
		logger.Warn("recognize failed", logging.Path(path), logging.Error(result.RecognizeErr))
	}

	links, entitiesJSON, err := c.resolver.Resolve(ctx, result.Detections)
	if err != nil {
		logger.Error("resolve entities", logging.Path(path), logging.Error(err))
		links, entitiesJSON = nil, "[]"
	}

	commit := store.EnrichmentCommit{
		Filepath:     path,
		ContentHash:  fp.Hash,
		FileSize:     fp.Size,
		Description:  result.Description,
		AIModel:      result.Model,
		Links:        links,
		EntitiesJSON: entitiesJSON,
	}
	fillFileTimes(&commit, path)
	photoID, err := c.store.CommitEnrichment(ctx, commit)
	if err != nil {
		return 0, err
	}
	logger.Info("photo enriched",
		logging.Path(path),
		logging.Int64("photo_id", photoID),
		logging.Int("entities", len(links)))
	return photoID, nil
}

func fillFileTimes(commit *store.EnrichmentCommit, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	modified := info.ModTime().UTC().Format("2006-01-02 15:04:05")
	commit.DateModified = modified
	// Creation time is not portably available; the modification time is
	// the closest stand-in.
	commit.DateCreated = modified
	commit.DateTaken = modified
}
