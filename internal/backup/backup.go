// Package backup snapshots the planner table to CSV and commits it to git.
// Commit and push are best effort: their outcome is reported in SyncResult,
// never as an error.
package backup

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultExportPath    = "data_exports/planner_items.csv"
	DefaultCommitMessage = "Auto-sync planner logs"
	DefaultRemote        = "origin"
	DefaultTimeout       = 60 * time.Second
)

type Config struct {
	// RepoDir is the git work tree the export lives in.
	RepoDir string
	// ExportPath is relative to RepoDir.
	ExportPath string
	// Timeout bounds the git commands of one sync; zero means DefaultTimeout.
	Timeout time.Duration
}

// SyncResult describes what CommitAndPush managed to do.
type SyncResult struct {
	Committed bool   `json:"committed"`
	Pushed    bool   `json:"pushed"`
	Reason    string `json:"reason,omitempty"`
}

type Service struct {
	db  *gorm.DB
	cfg Config
	log *log.Logger

	mu sync.Mutex
}

func NewService(db *gorm.DB, cfg Config, lg *log.Logger) *Service {
	if cfg.RepoDir == "" {
		cfg.RepoDir = "."
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = DefaultExportPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if lg == nil {
		lg = log.StandardLogger()
	}
	return &Service{db: db, cfg: cfg, log: lg}
}

// ExportFile is the path ExportToFile writes to.
func (s *Service) ExportFile() string {
	return filepath.Join(s.cfg.RepoDir, s.cfg.ExportPath)
}

// CommitAndPush stages the export file, commits it with message and pushes to
// origin. Missing repository, empty diff, missing remote and push failures end
// up in Reason.
func (s *Service) CommitAndPush(ctx context.Context, message string) SyncResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = DefaultCommitMessage
	}
	dir := s.cfg.RepoDir
	rel := filepath.ToSlash(s.cfg.ExportPath)

	var res SyncResult
	var reasons []string

	if _, ok := repoRoot(ctx, dir); !ok {
		res.Reason = "not a git repository"
		return res
	}

	if _, err := runGit(ctx, dir, "add", "--", rel); err != nil {
		reasons = append(reasons, err.Error())
	} else if staged, err := hasStagedChanges(ctx, dir, rel); err != nil {
		reasons = append(reasons, err.Error())
	} else if !staged {
		reasons = append(reasons, "nothing to commit")
	} else if _, err := runGit(ctx, dir, "commit", "-m", msg, "--", rel); err != nil {
		reasons = append(reasons, err.Error())
	} else {
		res.Committed = true
	}

	// Push even without a new commit so earlier local commits still go out.
	if _, err := remoteURL(ctx, dir, DefaultRemote); err != nil {
		reasons = append(reasons, "no origin remote")
	} else if _, err := runGit(ctx, dir, "push", DefaultRemote, "HEAD"); err != nil {
		reasons = append(reasons, err.Error())
	} else {
		res.Pushed = true
	}

	res.Reason = strings.Join(reasons, "; ")
	return res
}

// ExportAndSync exports then commits and pushes. The error is non-nil only when
// the local export fails; the path is returned whatever happens to the sync.
func (s *Service) ExportAndSync(ctx context.Context, message string) (string, SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.ExportToFile(ctx)
	if err != nil {
		return "", SyncResult{}, err
	}
	res := s.CommitAndPush(ctx, message)
	s.log.WithFields(log.Fields{
		"path":      path,
		"committed": res.Committed,
		"pushed":    res.Pushed,
		"reason":    res.Reason,
	}).Info("planner sync finished")
	return path, res, nil
}
