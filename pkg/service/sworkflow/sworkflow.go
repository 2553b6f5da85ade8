//nolint:revive // exported
package sworkflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/compress"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/contenthash"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

const maxIDLength = 128

var ErrNoWorkflowFound = sql.ErrNoRows

// Workflow is one stored workflow document at a given revision.
type Workflow struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      mworkflow.Kind `json:"kind"`
	Text      string         `json:"text"`
	Hash      string         `json:"hash"`
	Revision  idwrap.IDWrap  `json:"revision"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Summary describes a workflow without its text.
type Summary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      mworkflow.Kind `json:"kind"`
	Hash      string         `json:"hash"`
	Revision  idwrap.IDWrap  `json:"revision"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Revision describes one saved version of a workflow.
type Revision struct {
	ID           idwrap.IDWrap         `json:"id"`
	WorkflowID   string                `json:"workflowId"`
	Hash         string                `json:"hash"`
	Size         int                   `json:"size"`
	CompressType compress.CompressType `json:"compressType"`
	CreatedAt    time.Time             `json:"createdAt"`
}

type Options struct {
	// CompressType is applied to revision bodies of at least
	// CompressThreshold bytes.
	CompressType      compress.CompressType
	CompressThreshold int
}

// WorkflowService is the document fetch and save capability backed by
// SQLite. Every save is validated by compiling the text first.
type WorkflowService struct {
	db     *sql.DB
	logger *slog.Logger
	opts   Options
	hasher *contenthash.Hasher
	reads  singleflight.Group
	load   func(context.Context, string) (Workflow, error)
	now    func() time.Time
}

func New(db *sql.DB, logger *slog.Logger, opts Options) *WorkflowService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &WorkflowService{
		db:     db,
		logger: logger,
		opts:   opts,
		hasher: contenthash.New(),
		now:    time.Now,
	}
	s.load = s.get
	return s
}

func validateID(id string) error {
	if id == "" {
		return errmap.New(errmap.CodeInvalidArgument, "workflow id is required")
	}
	if len(id) > maxIDLength {
		return errmap.New(errmap.CodeInvalidArgument, fmt.Sprintf("workflow id exceeds %d characters", maxIDLength))
	}
	return nil
}

func notFound(id string, err error) error {
	if errors.Is(err, ErrNoWorkflowFound) {
		return errmap.New(errmap.CodeNotFound, "").WithWorkflow(id)
	}
	return fmt.Errorf("get workflow %q: %w", id, err)
}

// Get returns the head revision of a workflow. Concurrent calls for the
// same id share one query. The shared query ignores the cancellation of
// whichever caller started it; each caller still stops waiting when its own
// ctx is done.
func (s *WorkflowService) Get(ctx context.Context, id string) (Workflow, error) {
	if err := validateID(id); err != nil {
		return Workflow{}, err
	}
	flightCtx := context.WithoutCancel(ctx)
	ch := s.reads.DoChan(id, func() (any, error) {
		return s.load(flightCtx, id)
	})
	select {
	case <-ctx.Done():
		return Workflow{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Workflow{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("coalesced workflow read", "workflow", id)
		}
		return res.Val.(Workflow), nil
	}
}

func (s *WorkflowService) get(ctx context.Context, id string) (Workflow, error) {
	const query = `
SELECT w.name, w.kind, w.head_revision, w.content_hash, w.updated_at, r.compress_type, r.body
FROM workflows w
JOIN workflow_revisions r ON r.id = w.head_revision
WHERE w.id = ?`

	var (
		wf           = Workflow{ID: id}
		kind         string
		revision     string
		updatedAt    int64
		compressType compress.CompressType
		body         []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&wf.Name, &kind, &revision, &wf.Hash, &updatedAt, &compressType, &body)
	if err != nil {
		return Workflow{}, notFound(id, err)
	}
	text, err := compress.Decompress(body, compressType)
	if err != nil {
		return Workflow{}, fmt.Errorf("decompress workflow %q: %w", id, err)
	}
	if wf.Revision, err = idwrap.NewText(revision); err != nil {
		return Workflow{}, err
	}
	wf.Kind = mworkflow.Kind(kind)
	wf.Text = string(text)
	wf.UpdatedAt = time.UnixMilli(updatedAt)
	return wf, nil
}

// GetRevision returns a workflow as it was at one revision.
func (s *WorkflowService) GetRevision(ctx context.Context, id string, rev idwrap.IDWrap) (Workflow, error) {
	if err := validateID(id); err != nil {
		return Workflow{}, err
	}
	const query = `
SELECT content_hash, compress_type, body, created_at
FROM workflow_revisions
WHERE workflow_id = ? AND id = ?`

	var (
		wf           = Workflow{ID: id, Revision: rev}
		compressType compress.CompressType
		body         []byte
		createdAt    int64
	)
	err := s.db.QueryRowContext(ctx, query, id, rev.String()).Scan(&wf.Hash, &compressType, &body, &createdAt)
	if err != nil {
		return Workflow{}, notFound(id, err)
	}
	text, err := compress.Decompress(body, compressType)
	if err != nil {
		return Workflow{}, fmt.Errorf("decompress revision %s: %w", rev, err)
	}
	wf.Text = string(text)
	wf.UpdatedAt = time.UnixMilli(createdAt)
	if doc, err := yamlworkflow.DecodeDocument(text); err == nil {
		wf.Name = doc.Name()
		wf.Kind = doc.Kind()
	}
	return wf, nil
}

// Save stores text as the new head revision of id. The text must compile
// and pass Validate. A non-empty expectedHash must match the current head
// hash, otherwise the save fails with a conflict. Saving text identical to
// the head creates no revision.
func (s *WorkflowService) Save(ctx context.Context, id string, text []byte, expectedHash string) (Workflow, error) {
	if err := validateID(id); err != nil {
		return Workflow{}, err
	}
	graph, err := yamlworkflow.Parse(text)
	if err != nil {
		return Workflow{}, err
	}
	if err := yamlworkflow.Validate(graph.Raw); err != nil {
		return Workflow{}, err
	}

	hash := s.hasher.HashBytes(text)
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Workflow{}, fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		headHash string
		headRev  string
		exists   = true
	)
	err = tx.QueryRowContext(ctx, `SELECT content_hash, head_revision FROM workflows WHERE id = ?`, id).Scan(&headHash, &headRev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return Workflow{}, fmt.Errorf("read head of %q: %w", id, err)
	}

	if expectedHash != "" && (!exists || expectedHash != headHash) {
		return Workflow{}, errmap.New(errmap.CodeConflict, "").WithWorkflow(id)
	}

	wf := Workflow{
		ID:        id,
		Name:      graph.Metadata.Name,
		Kind:      graph.Metadata.Kind,
		Text:      string(text),
		Hash:      hash,
		UpdatedAt: time.UnixMilli(now.UnixMilli()),
	}

	if exists && headHash == hash {
		wf.Revision, err = idwrap.NewText(headRev)
		if err != nil {
			return Workflow{}, err
		}
		s.logger.Debug("workflow unchanged", "workflow", id, "revision", headRev)
		return wf, tx.Commit()
	}

	body, compressType, err := compress.CompressAbove(text, s.opts.CompressType, s.opts.CompressThreshold)
	if err != nil {
		return Workflow{}, fmt.Errorf("compress workflow %q: %w", id, err)
	}

	wf.Revision = idwrap.NewNow()
	_, err = tx.ExecContext(ctx, `
INSERT INTO workflows (id, name, kind, head_revision, content_hash, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  name = excluded.name,
  kind = excluded.kind,
  head_revision = excluded.head_revision,
  content_hash = excluded.content_hash,
  updated_at = excluded.updated_at`,
		id, wf.Name, string(wf.Kind), wf.Revision.String(), hash, now.UnixMilli())
	if err != nil {
		return Workflow{}, fmt.Errorf("upsert workflow %q: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO workflow_revisions (id, workflow_id, content_hash, compress_type, body, size, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		wf.Revision.String(), id, hash, compressType, body, len(text), now.UnixMilli())
	if err != nil {
		return Workflow{}, fmt.Errorf("insert revision of %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Workflow{}, fmt.Errorf("commit save of %q: %w", id, err)
	}

	s.logger.Info("workflow saved",
		"workflow", id,
		"revision", wf.Revision.String(),
		"kind", wf.Kind,
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
		"size", len(text),
		"stored", len(body),
	)
	return wf, nil
}

// List returns every workflow ordered by id.
func (s *WorkflowService) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, kind, head_revision, content_hash, updated_at
FROM workflows
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			kind      string
			rev       string
			updatedAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &kind, &rev, &sum.Hash, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		if sum.Revision, err = idwrap.NewText(rev); err != nil {
			return nil, err
		}
		sum.Kind = mworkflow.Kind(kind)
		sum.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListRevisions returns the revisions of a workflow, newest first.
func (s *WorkflowService) ListRevisions(ctx context.Context, id string) ([]Revision, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, content_hash, size, compress_type, created_at
FROM workflow_revisions
WHERE workflow_id = ?
ORDER BY id DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("list revisions of %q: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Revision
	for rows.Next() {
		var (
			rev       = Revision{WorkflowID: id}
			revID     string
			createdAt int64
		)
		if err := rows.Scan(&revID, &rev.Hash, &rev.Size, &rev.CompressType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		if rev.ID, err = idwrap.NewText(revID); err != nil {
			return nil, err
		}
		rev.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errmap.New(errmap.CodeNotFound, "").WithWorkflow(id)
	}
	return out, nil
}

// Delete removes a workflow and all its revisions.
func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete workflow %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errmap.New(errmap.CodeNotFound, "").WithWorkflow(id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_revisions WHERE workflow_id = ?`, id); err != nil {
		return fmt.Errorf("delete revisions of %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete of %q: %w", id, err)
	}
	s.logger.Info("workflow deleted", "workflow", id)
	return nil
}
