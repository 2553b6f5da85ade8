package sworkflow

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/compress"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/db"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/logger/mocklogger"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

const reconYAML = `name: recon
kind: module
steps:
  - name: subdomains
    type: bash
  - name: probe
    type: http
    depends_on: [subdomains]
`

func newTestService(t *testing.T, opts Options) (*WorkflowService, *mocklogger.MockHandler) {
	t.Helper()
	local, err := db.Open(context.Background(), db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(local.Close)

	logger, handler := mocklogger.NewMockLogger()
	return New(local.DB, logger, opts), handler
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	svc, logs := newTestService(t, Options{})

	saved, err := svc.Save(ctx, "recon", []byte(reconYAML), "")
	require.NoError(t, err)
	assert.Equal(t, "recon", saved.Name)
	assert.Equal(t, mworkflow.KindModule, saved.Kind)
	assert.Len(t, saved.Hash, 64)
	assert.False(t, saved.Revision.IsZero())

	got, err := svc.Get(ctx, "recon")
	require.NoError(t, err)
	assert.Equal(t, reconYAML, got.Text)
	assert.Equal(t, saved.Hash, got.Hash)
	assert.Equal(t, saved.Revision, got.Revision)
	assert.Equal(t, saved.UpdatedAt, got.UpdatedAt)

	assert.Contains(t, logs.Messages(), "workflow saved")
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, errmap.CodeNotFound, errmap.CodeOf(err))
	assert.Contains(t, err.Error(), `workflow "nope"`)
}

func TestInvalidID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	_, err := svc.Get(ctx, "")
	assert.Equal(t, errmap.CodeInvalidArgument, errmap.CodeOf(err))
	_, err = svc.Save(ctx, strings.Repeat("x", maxIDLength+1), []byte(reconYAML), "")
	assert.Equal(t, errmap.CodeInvalidArgument, errmap.CodeOf(err))
}

func TestSave_Rejects(t *testing.T) {
	tests := []struct {
		name string
		text string
		code errmap.Code
	}{
		{name: "malformed", text: "steps: [", code: errmap.CodeDecode},
		{name: "not a mapping", text: "- a", code: errmap.CodeNotObject},
		{name: "duplicate names", text: "steps:\n  - name: a\n  - name: a\n", code: errmap.CodeDuplicateName},
		{name: "reserved name", text: "steps:\n  - name: _end\n", code: errmap.CodeDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, Options{})
			_, err := svc.Save(context.Background(), "wf", []byte(tt.text), "")
			require.Error(t, err)
			assert.Equal(t, tt.code, errmap.CodeOf(err))

			_, err = svc.Get(context.Background(), "wf")
			assert.Equal(t, errmap.CodeNotFound, errmap.CodeOf(err))
		})
	}
}

func TestSave_OptimisticConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	_, err := svc.Save(ctx, "recon", []byte(reconYAML), "deadbeef")
	assert.Equal(t, errmap.CodeConflict, errmap.CodeOf(err), "expected hash on a missing workflow")

	first, err := svc.Save(ctx, "recon", []byte(reconYAML), "")
	require.NoError(t, err)

	edited := strings.Replace(reconYAML, "type: http", "type: function", 1)
	second, err := svc.Save(ctx, "recon", []byte(edited), first.Hash)
	require.NoError(t, err)
	assert.NotEqual(t, first.Revision, second.Revision)

	// a client still holding the first hash is stale
	_, err = svc.Save(ctx, "recon", []byte(reconYAML), first.Hash)
	require.Error(t, err)
	assert.Equal(t, errmap.CodeConflict, errmap.CodeOf(err))

	got, err := svc.Get(ctx, "recon")
	require.NoError(t, err)
	assert.Equal(t, edited, got.Text)
}

func TestSave_UnchangedKeepsRevision(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	first, err := svc.Save(ctx, "recon", []byte(reconYAML), "")
	require.NoError(t, err)
	again, err := svc.Save(ctx, "recon", []byte(reconYAML), first.Hash)
	require.NoError(t, err)
	assert.Equal(t, first.Revision, again.Revision)

	revs, err := svc.ListRevisions(ctx, "recon")
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}

func TestRevisions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{CompressType: compress.CompressTypeZstd, CompressThreshold: 256})

	small, err := svc.Save(ctx, "recon", []byte(reconYAML), "")
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString("name: recon\nsteps:\n")
	for i := 0; i < 50; i++ {
		b.WriteString("  - name: step")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(string(rune('a' + i%26)))
		b.WriteString(string(rune('a' + i/26)))
		b.WriteString("\n    type: bash\n")
	}
	large := b.String()
	big, err := svc.Save(ctx, "recon", []byte(large), small.Hash)
	require.NoError(t, err)

	revs, err := svc.ListRevisions(ctx, "recon")
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, big.Revision, revs[0].ID)
	assert.Equal(t, compress.CompressTypeZstd, revs[0].CompressType)
	assert.Equal(t, len(large), revs[0].Size)
	assert.Equal(t, small.Revision, revs[1].ID)
	assert.Equal(t, compress.CompressTypeNone, revs[1].CompressType)

	head, err := svc.Get(ctx, "recon")
	require.NoError(t, err)
	assert.Equal(t, large, head.Text)

	old, err := svc.GetRevision(ctx, "recon", small.Revision)
	require.NoError(t, err)
	assert.Equal(t, reconYAML, old.Text)
	assert.Equal(t, "recon", old.Name)

	_, err = svc.ListRevisions(ctx, "missing")
	assert.Equal(t, errmap.CodeNotFound, errmap.CodeOf(err))
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	svc.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	_, err := svc.Save(ctx, "b-flow", []byte("name: full\nkind: flow\nmodules:\n  - name: recon\n"), "")
	require.NoError(t, err)
	_, err = svc.Save(ctx, "a-recon", []byte(reconYAML), "")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-recon", list[0].ID)
	assert.Equal(t, "b-flow", list[1].ID)
	assert.Equal(t, mworkflow.KindFlow, list[1].Kind)
	assert.Equal(t, "full", list[1].Name)
	assert.Equal(t, int64(1_700_000_000_000), list[1].UpdatedAt.UnixMilli())

	require.NoError(t, svc.Delete(ctx, "a-recon"))
	assert.Equal(t, errmap.CodeNotFound, errmap.CodeOf(svc.Delete(ctx, "a-recon")))

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.ListRevisions(ctx, "a-recon")
	assert.Equal(t, errmap.CodeNotFound, errmap.CodeOf(err))
}

func TestGet_Concurrent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	_, err := svc.Save(ctx, "recon", []byte(reconYAML), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wf, err := svc.Get(ctx, "recon")
			if err == nil && wf.Text != reconYAML {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestGet_CancelledLeaderDoesNotFailFollowers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	_, err := svc.Save(ctx, "recon", []byte(reconYAML), "")
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	svc.load = func(ctx context.Context, id string) (Workflow, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
		}
		return svc.get(ctx, id)
	}

	leaderCtx, cancel := context.WithCancel(ctx)
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Get(leaderCtx, "recon")
		leaderErr <- err
	}()
	<-started

	type result struct {
		wf  Workflow
		err error
	}
	follower := make(chan result, 1)
	go func() {
		wf, err := svc.Get(ctx, "recon")
		follower <- result{wf, err}
	}()

	cancel()
	require.ErrorIs(t, <-leaderErr, context.Canceled)

	// Give the follower time to join the in-flight read before it completes.
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case res := <-follower:
		require.NoError(t, res.err)
		assert.Equal(t, reconYAML, res.wf.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("follower did not return")
	}
}
