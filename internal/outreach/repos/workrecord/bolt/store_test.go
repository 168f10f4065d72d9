package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/boltdb"
)

func TestWorkRecordStore_CreateAndList(t *testing.T) {
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := New(db)
	ctx := context.Background()
	at := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

	a, err := st.Create(ctx, domain.WorkRecord{ListID: "acme", WorkerID: "w1", CompanyURL: "https://a.com", Status: domain.WorkStatusDraft, CreatedAt: at})
	require.NoError(t, err)
	b, err := st.Create(ctx, domain.WorkRecord{ListID: "acme", WorkerID: "w2", CompanyURL: "https://b.com", Status: domain.WorkStatusSent, Note: "first mail", CreatedAt: at.Add(time.Minute)})
	require.NoError(t, err)
	_, err = st.Create(ctx, domain.WorkRecord{ListID: "globex", WorkerID: "w1", Status: domain.WorkStatusReplied, CreatedAt: at})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Greater(t, b.ID, a.ID)

	recs, err := st.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, a.ID, recs[0].ID)
	assert.Equal(t, "first mail", recs[1].Note)
	assert.Equal(t, domain.WorkStatusSent, recs[1].Status)
	assert.True(t, recs[1].CreatedAt.Equal(at.Add(time.Minute)))

	none, err := st.List(ctx, "initech")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWorkRecordStore_CreateValidates(t *testing.T) {
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = New(db).Create(context.Background(), domain.WorkRecord{ListID: "acme", Status: domain.WorkStatusDraft, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrInvalidWorkRecord)
}
