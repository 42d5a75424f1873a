package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inflections/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(OpenOptions{Path: filepath.Join(t.TempDir(), "db", "content.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_MissingPath(t *testing.T) {
	_, err := Open(OpenOptions{})
	assert.Error(t, err)
}

func TestStore_RebuildAndSelect(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Rebuild(map[string][]store.Record{
		"Issues": {
			{ID: "recI2", Fields: store.Fields{"Issue Number": 2, "Status": "Published"}},
			{ID: "recI5", Fields: store.Fields{"Issue Number": 5, "Status": "Published"}},
			{ID: "recI4", Fields: store.Fields{"Issue Number": 4, "Status": "Draft"}},
		},
	}))

	all, err := s.Select(ctx, "Issues", store.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"recI2", "recI5", "recI4"}, recordIDs(all), "seed order is kept")

	published, err := s.Select(ctx, "Issues", store.Query{
		Filter: store.Eq("Status", "Published"),
		Sort:   []store.SortField{{Field: "Issue Number", Desc: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"recI5", "recI2"}, recordIDs(published))

	none, err := s.Select(ctx, "Missing", store.Query{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_RebuildReplacesTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Rebuild(map[string][]store.Record{
		"Articles": {{ID: "a1", Fields: store.Fields{"Title": "Old"}}},
		"Issues":   {{ID: "i1", Fields: store.Fields{"Issue Number": 1}}},
	}))
	require.NoError(t, s.Rebuild(map[string][]store.Record{
		"Articles": {{ID: "a2", Fields: store.Fields{"Title": "New"}}},
	}))

	arts, err := s.Select(ctx, "Articles", store.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, recordIDs(arts))

	issues, err := s.Select(ctx, "Issues", store.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, recordIDs(issues), "untouched table survives")

	tables, err := s.Tables()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Articles", "Issues"}, tables)
}

func TestStore_FindUpdateCreate(t *testing.T) {
	s := openTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, s.Rebuild(map[string][]store.Record{
		"Articles": {{ID: "a1", Fields: store.Fields{"Title": "Scaling Teams"}}},
	}))

	_, err := s.Find(ctx, "Articles", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Update(ctx, "Articles", "nope", store.Fields{"Title": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec, err := s.Update(ctx, "Articles", "a1", store.Fields{"Published URL": "https://x.io/a"})
	require.NoError(t, err)
	assert.Equal(t, "Scaling Teams", rec.Fields.String("Title"))
	assert.Equal(t, "https://x.io/a", rec.Fields.String("Published URL"))

	found, err := s.Find(ctx, "Articles", "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://x.io/a", found.Fields.String("Published URL"))

	created, err := s.Create(ctx, "Newsletter", store.Fields{"Email": "a@b.co"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, s.now(), created.CreatedTime)

	subs, err := s.Select(ctx, "Newsletter", store.Query{Filter: store.Eq("Email", "a@b.co")})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, created.ID, subs[0].ID)
}

func TestOrderKey_RoundTrip(t *testing.T) {
	k := makeOrderKey(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano(), "recABC")
	assert.Equal(t, "recABC", idFromOrderKey(k))
	assert.Equal(t, "", idFromOrderKey([]byte{1, 2}))
}

func recordIDs(rs []store.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
