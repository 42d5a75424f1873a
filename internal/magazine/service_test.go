package magazine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"inflections/internal/cache"
	domainerr "inflections/internal/domain/errors"
	"inflections/internal/domain/magazine"
	"inflections/internal/logger"
	"inflections/internal/schema"
	"inflections/internal/store"
)

// memStore is an in-memory store.Store with failure injection.
type memStore struct {
	mu      sync.Mutex
	tables  map[string][]store.Record
	fail    map[string]error
	selects int
	updates int
}

func newMemStore(tables map[string][]store.Record) *memStore {
	return &memStore{tables: tables, fail: make(map[string]error)}
}

func (m *memStore) failTable(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, table)
		return
	}
	m.fail[table] = err
}

func (m *memStore) Select(_ context.Context, table string, q store.Query) ([]store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selects++
	if err := m.fail[table]; err != nil {
		return nil, err
	}
	return store.Apply(m.tables[table], q), nil
}

func (m *memStore) Find(_ context.Context, table, id string) (store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.tables[table] {
		if r.ID == id {
			return store.Record{ID: r.ID, Fields: r.Fields.Clone()}, nil
		}
	}
	return store.Record{}, store.ErrNotFound
}

func (m *memStore) Update(_ context.Context, table, id string, fields store.Fields) (store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	for i, r := range m.tables[table] {
		if r.ID == id {
			for k, v := range fields {
				r.Fields[k] = v
			}
			m.tables[table][i] = r
			return r, nil
		}
	}
	return store.Record{}, store.ErrNotFound
}

func (m *memStore) Create(_ context.Context, table string, fields store.Fields) (store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := store.Record{ID: "recNew", Fields: fields}
	m.tables[table] = append(m.tables[table], r)
	return r, nil
}

func (m *memStore) selectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selects
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// linkedFixture is a small magazine in the linked-record layout.
func linkedFixture() map[string][]store.Record {
	return map[string][]store.Record{
		"Issues": {
			{ID: "recI2", Fields: store.Fields{"Issue Number": 2, "Issue Title": "Beginnings", "Status": "Published", "Publish Date": "2024-02-01"}},
			{ID: "recI3", Fields: store.Fields{"Issue Number": 3, "Issue Title": "Growth", "Status": "Published", "Publish Date": "2024-03-01"}},
			{ID: "recI4", Fields: store.Fields{"Issue Number": 4, "Issue Title": "Upcoming", "Status": "Draft"}},
			{ID: "recI5", Fields: store.Fields{"Issue Number": 5, "Issue Title": "Futures", "Status": "Published", "Publish Date": "2024-05-01"}},
		},
		"Articles": {
			{ID: "recA1", Fields: store.Fields{"Title": "Scaling Teams", "Slug": "scaling-teams", "Pillar": "Delivery Excellence", "Issue": []any{"recI3"}}},
			{ID: "recA2", Fields: store.Fields{"Title": "Remote Culture", "Slug": "remote-culture", "Issue": []any{"recI3"}}},
			{ID: "recA3", Fields: store.Fields{"Title": "Secret Plans", "Issue": []any{"recI4"}}},
			{ID: "recA4", Fields: store.Fields{"Title": "Future of Work", "Issue": []any{"recI5"}, "Publish Date": "2024-05-02"}},
			{ID: "recA5", Fields: store.Fields{"Title": "Future of Work", "Issue": []any{"recI2"}, "Publish Date": "2024-02-02"}},
			{ID: "recA6", Fields: store.Fields{"Slug": "no-title", "Issue": []any{"recI5"}}},
			{ID: "recA7", Fields: store.Fields{"Title": "Lost", "Slug": "lost"}},
		},
	}
}

func newTestService(t *testing.T, st store.Store, clock cache.Clock) *Service {
	t.Helper()
	c, err := cache.New(cache.Options{TTL: time.Hour, Clock: clock})
	require.NoError(t, err)
	return NewService(st, schema.LinkedRecordSchema{}, c, logger.Nop())
}

func titles(arts []magazine.Article) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = a.Title
	}
	return out
}

func numbers(issues []magazine.Issue) []int {
	out := make([]int, len(issues))
	for i, is := range issues {
		out[i] = is.Number
	}
	return out
}

func TestService_ListIssues_PublishedNewestFirst(t *testing.T) {
	svc := newTestService(t, newMemStore(linkedFixture()), nil)

	issues := svc.ListIssues(context.Background())
	assert.Equal(t, []int{5, 3, 2}, numbers(issues))
	for _, is := range issues {
		assert.Equal(t, magazine.StatusPublished, is.Status)
	}
}

func TestService_ArticlesOfIssue_SortedByTitle(t *testing.T) {
	svc := newTestService(t, newMemStore(linkedFixture()), nil)
	ctx := context.Background()

	issue, ok := svc.GetIssue(ctx, 3)
	require.True(t, ok)

	arts := svc.ListArticlesOfIssue(ctx, issue)
	assert.Equal(t, []string{"Remote Culture", "Scaling Teams"}, titles(arts))
	for _, a := range arts {
		assert.Equal(t, 3, a.IssueNumber)
		assert.Equal(t, "recI3", a.IssueID)
	}
	assert.Equal(t, magazine.PillarDeliveryExcellence, arts[1].Pillar)

	byID := svc.ListArticlesOfIssueID(ctx, "recI3")
	assert.Equal(t, titles(arts), titles(byID))
}

func TestService_DraftIssueIsInvisible(t *testing.T) {
	svc := newTestService(t, newMemStore(linkedFixture()), nil)
	ctx := context.Background()

	_, ok := svc.GetIssue(ctx, 4)
	assert.False(t, ok)
	assert.NotContains(t, numbers(svc.ListIssues(ctx)), 4)
	assert.NotContains(t, titles(svc.ListAllArticles(ctx)), "Secret Plans")

	draft := magazine.Issue{ID: "recI4", Number: 4, Status: magazine.StatusDraft}
	assert.Empty(t, svc.ListArticlesOfIssue(ctx, draft))
	assert.Empty(t, svc.ListArticlesOfIssueID(ctx, "recI4"))

	_, ok = svc.GetArticleBySlug(ctx, "secret-plans")
	assert.False(t, ok)
}

func TestService_GetArticleBySlug_NewestIssueWins(t *testing.T) {
	svc := newTestService(t, newMemStore(linkedFixture()), nil)
	ctx := context.Background()

	a, ok := svc.GetArticleBySlug(ctx, "future-of-work")
	require.True(t, ok)
	assert.Equal(t, "recA4", a.ID)
	assert.Equal(t, 5, a.IssueNumber)

	_, ok = svc.GetArticleBySlug(ctx, "does-not-exist")
	assert.False(t, ok)
	_, ok = svc.GetArticleBySlug(ctx, "  ")
	assert.False(t, ok)
}

func TestService_UntitledAndOrphanArticlesAreOmitted(t *testing.T) {
	svc := newTestService(t, newMemStore(linkedFixture()), nil)
	ctx := context.Background()

	issue, ok := svc.GetIssue(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, []string{"Future of Work"}, titles(svc.ListArticlesOfIssue(ctx, issue)))

	all := svc.ListAllArticles(ctx)
	assert.Equal(t, []string{"Future of Work", "Future of Work", "Remote Culture", "Scaling Teams"}, titles(all))
	assert.NotContains(t, titles(all), "Lost")
	assert.NotContains(t, titles(all), "")

	_, ok = svc.GetArticleBySlug(ctx, "lost")
	assert.False(t, ok)
}

func TestService_ListAllArticles_OrderAndAnnotation(t *testing.T) {
	svc := newTestService(t, newMemStore(linkedFixture()), nil)

	all := svc.ListAllArticles(context.Background())
	require.Len(t, all, 4)
	// dated articles first, newest first; undated ones by issue then title
	assert.Equal(t, "recA4", all[0].ID)
	assert.Equal(t, "recA5", all[1].ID)
	assert.Equal(t, []int{5, 2, 3, 3}, []int{all[0].IssueNumber, all[1].IssueNumber, all[2].IssueNumber, all[3].IssueNumber})
}

func TestService_DraftArticleInPublishedIssueIsHidden(t *testing.T) {
	tables := linkedFixture()
	tables["Articles"] = append(tables["Articles"],
		store.Record{ID: "recA8", Fields: store.Fields{"Title": "Work in Progress", "Slug": "work-in-progress", "Status": "Draft", "Issue": []any{"recI3"}}},
		store.Record{ID: "recA9", Fields: store.Fields{"Title": "Approved Piece", "Slug": "approved-piece", "Status": "Published", "Issue": []any{"recI3"}}},
	)
	svc := newTestService(t, newMemStore(tables), nil)
	ctx := context.Background()

	issue, ok := svc.GetIssue(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, []string{"Approved Piece", "Remote Culture", "Scaling Teams"}, titles(svc.ListArticlesOfIssue(ctx, issue)))
	assert.NotContains(t, titles(svc.ListAllArticles(ctx)), "Work in Progress")
	assert.Contains(t, titles(svc.ListAllArticles(ctx)), "Approved Piece")

	_, ok = svc.GetArticleBySlug(ctx, "work-in-progress")
	assert.False(t, ok)
	_, ok = svc.GetArticleBySlug(ctx, "approved-piece")
	assert.True(t, ok)
}

func TestService_GetArticleBySlug_NoBreakSpaceTitle(t *testing.T) {
	tables := linkedFixture()
	tables["Articles"] = append(tables["Articles"],
		store.Record{ID: "recA8", Fields: store.Fields{"Title": "Hiring\u00a0in a Downturn", "Issue": []any{"recI3"}}},
	)
	svc := newTestService(t, newMemStore(tables), nil)

	a, ok := svc.GetArticleBySlug(context.Background(), "hiring-in-a-downturn")
	require.True(t, ok)
	assert.Equal(t, "recA8", a.ID)
}

func TestService_ListIssues_SkipsAmbiguousNumbers(t *testing.T) {
	tables := linkedFixture()
	tables["Issues"] = append(tables["Issues"], store.Record{
		ID: "recI3b", Fields: store.Fields{"Issue Number": 3, "Issue Title": "Growth again", "Status": "Published"},
	})
	core, logs := observer.New(zapcore.WarnLevel)
	c, err := cache.New(cache.Options{})
	require.NoError(t, err)
	svc := NewService(newMemStore(tables), schema.LinkedRecordSchema{}, c, logger.FromZap(zap.New(core)))
	ctx := context.Background()

	assert.Equal(t, []int{5, 2}, numbers(svc.ListIssues(ctx)))
	assert.Equal(t, 1, logs.FilterMessageSnippet("duplicate published issue number").Len())

	nav := svc.Adjacent(ctx, 5)
	require.NotNil(t, nav.Prev)
	assert.Equal(t, 2, nav.Prev.Number)

	// articles of either issue stay reachable by slug
	_, ok := svc.GetArticleBySlug(ctx, "scaling-teams")
	assert.True(t, ok)
}

func TestService_GetIssue_DuplicateNumberIsAbsent(t *testing.T) {
	tables := linkedFixture()
	tables["Issues"] = append(tables["Issues"], store.Record{
		ID: "recI3b", Fields: store.Fields{"Issue Number": 3, "Issue Title": "Growth again", "Status": "Published"},
	})
	core, logs := observer.New(zapcore.WarnLevel)
	c, err := cache.New(cache.Options{})
	require.NoError(t, err)
	svc := NewService(newMemStore(tables), schema.LinkedRecordSchema{}, c, logger.FromZap(zap.New(core)))

	_, ok := svc.GetIssue(context.Background(), 3)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessageSnippet("ambiguous issue number").Len())

	_, ok = svc.GetIssue(context.Background(), 0)
	assert.False(t, ok)
}

func TestService_SoftFailsOnStoreError(t *testing.T) {
	st := newMemStore(linkedFixture())
	st.failTable("Issues", errors.New("connection reset"))
	st.failTable("Articles", errors.New("connection reset"))
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	issues := svc.ListIssues(ctx)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
	_, ok := svc.GetIssue(ctx, 3)
	assert.False(t, ok)
	assert.Empty(t, svc.ListAllArticles(ctx))
	_, ok = svc.GetArticleBySlug(ctx, "scaling-teams")
	assert.False(t, ok)

	// failures are not cached: the next call sees the recovered store
	st.failTable("Issues", nil)
	st.failTable("Articles", nil)
	assert.Equal(t, []int{5, 3, 2}, numbers(svc.ListIssues(ctx)))
	_, ok = svc.GetArticleBySlug(ctx, "scaling-teams")
	assert.True(t, ok)
}

func TestService_ListAllArticles_PartialFailureIsNotCached(t *testing.T) {
	st := newMemStore(linkedFixture())
	svc := newTestService(t, st, nil)
	ctx := context.Background()

	// warm the issue list, then break articles
	require.Len(t, svc.ListIssues(ctx), 3)
	st.failTable("Articles", errors.New("timeout"))
	assert.Empty(t, svc.ListAllArticles(ctx))

	st.failTable("Articles", nil)
	assert.Len(t, svc.ListAllArticles(ctx), 4)
}

func TestService_CacheExpiresAfterWindow(t *testing.T) {
	st := newMemStore(linkedFixture())
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, st, clock)
	ctx := context.Background()

	require.Len(t, svc.ListIssues(ctx), 3)
	calls := st.selectCount()

	// a new published issue is not seen inside the window
	st.mu.Lock()
	st.tables["Issues"] = append(st.tables["Issues"], store.Record{
		ID: "recI6", Fields: store.Fields{"Issue Number": 6, "Issue Title": "Next", "Status": "Published"},
	})
	st.mu.Unlock()

	clock.Advance(59 * time.Minute)
	assert.Len(t, svc.ListIssues(ctx), 3)
	assert.Equal(t, calls, st.selectCount())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, []int{6, 5, 3, 2}, numbers(svc.ListIssues(ctx)))
	assert.Equal(t, calls+1, st.selectCount())
}

func TestService_RecordPublishedURL(t *testing.T) {
	st := newMemStore(linkedFixture())
	svc := newTestService(t, st, nil)
	ctx := context.Background()
	const u = "https://example.com/issues/3/scaling-teams"

	require.NoError(t, svc.RecordPublishedURL(ctx, "recA1", u))
	require.NoError(t, svc.RecordPublishedURL(ctx, "recA1", u))
	assert.Equal(t, 1, st.updates, "second call is a no-op")

	rec, err := st.Find(ctx, "Articles", "recA1")
	require.NoError(t, err)
	assert.Equal(t, u, rec.Fields.String("Published URL"))

	err = svc.RecordPublishedURL(ctx, "recA1", "not a url")
	assert.ErrorIs(t, err, domainerr.ErrInvalid)
	err = svc.RecordPublishedURL(ctx, "", u)
	assert.ErrorIs(t, err, domainerr.ErrInvalid)

	err = svc.RecordPublishedURL(ctx, "recMissing", u)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_LatestAndAdjacent(t *testing.T) {
	svc := newTestService(t, newMemStore(linkedFixture()), nil)
	ctx := context.Background()

	issue, arts, ok := svc.Latest(ctx)
	require.True(t, ok)
	assert.Equal(t, 5, issue.Number)
	assert.Equal(t, []string{"Future of Work"}, titles(arts))

	nav := svc.Adjacent(ctx, 3)
	require.NotNil(t, nav.Prev)
	require.NotNil(t, nav.Next)
	assert.Equal(t, 2, nav.Prev.Number)
	assert.Equal(t, 5, nav.Next.Number)

	nav = svc.Adjacent(ctx, 5)
	assert.Nil(t, nav.Next)
	assert.Equal(t, 3, nav.Prev.Number)
}

func TestService_IssueNumberSchema(t *testing.T) {
	st := newMemStore(map[string][]store.Record{
		"Issues": {
			{ID: "recI1", Fields: store.Fields{"Issue Number": 1, "Title": "One", "Status": "Published"}},
			{ID: "recI2", Fields: store.Fields{"Issue Number": 2, "Title": "Two", "Status": "draft"}},
		},
		"Articles": {
			{ID: "recA1", Fields: store.Fields{"Title": "Beta", "Issue Number": 1}},
			{ID: "recA2", Fields: store.Fields{"Title": "Alpha", "Issue Number": 1}},
			{ID: "recA3", Fields: store.Fields{"Title": "Hidden", "Issue Number": 2}},
			{ID: "recA4", Fields: store.Fields{"Title": "Pending", "Issue Number": 1, "Status": "In Review"}},
		},
	})
	c, err := cache.New(cache.Options{})
	require.NoError(t, err)
	svc := NewService(st, schema.IssueNumberSchema{}, c, nil)
	ctx := context.Background()

	assert.Equal(t, []int{1}, numbers(svc.ListIssues(ctx)))
	all := svc.ListAllArticles(ctx)
	assert.Equal(t, []string{"Alpha", "Beta"}, titles(all))

	a, ok := svc.GetArticleBySlug(ctx, "alpha")
	require.True(t, ok)
	assert.Equal(t, 1, a.IssueNumber)
}

func TestService_Audit(t *testing.T) {
	tables := linkedFixture()
	tables["Issues"] = append(tables["Issues"],
		store.Record{ID: "recI3b", Fields: store.Fields{"Issue Number": 3, "Status": "Published"}},
		store.Record{ID: "recIx", Fields: store.Fields{"Status": "Draft"}},
	)
	tables["Articles"] = append(tables["Articles"],
		store.Record{ID: "recA8", Fields: store.Fields{"Title": "Remote Culture", "Issue": []any{"recI3"}, "Pillar": "Gardening"}},
	)
	svc := newTestService(t, newMemStore(tables), nil)

	rep, err := svc.Audit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, rep.Issues)
	assert.Equal(t, 8, rep.Articles)
	assert.Equal(t, 1, rep.Count(FindingDuplicateNumber))
	assert.Equal(t, 1, rep.Count(FindingMissingNumber))
	assert.Equal(t, 1, rep.Count(FindingDuplicateSlug))
	assert.Equal(t, 1, rep.Count(FindingShadowedSlug))
	assert.Equal(t, 1, rep.Count(FindingUntitled))
	assert.Equal(t, 1, rep.Count(FindingOrphan))
	assert.Equal(t, 1, rep.Count(FindingUnknownPillar))

	for _, f := range rep.Findings {
		if f.Kind == FindingOrphan {
			assert.Equal(t, []string{"recA7"}, f.IDs)
			assert.Contains(t, f.Message, "has no issue link")
		}
	}
}

func TestService_Audit_StableOrder(t *testing.T) {
	tables := linkedFixture()
	tables["Issues"] = append(tables["Issues"],
		store.Record{ID: "recI6", Fields: store.Fields{"Issue Number": 6, "Status": "Published"}},
	)
	tables["Articles"] = append(tables["Articles"],
		store.Record{ID: "recB1", Fields: store.Fields{"Title": "Echo", "Issue": []any{"recI6"}}},
		store.Record{ID: "recB2", Fields: store.Fields{"Title": "Echo", "Issue": []any{"recI6"}}},
		store.Record{ID: "recB3", Fields: store.Fields{"Title": "Echo", "Issue": []any{"recI2"}}},
		store.Record{ID: "recB4", Fields: store.Fields{"Title": "Echo", "Issue": []any{"recI2"}}},
		store.Record{ID: "recB5", Fields: store.Fields{"Title": "Echo", "Issue": []any{"recI3"}}},
		store.Record{ID: "recB6", Fields: store.Fields{"Title": "Echo", "Issue": []any{"recI3"}}},
	)
	svc := newTestService(t, newMemStore(tables), nil)

	first, err := svc.Audit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, first.Count(FindingDuplicateSlug))
	for i := 0; i < 10; i++ {
		again, err := svc.Audit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.Findings, again.Findings)
	}

	var dups []string
	for _, f := range first.Findings {
		if f.Kind == FindingDuplicateSlug {
			dups = append(dups, f.IDs[0])
		}
	}
	assert.Equal(t, []string{"recB3", "recB5", "recB1"}, dups, "ordered by issue id")
}

func TestService_AuditUnavailable(t *testing.T) {
	st := newMemStore(linkedFixture())
	st.failTable("Issues", errors.New("down"))
	svc := newTestService(t, st, nil)

	_, err := svc.Audit(context.Background())
	assert.ErrorIs(t, err, domainerr.ErrUnavailable)
}
