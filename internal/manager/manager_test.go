// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/mediasite-go/internal/client"
	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/form"
	"github.com/olegiv/mediasite-go/internal/payload"
)

type fakeBackend struct {
	mu        sync.Mutex
	records   []entity.Record
	listErr   error
	saveErr   error
	deleteErr map[string]error
	created   []*payload.Object
	updated   map[string]*payload.Object
	deleted   []string
	lists     int

	block       chan struct{}
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeBackend(records ...entity.Record) *fakeBackend {
	return &fakeBackend{records: records, deleteErr: map[string]error{}, updated: map[string]*payload.Object{}}
}

func (f *fakeBackend) List(context.Context, client.ListParams) (*client.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &client.ListResult{Data: append([]entity.Record(nil), f.records...), Total: len(f.records)}, nil
}

func (f *fakeBackend) Get(_ context.Context, id string) (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, &client.APIError{StatusCode: 404, Message: "Not found"}
}

func (f *fakeBackend) Create(_ context.Context, body *payload.Object) (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.created = append(f.created, body)
	return entity.Record{"_id": "new"}, nil
}

func (f *fakeBackend) Update(_ context.Context, id string, body *payload.Object) (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.updated[id] = body
	return entity.Record{"_id": id}, nil
}

func (f *fakeBackend) Delete(_ context.Context, id string) error {
	if f.block != nil {
		<-f.block
	}
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func brand(id, name string) entity.Record {
	return entity.Record{"_id": id, "name": name, "slug": "tv", "status": "draft"}
}

func newManager(t *testing.T, b *fakeBackend) (*Manager, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := New(entity.Brands, b, form.Deps{}, "en", WithClock(c.now))
	require.NoError(t, m.Load(context.Background()))
	return m, c
}

// confirmDelete holds the lock the way a request handler does.
func confirmDelete(m *Manager) (DeleteReport, error) {
	m.Lock()
	defer m.Unlock()
	return m.ConfirmDelete(context.Background())
}

func TestLoadError(t *testing.T) {
	b := newFakeBackend()
	b.listErr = errors.New("connection refused")
	m := New(entity.Brands, b, form.Deps{}, "en")

	err := m.Load(context.Background())
	require.Error(t, err)
	assert.False(t, m.Loaded())
	assert.Equal(t, b.listErr, m.LoadError())
}

func TestCreateSetsAlertAndReloads(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	m, _ := newManager(t, b)

	modal := m.OpenCreate(ctx)
	require.NoError(t, modal.SetValue("name", "Acme"))
	closed, err := m.Save(ctx)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Nil(t, m.Modal())
	require.Len(t, b.created, 1)
	assert.Equal(t, 2, b.lists, "list is re-fetched after a mutation")

	alert, ok := m.Alert()
	require.True(t, ok)
	assert.Equal(t, AlertSuccess, alert.Kind)
	assert.Equal(t, "Created successfully.", alert.Message)
}

func TestEditUpdates(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(brand("b1", "Acme"))
	m, _ := newManager(t, b)

	modal, err := m.OpenEdit(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", modal.Value("name"))
	require.NoError(t, modal.SetValue("name", "Acme 2"))

	closed, err := m.Save(ctx)
	require.NoError(t, err)
	assert.True(t, closed)
	require.Contains(t, b.updated, "b1")
	alert, _ := m.Alert()
	assert.Equal(t, "Updated successfully.", alert.Message)
}

func TestOpenEditFailure(t *testing.T) {
	m, _ := newManager(t, newFakeBackend())
	_, err := m.OpenEdit(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, m.Modal())
	alert, ok := m.Alert()
	require.True(t, ok)
	assert.Equal(t, "Not found", alert.Message)
}

func TestSaveErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"conflict", &client.APIError{StatusCode: 409, Message: "E11000 duplicate key"}, "Brand already exists."},
		{"backend message", &client.APIError{StatusCode: 400, Message: "Name too long"}, "Name too long"},
		{"no message", &client.APIError{StatusCode: 500}, "request failed with status code 500"},
		{"transport", errors.New("dial tcp: refused"), "dial tcp: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b := newFakeBackend()
			b.saveErr = tt.err
			m, _ := newManager(t, b)

			modal := m.OpenCreate(ctx)
			require.NoError(t, modal.SetValue("name", "Acme"))
			closed, err := m.Save(ctx)
			require.Error(t, err)
			assert.False(t, closed)
			require.NotNil(t, m.Modal(), "modal stays open after a failed save")
			assert.Equal(t, "Acme", m.Modal().Value("name"))

			alert, ok := m.Alert()
			require.True(t, ok)
			assert.Equal(t, AlertError, alert.Kind)
			assert.Equal(t, tt.want, alert.Message)
		})
	}
}

func TestSaveInvalidDoesNotCallBackend(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	m, _ := newManager(t, b)
	m.OpenCreate(ctx)

	_, err := m.Save(ctx)
	assert.ErrorIs(t, err, form.ErrInvalid)
	assert.Empty(t, b.created)

	m.CloseModal(ctx)
	_, err = m.Save(ctx)
	assert.ErrorIs(t, err, ErrNoModal)
}

func TestAlertExpiresAndIsReplaced(t *testing.T) {
	m, c := newManager(t, newFakeBackend())
	m.setAlert(AlertSuccess, "first")
	m.setAlert(AlertError, "second")

	alert, ok := m.Alert()
	require.True(t, ok)
	assert.Equal(t, "second", alert.Message)

	c.t = c.t.Add(AlertTTL - time.Millisecond)
	_, ok = m.Alert()
	assert.True(t, ok)

	c.t = c.t.Add(time.Millisecond)
	_, ok = m.Alert()
	assert.False(t, ok)
}

func TestRequestDeleteConfirmation(t *testing.T) {
	var records []entity.Record
	var ids []string
	for i := 1; i <= 7; i++ {
		records = append(records, brand(fmt.Sprint("b", i), fmt.Sprint("Brand ", i)))
		ids = append(ids, fmt.Sprint("b", i))
	}
	b := newFakeBackend(records...)
	m, _ := newManager(t, b)

	conf := m.RequestDelete(append(ids, "b1"))
	assert.Equal(t, 7, conf.Count)
	assert.Equal(t, 2, conf.More)
	assert.Equal(t, "Brand 1, Brand 2, Brand 3, Brand 4, Brand 5 +2 more", conf.Preview())
	assert.Empty(t, b.deleted, "nothing is deleted before confirmation")

	m.CancelDelete()
	_, pending := m.Pending()
	assert.False(t, pending)
	_, err := confirmDelete(m)
	assert.ErrorIs(t, err, ErrNothingPending)
}

func TestConfirmDeleteAllSucceed(t *testing.T) {
	b := newFakeBackend(brand("b1", "A"), brand("b2", "B"), brand("b3", "C"))
	m, _ := newManager(t, b)
	m.Table().SetSelected("b1", true)

	m.RequestDelete([]string{"b1", "b2", "b3"})
	report, err := confirmDelete(m)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded())
	assert.Empty(t, report.Failed())
	assert.ElementsMatch(t, []string{"b1", "b2", "b3"}, b.deleted)
	assert.Empty(t, m.Table().SelectedIDs())

	alert, _ := m.Alert()
	assert.Equal(t, "Deleted 3 brands successfully.", alert.Message)
}

func TestConfirmDeletePartialFailure(t *testing.T) {
	b := newFakeBackend(brand("b1", "A"), brand("b2", "B"), brand("b3", "C"))
	b.deleteErr["b2"] = &client.APIError{StatusCode: 403, Message: "Forbidden"}
	m, _ := newManager(t, b)

	m.RequestDelete([]string{"b1", "b2", "b3"})
	report, err := confirmDelete(m)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, "b2", report.Results[1].ID)
	assert.Error(t, report.Results[1].Err)
	assert.NoError(t, report.Results[0].Err)
	assert.NoError(t, report.Results[2].Err)
	assert.ElementsMatch(t, []string{"b1", "b3"}, b.deleted, "a failure does not stop the others")

	alert, _ := m.Alert()
	assert.Equal(t, AlertError, alert.Kind)
	assert.Equal(t, "Deleted 2 of 3 brands. Failed: B.", alert.Message)
}

func TestConfirmDeleteSingleFailure(t *testing.T) {
	b := newFakeBackend(brand("b1", "A"))
	b.deleteErr["b1"] = &client.APIError{StatusCode: 500, Message: "boom"}
	m, _ := newManager(t, b)

	m.RequestDelete([]string{"b1"})
	_, err := confirmDelete(m)
	require.NoError(t, err)
	alert, _ := m.Alert()
	assert.Equal(t, "Failed to delete A: boom", alert.Message)
}

func TestConfirmDeleteBounded(t *testing.T) {
	var records []entity.Record
	var ids []string
	for i := range 20 {
		id := fmt.Sprint("b", i)
		records = append(records, brand(id, id))
		ids = append(ids, id)
	}
	b := newFakeBackend(records...)
	c := &clock{t: time.Now()}
	m := New(entity.Brands, b, form.Deps{}, "en", WithClock(c.now), WithDeleteConcurrency(3))

	m.RequestDelete(ids)
	report, err := confirmDelete(m)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Succeeded())
	assert.LessOrEqual(t, b.maxInFlight.Load(), int32(3))
}

func TestConfirmDeleteReleasesLock(t *testing.T) {
	b := newFakeBackend(brand("b1", "A"), brand("b2", "B"))
	b.block = make(chan struct{})
	m, _ := newManager(t, b)
	m.RequestDelete([]string{"b1", "b2"})

	done := make(chan error, 1)
	go func() {
		_, err := confirmDelete(m)
		done <- err
	}()

	assert.Eventually(t, func() bool {
		m.Lock()
		defer m.Unlock()
		return m.Deleting()
	}, time.Second, 5*time.Millisecond)

	m.Lock()
	_, err := m.ConfirmDelete(context.Background())
	assert.ErrorIs(t, err, ErrDeleting)
	conf := m.RequestDelete([]string{"b2"})
	assert.Equal(t, 2, conf.Count, "the running batch is kept")
	m.Unlock()

	close(b.block)
	require.NoError(t, <-done)
	m.Lock()
	defer m.Unlock()
	assert.False(t, m.Deleting())
	assert.ElementsMatch(t, []string{"b1", "b2"}, b.deleted)
}

func TestConfirmationNamesIgnoreSearch(t *testing.T) {
	m, _ := newManager(t, newFakeBackend(brand("b1", "Alpha"), brand("b2", "Beta")))
	m.Table().SetQuery("alpha")

	conf := m.RequestDelete([]string{"b1", "b2"})
	assert.Equal(t, "Alpha, Beta", conf.Preview())
}

func TestNoun(t *testing.T) {
	m := New(entity.Brands, newFakeBackend(), form.Deps{}, "en")
	assert.Equal(t, "brand", m.Noun(1))
	assert.Equal(t, "brands", m.Noun(3))
}

// pagedBackend serves its records in pages of ListLimit.
type pagedBackend struct {
	*fakeBackend
	reportPages bool
	pages       []int
}

func (p *pagedBackend) List(ctx context.Context, params client.ListParams) (*client.ListResult, error) {
	all, err := p.fakeBackend.List(ctx, params)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.pages = append(p.pages, params.Page)
	p.mu.Unlock()

	start := min((params.Page-1)*params.Limit, len(all.Data))
	end := min(start+params.Limit, len(all.Data))
	res := &client.ListResult{Data: all.Data[start:end], Total: len(all.Data), Page: params.Page}
	if p.reportPages {
		res.Pages = (len(all.Data) + params.Limit - 1) / params.Limit
	}
	return res, nil
}

func TestLoadFetchesEveryPage(t *testing.T) {
	for _, reportPages := range []bool{true, false} {
		t.Run(fmt.Sprint("pages reported ", reportPages), func(t *testing.T) {
			var records []entity.Record
			for i := 1; i <= 620; i++ {
				records = append(records, brand(fmt.Sprint("b", i), fmt.Sprint("Brand ", i)))
			}
			b := &pagedBackend{fakeBackend: newFakeBackend(records...), reportPages: reportPages}
			m := New(entity.Brands, b, form.Deps{}, "en")

			require.NoError(t, m.Load(context.Background()))
			assert.Len(t, m.Table().Rows(), 620)
			assert.ElementsMatch(t, []int{1, 2}, b.pages)

			m.Table().SetQuery("Brand 615")
			require.Len(t, m.Table().Filtered(), 1)
			assert.Equal(t, "b615", m.Table().Filtered()[0].ID())
		})
	}
}

func TestLoadPageError(t *testing.T) {
	var records []entity.Record
	for i := range ListLimit + 1 {
		records = append(records, brand(fmt.Sprint("b", i), "x"))
	}
	b := &failingPageBackend{pagedBackend: &pagedBackend{fakeBackend: newFakeBackend(records...), reportPages: true}}
	m := New(entity.Brands, b, form.Deps{}, "en")

	require.Error(t, m.Load(context.Background()))
	assert.False(t, m.Loaded())
	assert.Empty(t, m.Table().Rows())
}

type failingPageBackend struct {
	*pagedBackend
}

func (f *failingPageBackend) List(ctx context.Context, params client.ListParams) (*client.ListResult, error) {
	if params.Page > 1 {
		return nil, errors.New("timeout")
	}
	return f.pagedBackend.List(ctx, params)
}
