package editor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/cache"
	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/events"
	"github.com/jmehdipour/rate-table-editor/internal/licensing"
	"github.com/jmehdipour/rate-table-editor/internal/model"
)

// fakeAPI is an in-memory licensing service.
type fakeAPI struct {
	mu sync.Mutex

	rateTables []model.RateTableSeries
	instances  []model.Instance
	lineItems  map[string][]model.LineItem

	// failWith, when set, is returned by every call.
	failWith error
	// conflictOn names operations that answer 409.
	conflictOn map[string]bool

	created    []model.RateTableSeries
	deleted    [][2]string
	upserts    []model.LineItem
	deletedLIs []string
	newInst    []model.Instance
	lastSize   int
}

var _ licensing.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{lineItems: map[string][]model.LineItem{}, conflictOn: map[string]bool{}}
}

func (f *fakeAPI) check(op string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if f.conflictOn[op] {
		return apperr.Remote(apperr.ErrRemoteConflict, 409, "conflict")
	}
	return nil
}

func (f *fakeAPI) ListRateTables(context.Context) ([]model.RateTableSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("list"); err != nil {
		return nil, err
	}
	return append([]model.RateTableSeries(nil), f.rateTables...), nil
}

func (f *fakeAPI) CreateRateTable(_ context.Context, s model.RateTableSeries) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("create"); err != nil {
		return err
	}
	f.created = append(f.created, s)
	return nil
}

func (f *fakeAPI) DeleteRateTable(_ context.Context, series, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("delete"); err != nil {
		return err
	}
	f.deleted = append(f.deleted, [2]string{series, version})
	return nil
}

func (f *fakeAPI) FindInstances(_ context.Context, accountID string) ([]model.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("find"); err != nil {
		return nil, err
	}
	var out []model.Instance
	for _, in := range f.instances {
		if in.AccountID == accountID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateInstance(_ context.Context, inst model.Instance) (model.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("create_instance"); err != nil {
		return model.Instance{}, err
	}
	inst.ID = "inst-" + inst.AccountID
	f.instances = append(f.instances, inst)
	f.newInst = append(f.newInst, inst)
	return inst, nil
}

func (f *fakeAPI) ListInstances(_ context.Context, size int) ([]model.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSize = size
	if err := f.check("instances"); err != nil {
		return nil, err
	}
	return append([]model.Instance(nil), f.instances...), nil
}

func (f *fakeAPI) ListLineItems(_ context.Context, instanceID string) ([]model.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("line_items"); err != nil {
		return nil, err
	}
	return append([]model.LineItem(nil), f.lineItems[instanceID]...), nil
}

func (f *fakeAPI) UpsertLineItem(_ context.Context, instanceID string, item model.LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("upsert"); err != nil {
		return err
	}
	f.upserts = append(f.upserts, item)

	items := f.lineItems[instanceID]
	for i := range items {
		if items[i].ActivationID == item.ActivationID {
			items[i] = item
			return nil
		}
	}
	f.lineItems[instanceID] = append(items, item)
	return nil
}

func (f *fakeAPI) DeleteLineItem(_ context.Context, instanceID, activationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("delete_line_item"); err != nil {
		return err
	}
	f.deletedLIs = append(f.deletedLIs, instanceID+"/"+activationID)
	return nil
}

// memPublisher records published events.
type memPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *memPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *memPublisher) Close() error { return nil }

func (p *memPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	api   *fakeAPI
	cache *cache.FileStore
	pub   *memPublisher
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		api:   newFakeAPI(),
		cache: cache.NewFileStore(t.TempDir()),
		pub:   &memPublisher{},
	}
	f.svc = New(Options{
		Remote: func(model.Environment) licensing.API { return f.api },
		Cache:  f.cache,
		Events: f.pub,
		Dates:  dateconv.New(time.UTC),
		ExcludedAccounts: map[model.Environment][]string{
			model.EnvProd: {"test-", "QA"},
			model.EnvUAT:  {"demo"},
		},
		Now: func() time.Time { return fixedNow },
	})
	return f
}

func ms(y int, m time.Month, d int) *int64 {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli()
	return &v
}
