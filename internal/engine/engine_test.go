package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/model"
	"github.com/sdibella/deriv-dashboard/internal/store"
	"github.com/sdibella/deriv-dashboard/internal/view"
)

type fakeBackend struct {
	mu      sync.Mutex
	cfg     model.Config
	saveErr error
	saved   []model.Config
	status  string
}

func (b *fakeBackend) FetchConfig(context.Context) (model.Config, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg.Clone(), nil
}

func (b *fakeBackend) SaveConfig(_ context.Context, cfg model.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = append(b.saved, cfg)
	b.cfg = cfg
	return nil
}

func (b *fakeBackend) FetchStatus(context.Context) (json.RawMessage, error) {
	return json.RawMessage(b.status), nil
}

type fakeRenderer struct {
	mu    sync.Mutex
	last  view.Model
	count int
}

func (r *fakeRenderer) Render(m view.Model) {
	r.mu.Lock()
	r.last = m
	r.count++
	r.mu.Unlock()
}

func (r *fakeRenderer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *fakeRenderer) Last() view.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

type recordingPersister struct {
	mu    sync.Mutex
	calls int
}

func (p *recordingPersister) Persist() {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
}

var fixedNow = time.Unix(1_700_000_000, 0)

func newTestEngine(t *testing.T, b *fakeBackend, p store.Persister) (*Engine, *fakeRenderer, context.Context) {
	t.Helper()
	r := &fakeRenderer{}
	e := New(b, p, r, Options{InboxSize: 16, Now: func() time.Time { return fixedNow }})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)
	return e, r, ctx
}

func push(t *testing.T, ctx context.Context, e *Engine, name, data string) {
	t.Helper()
	if err := e.Submit(ctx, Push{Name: name, Data: json.RawMessage(data), At: fixedNow}); err != nil {
		t.Fatalf("Submit(%s) error: %v", name, err)
	}
}

// drain waits until every queued event has been processed.
func drain(t *testing.T, ctx context.Context, e *Engine) {
	t.Helper()
	if err := e.do(ctx, func() {}); err != nil {
		t.Fatalf("do() error: %v", err)
	}
}

func symbols(m view.Model) []string {
	var out []string
	for _, r := range m.Rows {
		out = append(out, r.Symbol)
	}
	return out
}

func TestScreenerResetScenario(t *testing.T) {
	b := &fakeBackend{cfg: model.DefaultConfig()}
	e, r, ctx := newTestEngine(t, b, nil)
	if err := e.LoadConfig(ctx); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	push(t, ctx, e, EventScreenerUpdate, `{"symbol":"R_100","data":{"confidence":80,"direction":"CALL"}}`)
	push(t, ctx, e, EventScreenerUpdate, `{"symbol":"R_50","data":{"confidence":-40}}`)
	drain(t, ctx, e)
	if got := symbols(r.Last()); len(got) != 2 || got[0] != "R_100" || got[1] != "R_50" {
		t.Fatalf("rows = %v, want [R_100 R_50]", got)
	}

	cfg := model.DefaultConfig()
	cfg.ActiveStrategy = "strategy_7"
	if err := e.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	if n := len(r.Last().Rows); n != 0 {
		t.Fatalf("rows after strategy change = %d, want 0", n)
	}

	push(t, ctx, e, EventScreenerUpdate, `{"symbol":"R_100","data":{"confidence":55}}`)
	drain(t, ctx, e)
	m := r.Last()
	if len(m.Rows) != 1 || m.Rows[0].Confidence != 55 {
		t.Errorf("rows = %+v, want one R_100 row", m.Rows)
	}
	if m.Layout.Kind != "alignment" {
		t.Errorf("Layout.Kind = %q, want alignment", m.Layout.Kind)
	}
}

func TestMalformedEventsNeverCrash(t *testing.T) {
	b := &fakeBackend{cfg: model.DefaultConfig()}
	e, r, ctx := newTestEngine(t, b, nil)

	for _, ev := range []struct{ name, data string }{
		{EventScreenerUpdate, `[1,2,3]`},
		{EventScreenerUpdate, `{"data":{"confidence":90}}`},
		{EventScreenerUpdate, `{"symbol":"R_10","data":"garbage"}`},
		{EventTradesUpdate, `{"trades":[null, 7, {"id":"a","pnl":"1.5"}]}`},
		{EventAccountUpdate, `null`},
		{EventConsoleLog, `{"level":"loud","message":42}`},
		{EventBotStatus, `{"running":"true"}`},
		{"mystery", `{}`},
		{EventError, `{}`},
	} {
		push(t, ctx, e, ev.name, ev.data)
	}
	drain(t, ctx, e)

	m := r.Last()
	if got := symbols(m); len(got) != 1 || got[0] != "R_10" {
		t.Errorf("rows = %v, want [R_10] with zero data", got)
	}
	if len(m.Trades) != 1 || m.Trades[0].PnL != "1.50" {
		t.Errorf("trades = %+v", m.Trades)
	}
	if len(m.Console) != 1 || m.Console[0].Level != model.LevelInfo || m.Console[0].Message != "42" {
		t.Errorf("console = %+v", m.Console)
	}
	if !m.Running {
		t.Error("Running = false, want true")
	}
	if m.Notice == nil || m.Notice.Level != model.LevelError {
		t.Errorf("Notice = %+v", m.Notice)
	}
	if m.Account != nil {
		t.Error("account set from null payload")
	}
}

func TestAccountStrategyOverride(t *testing.T) {
	b := &fakeBackend{cfg: model.DefaultConfig()}
	e, r, ctx := newTestEngine(t, b, nil)
	if err := e.LoadConfig(ctx); err != nil {
		t.Fatal(err)
	}
	push(t, ctx, e, EventScreenerUpdate, `{"symbol":"R_100","data":{"confidence":80}}`)
	push(t, ctx, e, EventAccountUpdate, `{"total_balance":1000,"active_strategy":"strategy_1"}`)
	drain(t, ctx, e)
	if len(r.Last().Rows) != 1 {
		t.Fatal("same strategy must not reset the screener")
	}

	push(t, ctx, e, EventAccountUpdate, `{"total_balance":1000,"net_profit":12,"net_trade_profit":10,"active_strategy":"strategy_5"}`)
	drain(t, ctx, e)
	m := r.Last()
	if m.Strategy != "strategy_5" || m.Layout.Kind != "pillars" {
		t.Errorf("strategy/layout = %s/%s", m.Strategy, m.Layout.Kind)
	}
	if len(m.Rows) != 0 {
		t.Errorf("rows = %d, want reset", len(m.Rows))
	}
	if m.Account == nil || m.Account.FloatingPnL != "2.00" {
		t.Errorf("Account = %+v", m.Account)
	}
	if len(b.saved) != 0 {
		t.Error("server override was persisted")
	}
}

func TestSaveConfigFailureLeavesCache(t *testing.T) {
	orig := model.DefaultConfig()
	orig.Symbols = model.Symbols{"R_100"}
	b := &fakeBackend{cfg: orig}
	e, r, ctx := newTestEngine(t, b, nil)
	if err := e.LoadConfig(ctx); err != nil {
		t.Fatal(err)
	}

	b.saveErr = errors.New("bad gateway")
	next := orig.Clone()
	next.ContractType = model.ContractMultiplier
	if err := e.SaveConfig(ctx, next); err == nil {
		t.Fatal("SaveConfig() error = nil, want error")
	}

	cfg, ok, err := e.Config(ctx)
	if err != nil || !ok {
		t.Fatalf("Config() = %v, %v", ok, err)
	}
	if cfg.Contract() != model.ContractRiseFall {
		t.Errorf("cache changed on failed save: %s", cfg.Contract())
	}
	if n := r.Last().Notice; n == nil || n.Message != MsgSaveFailed {
		t.Errorf("Notice = %+v", n)
	}

	b.saveErr = nil
	if err := e.SaveConfig(ctx, next); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	cfg, _, _ = e.Config(ctx)
	if cfg.Contract() != model.ContractMultiplier {
		t.Errorf("cache not replaced on success")
	}
	if n := r.Last().Notice; n == nil || n.Message != MsgSaved {
		t.Errorf("Notice = %+v", n)
	}
}

func TestMutateSymbols(t *testing.T) {
	orig := model.DefaultConfig()
	orig.Symbols = model.Symbols{"R_100", "R_50"}
	b := &fakeBackend{cfg: orig}
	p := &recordingPersister{}
	e, r, ctx := newTestEngine(t, b, p)

	if _, err := e.MutateSymbols(ctx, store.SymbolAdd, "R_75"); !errors.Is(err, ErrNoConfig) {
		t.Errorf("MutateSymbols before load error = %v, want ErrNoConfig", err)
	}
	if err := e.LoadConfig(ctx); err != nil {
		t.Fatal(err)
	}

	changed, err := e.MutateSymbols(ctx, store.SymbolAdd, "R_75")
	if err != nil || !changed {
		t.Fatalf("MutateSymbols(add) = %v, %v", changed, err)
	}
	if !model.Symbols(r.Last().Symbols).Contains("R_75") {
		t.Errorf("view symbols = %v, want R_75", r.Last().Symbols)
	}

	push(t, ctx, e, EventScreenerUpdate, `{"symbol":"R_50","data":{"confidence":80}}`)
	drain(t, ctx, e)
	if changed, _ := e.MutateSymbols(ctx, store.SymbolRemove, "R_50"); !changed {
		t.Fatal("MutateSymbols(remove) = false")
	}
	if n := len(r.Last().Rows); n != 0 {
		t.Errorf("rows = %d, want removed symbol's row dropped", n)
	}

	p.mu.Lock()
	calls := p.calls
	p.mu.Unlock()
	if calls != 2 {
		t.Fatalf("persist calls = %d, want 2", calls)
	}
	cfg, _, err := e.Config(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Symbols.Contains("R_75") || cfg.Symbols.Contains("R_50") {
		t.Errorf("cached symbols = %v", cfg.Symbols)
	}
}

func TestWatchListPersistAfterSaveCarriesSavedConfig(t *testing.T) {
	orig := model.DefaultConfig()
	orig.Symbols = model.Symbols{"R_100"}
	b := &fakeBackend{cfg: orig}
	remote := &fakeBackend{}
	p := store.NewBackgroundPersister(remote)
	e, _, ctx := newTestEngine(t, b, p)
	p.Source = e.Config
	results := make(chan error, 1)
	p.OnResult = func(err error) { results <- err }

	if err := e.LoadConfig(ctx); err != nil {
		t.Fatal(err)
	}
	if changed, err := e.MutateSymbols(ctx, store.SymbolAdd, "R_75"); err != nil || !changed {
		t.Fatalf("MutateSymbols(add) = %v, %v", changed, err)
	}

	// Confirmed save before the persister runs.
	saved := orig.Clone()
	saved.ActiveStrategy = "strategy_7"
	saved.Symbols = model.Symbols{"R_100", "R_75"}
	if err := e.SaveConfig(ctx, saved); err != nil {
		t.Fatal(err)
	}

	go p.Run(ctx)
	select {
	case err := <-results:
		if err != nil {
			t.Fatalf("persist error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for persist")
	}

	remote.mu.Lock()
	defer remote.mu.Unlock()
	if len(remote.saved) != 1 {
		t.Fatalf("persisted = %d, want 1", len(remote.saved))
	}
	if got := remote.saved[0].ActiveStrategy; got != "strategy_7" {
		t.Errorf("persisted strategy = %q, want strategy_7", got)
	}
}

func TestTickRefreshesCountdownsOnly(t *testing.T) {
	b := &fakeBackend{cfg: model.DefaultConfig()}
	e, r, ctx := newTestEngine(t, b, nil)

	if err := e.Submit(ctx, Tick{At: fixedNow}); err != nil {
		t.Fatal(err)
	}
	drain(t, ctx, e)
	if r.Count() != 0 {
		t.Error("tick rendered before any view existed")
	}

	push(t, ctx, e, EventScreenerUpdate, `{"symbol":"R_100","data":{"expiry":120}}`)
	if err := e.Submit(ctx, Tick{At: fixedNow.Add(50 * time.Second)}); err != nil {
		t.Fatal(err)
	}
	drain(t, ctx, e)
	if got := r.Last().Rows[0].Countdown; got != "0:01:10" {
		t.Errorf("Countdown = %q, want 0:01:10", got)
	}

	if err := e.Submit(ctx, Tick{At: fixedNow.Add(3 * time.Minute)}); err != nil {
		t.Fatal(err)
	}
	drain(t, ctx, e)
	if got := r.Last().Rows[0].Countdown; got != view.Expired {
		t.Errorf("Countdown = %q, want Expired", got)
	}
}

func TestSeedAndConsole(t *testing.T) {
	b := &fakeBackend{
		cfg:    model.DefaultConfig(),
		status: `{"running":true,"total_balance":"500","is_demo":false,"open_trades":[{"id":"7","symbol":"R_100"}]}`,
	}
	e, r, ctx := newTestEngine(t, b, nil)
	if err := e.Seed(ctx); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	push(t, ctx, e, EventConsoleLog, `{"level":"warn","message":"slow"}`)
	drain(t, ctx, e)

	m := r.Last()
	if !m.Running || len(m.Trades) != 1 || m.Account == nil || m.Account.Mode != "LIVE" {
		t.Errorf("seeded model = %+v", m)
	}
	if len(m.Console) != 1 || m.Console[0].Level != model.LevelWarning {
		t.Errorf("console = %+v", m.Console)
	}

	push(t, ctx, e, EventConsoleCleared, `{}`)
	drain(t, ctx, e)
	if n := len(r.Last().Console); n != 0 {
		t.Errorf("console lines after clear = %d", n)
	}
}

func TestReplay(t *testing.T) {
	e := New(&fakeBackend{}, nil, nil, Options{Now: func() time.Time { return fixedNow }})
	cfg := model.DefaultConfig()
	cfg.ContractType = model.ContractMultiplier
	e.ReplayConfig(cfg)
	e.ReplayEvent(Push{Name: EventScreenerUpdate, At: fixedNow,
		Data: json.RawMessage(`{"symbol":"R_25","data":{"direction":"PUT","signal":"BUY"}}`)})

	m := e.View()
	if len(m.Rows) != 1 || m.Rows[0].DirectionLabel != "SELL" {
		t.Errorf("replayed rows = %+v", m.Rows)
	}
}

// closingRecorder fails writes made after Close, like a closed journal file.
type closingRecorder struct {
	mu     sync.Mutex
	closed bool
	writes int
	late   int
}

func (r *closingRecorder) Log(any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.late++
		return errors.New("journal closed")
	}
	r.writes++
	return nil
}

func (r *closingRecorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func TestRunStopsJournalingBeforeReturn(t *testing.T) {
	rec := &closingRecorder{}
	e := New(&fakeBackend{}, nil, nil, Options{Journal: rec, Now: func() time.Time { return fixedNow }})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		push(t, ctx, e, EventBotStatus, `{"running":true}`)
	}
	drain(t, ctx, e)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	rec.Close()

	// Nothing drains the inbox once Run has returned.
	e.TrySubmit(Push{Name: EventBotStatus, Data: json.RawMessage(`{"running":false}`), At: fixedNow})
	time.Sleep(20 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.writes != 5 {
		t.Errorf("writes = %d, want 5", rec.writes)
	}
	if rec.late != 0 {
		t.Errorf("writes after close = %d, want 0", rec.late)
	}
}
