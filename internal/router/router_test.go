package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/grid"
	"github.com/KaramelBytes/tabloom/internal/history"
	"github.com/KaramelBytes/tabloom/internal/remote"
)

type fakeRemote struct {
	calls   int
	lastReq remote.Request
	resp    *remote.Response
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRemote) Process(ctx context.Context, req remote.Request) (*remote.Response, error) {
	f.calls++
	f.lastReq = req
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.resp, f.err
}

type fakeSaver struct {
	saves   int
	exports int
	err     error
}

func (f *fakeSaver) Save(ds *dataset.Dataset) error { f.saves++; return f.err }
func (f *fakeSaver) Export(ds *dataset.Dataset) (string, error) {
	f.exports++
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/out.csv", nil
}

func seedData() *dataset.Dataset {
	return dataset.New([]string{"A", "B"}, []dataset.Record{
		{"A": "1", "B": "x"},
		{"A": "1", "B": "x"},
		{"A": "2", "B": "y"},
	})
}

// harness wires a router over a real grid and history with fakes for
// the remote service and the workspace.
func harness(t *testing.T, rs RemoteService) (*Router, *grid.MemoryGrid, *history.Manager, *fakeSaver) {
	t.Helper()
	g := grid.NewMemoryGrid()
	require.NoError(t, g.LoadData(seedData(), true))
	h := history.NewManager(g, nil)
	h.Push(g.Snapshot(), "load")
	saver := &fakeSaver{}
	return New(g, h, rs, saver, nil), g, h, saver
}

func TestLocalShortCircuit(t *testing.T) {
	rs := &fakeRemote{resp: &remote.Response{Success: true}}
	r, g, h, _ := harness(t, rs)

	out := r.Execute(context.Background(), "autofit columns")
	assert.True(t, out.Success)
	assert.Equal(t, DecisionLocal, out.Decision)
	assert.Equal(t, 0, rs.calls, "a recognized local instruction never reaches the remote path")
	assert.True(t, g.AutoFit())
	assert.Equal(t, 1, h.Len(), "presentation-only changes do not push history")
}

func TestColumnWidthDirective(t *testing.T) {
	rs := &fakeRemote{}
	r, g, _, _ := harness(t, rs)

	out := r.Execute(context.Background(), "make column B wider")
	require.True(t, out.Success)
	assert.Equal(t, DecisionLocal, out.Decision)
	assert.Greater(t, g.ColumnWidth(1), 100)
	assert.Equal(t, 0, rs.calls)

	out = r.Execute(context.Background(), "make column a narrower")
	require.True(t, out.Success)
	assert.Less(t, g.ColumnWidth(0), 100)
}

func TestLocalFailureFallsThrough(t *testing.T) {
	rs := &fakeRemote{resp: &remote.Response{Success: true, Message: "filtered"}}
	r, _, _, _ := harness(t, rs)

	// column Z is out of range, so the matched local operation fails
	// and the instruction degrades to classification ("filter")
	out := r.Execute(context.Background(), "make column z wider and filter empty rows")
	assert.Equal(t, DecisionBackend, out.Decision)
	assert.Equal(t, 1, rs.calls)
}

func TestControlCommands(t *testing.T) {
	rs := &fakeRemote{}
	r, g, h, saver := harness(t, rs)

	out := r.Execute(context.Background(), "undo")
	assert.False(t, out.Success)
	assert.Equal(t, "nothing to undo", out.Message)
	assert.Equal(t, DecisionLocal, out.Decision)

	require.NoError(t, g.SetCell(0, 0, "7"))
	h.Push(g.Snapshot(), "edit")

	out = r.Execute(context.Background(), "undo")
	assert.True(t, out.Success)
	assert.Equal(t, "1", g.Snapshot().Records[0]["A"])

	out = r.Execute(context.Background(), "redo")
	assert.True(t, out.Success)
	assert.Equal(t, "7", g.Snapshot().Records[0]["A"])

	out = r.Execute(context.Background(), "redo")
	assert.False(t, out.Success)
	assert.Equal(t, "nothing to redo", out.Message)

	out = r.Execute(context.Background(), "save")
	assert.True(t, out.Success)
	assert.Equal(t, 1, saver.saves)

	out = r.Execute(context.Background(), "export")
	assert.True(t, out.Success)
	assert.Equal(t, 1, saver.exports)
	assert.Contains(t, out.Message, "/tmp/out.csv")

	assert.Equal(t, 0, rs.calls)
}

func TestDuplicateRemovalAlwaysDelegates(t *testing.T) {
	deduped := &remote.UpdatedData{
		Rows:    2,
		Columns: []string{"A", "B"},
		Data: []map[string]any{
			{"A": "1", "B": "x"},
			{"A": "2", "B": "y"},
		},
	}
	rs := &fakeRemote{resp: &remote.Response{Success: true, Message: "removed 1 duplicate", UpdatedData: deduped}}
	r, g, h, _ := harness(t, rs)

	// diverge the grid from the last history entry so the explicit
	// pre-mutation push is observable
	require.NoError(t, g.SetCell(2, 1, "edited"))
	pre := g.Snapshot()

	out := r.Execute(context.Background(), "please remove duplicates from this data")
	require.True(t, out.Success)
	assert.Equal(t, DecisionBackend, out.Decision)
	assert.Equal(t, 1, rs.calls)
	assert.Equal(t, OpRemoveDuplicates, rs.lastReq.Operation)
	assert.Equal(t, []string{"A", "B"}, rs.lastReq.Headers)

	// grid holds the remote result, history holds the pre-mutation
	// state, and the result itself was not pushed
	assert.Equal(t, 2, g.Snapshot().Rows())
	assert.Equal(t, 2, h.Len())
	assert.True(t, h.Current().Equal(pre))
}

func TestDuplicateRemovalRemoteFailureIsTerminal(t *testing.T) {
	rs := &fakeRemote{err: errors.New("connection refused")}
	r, g, h, _ := harness(t, rs)

	out := r.Execute(context.Background(), "dedupe")
	assert.False(t, out.Success)
	assert.Equal(t, DecisionBackend, out.Decision)
	assert.Equal(t, 3, g.Snapshot().Rows(), "no mutation on remote failure")
	assert.Equal(t, 1, h.Len(), "no history push on remote failure")
}

func TestRemoteTransformPushesHistory(t *testing.T) {
	updated := &remote.UpdatedData{
		Rows:    1,
		Columns: []string{"A", "B"},
		Data:    []map[string]any{{"A": "2", "B": "y"}},
	}
	rs := &fakeRemote{resp: &remote.Response{Success: true, Message: "filtered", DataUpdated: true, UpdatedData: updated}}
	r, g, h, _ := harness(t, rs)

	out := r.Execute(context.Background(), "filter out rows where A is 1")
	require.True(t, out.Success)
	assert.Equal(t, DecisionBackend, out.Decision)
	assert.Equal(t, 1, g.Snapshot().Rows())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Current().Rows(), "the replacement dataset is the new history head")
}

func TestInformationalResponseDoesNotPush(t *testing.T) {
	rs := &fakeRemote{resp: &remote.Response{Success: true, Message: "B correlates with A"}}
	r, g, h, _ := harness(t, rs)

	out := r.Execute(context.Background(), "show me trend insights")
	require.True(t, out.Success)
	assert.Equal(t, DecisionBackend, out.Decision)
	assert.Equal(t, 3, g.Snapshot().Rows())
	assert.Equal(t, 1, h.Len(), "analysis-only responses must not push history")
}

func TestRemoteActionReplay(t *testing.T) {
	rs := &fakeRemote{resp: &remote.Response{
		Success: true,
		Message: "highlighted",
		Action:  &remote.Action{Type: "format", Payload: []byte(`{"style":"highlight"}`)},
	}}
	r, g, _, _ := harness(t, rs)

	out := r.Execute(context.Background(), "visualize the outliers")
	require.True(t, out.Success)
	assert.Equal(t, "highlight", g.Format())
}

func TestMalformedRemoteResponse(t *testing.T) {
	rs := &fakeRemote{err: &remote.MalformedResponseError{Err: errors.New("bad json")}}
	r, g, h, _ := harness(t, rs)

	out := r.Execute(context.Background(), "analyze the data")
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "nothing was changed")
	assert.Equal(t, 3, g.Snapshot().Rows())
	assert.Equal(t, 1, h.Len())
}

func TestClassificationRequiresData(t *testing.T) {
	rs := &fakeRemote{}
	g := grid.NewMemoryGrid()
	h := history.NewManager(g, nil)
	r := New(g, h, rs, &fakeSaver{}, nil)

	out := r.Execute(context.Background(), "analyze trends")
	assert.False(t, out.Success)
	assert.Equal(t, DecisionBackend, out.Decision)
	assert.Equal(t, 0, rs.calls, "an empty dataset never reaches the remote service")
}

func TestLegacyFallback(t *testing.T) {
	rs := &fakeRemote{}
	r, _, _, saver := harness(t, rs)

	out := r.Execute(context.Background(), "save my work please")
	assert.True(t, out.Success)
	assert.Equal(t, DecisionFallback, out.Decision)
	assert.Equal(t, 1, saver.saves)

	out = r.Execute(context.Background(), "export everything now")
	assert.True(t, out.Success)
	assert.Equal(t, DecisionFallback, out.Decision)
	assert.Equal(t, 1, saver.exports)
}

func TestUnrecognizedEchoesInstruction(t *testing.T) {
	rs := &fakeRemote{}
	r, _, _, _ := harness(t, rs)

	out := r.Execute(context.Background(), "flibber the wozzle")
	assert.False(t, out.Success)
	assert.Equal(t, DecisionUnrecognized, out.Decision)
	assert.Contains(t, out.Message, "flibber the wozzle")
}

func TestEmptyInstruction(t *testing.T) {
	r, _, _, _ := harness(t, &fakeRemote{})
	out := r.Execute(context.Background(), "   ")
	assert.False(t, out.Success)
	assert.Equal(t, DecisionUnrecognized, out.Decision)
}

func TestSingleFlight(t *testing.T) {
	rs := &fakeRemote{
		resp:    &remote.Response{Success: true, Message: "done"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r, _, _, _ := harness(t, rs)

	done := make(chan Outcome, 1)
	go func() {
		done <- r.Execute(context.Background(), "analyze the data")
	}()
	<-rs.entered

	busy := r.Execute(context.Background(), "undo")
	assert.False(t, busy.Success)
	assert.Contains(t, busy.Message, "another command")

	close(rs.release)
	first := <-done
	assert.True(t, first.Success)

	// the slot frees up once the in-flight command resolves
	after := r.Execute(context.Background(), "undo")
	assert.Equal(t, "nothing to undo", after.Message)
}

func TestClassifyOperation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"draw a bar chart of sales", OpVisualization},
		{"plot revenue by month", OpVisualization},
		{"give me insights", OpAnalysis},
		{"summarize this table", OpAnalysis},
		{"filter rows with missing values", OpTransform},
		{"sort by column B", OpTransform},
		{"hello there", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyOperation(tc.in), "instruction %q", tc.in)
	}
}

func TestDuplicateSynonyms(t *testing.T) {
	for _, in := range []string{
		"remove duplicates",
		"please DELETE DUPLICATES now",
		"drop duplicates from the sheet",
		"dedupe this",
	} {
		assert.True(t, isDuplicateRemoval(strings.ToLower(in)), "%q should match", in)
	}
	assert.False(t, isDuplicateRemoval("remove the second row"))
}
