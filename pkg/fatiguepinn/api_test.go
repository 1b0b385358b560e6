package fatiguepinn

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fatiguepinn/internal/config"
	"fatiguepinn/internal/dataextract"
	"fatiguepinn/internal/model"
	"fatiguepinn/internal/pinn"
	"fatiguepinn/internal/storage"
)

const physicsConfig = `
variant: physics
batch_input_shape: [1, 3, 4]
physics:
  a: 1
  b: 0
  pu: 1
  tables:
    kappa: kappa.csv
    etac: etac.csv
    askf: askf.csv
  features:
    damage_proxy: [0]
    cycle: [1]
    load: [2]
    bearing_temp: [3]
inspection:
  step_minutes: 1440
  period_days: 1
  count: 3
`

const learnedConfig = `
variant: learned
batch_input_shape: [2, 4, 1]
learned:
  hidden: [3]
  up_bound: 0.5
  seed: 3
optimizer:
  name: sgd
  learning_rate: 0.05
  epochs: 10
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func physicsFixture(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "kappa.csv", "temp,0,1\n0,1,2\n1,3,4\n")
	writeFile(t, dir, "etac.csv", "kappa,0,1\n0,1,1\n5,1,1\n")
	writeFile(t, dir, "askf.csv", "x2,0,5\n0,1,1\n1,1,1\n")
	cfg, err := config.Load(writeFile(t, dir, "model.yaml", physicsConfig))
	require.NoError(t, err)
	return cfg
}

func sequences(t *testing.T, csv string) dataextract.SequenceSet {
	t.Helper()
	set, err := dataextract.ReadSequenceCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return set
}

func TestClientBuildAndPredictPhysics(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	built, err := client.BuildModel(ctx, physicsFixture(t))
	require.NoError(t, err)
	require.NotEmpty(t, built.ID)

	inputs := sequences(t, "sequence,step,dp,cycles,load,temp\nb1,0,0.5,2,1,0.5\nb1,1,0.5,2,1,0.5\nb1,2,0.5,2,1,0.5\n")
	pred, err := client.Predict(ctx, built, PredictRequest{Inputs: inputs})
	require.NoError(t, err)

	require.Len(t, pred.Rows, 3)
	for i, want := range []float64{0.2, 0.4, 0.6} {
		assert.InDelta(t, want, pred.Damage[0][i], 1e-12)
		assert.Equal(t, "b1", pred.Rows[i].Sequence)
		assert.Equal(t, i, pred.Rows[i].Step)
	}

	stored, ok, err := client.store.GetModel(ctx, built.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "physics", stored.Variant)
	require.Contains(t, stored.Tables, "kappa")

	table, ok, err := client.store.GetTable(ctx, stored.Tables["kappa"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [4]int{1, 2, 2, 1}, table.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4}, table.Data)
}

func TestClientPredictFeatureMismatch(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	built, err := client.BuildModel(ctx, physicsFixture(t))
	require.NoError(t, err)

	_, err = client.Predict(ctx, built, PredictRequest{Inputs: sequences(t, "sequence,step,a\ns,0,1\n")})
	require.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestClientTrainLearnedRecordsRun(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	cfg, err := config.Parse([]byte(learnedConfig))
	require.NoError(t, err)
	built, err := client.BuildModel(ctx, cfg)
	require.NoError(t, err)
	before := built.Model.TrainableParams()

	inputs := sequences(t, "sequence,step,x\n"+
		"a,0,0.1\na,1,0.2\na,2,0.3\na,3,0.4\n"+
		"b,0,0.4\nb,1,0.3\nb,2,0.2\nb,3,0.1\n")
	targets, err := dataextract.ReadTargetsCSV(strings.NewReader("sequence,index,value\n"+
		"a,0,0.1\na,1,0.2\na,2,0.3\na,3,0.4\n"+
		"b,0,0.1\nb,1,0.2\nb,2,0.3\nb,3,0.4\n"), inputs.IDs)
	require.NoError(t, err)

	summary, err := client.Train(ctx, built, TrainRequest{Inputs: inputs, Targets: targets})
	require.NoError(t, err)
	assert.Equal(t, "sgd", summary.Optimizer)
	assert.Len(t, summary.History, 10)
	assert.Contains(t, summary.Evaluation.Metrics, "mae")
	assert.NotEqual(t, before, built.Model.TrainableParams())

	run, err := client.Run(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, built.ID, run.ModelID)
	assert.Equal(t, "learned", run.Variant)
	assert.InDelta(t, summary.FinalLoss, run.FinalLoss, 1e-15)

	stored, ok, err := client.store.GetModel(ctx, built.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, built.Model.TrainableParams(), stored.Trainable)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
}

func TestClientTrainTargetsMismatch(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	cfg, err := config.Parse([]byte(learnedConfig))
	require.NoError(t, err)
	built, err := client.BuildModel(ctx, cfg)
	require.NoError(t, err)

	_, err = client.Train(ctx, built, TrainRequest{Inputs: sequences(t, "sequence,step,x\na,0,1\n")})
	require.ErrorIs(t, err, ErrTargetsMismatch)
}

func TestClientTrainRejectsOffMaskTargets(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	built, err := client.BuildModel(ctx, physicsFixture(t))
	require.NoError(t, err)

	inputs := sequences(t, "sequence,step,dp,cycles,load,temp\nb1,0,0.5,2,1,0.5\nb1,1,0.5,2,1,0.5\nb1,2,0.5,2,1,0.5\n")
	cases := map[string]struct {
		csv  string
		want error
	}{
		"shifted":      {csv: "b1,1,0.1\nb1,2,0.2\n", want: ErrTargetsMismatch},
		"missing last": {csv: "b1,0,0.1\nb1,1,0.2\n", want: ErrTargetsMismatch},
		"beyond steps": {csv: "b1,0,0.1\nb1,1,0.2\nb1,3,0.3\n", want: pinn.ErrIndexOutOfRange},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			targets, err := dataextract.ReadTargetsCSV(strings.NewReader("sequence,index,value\n"+tc.csv), inputs.IDs)
			require.NoError(t, err)
			_, err = client.Train(ctx, built, TrainRequest{Inputs: inputs, Targets: targets, Epochs: 1})
			require.ErrorIs(t, err, tc.want)
		})
	}

	targets, err := dataextract.ReadTargetsCSV(strings.NewReader("sequence,index,value\nb1,0,0.2\nb1,1,0.4\nb1,2,0.6\n"), inputs.IDs)
	require.NoError(t, err)
	summary, err := client.Train(ctx, built, TrainRequest{Inputs: inputs, Targets: targets, Epochs: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, summary.FinalLoss, 1e-20)
}

func TestClientTrainLearnedRequiresEveryStep(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	cfg, err := config.Parse([]byte(learnedConfig))
	require.NoError(t, err)
	built, err := client.BuildModel(ctx, cfg)
	require.NoError(t, err)

	inputs := sequences(t, "sequence,step,x\na,0,0.1\na,1,0.2\na,2,0.3\na,3,0.4\n")
	targets, err := dataextract.ReadTargetsCSV(strings.NewReader("sequence,index,value\na,0,0.1\na,1,0.2\na,2,0.3\na,5,0.4\n"), inputs.IDs)
	require.NoError(t, err)
	_, err = client.Train(ctx, built, TrainRequest{Inputs: inputs, Targets: targets})
	require.ErrorIs(t, err, pinn.ErrIndexOutOfRange)

	targets, err = dataextract.ReadTargetsCSV(strings.NewReader("sequence,index,value\na,0,0.1\na,2,0.3\na,3,0.4\n"), inputs.IDs)
	require.NoError(t, err)
	_, err = client.Train(ctx, built, TrainRequest{Inputs: inputs, Targets: targets})
	require.ErrorIs(t, err, ErrTargetsMismatch)
}

// recordingStore remembers the tables it was asked to save.
type recordingStore struct {
	storage.Store
	tables []string
	models []string
}

func (s *recordingStore) SaveTable(ctx context.Context, table model.GriddedTable) error {
	s.tables = append(s.tables, table.Name)
	return s.Store.SaveTable(ctx, table)
}

func (s *recordingStore) SaveModel(ctx context.Context, record model.ModelRecord) error {
	s.models = append(s.models, record.ID)
	return s.Store.SaveModel(ctx, record)
}

func TestClientBuildModelFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{Store: storage.NewMemoryStore()}
	client := &Client{store: store, logger: zap.NewNop()}

	cfg := physicsFixture(t)
	cfg.Physics.Features.BearingTemp = []int{42}
	_, err := client.BuildModel(ctx, cfg)
	require.ErrorIs(t, err, pinn.ErrIndexOutOfRange)
	assert.Empty(t, store.tables)
	assert.Empty(t, store.models)

	cfg.Physics.Features.BearingTemp = []int{3}
	built, err := client.BuildModel(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{built.ID + ":kappa", built.ID + ":etac", built.ID + ":askf"}, store.tables)
	assert.Equal(t, []string{built.ID}, store.models)
}

func TestClientRunNotFound(t *testing.T) {
	_, err := newClient(t).Run(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestNewUnsupportedStore(t *testing.T) {
	_, err := New(Options{StoreKind: "cassandra"})
	require.Error(t, err)
}

func TestArrangeTableEntryPoint(t *testing.T) {
	gridded, err := ArrangeTable(Table{Name: "t", RowLabels: []float64{0}, Headers: []string{"1.0", "2.0"}, Cells: [][]float64{{1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, [2][2]float64{{0, 1}, {0, 2}}, gridded.Bounds)
	assert.Equal(t, [4]int{1, 1, 2, 1}, gridded.Shape)
}
