package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/stealthai/internal/model"
)

func TestLoadDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := LoadDefaultCatalog()
	require.NoError(t, err)

	assert.Len(t, c.Goals(), 11)
	assert.Len(t, c.Actions(), 27)

	// Every key has a default.
	assert.Equal(t, int(model.KeyCount), c.Defaults().Defined().Len())

	first := c.Goals()[0]
	assert.Equal(t, "panic_survival", first.Name)
	assert.Equal(t, 15.0, first.Priority)
	assert.Equal(t, 0, first.Order)

	attack, ok := c.Action("attack")
	require.True(t, ok)
	assert.Equal(t, model.ExecutorCombat, attack.Binding.Kind)
	assert.Equal(t, 1.0, attack.Cost)

	restore, ok := c.Action("restore_device")
	require.True(t, ok)
	assert.Equal(t, model.ExecutorHacking, restore.Binding.Kind)

	alarm, ok := c.Action("activate_alarm")
	require.True(t, ok)
	require.Len(t, alarm.Guards, 1)
	assert.Equal(t, model.KeyAlertLevel, alarm.Guards[0].Key)

	assert.Equal(t, model.ExecutorKinds(), c.ExecutorKinds())
}

func TestDefaultCatalog_PanicIsExternallyOwned(t *testing.T) {
	t.Parallel()

	c, err := LoadDefaultCatalog()
	require.NoError(t, err)

	for _, a := range c.Actions() {
		_, writes := a.Effects.Lookup(model.KeyIsPanicked)
		assert.False(t, writes, "%s must not write IsPanicked", a.Name)
	}
	assert.False(t, c.Writable().Has(model.KeyIsPanicked))

	g, ok := c.Goal("panic_survival")
	require.True(t, ok)
	assert.Equal(t, model.Conditions{{Key: model.KeyAtSafeDistance, Value: model.True}}, c.PlanTarget(g))

	patrol, ok := c.Goal("patrol_area")
	require.True(t, ok)
	assert.Equal(t, patrol.Desired, c.PlanTarget(patrol))
}

func TestParseCatalog_Errors(t *testing.T) {
	t.Parallel()

	const defaults = "defaults: {HasTarget: false, IsAlert: false, AlertLevel: 0}\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name: "duplicate goal",
			yaml: defaults + `
goals:
  - {name: g, priority: 1, desired: {IsAlert: false}}
  - {name: g, priority: 2, desired: {IsAlert: true}}
`,
			wantErr: ErrDuplicateCatalogEntry,
		},
		{
			name: "duplicate action",
			yaml: defaults + `
goals:
  - {name: g, priority: 1, desired: {IsAlert: false}}
actions:
  - {name: a, cost: 1, executor: movement, effects: {IsAlert: false}}
  - {name: a, cost: 2, executor: combat, effects: {HasTarget: false}}
`,
			wantErr: ErrDuplicateCatalogEntry,
		},
		{
			name: "key without default",
			yaml: defaults + `
goals:
  - {name: g, priority: 1, desired: {IsPanicked: false}}
`,
			wantErr: ErrUndefinedKey,
		},
		{
			name: "unknown key",
			yaml: defaults + `
goals:
  - {name: g, priority: 1, desired: {IsHungry: false}}
`,
			wantErr: model.ErrUnknownKey,
		},
		{
			name: "guard does not compile",
			yaml: defaults + `
goals:
  - {name: g, priority: 1, desired: {IsAlert: false}}
actions:
  - {name: a, cost: 1, executor: movement, effects: {IsAlert: false}, guards: {AlertLevel: "value +"}}
`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "unknown executor",
			yaml: defaults + `
goals:
  - {name: g, priority: 1, desired: {IsAlert: false}}
actions:
  - {name: a, cost: 1, executor: telepathy, effects: {IsAlert: false}}
`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "zero cost",
			yaml: defaults + `
goals:
  - {name: g, priority: 1, desired: {IsAlert: false}}
actions:
  - {name: a, cost: 0, executor: movement, effects: {IsAlert: false}}
`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "no goals",
			yaml:    defaults,
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "unknown field",
			yaml:    defaults + "gaols: []\n",
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "empty desired",
			yaml: defaults + `
goals:
  - {name: g, priority: 1}
`,
			wantErr: ErrInvalidCatalog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, DefaultCatalogYAML(), 0o644))

	fromFile, err := LoadCatalogFile(path)
	require.NoError(t, err)
	embedded, err := LoadCatalogFile("")
	require.NoError(t, err)

	assert.Equal(t, len(embedded.Actions()), len(fromFile.Actions()))
	assert.Equal(t, embedded.Defaults(), fromFile.Defaults())

	_, err = LoadCatalogFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
