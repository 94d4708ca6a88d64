package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseWorldKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    WorldKey
		wantErr bool
	}{
		{"exact", "IsPanicked", KeyIsPanicked, false},
		{"lower case", "atsafedistance", KeyAtSafeDistance, false},
		{"padded", "  HasTarget ", KeyHasTarget, false},
		{"scalar", "AlertLevel", KeyAlertLevel, false},
		{"unknown", "IsHungry", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWorldKey(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorldKey_NamesAreUnique(t *testing.T) {
	seen := make(map[string]WorldKey, KeyCount)
	for k := WorldKey(0); k < KeyCount; k++ {
		name := k.String()
		require.NotEmpty(t, name, "key %d has no name", k)
		prev, dup := seen[name]
		require.False(t, dup, "%s used by %d and %d", name, prev, k)
		seen[name] = k

		parsed, err := ParseWorldKey(name)
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Equal(t, "WorldKey(200)", WorldKey(200).String())
}

func TestKeySet(t *testing.T) {
	var s KeySet
	s = s.Add(KeyHasTarget).Add(KeyIsPanicked).Add(KeyHasTarget)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(KeyIsPanicked))
	assert.False(t, s.Has(KeyIsAlert))
	assert.Equal(t, []WorldKey{KeyHasTarget, KeyIsPanicked}, s.Keys())

	other := KeySet(0).Add(KeyIsPanicked)
	assert.True(t, s.Intersects(other))
	assert.Equal(t, KeySet(0).Add(KeyHasTarget), s.Without(other))
	assert.Equal(t, "{HasTarget,IsPanicked}", s.String())
}

func TestWorldState_SatisfiesAndMismatch(t *testing.T) {
	s := NewWorldState(
		Fact{KeyIsPanicked, True},
		Fact{KeyAtSafeDistance, False},
		Fact{KeyAlertLevel, 2},
	)

	desired := NewConditions(map[WorldKey]Value{
		KeyIsPanicked:     False,
		KeyAtSafeDistance: True,
	})
	assert.False(t, s.Satisfies(desired))
	assert.Equal(t, 2, s.Mismatch(desired))

	after := s.Apply(Conditions{{KeyAtSafeDistance, True}})
	assert.Equal(t, 1, after.Mismatch(desired))
	// Apply must not touch the receiver.
	assert.Equal(t, False, s.Get(KeyAtSafeDistance))

	assert.True(t, s.Satisfies(Conditions{{KeyAlertLevel, 2}}))
	assert.True(t, s.Satisfies(nil), "empty conditions are always satisfied")
}

func TestWorldState_UndefinedNeverMatches(t *testing.T) {
	var s WorldState

	_, ok := s.Lookup(KeyHasTarget)
	assert.False(t, ok)
	assert.False(t, s.Satisfies(Conditions{{KeyHasTarget, False}}),
		"undefined key must not match even a False expectation")
	assert.Equal(t, 1, s.Mismatch(Conditions{{KeyHasTarget, False}}))
}

func TestWorldState_Comparable(t *testing.T) {
	a := NewWorldState(Fact{KeyIsAlert, True})
	b := NewWorldState(Fact{KeyIsAlert, True})
	c := NewWorldState(Fact{KeyIsAlert, False})

	seen := map[WorldState]int{a: 1}
	_, hit := seen[b]
	assert.True(t, hit)
	_, hit = seen[c]
	assert.False(t, hit)
}

func TestWorldState_MapRoundTrip(t *testing.T) {
	s := NewWorldState(Fact{KeyIsAlert, True}, Fact{KeyAlertLevel, 3})

	m := s.Map()
	assert.Equal(t, map[string]int32{"IsAlert": 1, "AlertLevel": 3}, m)

	back, err := WorldStateFromMap(m)
	require.NoError(t, err)
	assert.Equal(t, s, back)

	_, err = WorldStateFromMap(map[string]int32{"Nope": 1})
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestNewConditions_Sorted(t *testing.T) {
	c := NewConditions(map[WorldKey]Value{
		KeyDeviceHacked:  True,
		KeyAtPatrolPoint: False,
		KeyIsAlert:       True,
	})
	require.Len(t, c, 3)
	assert.Equal(t, KeyAtPatrolPoint, c[0].Key)
	assert.Equal(t, KeyIsAlert, c[1].Key)
	assert.Equal(t, KeyDeviceHacked, c[2].Key)

	v, ok := c.Lookup(KeyIsAlert)
	assert.True(t, ok)
	assert.Equal(t, True, v)
}

func TestValue_UnmarshalYAML(t *testing.T) {
	var doc struct {
		A Value `yaml:"a"`
		B Value `yaml:"b"`
		C Value `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: true\nb: false\nc: 3\n"), &doc))
	assert.Equal(t, True, doc.A)
	assert.Equal(t, False, doc.B)
	assert.Equal(t, Value(3), doc.C)

	err := yaml.Unmarshal([]byte("a: maybe\n"), &doc)
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("TRUE")
	require.NoError(t, err)
	assert.Equal(t, True, v)

	v, err = ParseValue("2")
	require.NoError(t, err)
	assert.Equal(t, Value(2), v)

	_, err = ParseValue("x")
	assert.Error(t, err)
}
