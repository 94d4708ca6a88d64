package model

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrUnknownKey is returned when a name does not resolve to a WorldKey.
var ErrUnknownKey = errors.New("unknown world key")

// WorldKey identifies a single fact about an agent or its immediate situation.
// The set is closed: goals, actions and the event bridge all speak this vocabulary.
type WorldKey uint8

const (
	// Position
	KeyAtPatrolPoint WorldKey = iota
	KeyAtLastKnownPosition
	KeyAtTarget

	// Knowledge
	KeyHasTarget
	KeyTargetVisible
	KeyHeardSound

	// Equipment
	KeyHasWeapon
	KeyWeaponLoaded
	KeyHasBetterWeapon
	KeyHasMedKit
	KeyHasGrenade

	// Alert
	KeyIsAlert
	KeyIsInvestigating
	KeyFacilityAlert
	KeyAllEnemiesAlerted
	KeyAlertLevel // scalar, 0..3
	KeyNearAlarmPanel

	// Cover
	KeyInCover
	KeyCoverAvailable
	KeyUnderFire
	KeyBetterCoverAvailable
	KeyInBetterCover
	KeySafetyImproved

	// Morale and health
	KeyIsPanicked
	KeyAtSafeDistance
	KeyIsInjured
	KeyOutnumbered
	KeyIsRetreating
	KeyRetreatPathClear
	KeySafelyWithdrawing
	KeyTacticalRetreat

	// Tactics
	KeyTacticalAdvantage
	KeyFlankingPosition
	KeyControllingArea
	KeySuppressingTarget
	KeyAreaSearched
	KeyBackupCalled
	KeyNearbyAlliesAvailable
	KeyTargetGrouped
	KeySafeThrowDistance
	KeyAlliesAdvancing
	KeyEnemySuppressed
	KeyAlliesAdvantage

	// Weapon range
	KeyTooClose
	KeyTooFar
	KeyInWeaponRange
	KeyAgentsGroupedInRange

	// Devices
	KeyNearDevice
	KeyDeviceHacked

	// KeyCount is the number of defined keys. Must stay <= 64 (KeySet is a uint64 mask).
	KeyCount
)

var keyNames = [KeyCount]string{
	KeyAtPatrolPoint:         "AtPatrolPoint",
	KeyAtLastKnownPosition:   "AtLastKnownPosition",
	KeyAtTarget:              "AtTarget",
	KeyHasTarget:             "HasTarget",
	KeyTargetVisible:         "TargetVisible",
	KeyHeardSound:            "HeardSound",
	KeyHasWeapon:             "HasWeapon",
	KeyWeaponLoaded:          "WeaponLoaded",
	KeyHasBetterWeapon:       "HasBetterWeapon",
	KeyHasMedKit:             "HasMedKit",
	KeyHasGrenade:            "HasGrenade",
	KeyIsAlert:               "IsAlert",
	KeyIsInvestigating:       "IsInvestigating",
	KeyFacilityAlert:         "FacilityAlert",
	KeyAllEnemiesAlerted:     "AllEnemiesAlerted",
	KeyAlertLevel:            "AlertLevel",
	KeyNearAlarmPanel:        "NearAlarmPanel",
	KeyInCover:               "InCover",
	KeyCoverAvailable:        "CoverAvailable",
	KeyUnderFire:             "UnderFire",
	KeyBetterCoverAvailable:  "BetterCoverAvailable",
	KeyInBetterCover:         "InBetterCover",
	KeySafetyImproved:        "SafetyImproved",
	KeyIsPanicked:            "IsPanicked",
	KeyAtSafeDistance:        "AtSafeDistance",
	KeyIsInjured:             "IsInjured",
	KeyOutnumbered:           "Outnumbered",
	KeyIsRetreating:          "IsRetreating",
	KeyRetreatPathClear:      "RetreatPathClear",
	KeySafelyWithdrawing:     "SafelyWithdrawing",
	KeyTacticalRetreat:       "TacticalRetreat",
	KeyTacticalAdvantage:     "TacticalAdvantage",
	KeyFlankingPosition:      "FlankingPosition",
	KeyControllingArea:       "ControllingArea",
	KeySuppressingTarget:     "SuppressingTarget",
	KeyAreaSearched:          "AreaSearched",
	KeyBackupCalled:          "BackupCalled",
	KeyNearbyAlliesAvailable: "NearbyAlliesAvailable",
	KeyTargetGrouped:         "TargetGrouped",
	KeySafeThrowDistance:     "SafeThrowDistance",
	KeyAlliesAdvancing:       "AlliesAdvancing",
	KeyEnemySuppressed:       "EnemySuppressed",
	KeyAlliesAdvantage:       "AlliesAdvantage",
	KeyTooClose:              "TooClose",
	KeyTooFar:                "TooFar",
	KeyInWeaponRange:         "InWeaponRange",
	KeyAgentsGroupedInRange:  "AgentsGroupedInRange",
	KeyNearDevice:            "NearDevice",
	KeyDeviceHacked:          "DeviceHacked",
}

var keysByName = func() map[string]WorldKey {
	m := make(map[string]WorldKey, KeyCount)
	for k := WorldKey(0); k < KeyCount; k++ {
		m[strings.ToLower(keyNames[k])] = k
	}
	return m
}()

// String returns the catalog name of the key.
func (k WorldKey) String() string {
	if k < KeyCount {
		return keyNames[k]
	}
	return fmt.Sprintf("WorldKey(%d)", uint8(k))
}

// Valid reports whether k is part of the vocabulary.
func (k WorldKey) Valid() bool {
	return k < KeyCount
}

// ParseWorldKey resolves a catalog name (case-insensitive) to a key.
func ParseWorldKey(name string) (WorldKey, error) {
	k, ok := keysByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return k, nil
}

// MarshalText implements encoding.TextMarshaler.
func (k WorldKey) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKey, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *WorldKey) UnmarshalText(text []byte) error {
	parsed, err := ParseWorldKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KeySet is a bitmask of WorldKeys.
type KeySet uint64

// Add returns s with k included.
func (s KeySet) Add(k WorldKey) KeySet {
	return s | 1<<k
}

// Has reports whether k is in s.
func (s KeySet) Has(k WorldKey) bool {
	return s&(1<<k) != 0
}

// Union returns s ∪ o.
func (s KeySet) Union(o KeySet) KeySet {
	return s | o
}

// Intersects reports whether s and o share a key.
func (s KeySet) Intersects(o KeySet) bool {
	return s&o != 0
}

// Without returns s \ o.
func (s KeySet) Without(o KeySet) KeySet {
	return s &^ o
}

// Len returns the number of keys in s.
func (s KeySet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Keys returns the keys of s in ascending order.
func (s KeySet) Keys() []WorldKey {
	keys := make([]WorldKey, 0, s.Len())
	for k := WorldKey(0); k < KeyCount; k++ {
		if s.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// String renders the set as a list of key names.
func (s KeySet) String() string {
	keys := s.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}
