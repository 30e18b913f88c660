// Package testdata serves recorded landmark snapshots to tests.
//
// Each file under snapshots/ is one landmark service response line.
package testdata

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ayusman/resonance/internal/detector"
	"github.com/ayusman/resonance/internal/landmark"
)

//go:embed snapshots/*.json
var snapshotsFS embed.FS

// Snapshot fixture names.
const (
	Empty        = "empty"
	BodyOnly     = "body_only"
	HandOnChest  = "hand_on_chest"
	HandFar      = "hand_far"
	TwoHandsFace = "two_hands_face"
	PartialHand  = "partial_hand"
)

// fixtureTime stamps every loaded snapshot.
var fixtureTime = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

// LoadSnapshot loads a snapshot fixture by name.
func LoadSnapshot(name string) (*landmark.Snapshot, error) {
	data, err := snapshotsFS.ReadFile(path.Join("snapshots", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}

	snap, err := detector.ParseResponse(data, landmark.MaxHands, fixtureTime)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return &snap, nil
}

// MustSnapshot is LoadSnapshot for fixtures known to exist.
func MustSnapshot(name string) *landmark.Snapshot {
	snap, err := LoadSnapshot(name)
	if err != nil {
		panic(err)
	}
	return snap
}

// Names lists every snapshot fixture, sorted.
func Names() []string {
	entries, err := snapshotsFS.ReadDir("snapshots")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names
}
