package main

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/ayusman/exoform/internal/spell"
)

// Record fields are chosen from these tables by hashing the gesture label.
var (
	prefixes = []string{"Aegis", "Bastion", "Halo", "Rune", "Veil", "Prism", "Warden", "Lumen"}
	suffixes = []string{"Lattice", "Ward", "Bulwark", "Mantle", "Sigil", "Barrier", "Crest", "Aura"}
	palette  = []string{"#33CCFF", "#66FFCC", "#9966FF", "#FFCC33", "#FF6699", "#00FF99", "#3399FF", "#CC66FF"}
)

// tier maps a hold duration to a spell type and a descriptive phrase.
type tier struct {
	minSeconds float64
	kind       string
	phrase     string
}

// tiers is ordered by descending minSeconds.
var tiers = []tier{
	{6, "Arcane", "folds the surrounding light into a sealed sphere"},
	{4.5, "Elemental", "crackles outward in concentric rings of force"},
	{0, "Defensive", "settles over the caster as a shimmering lattice"},
}

// energyLevel grows with hold duration: three seconds gives 5, each extra
// second adds one, clamped to [1,10].
func energyLevel(seconds float64) int {
	e := int(math.Round(seconds - 3 + 5))
	return max(1, min(10, e))
}

// divine builds a deterministic record for a gesture held for seconds.
func divine(gesture string, seconds float64) (spell.Record, error) {
	gesture = strings.TrimSpace(gesture)
	if gesture == "" {
		return spell.Record{}, errors.New("gesture label is required")
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return spell.Record{}, fmt.Errorf("invalid duration: %v", seconds)
	}

	h := fnv.New32a()
	h.Write([]byte(gesture))
	sum := h.Sum32()

	t := tiers[len(tiers)-1]
	for _, candidate := range tiers {
		if seconds >= candidate.minSeconds {
			t = candidate
			break
		}
	}

	rec := spell.Record{
		Name:        prefixes[pick(sum, len(prefixes))] + " " + suffixes[pick(sum/uint32(len(prefixes)), len(suffixes))],
		Type:        t.kind,
		Description: fmt.Sprintf("Born of the %s held for %.1f seconds, it %s.", gesture, seconds, t.phrase),
		EnergyLevel: strconv.Itoa(energyLevel(seconds)),
		ColorHex:    palette[pick(sum/7, len(palette))],
	}
	return rec, rec.Validate()
}

// pick maps a hash onto an index in [0, n) using unsigned arithmetic.
func pick(sum uint32, n int) int {
	return int(sum % uint32(n))
}
