// Package catalog defines the fixed, ordered set of variable categories.
//
// The catalog is constant data fixed at process start. Host supplied tags
// that are missing, empty or outside the set are filed under Global.
package catalog

import "github.com/roach88/extvars/internal/ir"

// Category tags in display order.
const (
	Global             ir.Category = "Global"
	AreaTrigger        ir.Category = "AreaTrigger"
	CapturePoint       ir.Category = "CapturePoint"
	EmplacementSpawner ir.Category = "EmplacementSpawner"
	HQ                 ir.Category = "HQ"
	InteractPoint      ir.Category = "InteractPoint"
	LootSpawner        ir.Category = "LootSpawner"
	MCOM               ir.Category = "MCOM"
	Player             ir.Category = "Player"
	RingOfFire         ir.Category = "RingOfFire"
	ScreenEffect       ir.Category = "ScreenEffect"
	Sector             ir.Category = "Sector"
	SFX                ir.Category = "SFX"
	SpatialObject      ir.Category = "SpatialObject"
	Spawner            ir.Category = "Spawner"
	SpawnPoint         ir.Category = "SpawnPoint"
	Team               ir.Category = "Team"
	Vehicle            ir.Category = "Vehicle"
	VehicleSpawner     ir.Category = "VehicleSpawner"
	VFX                ir.Category = "VFX"
	VO                 ir.Category = "VO"
	WaypointPath       ir.Category = "WaypointPath"
	WorldIcon          ir.Category = "WorldIcon"
)

var ordered = [...]ir.Category{
	Global, AreaTrigger, CapturePoint, EmplacementSpawner, HQ, InteractPoint,
	LootSpawner, MCOM, Player, RingOfFire, ScreenEffect, Sector, SFX,
	SpatialObject, Spawner, SpawnPoint, Team, Vehicle, VehicleSpawner, VFX,
	VO, WaypointPath, WorldIcon,
}

var index = func() map[ir.Category]int {
	m := make(map[ir.Category]int, len(ordered))
	for i, c := range ordered {
		m[c] = i
	}
	return m
}()

// All returns the categories in display order. The returned slice is a copy.
func All() []ir.Category {
	out := make([]ir.Category, len(ordered))
	copy(out, ordered[:])
	return out
}

// Len returns the number of categories.
func Len() int { return len(ordered) }

// Default returns the category used for missing or unknown tags.
func Default() ir.Category { return Global }

// Contains reports whether tag is one of the fixed categories.
// Matching is exact; "player" is not "Player".
func Contains(tag string) bool {
	_, ok := index[ir.Category(tag)]
	return ok
}

// Normalize maps a host supplied tag to a catalog category.
func Normalize(tag string) ir.Category {
	if Contains(tag) {
		return ir.Category(tag)
	}
	return Global
}

// Index returns the display position of c, or -1 if c is not in the catalog.
func Index(c ir.Category) int {
	if i, ok := index[c]; ok {
		return i
	}
	return -1
}
