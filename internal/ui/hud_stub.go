//go:build !ebiten

package ui

import "rps-kmc/internal/core"

// HUD is a no-op placeholder for headless builds.
type HUD struct{}

// NewHUD returns nil in the headless build.
func NewHUD(core.Sim, int) *HUD { return nil }

// Update is a no-op in the headless build.
func (h *HUD) Update() {}

// Draw is a no-op in the headless build.
func (h *HUD) Draw(any, int, int) {}

// Width is always zero in the headless build.
func (h *HUD) Width() int { return 0 }

// Changed is always false in the headless build.
func (h *HUD) Changed() bool { return false }

// SetStatus is a no-op in the headless build.
func (h *HUD) SetStatus(int, bool, bool) {}
