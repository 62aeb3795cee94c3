package campaign

import (
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/jun-ii/fundraiser/internal/pricing"
)

func TestPhaseAt(t *testing.T) {
	deployedAt := time.Unix(1700000000, 0)
	duration := 604800 * time.Second

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"at deployment", deployedAt, PhaseOpen},
		{"mid campaign", deployedAt.Add(duration / 2), PhaseOpen},
		{"one second before end", deployedAt.Add(duration - time.Second), PhaseOpen},
		{"exact end instant", deployedAt.Add(duration), PhaseEnded},
		{"after end", deployedAt.Add(duration + time.Hour), PhaseEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := phaseAt(tt.now, deployedAt, duration); got != tt.want {
				t.Fatalf("phaseAt = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolutionAt(t *testing.T) {
	rate := uint256.MustFromDecimal("2000000000000000000000")

	// 25 ETH 按 2000 USD/ETH 恰好等于 50000 USD 目标
	atGoal := uint256.MustFromDecimal("25000000000000000000")
	belowGoal := new(uint256.Int).SubUint64(atGoal, 1)

	tests := []struct {
		name  string
		phase Phase
		held  *uint256.Int
		want  Resolution
	}{
		{"open campaign has no resolution", PhaseOpen, atGoal, ResolutionPending},
		{"exactly at goal", PhaseEnded, atGoal, ResolutionGoalMet},
		{"below goal", PhaseEnded, belowGoal, ResolutionGoalMissed},
		{"empty campaign", PhaseEnded, new(uint256.Int), ResolutionGoalMissed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolutionAt(tt.phase, tt.held, rate); got != tt.want {
				t.Fatalf("resolutionAt = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolutionOverflowCountsAsMet(t *testing.T) {
	held := new(uint256.Int).SetAllOne()
	rate := uint256.MustFromDecimal("2000000000000000000000")

	if _, overflow := pricing.Convert(held, rate); !overflow {
		t.Fatal("precondition: conversion should overflow")
	}
	if got := resolutionAt(PhaseEnded, held, rate); got != ResolutionGoalMet {
		t.Fatalf("resolutionAt = %s, want %s", got, ResolutionGoalMet)
	}
}
