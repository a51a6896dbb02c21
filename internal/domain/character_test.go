package domain

import (
	"testing"
	"time"
)

func TestLevelForExperience(t *testing.T) {
	cases := []struct {
		experience int
		want       int
	}{
		{-50, 1},
		{0, 1},
		{999, 1},
		{1000, 2},
		{2500, 3},
		{10000, 11},
	}
	for _, tc := range cases {
		if got := LevelForExperience(tc.experience); got != tc.want {
			t.Errorf("LevelForExperience(%d) = %d, want %d", tc.experience, got, tc.want)
		}
	}
}

func TestClanLevelForExperience(t *testing.T) {
	cases := []struct {
		experience int
		want       int
	}{
		{0, 1},
		{4999, 1},
		{5000, 2},
		{12500, 3},
	}
	for _, tc := range cases {
		if got := ClanLevelForExperience(tc.experience); got != tc.want {
			t.Errorf("ClanLevelForExperience(%d) = %d, want %d", tc.experience, got, tc.want)
		}
	}
}

func TestStatusEffectActiveAt(t *testing.T) {
	now := time.Now().UTC()
	active := StatusEffect{ExpiresAt: now.Add(time.Minute)}
	if !active.ActiveAt(now) {
		t.Fatalf("effect expiring in the future must be active")
	}
	expired := StatusEffect{ExpiresAt: now.Add(-time.Minute)}
	if expired.ActiveAt(now) {
		t.Fatalf("expired effect must be inactive")
	}
}
