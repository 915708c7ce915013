package main

import (
	"crypto/rand"
	"encoding/binary"
	"math"

	"github.com/google/uuid"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

// GenerateUUID returns a random v4 UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// newSeed returns a random non-zero run seed.
func newSeed() uint64 {
	var b [8]byte
	rand.Read(b[:])
	if s := binary.LittleEndian.Uint64(b[:]); s != 0 {
		return s
	}
	return 1
}

func angle(v sim.Vec2) float64 {
	return math.Atan2(v.Y, v.X)
}

func finiteFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func findEnemy(s *sim.WorldState, id int) *sim.Enemy {
	for i := range s.Enemies {
		if s.Enemies[i].ID == id {
			return &s.Enemies[i]
		}
	}
	return nil
}
