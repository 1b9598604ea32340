package main

import (
	"encoding/binary"
	"testing"
)

func TestBuildImageHeaderFields(t *testing.T) {
	kernel := make([]byte, 513) // spans two sectors
	gui := make([]byte, 10)     // one sector, padded

	img := buildImage(kernel, gui)

	if got := binary.LittleEndian.Uint32(img[0:4]); got != bootMagic {
		t.Fatalf("magic = %#x, want %#x", got, bootMagic)
	}
	if got := binary.LittleEndian.Uint32(img[4:8]); got != 2 {
		t.Fatalf("kernel_sectors = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(img[8:12]); got != 1 {
		t.Fatalf("gui_sectors = %d, want 1", got)
	}

	wantLen := (1 + 2 + 1) * sectorSize
	if len(img) != wantLen {
		t.Fatalf("image length = %d, want %d", len(img), wantLen)
	}
}

func TestBuildImagePlacesSegmentsAtSectorBoundaries(t *testing.T) {
	kernel := []byte{0xAA, 0xBB}
	gui := []byte{0xCC}

	img := buildImage(kernel, gui)

	if img[sectorSize] != 0xAA || img[sectorSize+1] != 0xBB {
		t.Fatalf("kernel segment not found at sector 1")
	}
	if img[2*sectorSize] != 0xCC {
		t.Fatalf("gui segment not found at sector 2")
	}
}

func TestCeilSectors(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 512: 1, 513: 2, 1024: 2}
	for n, want := range cases {
		if got := ceilSectors(n); got != want {
			t.Errorf("ceilSectors(%d) = %d, want %d", n, got, want)
		}
	}
}
