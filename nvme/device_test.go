package nvme

import "testing"

func TestBlockSizeIs4096(t *testing.T) {
	var c Controller
	if c.BlockSize() != 4096 {
		t.Fatalf("BlockSize = %d, want 4096", c.BlockSize())
	}
}

func TestReadBlockRejectsWrongBufferSize(t *testing.T) {
	var c Controller
	err := c.ReadBlock(0, make([]byte, 512))
	if err != errBufferSize {
		t.Fatalf("err = %v, want errBufferSize", err)
	}
}

func TestWriteBlockRejectsWrongBufferSize(t *testing.T) {
	var c Controller
	err := c.WriteBlock(0, make([]byte, 100))
	if err != errBufferSize {
		t.Fatalf("err = %v, want errBufferSize", err)
	}
}
