package stable

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMemory backs the reader with a regular file standing in for
// /proc/<pid>/mem.
func fakeMemory(t *testing.T, image []byte) *memory {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mem")
	require.NoError(t, os.WriteFile(path, image, 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	return &memory{pid: 0, file: f}
}

// putNetString writes a .NET string object (length at +0x4, UTF-16LE data at
// +0x8) into image at addr.
func putNetString(image []byte, addr uint64, s string) {
	units := utf16.Encode([]rune(s))
	binary.LittleEndian.PutUint32(image[addr+4:], uint32(len(units)))
	for i, u := range units {
		binary.LittleEndian.PutUint16(image[addr+8+uint64(i*2):], u)
	}
}

func TestReadNetString(t *testing.T) {
	image := make([]byte, 4096)
	putNetString(image, 0x100, "Exit This Earth's Atmosphere")
	putNetString(image, 0x200, "かめりあ")
	m := fakeMemory(t, image)

	s, err := m.ReadNetString(0x100)
	require.NoError(t, err)
	assert.Equal(t, "Exit This Earth's Atmosphere", s)

	s, err = m.ReadNetString(0x200)
	require.NoError(t, err)
	assert.Equal(t, "かめりあ", s)
}

func TestReadNetStringNullAndEmpty(t *testing.T) {
	image := make([]byte, 4096)
	m := fakeMemory(t, image)

	s, err := m.ReadNetString(0)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	// Zero-length object at a valid pointer.
	s, err = m.ReadNetString(0x100)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestReadNetStringTorn(t *testing.T) {
	t.Run("implausible length", func(t *testing.T) {
		image := make([]byte, 4096)
		binary.LittleEndian.PutUint32(image[0x104:], uint32(maxStringChars+1))
		m := fakeMemory(t, image)

		_, err := m.ReadNetString(0x100)
		assert.ErrorIs(t, err, errTornString)
	})

	t.Run("negative length", func(t *testing.T) {
		image := make([]byte, 4096)
		binary.LittleEndian.PutUint32(image[0x104:], 0xFFFFFFFF)
		m := fakeMemory(t, image)

		_, err := m.ReadNetString(0x100)
		assert.ErrorIs(t, err, errTornString)
	})

	t.Run("unpaired surrogate", func(t *testing.T) {
		image := make([]byte, 4096)
		binary.LittleEndian.PutUint32(image[0x104:], 1)
		binary.LittleEndian.PutUint16(image[0x108:], 0xD800)
		m := fakeMemory(t, image)

		_, err := m.ReadNetString(0x100)
		assert.ErrorIs(t, err, errTornString)
	})
}

func TestMemoryReads(t *testing.T) {
	image := make([]byte, 64)
	binary.LittleEndian.PutUint32(image[0x10:], 0xDEADBEEF)
	binary.LittleEndian.PutUint32(image[0x20:], 0xFFFFFFF8) // -8 as i32
	m := fakeMemory(t, image)

	ptr, err := m.ReadPtr(0x10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEF), ptr)

	u, err := m.ReadU32(0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u)

	i, err := m.ReadI32(0x20)
	require.NoError(t, err)
	assert.Equal(t, int32(-8), i)

	_, err = m.ReadBytes(60, 8)
	assert.Error(t, err, "short read past end of mapping")
}
