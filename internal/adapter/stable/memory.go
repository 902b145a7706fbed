package stable

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf16"
)

// memory reads another process's address space through /proc/<pid>/mem.
// The stable client is a 32-bit .NET process under wine, so pointers are
// 4 bytes little-endian.
type memory struct {
	pid  int
	file *os.File
}

func openMemory(pid int) (*memory, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return nil, err
	}
	return &memory{pid: pid, file: f}, nil
}

func (m *memory) Close() error {
	return m.file.Close()
}

func (m *memory) ReadBytes(addr uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := m.file.ReadAt(buf, int64(addr)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (m *memory) ReadPtr(addr uint64) (uint64, error) {
	buf, err := m.ReadBytes(addr, 4)
	if err != nil {
		return 0, err
	}
	return uint64(binary.LittleEndian.Uint32(buf)), nil
}

func (m *memory) ReadI32(addr uint64) (int32, error) {
	buf, err := m.ReadBytes(addr, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

func (m *memory) ReadU32(addr uint64) (uint32, error) {
	buf, err := m.ReadBytes(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

const maxStringChars = 10000

var errTornString = fmt.Errorf("implausible string object")

// ReadNetString reads a .NET string object: char count as i32 at +0x4,
// UTF-16LE data at +0x8. A zero pointer reads as the empty string. Counts
// outside (0, maxStringChars] or undecodable UTF-16 mean the object was
// caught mid-write.
func (m *memory) ReadNetString(ptr uint64) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	length, err := m.ReadI32(ptr + 0x4)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	if length < 0 || length > maxStringChars {
		return "", errTornString
	}
	raw, err := m.ReadBytes(ptr+0x8, int(length)*2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, length)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	if !validUTF16(units) {
		return "", errTornString
	}
	return string(utf16.Decode(units)), nil
}

// validUTF16 rejects unpaired surrogates, the telltale of a half-written
// string buffer.
func validUTF16(units []uint16) bool {
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
				return false
			}
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		}
	}
	return true
}

type region struct {
	start, end uint64
}

// readableRegions parses /proc/<pid>/maps for private readable mappings,
// the only places .NET heap and jitted code can live.
func (m *memory) readableRegions() ([]region, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", m.pid))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var regions []region
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		perms := fields[1]
		if len(perms) < 4 || perms[0] != 'r' || perms[3] != 'p' {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err1 := strconv.ParseUint(bounds[0], 16, 64)
		end, err2 := strconv.ParseUint(bounds[1], 16, 64)
		if err1 != nil || err2 != nil || end <= start {
			continue
		}
		// The 32-bit client's interesting mappings all sit below 4GiB;
		// skipping the rest keeps scans fast.
		if start >= 1<<32 {
			continue
		}
		regions = append(regions, region{start: start, end: end})
	}
	return regions, scanner.Err()
}

const scanChunkSize = 1 << 18

// Scan searches every readable region for the first occurrence of sig and
// returns its address. Regions that turn unreadable mid-scan are skipped.
func (m *memory) Scan(sig signature) (uint64, bool, error) {
	regions, err := m.readableRegions()
	if err != nil {
		return 0, false, err
	}

	buf := make([]byte, scanChunkSize+len(sig.bytes)-1)
	for _, r := range regions {
		for addr := r.start; addr < r.end; addr += scanChunkSize {
			want := len(buf)
			if remaining := int(r.end - addr); remaining < want {
				want = remaining
			}
			n, err := m.file.ReadAt(buf[:want], int64(addr))
			if err != nil && n == 0 {
				break // region gone or unreadable, move on
			}
			if idx := sig.find(buf[:n]); idx >= 0 {
				return addr + uint64(idx), true, nil
			}
		}
	}
	return 0, false, nil
}
