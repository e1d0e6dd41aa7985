package emulator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Default(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.Equal(uint32(0x100000), cfg.RamSize)
	assert.Equal(uint32(0x100000), cfg.StackTop)
	assert.Equal(uint32(0x80), cfg.VectorBase)
	assert.NoError(cfg.Validate())
}

func TestConfig_Parse(t *testing.T) {
	assert := assert.New(t)

	cfg, err := ParseConfig(`
ram_size = 0x200000
ipl = "iplrom.dat"
origin = 0x6800
stack_top = 0x10000
max_steps = 500
verbose = true
`)
	assert.NoError(err)
	assert.Equal(uint32(0x200000), cfg.RamSize)
	assert.Equal("iplrom.dat", cfg.Ipl)
	assert.Equal(uint32(0x6800), cfg.Origin)
	assert.Equal(uint32(0x10000), cfg.StackTop)
	assert.Equal(500, cfg.MaxSteps)
	assert.True(cfg.Verbose)

	// Unset keys keep their defaults.
	assert.Equal(uint32(0x80), cfg.VectorBase)
}

func TestConfig_ParseUnknown(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseConfig("ram_size = 0x100000\nfpu = true\n")
	assert.True(errors.Is(err, ErrConfigKey))
	assert.Contains(err.Error(), "fpu")

	_, err = ParseConfig("ram_size = \"lots\"\n")
	assert.Error(err)
}

func TestConfig_Load(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "x68k.toml")
	assert.NoError(os.WriteFile(path, []byte("ram_size = 0x400000\n"), 0o644))

	cfg, err := LoadConfig(path)
	assert.NoError(err)
	assert.Equal(uint32(0x400000), cfg.RamSize)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(err)
}

func TestConfig_Validate(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.RamSize = 0xc00002
	assert.True(errors.Is(cfg.Validate(), ErrRamSize))

	cfg.RamSize = 0x1001
	assert.True(errors.Is(cfg.Validate(), ErrRamSize))
}
