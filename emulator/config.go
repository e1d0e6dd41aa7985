package emulator

import (
	"github.com/BurntSushi/toml"
)

// Config describes the machine to emulate.
type Config struct {
	RamSize    uint32 `toml:"ram_size"`    // Main memory size in bytes.
	Ipl        string `toml:"ipl"`         // Path to an IPL ROM image.
	Origin     uint32 `toml:"origin"`      // Entry point for assembled programs, 0 for the program origin.
	StackTop   uint32 `toml:"stack_top"`   // Initial stack pointer for assembled programs.
	VectorBase uint32 `toml:"vector_base"` // Address of the trap #0 vector.
	MaxSteps   int    `toml:"max_steps"`   // Step limit for Run, 0 for none.
	Verbose    bool   `toml:"verbose"`
}

// DefaultConfig returns the configuration of a stock 1 MiB machine.
func DefaultConfig() Config {
	return Config{
		RamSize:    RAM_SIZE_DEFAULT,
		StackTop:   RAM_SIZE_DEFAULT,
		VectorBase: 0x80,
		MaxSteps:   1_000_000,
	}
}

// ParseConfig overlays TOML text on the default configuration.
func ParseConfig(text string) (cfg Config, err error) {
	cfg = DefaultConfig()

	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return
	}

	err = checkUndecoded(md)
	return
}

// LoadConfig overlays a TOML file on the default configuration.
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return
	}

	err = checkUndecoded(md)
	return
}

func checkUndecoded(md toml.MetaData) (err error) {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return
	}

	var names ErrConfig
	for _, key := range keys {
		names = append(names, key.String())
	}
	err = names
	return
}

// Validate checks the configuration against the memory map.
func (cfg *Config) Validate() (err error) {
	if cfg.RamSize == 0 || cfg.RamSize > RAM_SIZE_MAX || cfg.RamSize&1 != 0 {
		err = ErrRamSize
		return
	}

	return
}
