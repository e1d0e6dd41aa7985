// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"slices"

	"golang.org/x/term"

	"github.com/ezrec/x68k/cpu"
	"github.com/ezrec/x68k/emulator"
)

func main() {
	var ipl string
	var compile string
	var output string
	var config string
	var steps int
	var verbose bool
	var regs bool
	var defines bool

	flag.StringVar(&ipl, "ipl", "", "IPL ROM image to boot")
	flag.StringVar(&compile, "c", "", ".s file to assemble and run from RAM")
	flag.StringVar(&output, "o", "", "Write the assembled binary, do not execute")
	flag.StringVar(&config, "config", "", "Machine configuration (TOML)")
	flag.IntVar(&steps, "n", 0, "Maximum instructions to execute (0 for the configured limit)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&regs, "regs", false, "Dump registers on exit")
	flag.BoolVar(&defines, "defines", false, "Print the predefined equates")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	cfg := emulator.DefaultConfig()
	if len(config) != 0 {
		var err error
		cfg, err = emulator.LoadConfig(config)
		if err != nil {
			log.Fatalf("%v: %v", config, err)
		}
	}
	if verbose {
		cfg.Verbose = true
	}
	if len(ipl) != 0 {
		cfg.Ipl = ipl
	}

	emu, err := emulator.NewEmulator(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if defines {
		var keys []string
		values := map[string]string{}
		for key, value := range emu.Defines() {
			keys = append(keys, key)
			values[key] = value
		}
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Printf(".equ %v %v\n", key, values[key])
		}
		return
	}

	var prog *cpu.Program
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		prog, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if len(output) != 0 {
		if prog == nil {
			log.Fatalf("%v: -o requires -c", os.Args[0])
		}
		err = os.WriteFile(output, prog.Binary(), 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	switch {
	case prog != nil:
		err = emu.LoadProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(cfg.Ipl) != 0:
		image, err := os.ReadFile(cfg.Ipl)
		if err != nil {
			log.Fatalf("%v: %v", cfg.Ipl, err)
		}
		err = emu.LoadIpl(image)
		if err != nil {
			log.Fatalf("%v: %v", cfg.Ipl, err)
		}
		err = emu.Boot()
		if err != nil {
			log.Fatalf("%v: %v", cfg.Ipl, err)
		}
	default:
		log.Fatalf("%v: one of -c or -ipl is required", os.Args[0])
	}

	emu.Scc.Output = os.Stdout

	color := term.IsTerminal(int(os.Stdout.Fd()))
	status := &cpu.StatusDiff{Cpu: emu.Cpu}
	status.Changes(false)

	count, err := emu.Run(steps)
	if err != nil {
		log.Fatalf("%v\n%v\n%v", err, emu.Cpu.Trace.Dump(), status.Changes(false).String(color))
	}

	if regs {
		fmt.Printf("%v steps, %v\n", count, emu.Cpu.Stat())
		fmt.Print(status.Changes(false).String(color))
	}
}
