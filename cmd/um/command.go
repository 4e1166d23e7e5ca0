// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ezrec/rum/cpu"
	"github.com/ezrec/rum/emulator"
	rumio "github.com/ezrec/rum/io"
)

const (
	ENV_PREFIX = "UM" // Environment variable prefix, ie UM_VERBOSE
)

// config holds the merged flag, environment, and config file settings.
type config struct {
	*viper.Viper

	logger *lumberjack.Logger // Rotating verbose log, if any.
}

// bind merges the flags of the running command into the configuration.
func (conf *config) bind(cmd *cobra.Command) (err error) {
	err = conf.BindPFlags(cmd.Flags())
	if err != nil {
		return
	}

	path := conf.GetString("config")
	if len(path) != 0 {
		conf.SetConfigFile(path)
		err = conf.ReadInConfig()
		if err != nil {
			return
		}
	}

	// Verbose traces go to a rotated log file.
	path = conf.GetString("log-file")
	if len(path) != 0 {
		conf.logger = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    conf.GetInt("log-size"),
			MaxBackups: conf.GetInt("log-backups"),
		}
		log.SetOutput(conf.logger)
	}

	return
}

// close releases the verbose log.
func (conf *config) close() (err error) {
	if conf.logger == nil {
		return
	}

	log.SetOutput(os.Stderr)
	err = conf.logger.Close()
	conf.logger = nil

	return
}

// openInput opens a file for reading, where "-" is stdin.
func openInput(path string) (rd io.ReadCloser, err error) {
	if path == "-" {
		rd = io.NopCloser(os.Stdin)
		return
	}

	rd, err = os.Open(path)
	return
}

// nopWriteCloser is an io.WriteCloser that does not close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// openOutput opens a file for writing, where "-" is stdout.
func openOutput(path string) (wr io.WriteCloser, err error) {
	if path == "-" {
		wr = nopWriteCloser{os.Stdout}
		return
	}

	wr, err = os.Create(path)
	return
}

// assemble parses a source file into a program.
func (conf *config) assemble(path string) (prog *cpu.Program, err error) {
	inf, err := openInput(path)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: conf.GetBool("verbose")}
	for key, value := range emulator.NewEmulator().Defines() {
		asm.Predefine(key, value)
	}
	for _, define := range conf.GetStringSlice("define") {
		key, value, ok := strings.Cut(define, "=")
		if !ok {
			value = "1"
		}
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
		return
	}

	return
}

// load reads a big-endian program image.
func (conf *config) load(path string) (prog *cpu.Program, err error) {
	inf, err := openInput(path)
	if err != nil {
		return
	}
	defer inf.Close()

	rom := &rumio.Rom{}
	err = rom.Load(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
		return
	}

	prog = cpu.ProgramOf(rom.Data)

	return
}

// run executes a program image until it halts.
func (conf *config) run(path string) (err error) {
	var prog *cpu.Program
	if conf.GetBool("assemble") {
		prog, err = conf.assemble(path)
	} else {
		prog, err = conf.load(path)
	}
	if err != nil {
		return
	}

	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.Verbose = conf.GetBool("verbose")

	input := conf.GetString("input")
	inf, err := openInput(input)
	if err != nil {
		return
	}
	defer inf.Close()
	emu.Tape.Input = bufio.NewReader(inf)

	output := conf.GetString("output")
	ouf, err := openOutput(output)
	if err != nil {
		return
	}
	defer ouf.Close()
	emu.Tape.Output = ouf

	err = emu.Reset()
	if err != nil {
		return
	}

	err = emu.Run()
	if err != nil {
		if emu.Verbose {
			log.Printf("%v", emu.Cpu)
		}
	}

	profile := conf.GetString("profile")
	if len(profile) != 0 {
		prf, perr := openOutput(profile)
		if perr != nil {
			err = errors.Join(err, perr)
			return
		}
		defer prf.Close()
		err = errors.Join(err, writeProfile(prf, path, emu))
	}

	return
}

func newRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "-", "Console input")
	cmd.Flags().StringP("output", "o", "-", "Console output")
	cmd.Flags().BoolP("assemble", "a", false, "Assemble PROGRAM from source before running")
	cmd.Flags().StringSliceP("define", "D", nil, "Predefine an assembler equate, as NAME=VALUE")
	cmd.Flags().String("profile", "", "Write an HTML chart of executed instructions")
}

// newRootCmd creates the um command tree.
func newRootCmd() (root *cobra.Command) {
	conf := &config{Viper: viper.New()}
	conf.SetEnvPrefix(ENV_PREFIX)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()

	root = &cobra.Command{
		Use:   "um [PROGRAM]",
		Short: "Universal machine emulator",
		Long: `um runs 32-bit universal machine program images.

Every flag may also be set from a UM_* environment variable,
or from the file named by --config.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return conf.bind(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return conf.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return conf.run(args[0])
		},
	}

	root.SilenceErrors = true
	root.SilenceUsage = true

	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose mode")
	root.PersistentFlags().String("config", "", "Configuration file (YAML, TOML, or JSON)")
	root.PersistentFlags().String("log-file", "", "Write verbose logging to a rotated file")
	root.PersistentFlags().Int("log-size", 100, "Megabytes of log before rotation")
	root.PersistentFlags().Int("log-backups", 3, "Rotated logs to keep")
	newRunFlags(root)

	runCmd := &cobra.Command{
		Use:   "run PROGRAM",
		Short: "Run a program image until it halts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.run(args[0])
		},
	}
	newRunFlags(runCmd)

	asmCmd := &cobra.Command{
		Use:   "asm SOURCE",
		Short: "Assemble a source file into a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			prog, err := conf.assemble(args[0])
			if err != nil {
				return
			}

			ouf, err := openOutput(conf.GetString("output"))
			if err != nil {
				return
			}
			defer ouf.Close()

			rom := &rumio.Rom{Data: prog.Binary()}
			err = rom.Save(ouf)
			if err != nil {
				return
			}

			listing := conf.GetString("listing")
			if len(listing) != 0 {
				var lst io.WriteCloser
				lst, err = openOutput(listing)
				if err != nil {
					return
				}
				defer lst.Close()
				err = writeListing(lst, args[0], prog)
			}

			return
		},
	}
	asmCmd.Flags().StringP("output", "o", "-", "Program image output")
	asmCmd.Flags().StringSliceP("define", "D", nil, "Predefine an assembler equate, as NAME=VALUE")
	asmCmd.Flags().StringP("listing", "l", "", "Write a listing of source lines and instruction words")

	disasmCmd := &cobra.Command{
		Use:   "disasm PROGRAM",
		Short: "List the instructions of a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			prog, err := conf.load(args[0])
			if err != nil {
				return
			}

			ouf, err := openOutput(conf.GetString("output"))
			if err != nil {
				return
			}
			defer ouf.Close()

			wr := bufio.NewWriter(ouf)
			for ip, code := range prog.Codes() {
				_, err = fmt.Fprintf(wr, "%08x: %08x %v\n", ip, code.Word, code)
				if err != nil {
					return
				}
			}
			err = wr.Flush()
			return
		},
	}
	disasmCmd.Flags().StringP("output", "o", "-", "Listing output")

	root.AddCommand(runCmd, asmCmd, disasmCmd)

	return
}
