// Copyright 2026 The FlashFS Authors
// SPDX-License-Identifier: Apache-2.0

// flashfs manages littlefs-style filesystem images backed by flat
// files.
//
// Usage:
//
//	flashfs format [flags]
//	flashfs info [flags]
//	flashfs ls [flags] [path]
//	flashfs cat [flags] <path>
//	flashfs write [flags] <path> [local-file]
//	flashfs mkdir [flags] <path>
//	flashfs rm [flags] <path>
//	flashfs mv [flags] <old> <new>
//	flashfs mount [flags]
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/flashfs-foundation/flashfs/lib/blockdevice"
	"github.com/flashfs-foundation/flashfs/lib/config"
	"github.com/flashfs-foundation/flashfs/lib/flashfs"
	"github.com/flashfs-foundation/flashfs/lib/flashfs/fuse"
	"github.com/flashfs-foundation/flashfs/lib/lfs/lfsmock"
	"github.com/flashfs-foundation/flashfs/lib/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Set up logging.
	logLevel := slog.LevelWarn
	if os.Getenv("FLASHFS_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "format":
		err = formatCmd(args, logger)
	case "info":
		err = infoCmd(args, logger)
	case "ls":
		err = lsCmd(args, logger)
	case "cat":
		err = catCmd(args, logger)
	case "write":
		err = writeCmd(args, logger)
	case "mkdir":
		err = mkdirCmd(args, logger)
	case "rm":
		err = rmCmd(args, logger)
	case "mv":
		err = mvCmd(args, logger)
	case "mount":
		err = mountCmd(args, logger)
	case "version", "--version", "-v":
		fmt.Printf("flashfs %s\n", version.Info())
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`flashfs - Manage littlefs-style filesystem images

USAGE
    flashfs <command> [flags] [args...]

COMMANDS
    format  Format the image (destroys existing contents)
    info    Show filesystem statistics
    ls      List a directory
    cat     Print a file to stdout
    write   Write stdin or a local file into the filesystem
    mkdir   Create a directory
    rm      Remove a file or empty directory
    mv      Rename a file or directory
    mount   Mount the filesystem over FUSE until interrupted
    version Show version

EXAMPLES
    # Create and format a 1 MiB image
    flashfs format --config flashfs.yaml

    # Copy a file in and read it back
    flashfs write --config flashfs.yaml /hello.txt hello.txt
    flashfs cat --config flashfs.yaml /hello.txt

    # Mount at the configured mountpoint
    flashfs mount --config flashfs.yaml

ENVIRONMENT
    FLASHFS_CONFIG  Path to the YAML config (overridden by --config)
    FLASHFS_DEBUG   Enable debug logging
`)
}

// commandFlags returns a flag set with the --config flag every
// command shares. Individual commands add their own flags before
// parsing.
func commandFlags(name string) (*pflag.FlagSet, *string) {
	flags := pflag.NewFlagSet(name, pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to config file (default: $FLASHFS_CONFIG)")
	return flags, configPath
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func newDevice(cfg *config.Config) (*blockdevice.File, error) {
	return blockdevice.NewFile(cfg.Image.Path, blockdevice.FileGeometry{
		ReadSize:    cfg.Geometry.ReadSize,
		ProgramSize: cfg.Geometry.ProgramSize,
		EraseSize:   cfg.Geometry.EraseSize,
		Size:        cfg.Image.Size,
	})
}

func hintsFrom(cfg *config.Config) flashfs.Hints {
	return flashfs.Hints{
		BlockSize:     cfg.Format.BlockSize,
		BlockCycles:   cfg.Format.BlockCycles,
		CacheSize:     cfg.Format.CacheSize,
		LookaheadSize: cfg.Format.LookaheadSize,
	}
}

// withFS mounts the configured image, runs fn, and unmounts. The
// unmount runs even when fn fails so that the engine flushes; its
// error is reported only when fn succeeded.
func withFS(configPath string, logger *slog.Logger, fn func(*flashfs.FileSystem) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	dev, err := newDevice(cfg)
	if err != nil {
		return err
	}

	fs, err := flashfs.New("flashfs", flashfs.Options{
		Engine: lfsmock.New(),
		Device: dev,
		Hints:  hintsFrom(cfg),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("mounting %s: %w", cfg.Image.Path, err)
	}

	fnErr := fn(fs)
	if err := fs.Unmount(); err != nil && fnErr == nil {
		return fmt.Errorf("unmounting: %w", err)
	}
	return fnErr
}

// formatCmd implements the "format" command.
func formatCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("format")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	dev, err := newDevice(cfg)
	if err != nil {
		return err
	}

	if err := flashfs.Format(lfsmock.New(), dev, hintsFrom(cfg)); err != nil {
		return fmt.Errorf("formatting %s: %w", cfg.Image.Path, err)
	}

	logger.Info("image formatted", "path", cfg.Image.Path, "size", cfg.Image.Size)
	fmt.Printf("Formatted %s (%d bytes)\n", cfg.Image.Path, cfg.Image.Size)
	return nil
}

// infoCmd implements the "info" command.
func infoCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("info")
	if err := flags.Parse(args); err != nil {
		return err
	}

	return withFS(*configPath, logger, func(fs *flashfs.FileSystem) error {
		info, err := fs.StatVFS()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Block size:\t%d\n", info.BlockSize)
		fmt.Fprintf(w, "Blocks:\t%d\n", info.Blocks)
		fmt.Fprintf(w, "Blocks free:\t%d\n", info.BlocksFree)
		fmt.Fprintf(w, "Name max:\t%d\n", info.NameMax)
		return w.Flush()
	})
}

// lsCmd implements the "ls" command.
func lsCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("ls")
	if err := flags.Parse(args); err != nil {
		return err
	}

	path := "/"
	if flags.NArg() > 0 {
		path = flags.Arg(0)
	}

	return withFS(*configPath, logger, func(fs *flashfs.FileSystem) error {
		dir, err := fs.OpenDir(path)
		if err != nil {
			return err
		}
		defer dir.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for {
			entry, err := dir.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if entry.Name == "." || entry.Name == ".." {
				continue
			}
			if entry.Type == flashfs.EntryDir {
				fmt.Fprintf(w, "d\t-\t%s/\n", entry.Name)
			} else {
				fmt.Fprintf(w, "f\t%d\t%s\n", entry.Size, entry.Name)
			}
		}
		return w.Flush()
	})
}

// catCmd implements the "cat" command.
func catCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("cat")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: flashfs cat [flags] <path>")
	}

	return withFS(*configPath, logger, func(fs *flashfs.FileSystem) error {
		file, err := fs.OpenFile(flags.Arg(0), os.O_RDONLY)
		if err != nil {
			return err
		}
		defer file.Close()

		buffer := make([]byte, 64*1024)
		for {
			n, err := file.Read(buffer)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(buffer[:n]); err != nil {
				return err
			}
		}
	})
}

// writeCmd implements the "write" command. Content comes from the
// optional local file argument, or stdin when omitted.
func writeCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("write")
	appendFlag := flags.Bool("append", false, "Append instead of truncating")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 || flags.NArg() > 2 {
		return fmt.Errorf("usage: flashfs write [flags] <path> [local-file]")
	}

	var source io.Reader = os.Stdin
	if flags.NArg() == 2 {
		local, err := os.Open(flags.Arg(1))
		if err != nil {
			return err
		}
		defer local.Close()
		source = local
	}

	content, err := io.ReadAll(source)
	if err != nil {
		return err
	}

	return withFS(*configPath, logger, func(fs *flashfs.FileSystem) error {
		openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if *appendFlag {
			openFlags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}

		file, err := fs.OpenFile(flags.Arg(0), openFlags)
		if err != nil {
			return err
		}

		for written := 0; written < len(content); {
			n, err := file.Write(content[written:])
			if err != nil {
				file.Close()
				return err
			}
			written += n
		}
		return file.Close()
	})
}

// mkdirCmd implements the "mkdir" command.
func mkdirCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("mkdir")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: flashfs mkdir [flags] <path>")
	}

	return withFS(*configPath, logger, func(fs *flashfs.FileSystem) error {
		return fs.Mkdir(flags.Arg(0))
	})
}

// rmCmd implements the "rm" command.
func rmCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("rm")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: flashfs rm [flags] <path>")
	}

	return withFS(*configPath, logger, func(fs *flashfs.FileSystem) error {
		return fs.Remove(flags.Arg(0))
	})
}

// mvCmd implements the "mv" command.
func mvCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("mv")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return fmt.Errorf("usage: flashfs mv [flags] <old> <new>")
	}

	return withFS(*configPath, logger, func(fs *flashfs.FileSystem) error {
		return fs.Rename(flags.Arg(0), flags.Arg(1))
	})
}

// mountCmd implements the "mount" command. It serves the filesystem
// over FUSE until SIGINT or SIGTERM.
func mountCmd(args []string, logger *slog.Logger) error {
	flags, configPath := commandFlags("mount")
	mountpoint := flags.String("mountpoint", "", "Override the configured mountpoint")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *mountpoint == "" {
		*mountpoint = cfg.Mount.Mountpoint
	}
	if *mountpoint == "" {
		return fmt.Errorf("no mountpoint: set mount.mountpoint in the config or pass --mountpoint")
	}

	dev, err := newDevice(cfg)
	if err != nil {
		return err
	}

	fs, err := flashfs.New("flashfs", flashfs.Options{
		Engine: lfsmock.New(),
		Device: dev,
		Hints:  hintsFrom(cfg),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("mounting %s: %w", cfg.Image.Path, err)
	}
	defer fs.Unmount()

	server, err := fuse.Mount(fuse.Options{
		Mountpoint: *mountpoint,
		FS:         fs,
		AllowOther: cfg.Mount.AllowOther,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Mounted %s at %s (Ctrl-C to unmount)\n", cfg.Image.Path, *mountpoint)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Unmount(); err != nil {
		return fmt.Errorf("unmounting FUSE server: %w", err)
	}
	return fs.Unmount()
}
