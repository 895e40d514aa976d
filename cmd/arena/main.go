package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "arena"
)

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, errHelp) {
		return
	}
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errUsage
	}

	switch strings.ToLower(args[0]) {
	case "simulate":
		return runSimulate(args[1:], out)
	case "replay":
		return runReplay(args[1:], out)
	case "list":
		return runList(args[1:], out)
	case "version":
		fmt.Fprintf(out, "%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return nil
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", args[0])
		usage(out)
		return errUsage
	}
}

func usage(out io.Writer) {
	fmt.Fprintf(out, `Usage: %[1]s <command> [flags]

Commands:
  simulate --a robotA.json --b robotB.json   run a training battle
  replay <battleID>                          play back an archived battle
  list                                       list archived battles
  version                                    print version

Run '%[1]s <command> --help' for command flags.
`, AppName)
}
