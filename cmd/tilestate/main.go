package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "layouts":
		os.Exit(runLayouts(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "place":
		os.Exit(runPlace(os.Args[2:]))
	case "resize":
		os.Exit(runResize(os.Args[2:]))
	case "swap":
		os.Exit(runSwap(os.Args[2:]))
	case "maximize":
		os.Exit(runMaximize(os.Args[2:]))
	case "fullscreen":
		os.Exit(runFullscreen(os.Args[2:]))
	case "float":
		os.Exit(runFloat(os.Args[2:]))
	case "tile":
		os.Exit(runTile(os.Args[2:]))
	case "send":
		os.Exit(runSend(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tilestate <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Run the window state daemon")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  list [--json]       List managed windows and their state buffers")
	fmt.Fprintln(w, "  outputs             List outputs and their usable areas")
	fmt.Fprintln(w, "  layouts             List tiling layouts")
	fmt.Fprintln(w, "  move                Move a window by an offset")
	fmt.Fprintln(w, "  place               Place a window at an exact geometry")
	fmt.Fprintln(w, "  resize              Resize a window from one or two edges")
	fmt.Fprintln(w, "  swap                Exchange two windows in one transaction")
	fmt.Fprintln(w, "  maximize            Set a window's maximization")
	fmt.Fprintln(w, "  fullscreen          Enter or leave fullscreen")
	fmt.Fprintln(w, "  float               Return a tiled window to its floating geometry")
	fmt.Fprintln(w, "  tile                Tile an output with a layout")
	fmt.Fprintln(w, "  send                Send a window to another output")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "  config              Validate or inspect configuration")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tilestate <command> --help' for command-specific options.")
}

// parseArgs parses args into fs. It returns ok=false together with the exit
// code when the command should stop.
func parseArgs(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func newFlagSet(name, usage, description string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilestate %s\n", usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, description)
		hasFlags := false
		fs.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}
