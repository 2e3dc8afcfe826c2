package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/tilestate/internal/ipc"
)

// txFlags are shared by every command that submits a transaction.
type txFlags struct {
	wait *bool
}

func addTxFlags(fs *flag.FlagSet) txFlags {
	return txFlags{wait: fs.Bool("wait", false, "Return once the transaction was applied or timed out")}
}

func (f txFlags) payload() ipc.Wait {
	return ipc.Wait{Wait: *f.wait}
}

func finishTransaction(data *ipc.TransactionData, err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printTransaction(os.Stdout, newStyles(os.Stdout), data)
	return 0
}

// windowArgs parses exactly n window ids from fs's positional arguments.
func windowArgs(fs *flag.FlagSet, n int) ([]uint32, bool) {
	if fs.NArg() != n {
		fmt.Fprintf(os.Stderr, "%s requires %d window id(s)\n", fs.Name(), n)
		fs.Usage()
		return nil, false
	}
	ids := make([]uint32, n)
	for i := range ids {
		id, err := parseWindowID(fs.Arg(i))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

func runMove(args []string) int {
	fs := newFlagSet("move", "move [--wait] --dx N --dy N <window>", "Move a window by an offset. Moving a window unmaximizes it.")
	tx := addTxFlags(fs)
	dx := fs.Int("dx", 0, "Horizontal offset in pixels")
	dy := fs.Int("dy", 0, "Vertical offset in pixels")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	ids, ok := windowArgs(fs, 1)
	if !ok {
		return 2
	}
	return finishTransaction(ipc.NewClient().Move(ipc.MovePayload{
		Wait:     tx.payload(),
		WindowID: ids[0],
		DX:       *dx,
		DY:       *dy,
	}))
}

func runPlace(args []string) int {
	fs := newFlagSet("place", "place [--wait] <window> <WIDTHxHEIGHT+X+Y>", "Place a window at an exact frame geometry.")
	tx := addTxFlags(fs)
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "place requires <window> and <geometry>")
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	box, err := parseBox(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return finishTransaction(ipc.NewClient().Place(ipc.PlacePayload{
		Wait:     tx.payload(),
		WindowID: id,
		Geometry: box,
	}))
}

func runResize(args []string) int {
	fs := newFlagSet("resize", "resize [--wait] --edges EDGES --dx N --dy N <window>",
		"Resize a window by dragging the given edges, e.g. --edges bottom|right.")
	tx := addTxFlags(fs)
	edges := fs.String("edges", "bottom|right", "Edges to drag (top, bottom, left, right joined with |)")
	dx := fs.Int("dx", 0, "Horizontal drag in pixels")
	dy := fs.Int("dy", 0, "Vertical drag in pixels")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	ids, ok := windowArgs(fs, 1)
	if !ok {
		return 2
	}
	return finishTransaction(ipc.NewClient().Resize(ipc.ResizePayload{
		Wait:     tx.payload(),
		WindowID: ids[0],
		Edges:    *edges,
		DX:       *dx,
		DY:       *dy,
	}))
}

func runSwap(args []string) int {
	fs := newFlagSet("swap", "swap [--wait] <window> <window>", "Exchange the geometry of two windows in a single transaction.")
	tx := addTxFlags(fs)
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	ids, ok := windowArgs(fs, 2)
	if !ok {
		return 2
	}
	return finishTransaction(ipc.NewClient().Swap(ipc.SwapPayload{
		Wait: tx.payload(),
		A:    ids[0],
		B:    ids[1],
	}))
}

func runMaximize(args []string) int {
	fs := newFlagSet("maximize", "maximize [--wait] <window> <none|vertical|horizontal|full|EDGES>",
		"Set a window's maximization. EDGES tiles the window against those output edges.")
	tx := addTxFlags(fs)
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "maximize requires <window> and <maximization>")
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return finishTransaction(ipc.NewClient().Maximize(ipc.MaximizePayload{
		Wait:         tx.payload(),
		WindowID:     id,
		Maximization: fs.Arg(1),
	}))
}

func runFullscreen(args []string) int {
	fs := newFlagSet("fullscreen", "fullscreen [--wait] [--off] <window>", "Make a window cover its output, or restore it with --off.")
	tx := addTxFlags(fs)
	off := fs.Bool("off", false, "Leave fullscreen")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	ids, ok := windowArgs(fs, 1)
	if !ok {
		return 2
	}
	return finishTransaction(ipc.NewClient().Fullscreen(ipc.FullscreenPayload{
		Wait:       tx.payload(),
		WindowID:   ids[0],
		Fullscreen: !*off,
	}))
}

func runFloat(args []string) int {
	fs := newFlagSet("float", "float [--wait] <window>", "Take a tiled or maximized window back to its floating geometry.")
	tx := addTxFlags(fs)
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	ids, ok := windowArgs(fs, 1)
	if !ok {
		return 2
	}
	return finishTransaction(ipc.NewClient().Float(ipc.FloatPayload{
		Wait:     tx.payload(),
		WindowID: ids[0],
	}))
}

func runTile(args []string) int {
	fs := newFlagSet("tile", "tile [--wait] [--layout NAME] [--output NAME] [window...]",
		"Tile windows with a layout in one transaction. Without windows, every window on the output is tiled.")
	tx := addTxFlags(fs)
	layout := fs.String("layout", "", "Layout name (default: active layout)")
	output := fs.String("output", "", "Output name (default: output of the focused window)")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	var order []uint32
	for _, arg := range fs.Args() {
		id, err := parseWindowID(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		order = append(order, id)
	}
	return finishTransaction(ipc.NewClient().Tile(ipc.TilePayload{
		Wait:        tx.payload(),
		LayoutName:  *layout,
		Output:      *output,
		WindowOrder: order,
	}))
}

func runSend(args []string) int {
	fs := newFlagSet("send", "send [--wait] <window> <output>", "Move a window to another output, scaling its geometry to fit.")
	tx := addTxFlags(fs)
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "send requires <window> and <output>")
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return finishTransaction(ipc.NewClient().SendToOutput(ipc.SendToOutputPayload{
		Wait:     tx.payload(),
		WindowID: id,
		Output:   fs.Arg(1),
	}))
}
