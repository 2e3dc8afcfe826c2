package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/1broseidon/tilestate/internal/ipc"
)

func runStatus(args []string) int {
	fs := newFlagSet("status", "status", "Show daemon status via IPC.")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	s := newStyles(os.Stdout)
	s.field(os.Stdout, "daemon_running", status.DaemonRunning)
	s.field(os.Stdout, "active_layout", status.ActiveLayout)
	s.field(os.Stdout, "toplevels", status.ToplevelCount)
	s.field(os.Stdout, "outputs", status.OutputCount)
	s.field(os.Stdout, "in_flight", status.InFlight)
	s.field(os.Stdout, "applied", status.Applied)
	s.field(os.Stdout, "forced", status.Forced)
	s.field(os.Stdout, "aborted", status.Aborted)
	s.field(os.Stdout, "transaction_timeout", time.Duration(status.TransactionTimeout)*time.Millisecond)
	s.field(os.Stdout, "uptime", time.Duration(status.UptimeSeconds)*time.Second)
	return 0
}

func runList(args []string) int {
	fs := newFlagSet("list", "list [--json]", "List managed windows with their pending, committed and current geometry.")
	jsonOut := fs.Bool("json", false, "Output full state buffers as JSON")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().ListToplevels()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	if len(data.Toplevels) == 0 {
		fmt.Println("no managed windows")
		return 0
	}
	fmt.Println(toplevelTable(newStyles(os.Stdout), data))
	return 0
}

func runOutputs(args []string) int {
	fs := newFlagSet("outputs", "outputs", "List outputs with their bounds and usable areas.")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	data, err := ipc.NewClient().GetOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	s := newStyles(os.Stdout)
	for _, o := range data.Outputs {
		fmt.Printf("%s %s %s\n",
			s.header.Render(o.Name),
			s.value.Render(formatBox(o.Bounds)),
			s.dim.Render("usable "+formatBox(o.Usable)))
	}
	return 0
}

func runLayouts(args []string) int {
	fs := newFlagSet("layouts", "layouts", "List tiling layouts and the active selection.")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	data, err := ipc.NewClient().ListLayouts()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	s := newStyles(os.Stdout)
	s.field(os.Stdout, "default_layout", data.DefaultLayout)
	s.field(os.Stdout, "active_layout", data.ActiveLayout)
	for _, name := range data.Layouts {
		marker := " "
		if name == data.ActiveLayout {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "reload", "Ask the daemon to reload its configuration.")
	if code, ok := parseArgs(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config: reloaded")
	return 0
}
