package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/1broseidon/tilestate/internal/ipc"
)

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	dim    lipgloss.Style
	warn   lipgloss.Style
	border lipgloss.Style
}

// newStyles returns colored styles when f is a terminal and plain ones
// otherwise, so piped output stays greppable.
func newStyles(f *os.File) styles {
	if !term.IsTerminal(int(f.Fd())) {
		plain := lipgloss.NewStyle()
		return styles{header: plain, label: plain, value: plain, dim: plain, warn: plain, border: plain}
	}
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		border: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

func (s styles) field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %s\n", s.label.Render(fmt.Sprintf("%-22s", label+":")), s.value.Render(fmt.Sprint(value)))
}

func formatBox(b ipc.Box) string {
	return fmt.Sprintf("%dx%d%+d%+d", b.Width, b.Height, b.X, b.Y)
}

var boxPattern = regexp.MustCompile(`^(\d+)x(\d+)([+-]\d+)([+-]\d+)$`)

// parseBox parses WIDTHxHEIGHT+X+Y. A minus sign makes the coordinate
// negative; it is not measured from the far edge.
func parseBox(s string) (ipc.Box, error) {
	m := boxPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ipc.Box{}, fmt.Errorf("invalid geometry %q (want WIDTHxHEIGHT+X+Y)", s)
	}
	var vals [4]int
	for i := range vals {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return ipc.Box{}, fmt.Errorf("invalid geometry %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[0] <= 0 || vals[1] <= 0 {
		return ipc.Box{}, fmt.Errorf("invalid geometry %q: size must be positive", s)
	}
	return ipc.Box{Width: vals[0], Height: vals[1], X: vals[2], Y: vals[3]}, nil
}

// parseWindowID accepts decimal ids and the 0x-prefixed form xprop prints.
func parseWindowID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(v), nil
}

func printTransaction(w io.Writer, s styles, data *ipc.TransactionData) {
	ids := make([]string, len(data.Objects))
	for i, id := range data.Objects {
		ids[i] = fmt.Sprintf("0x%x", id)
	}
	switch {
	case data.Queued:
		fmt.Fprintln(w, s.warn.Render("queued: "+strings.Join(ids, ", ")+" busy, change will follow the current transaction"))
	case data.Forced:
		fmt.Fprintf(w, "%s %s\n", s.header.Render(fmt.Sprintf("transaction %d", data.ID)),
			s.warn.Render("applied after timeout"))
	default:
		fmt.Fprintf(w, "%s %s %s\n", s.header.Render(fmt.Sprintf("transaction %d", data.ID)),
			s.value.Render(data.Stage), s.dim.Render(strings.Join(ids, ", ")))
	}
}

func toplevelTable(s styles, data *ipc.ToplevelsData) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers("WINDOW", "APP", "OUTPUT", "PHASE", "PENDING", "COMMITTED", "CURRENT", "MAX").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, tl := range data.Toplevels {
		maxState := tl.Current.Maximization
		if tl.Current.Fullscreen {
			maxState = "fullscreen"
		}
		t.Row(
			fmt.Sprintf("0x%x", tl.ID),
			tl.AppID,
			tl.Output,
			tl.Phase,
			formatBox(tl.Pending.Geometry),
			formatBox(tl.Committed.Geometry),
			formatBox(tl.Current.Geometry),
			maxState,
		)
	}
	return t
}
