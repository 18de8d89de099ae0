// Package envinfo reports the environment an installation ran in.
// Every item is best-effort: a failed probe becomes an info record.
package envinfo

import (
	"context"
	"runtime"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/NielsdaWheelz/envsetup/internal/exec"
	"github.com/NielsdaWheelz/envsetup/internal/report"
	"github.com/NielsdaWheelz/envsetup/internal/shell"
	"github.com/NielsdaWheelz/envsetup/internal/version"
)

// Lister lists installed Python distributions. *pip.Installer implements it.
type Lister interface {
	List(ctx context.Context) shell.Outcome
}

// Reporter collects the environment report.
type Reporter struct {
	Runner exec.CommandRunner
	Pip    Lister
	Python string
	Dir    string
}

// probe is one shell-backed report item.
type probe struct {
	title string
	name  string
	args  []string
}

var probes = []probe{
	{title: "Hardware and OS Info", name: "uname", args: []string{"-a"}},
	{title: "System Resources", name: "sh", args: []string{"-c", "ulimit -a"}},
	{title: "Disk Space", name: "df", args: []string{"-h"}},
}

// Report emits one info record per item. It never fails.
func (r *Reporter) Report(ctx context.Context, rep report.Reporter) {
	python := r.Python
	if python == "" {
		python = "python"
	}

	rep.Entry(report.Info("Runtime", RuntimeTable(python)))

	out := r.run(ctx, python, "--version")
	if out.Success() {
		// Old interpreters print the version on stderr.
		v := strings.TrimSpace(out.Stdout + " " + out.Stderr)
		rep.Entry(report.Info("Python Version", v, "Python version: "+v))
	} else {
		rep.Entry(failed("Python Version", out))
	}

	if r.Pip != nil {
		out := r.Pip.List(ctx)
		if out.Success() {
			rep.Entry(report.Info("Installed Packages", out.Stdout))
		} else {
			rep.Entry(failed("Installed Packages", out))
		}
	}

	for _, p := range probes {
		out := r.run(ctx, p.name, p.args...)
		if !out.Success() {
			rep.Entry(failed(p.title, out))
			continue
		}
		rep.Entry(report.Info(p.title, out.Stdout))
	}
}

func (r *Reporter) run(ctx context.Context, name string, args ...string) shell.Outcome {
	return shell.Run(ctx, r.Runner, name, args, exec.RunOpts{Dir: r.Dir})
}

func failed(title string, out shell.Outcome) report.Record {
	return report.Info(title, "Could not collect: "+out.Summary(), out.Details()...)
}

// RuntimeTable renders the host and tool versions as a table.
func RuntimeTable(python string) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRows([]table.Row{
		{"envsetup", version.FullVersion()},
		{"Go", runtime.Version()},
		{"OS/Arch", runtime.GOOS + "/" + runtime.GOARCH},
		{"CPUs", runtime.NumCPU()},
		{"Python", python},
	})
	return t.Render()
}
