package install

import (
	"context"
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/envsetup/internal/report"
	"github.com/NielsdaWheelz/envsetup/internal/shell"
)

// Requirements installs the requirements listing at relPath (relative to
// repoRoot) through Direct. A missing file is not an error: a single skip
// record carrying both paths is emitted and nil is returned.
func Requirements(
	ctx context.Context,
	rep report.Reporter,
	repoRoot, relPath string,
	t Target,
	install func(ctx context.Context, path string) shell.Outcome,
) error {
	resolved, err := filepath.Abs(filepath.Join(repoRoot, relPath))
	if err != nil {
		resolved = filepath.Join(repoRoot, relPath)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		rep.Entry(report.Skipped(t.Title, t.Step, "No requirements file found.", []string{
			"Input Path: " + relPath,
			"Resolved Path: " + resolved,
		}))
		return nil
	}

	return Direct(ctx, rep, t, func(ctx context.Context) shell.Outcome {
		return install(ctx, resolved)
	})
}
