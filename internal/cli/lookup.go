package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgdocs/pkg/docs"
)

// readmePreviewLines caps the readme excerpt shown below the summary.
const readmePreviewLines = 12

// lookupCommand creates the lookup command.
func (c *CLI) lookupCommand() *cobra.Command {
	var (
		refresh     bool
		jsonOut     bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <package>",
		Short: "Fetch documentation for an npm package",
		Long: `Fetch documentation for an npm package.

Results are served from the local cache when a fresh entry exists; otherwise
the registry is queried and the result cached. Use --refresh to force a
registry fetch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := c.serviceFromConfig(cmd)
			if err != nil {
				return err
			}
			defer closer()

			return c.runLookup(cmd.Context(), svc, args[0], lookupOptions{
				refresh:     refresh,
				jsonOut:     jsonOut,
				interactive: interactive,
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and refetch from the registry")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the documentation as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse dependencies interactively")

	return cmd
}

type lookupOptions struct {
	refresh     bool
	jsonOut     bool
	interactive bool
}

// runLookup fetches one package and renders it. In interactive mode the
// dependency browser loops until the user quits, looking up whichever
// dependency they select next.
func (c *CLI) runLookup(ctx context.Context, svc docService, name string, opts lookupOptions) error {
	if opts.interactive && !isTerminal() {
		printWarning("interactive mode needs a terminal, showing a plain summary")
		opts.interactive = false
	}

	for {
		cached := !opts.refresh && svc.IsCached(ctx, name)

		var spinner *Spinner
		if !opts.jsonOut && !cached {
			spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s...", name))
			spinner.Start()
		}

		doc, err := svc.GetDocumentation(ctx, name, opts.refresh)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return err
		}

		if opts.jsonOut {
			return printJSON(doc)
		}

		printDocumentation(doc, cached)

		if !opts.interactive || len(doc.Dependencies) == 0 {
			return nil
		}

		next, err := selectDependency(doc)
		if err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		name = next
		printNewline()
	}
}

func printJSON(doc *docs.Documentation) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// printDocumentation renders the human-readable summary.
func printDocumentation(doc *docs.Documentation, cached bool) {
	printTitle(fmt.Sprintf("%s@%s", doc.Name, doc.Version), cached)

	if doc.Description != "" {
		fmt.Println("  " + StyleValue.Render(doc.Description))
		printNewline()
	}

	printKeyValue("license", valueOrDash(doc.License))
	printKeyValue("author", valueOrDash(doc.Author))
	if doc.Homepage != "" {
		printKeyValue("homepage", StyleLink.Render(doc.Homepage))
	}
	if doc.Repository != "" {
		printKeyValue("repository", StyleLink.Render(doc.Repository))
	}
	if len(doc.Keywords) > 0 {
		printKeyValue("keywords", strings.Join(doc.Keywords, ", "))
	}

	if len(doc.Dependencies) > 0 {
		printNewline()
		printDependencyTable("dependencies", doc.Dependencies)
	}
	if len(doc.DevDependencies) > 0 {
		printNewline()
		printDependencyTable("dev dependencies", doc.DevDependencies)
	}

	if doc.HasReadme() {
		printNewline()
		printReadmePreview(doc.ReadmeContent)
	}
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printReadmePreview shows the first lines of the readme.
func printReadmePreview(readme string) {
	lines := strings.Split(strings.TrimSpace(readme), "\n")
	shown := lines
	if len(shown) > readmePreviewLines {
		shown = shown[:readmePreviewLines]
	}
	for _, line := range shown {
		fmt.Println("  " + StyleDim.Render(line))
	}
	if len(lines) > readmePreviewLines {
		printDetail("... (%d more lines, use --json for the full readme)", len(lines)-readmePreviewLines)
	}
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
