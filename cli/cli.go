package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/sokinpui/vpatch.go/internal/anchor"
	"github.com/sokinpui/vpatch.go/internal/diag"
)

// Config holds all the command-line flag values.
type Config struct {
	Plan            string
	Document        string
	LookupDirs      []string
	DryRun          bool
	Policy          string
	ReformatRecords bool
	Show            int
	Radius          int
	NoAnimation     bool
	Nvim            bool
	Verbose         bool
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	return parse(pflag.CommandLine, os.Args[1:])
}

func parse(fs *pflag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	fs.StringVarP(&cfg.Plan, "plan", "p", "", "Plan file (.yaml or .md). Use '-' for stdin. Defaults to stdin if piped, else the clipboard.")
	fs.StringVarP(&cfg.Document, "document", "d", "", "Target document, overriding the plan's 'document'.")
	fs.StringSliceVarP(&cfg.LookupDirs, "lookup-dir", "l", []string{}, "Directories to resolve relative file paths against (default: current directory).")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Print a unified diff of each change and write nothing.")
	fs.StringVar(&cfg.Policy, "policy", "", "Anchor policy, overriding the plan's: 'unique' or 'first'.")
	fs.BoolVar(&cfg.ReformatRecords, "reformat-records", false, "Re-indent updated JSON records with two spaces.")
	fs.IntVar(&cfg.Show, "show", 0, "Print the lines around LINE (1-based) of the document and exit.")
	fs.IntVar(&cfg.Radius, "radius", diag.DefaultRadius, "Lines of context shown around failures and by --show.")
	fs.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the interactive summary view and spinner.")
	fs.BoolVar(&cfg.Nvim, "nvim", false, "Ask the Neovim at $NVIM_LISTEN_ADDRESS to reload rewritten files.")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every operation decision.")

	fs.Usage = func() {
		fmt.Println("Usage: vpatch [flags]")
		fmt.Println("\nApply an anchor-based edit plan to a document and its configuration records.")
		fmt.Println("\nExample: vpatch -p fixes.yaml --dry-run")
		fmt.Println("\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks flag combinations.
func (c *Config) Validate() error {
	if c.Policy != "" {
		if _, err := anchor.ParsePolicy(c.Policy); err != nil {
			return fmt.Errorf("error: --policy: %w", err)
		}
	}
	if c.Radius < 0 {
		return fmt.Errorf("error: --radius must not be negative")
	}
	if c.Show < 0 {
		return fmt.Errorf("error: --show takes a 1-based line number")
	}
	if c.Show > 0 && c.Document == "" {
		return fmt.Errorf("error: --show requires --document")
	}
	return nil
}
