package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"sbarisk/pkg/data"
	"sbarisk/pkg/net"
)

var (
	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Path to the SBA case CSV file",
	}

	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "URL of the SBA case CSV file to download and import",
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import historical loan records from the SBA case CSV",
		UsageText: `sbarisk import --file SBAcase.csv
   sbarisk import --url https://example.com/SBAcase.csv`,
		Action: cmdImport,
		Flags: []cli.Flag{
			fileFlag,
			urlFlag,
		},
	}
)

// ImportResult wraps the data-layer result with run metadata.
type ImportResult struct {
	Source   string `json:"source" yaml:"source"`
	Imported int    `json:"imported" yaml:"imported"`
	Skipped  int    `json:"skipped" yaml:"skipped"`
	Total    int    `json:"total" yaml:"total"`
	Duration string `json:"duration" yaml:"duration"`
}

func cmdImport(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)

	src := c.String(fileFlag.Name)
	url := c.String(urlFlag.Name)

	if src == "" && url == "" {
		return cli.ShowSubcommandHelp(c)
	}

	if url != "" {
		tmp := filepath.Join(os.TempDir(), "sbarisk-import.csv")
		if err := net.Download(url, tmp); err != nil {
			return fmt.Errorf("downloading %s: %w", url, err)
		}
		defer os.Remove(tmp)
		src = tmp
	}

	res, err := data.ImportCSV(cfg.DB, src)
	if err != nil {
		return fmt.Errorf("importing %s: %w", src, err)
	}

	total, err := data.CountLoans(cfg.DB)
	if err != nil {
		return fmt.Errorf("counting loans: %w", err)
	}

	return output(&ImportResult{
		Source:   src,
		Imported: res.Imported,
		Skipped:  res.Skipped,
		Total:    total,
		Duration: time.Since(start).String(),
	})
}
