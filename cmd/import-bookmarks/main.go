// Command import-bookmarks converts a Firefox bookmarks export into a
// targets document for exposure-crawler.
package main

import (
	"fmt"
	"os"

	"github.com/WangYihang/Exposure-Crawler/pkg/infrastructure/bookmarks"
	"github.com/WangYihang/Exposure-Crawler/pkg/infrastructure/storage"
	"github.com/jessevdk/go-flags"
)

type options struct {
	Args struct {
		BookmarksFile string `positional-arg-name:"bookmarks_file" description:"Firefox bookmarks export (JSON), - for stdin" required:"yes"`
		OutFile       string `positional-arg-name:"out_file" description:"YAML file to write, - for stdout" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	in := os.Stdin
	if opts.Args.BookmarksFile != "-" {
		f, err := os.Open(opts.Args.BookmarksFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	sites, err := bookmarks.Parse(in)
	if err != nil {
		return err
	}

	out, err := storage.OpenSink(opts.Args.OutFile)
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer out.Close()
	}

	if err := bookmarks.Write(out, sites); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Args.OutFile, err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d sites\n", len(sites))
	return nil
}
