// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command carbon is the thin CLI front-end over the archive/cdoc/dotpath
// library packages (spec.md §1 "CLI front-end ... explicitly out of
// scope": this binary is pure option parsing and console logging, calling
// straight into the library API of spec.md §6).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
	"github.com/carbonfmt/carbon/dotpath"
	"github.com/carbonfmt/carbon/strid"
	"github.com/carbonfmt/carbon/visitor"
)

var (
	verbose      bool
	packerName   string
	bakeSidIndex bool
	dumpAsJSON   bool
)

func setupLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "carbon",
		Short: "Build, open, and query Carbon archives",
		Long:  "carbon builds columnar binary archives from JSON, opens them read-only, and evaluates dot-paths against them.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")

	var buildCmd = &cobra.Command{
		Use:   "build <input.json> <output.carbon>",
		Short: "Columnarize a JSON document and write it as an archive",
		Args:  cobra.ExactArgs(2),
		RunE:  runBuild,
	}
	buildCmd.Flags().StringVar(&packerName, "packer", "none", `string-table packer: "none" or "huffman"`)
	buildCmd.Flags().BoolVar(&bakeSidIndex, "bake-sid-index", false, "serialize a sid->offset index for random-access string lookup")

	var infoCmd = &cobra.Command{
		Use:   "info <archive.carbon>",
		Short: "Print the record-table offset, string count and sid-index presence",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	var findCmd = &cobra.Command{
		Use:   "find <archive.carbon> <dot-path>",
		Short: "Evaluate a dot-path against an archive and print the resolved value",
		Args:  cobra.ExactArgs(2),
		RunE:  runFind,
	}

	var dumpCmd = &cobra.Command{
		Use:   "dump <archive.carbon>",
		Short: "Depth-first dump of every property, one dotted path per line",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
	dumpCmd.Flags().BoolVar(&dumpAsJSON, "json", false, "render the archive back into a single compact JSON document instead of dotted paths")

	rootCmd.AddCommand(buildCmd, infoCmd, findCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]
	json, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	log.Debug().Str("packer", packerName).Bool("bakeSidIndex", bakeSidIndex).Msg("building archive")
	data, err := archive.Build(json, archive.BuildOptions{
		Packer:       packerName,
		BakeSidIndex: bakeSidIndex,
	})
	if err != nil {
		return fmt.Errorf("building archive: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	log.Info().Str("path", outPath).Int("bytes", len(data)).Msg("archive written")
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := archive.Open(args[0], archive.OpenOptions{})
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer a.Close()

	entries, err := a.Strings()
	if err != nil {
		return fmt.Errorf("reading string table: %w", err)
	}
	fmt.Printf("archive:        %s\n", args[0])
	fmt.Printf("record table @: %d\n", a.RecordTableStart())
	fmt.Printf("num strings:    %d\n", len(entries))
	fmt.Printf("has sid index:  %v\n", a.HasSidIndex())
	return nil
}

func runFind(cmd *cobra.Command, args []string) error {
	a, err := archive.Open(args[0], archive.OpenOptions{})
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer a.Close()

	idx, err := strid.NewIndex(a, 0)
	if err != nil {
		return fmt.Errorf("building string index: %w", err)
	}

	found, err := findDotPath(a, idx, args[1])
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("no result")
	}
	return nil
}

// findDotPath walks the archive via the visitor driver, matching the
// target dot-path against each visited property's full path (spec.md
// §4.10 "utility functions render it as a dotted string or compare
// against a target path").
func findDotPath(a *archive.Archive, idx *strid.Index, target string) (bool, error) {
	wantSegs, err := dotpath.Parse(target)
	if err != nil {
		return false, fmt.Errorf("parsing dot-path: %w", err)
	}
	want := dotpath.String(wantSegs)

	finder := &pathFinder{target: want, full: []string{}}
	d := visitor.NewDriver(a, idx)
	if err := d.Walk(a.Header.RootObjectOffset, finder); err != nil {
		return false, fmt.Errorf("walking archive: %w", err)
	}
	return finder.found, nil
}

type pathFinder struct {
	target string
	full   []string
	found  bool
}

func (f *pathFinder) BeforeObject(path []string, objectID uint64) visitor.Decision {
	return visitor.Include
}

func (f *pathFinder) OnProperty(path []string, key string, t carbon.BasicType, isArray bool, value interface{}) {
	segs := append(append([]string{}, path...), key)
	if dotpath.String(toSegments(segs)) == f.target {
		fmt.Printf("%v\n", value)
		f.found = true
	}
}

func (f *pathFinder) BeforeArrayOfObjects(path []string, key string) visitor.Decision {
	return visitor.Include
}

func toSegments(keys []string) []dotpath.Segment {
	segs := make([]dotpath.Segment, len(keys))
	for i, k := range keys {
		segs[i] = dotpath.Segment{Key: k}
	}
	return segs
}

func runDump(cmd *cobra.Command, args []string) error {
	a, err := archive.Open(args[0], archive.OpenOptions{})
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer a.Close()

	idx, err := strid.NewIndex(a, 0)
	if err != nil {
		return fmt.Errorf("building string index: %w", err)
	}

	if dumpAsJSON {
		out, err := visitor.ToJSONCompact(a, idx)
		if err != nil {
			return fmt.Errorf("rendering JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	dumper := &dumpVisitor{}
	d := visitor.NewDriver(a, idx)
	if err := d.Walk(a.Header.RootObjectOffset, dumper); err != nil {
		return fmt.Errorf("walking archive: %w", err)
	}
	return nil
}

type dumpVisitor struct{}

func (dumpVisitor) BeforeObject(path []string, objectID uint64) visitor.Decision {
	return visitor.Include
}

func (dumpVisitor) OnProperty(path []string, key string, t carbon.BasicType, isArray bool, value interface{}) {
	segs := append(append([]string{}, path...), key)
	fmt.Printf("%s = %v\n", dotpath.String(toSegments(segs)), value)
}

func (dumpVisitor) BeforeArrayOfObjects(path []string, key string) visitor.Decision {
	return visitor.Include
}
