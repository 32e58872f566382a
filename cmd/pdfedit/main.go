// Command pdfedit applies structural edits to a PDF from the command
// line: rotate, delete, reorder, merge, extract, then export.
// Page numbers refer to the document state at the point the operation
// runs; operations apply in the order rotate, delete, reorder, merge.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wudi/pdfedit/export"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/session"
)

type options struct {
	pdfPath  string
	outPath  string
	rotate   map[int]int
	deletes  []int
	reorder  []int
	merge    []string
	extract  int
	original bool
	owner    string
	user     string
	verbose  bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfedit: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdfedit: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdfedit [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	rotate := flag.String("rotate", "", "Rotate pages, e.g. 2:90,5:-90")
	deletes := flag.String("delete", "", "Delete pages, e.g. 2,4")
	reorder := flag.String("reorder", "", "Permute pages, e.g. 3,1,2")
	merge := flag.String("merge", "", "Append documents, comma-separated paths")
	extract := flag.Int("extract", 0, "Extract a single page instead of exporting")
	original := flag.Bool("original", false, "Export without structural rewrite when untouched")
	out := flag.String("o", "out.pdf", "Output path")
	owner := flag.String("owner", "", "Owner password for the output")
	user := flag.String("user", "", "User password for the output")
	verbose := flag.Bool("v", false, "Log operations to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return opts, fmt.Errorf("expected exactly one input PDF, got %d", flag.NArg())
	}
	opts.pdfPath = flag.Arg(0)
	opts.outPath = *out
	opts.extract = *extract
	opts.original = *original
	opts.owner = *owner
	opts.user = *user
	opts.verbose = *verbose

	var err error
	if opts.rotate, err = parseRotations(*rotate); err != nil {
		return opts, err
	}
	if opts.deletes, err = parseInts(*deletes); err != nil {
		return opts, fmt.Errorf("-delete: %w", err)
	}
	if opts.reorder, err = parseInts(*reorder); err != nil {
		return opts, fmt.Errorf("-reorder: %w", err)
	}
	if *merge != "" {
		opts.merge = strings.Split(*merge, ",")
	}
	return opts, nil
}

func parseRotations(s string) (map[int]int, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[int]int)
	for _, part := range strings.Split(s, ",") {
		page, deg, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("-rotate: %q is not page:degrees", part)
		}
		p, err := strconv.Atoi(page)
		if err != nil {
			return nil, fmt.Errorf("-rotate: page %q: %w", page, err)
		}
		d, err := strconv.Atoi(deg)
		if err != nil {
			return nil, fmt.Errorf("-rotate: degrees %q: %w", deg, err)
		}
		out[p] = d
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", part, err)
		}
		out[i] = n
	}
	return out, nil
}

func run(opts options) error {
	ctx := context.Background()

	var sessOpts []session.Option
	if opts.verbose {
		sessOpts = append(sessOpts, session.WithLogger(observability.NewZerolog(os.Stderr)))
	}
	s := session.New(sessOpts...)
	defer s.Close()

	data, err := os.ReadFile(opts.pdfPath)
	if err != nil {
		return err
	}
	if err := s.Load(ctx, data); err != nil {
		return err
	}

	for page, deg := range opts.rotate {
		if err := s.RotatePage(page, deg); err != nil {
			return fmt.Errorf("rotate page %d: %w", page, err)
		}
	}
	// Descending order keeps the remaining numbers stable while
	// deleting.
	sort.Sort(sort.Reverse(sort.IntSlice(opts.deletes)))
	for _, page := range opts.deletes {
		if err := s.DeletePage(page); err != nil {
			return fmt.Errorf("delete page %d: %w", page, err)
		}
	}
	if len(opts.reorder) > 0 {
		if err := s.ReorderPages(opts.reorder); err != nil {
			return fmt.Errorf("reorder: %w", err)
		}
	}
	if len(opts.merge) > 0 {
		buffers := make([][]byte, len(opts.merge))
		for i, path := range opts.merge {
			if buffers[i], err = os.ReadFile(path); err != nil {
				return err
			}
		}
		if err := s.MergeDocuments(ctx, buffers); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
	}

	var out []byte
	switch {
	case opts.extract > 0:
		out, err = s.ExtractPage(ctx, opts.extract)
	case opts.original:
		out, err = s.ExportOriginal(ctx)
	default:
		out, err = s.ExportWithAnnotations(ctx, export.Options{
			OwnerPassword: opts.owner,
			UserPassword:  opts.user,
		})
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.outPath, out, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d pages, %d bytes)\n", opts.outPath, s.PageCount(), len(out))
	return nil
}
