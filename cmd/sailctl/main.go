// Command sailctl is a small diagnostic CLI over the sail package: list the
// codecs a built registry discovered, and probe a file's format and
// dimensions without decoding it. It is not part of the library's public
// contract; it exercises Open/Probe/Read the way the teacher's
// examples/main.go exercises imageprocessor end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sail-img/sail"
	"github.com/sail-img/sail/config"
	"github.com/sail-img/sail/obslog"
	"github.com/sail-img/sail/session"
)

func main() {
	listOnly := flag.Bool("list", false, "list discovered codecs and exit")
	codecHint := flag.String("codec", "", "force a specific codec by file extension (e.g. jpg) instead of sniffing magic bytes")
	decode := flag.Bool("decode", false, "decode the first frame instead of just probing its header")
	flag.Parse()

	logger := obslog.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cfg := config.Default()

	inst, err := sail.Open(cfg)
	if err != nil {
		fatalf(logger, "open: %v", err)
	}
	inst.Logger = logger
	inst.Metrics = obslog.NewInMemoryMetrics()

	if *listOnly {
		listCodecs(inst)
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: sailctl [-list] [-codec EXT] [-decode] <path>")
		os.Exit(2)
	}
	path := args[0]
	ctx := context.Background()

	if *decode {
		img, err := inst.Read(ctx, session.Source{Path: path}, *codecHint)
		if err != nil {
			fatalf(logger, "read %s: %v", path, err)
		}
		fmt.Printf("%s: %dx%d %s (%d bytes of pixel data)\n",
			path, img.Width, img.Height, img.PixelFormat, len(img.Pixels))
		return
	}

	header, rec, err := inst.Probe(ctx, session.Source{Path: path})
	if err != nil {
		fatalf(logger, "probe %s: %v", path, err)
	}
	fmt.Printf("%s: codec=%s %dx%d %s pages=%d\n",
		path, rec.Description, header.Width, header.Height, header.PixelFormat, header.PagesTotal)
}

func listCodecs(inst *sail.Instance) {
	for _, rec := range inst.Registry.List() {
		fmt.Printf("%-10s v%-8s ext=%-20s mime=%v\n",
			rec.Description, rec.Version, joinOrDash(rec.Extensions), rec.MimeTypes)
	}
}

func joinOrDash(ss []string) string {
	if len(ss) == 0 {
		return "-"
	}
	out := ss[0]
	for _, s := range ss[1:] {
		out += "," + s
	}
	return out
}

func fatalf(logger obslog.Logger, format string, args ...any) {
	logger.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
