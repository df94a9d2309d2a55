package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ai-ereader-be/pkg/document"

	"github.com/fatih/color"
)

// inspect loads a parsed document payload and prints its assembled pages,
// which is the fastest way to eyeball what the reader will render for a
// title without running the full stack.
func main() {
	var (
		pageFlag    = flag.Int("page", -1, "print only this page (0-based)")
		markersFlag = flag.Bool("markers", false, "include page-index markers in output")
		assetsFlag  = flag.Bool("assets", false, "list embedded assets instead of pages")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <parsed-document.json>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error: reading payload: %v", err)
	}

	doc, err := document.ParseSource(data)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	heading := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)

	if *assetsFlag {
		heading.Printf("Assets (%d)\n", len(doc.Assets))
		for _, a := range doc.Assets {
			fmt.Printf("  %s  %s  %d bytes (base64)\n", a.Name, a.Mime, len(a.Data))
		}
		return
	}

	var opts []document.AssemblerOption
	if *markersFlag {
		opts = append(opts, document.WithPageMarkers())
	}
	pages := document.NewAssembler(opts...).Assemble(doc.Metadata)

	heading.Printf("Document: %d blocks, %d pages\n\n", len(doc.Metadata), len(pages))

	for idx, page := range pages {
		if *pageFlag >= 0 && idx != *pageFlag {
			continue
		}
		heading.Printf("── Page %d ", idx)
		dim.Println(strings.Repeat("─", 40))
		if page == "" {
			dim.Println("(empty)")
		} else {
			fmt.Println(page)
		}
		fmt.Println()
	}
}
