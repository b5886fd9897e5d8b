package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/ift"
	"github.com/npillmayer/ift/iftmap"
	"github.com/npillmayer/ift/iftseg"
	"github.com/npillmayer/ift/iftshape"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'font.ift'
func tracer() tracing.Trace {
	return tracing.Select("font.ift")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.font.ift":         "Info",
		"trace.font.ift.segment": "Info",
		"trace.font.ift.shape":   "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the IFT table CLI")
	//
	// set up REPL
	repl, err := readline.New("ift > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl}
	//
	// load font to use
	if *fontname != "" {
		if err := intp.loadFont(*fontname); err != nil {
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D")
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	repl         *readline.Instance
	font         *ift.SourceFont
	face         *iftshape.FaceClosure
	segmentation *iftseg.GlyphSegmentation
}

func (intp *Intp) loadFont(name string) error {
	font, err := ift.LoadFont(name)
	if err != nil {
		return err
	}
	face, err := iftshape.ParseFace(font.Binary)
	if err != nil {
		return err
	}
	intp.font = font
	intp.face = face
	pterm.Info.Printf("loaded font %s with %d glyphs\n", font.Fontname, font.NumGlyphs())
	return nil
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if err := intp.execute(line); err != nil {
			pterm.Error.Println(err.Error())
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) execute(line string) error {
	args := strings.Fields(line)
	switch args[0] {
	case "help":
		help()
	case "load":
		if len(args) != 2 {
			return fmt.Errorf("usage: load <fontfile>")
		}
		return intp.loadFont(args[1])
	case "font":
		return intp.printFontInfo()
	case "segment":
		return intp.segment(args[1:])
	case "map":
		return intp.encodeMap(args[1:])
	case "dump":
		if len(args) != 2 {
			return fmt.Errorf("usage: dump <tablefile>")
		}
		return dumpTableFile(args[1])
	default:
		return fmt.Errorf("unknown command '%s'; try help", args[0])
	}
	return nil
}

// segment computes a glyph segmentation: every argument is one codepoint
// segment, given as comma-separated hex codepoints (e.g. "66,69 6C").
func (intp *Intp) segment(args []string) error {
	if intp.face == nil {
		return fmt.Errorf("no font loaded; use load <fontfile>")
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: segment <cp,cp,...> <cp,...> ...")
	}
	segments := make([]iftmap.CodepointSet, 0, len(args))
	for _, arg := range args {
		set := iftmap.NewCodepointSet()
		for _, field := range strings.Split(arg, ",") {
			cp, err := strconv.ParseUint(field, 16, 32)
			if err != nil {
				return fmt.Errorf("not a hex codepoint: %s", field)
			}
			set.Add(uint32(cp))
		}
		segments = append(segments, set)
	}
	gs, err := iftseg.ComputeSegmentation(intp.face, nil, segments, iftseg.DefaultOptions())
	if err != nil {
		return err
	}
	intp.segmentation = gs
	printSegmentation(gs)
	return nil
}

// encodeMap translates the current segmentation into a format 2 patch map
// and prints the encoded table.
func (intp *Intp) encodeMap(args []string) error {
	if intp.segmentation == nil {
		return fmt.Errorf("no segmentation yet; use segment first")
	}
	uriTemplate := "patch/{id}"
	if len(args) > 0 {
		uriTemplate = args[0]
	}
	pm, err := iftseg.PatchMapFromSegmentation(intp.segmentation, iftmap.EncodingSharedBrotli)
	if err != nil {
		return err
	}
	encoded, err := iftmap.Encode(pm, false, uriTemplate)
	if err != nil {
		return err
	}
	printPatchMap(pm, uriTemplate)
	pterm.Printf("encoded table: %d bytes\n%s\n", len(encoded), hexdump(encoded))
	return nil
}

func dumpTableFile(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	pm, uriTemplate, err := iftmap.Parse(data)
	if err != nil {
		return err
	}
	printPatchMap(pm, uriTemplate)
	return nil
}
