package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/vsrinivas/fuchsia-sub355/coding"
	"github.com/vsrinivas/fuchsia-sub355/transport"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to a raw message file (header + body)")
		hexInput    = flag.Bool("hex", false, "Treat the input file as hex text")
		scan        = flag.Bool("scan", false, "Walk the body as a chain of envelopes")
		noHeader    = flag.Bool("no-header", false, "Input is a bare body with no message header")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			transport.SetLogger(logger)
		}
	}

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wiredump -in <msg.bin> [-hex] [-scan] [-no-header]")
		fmt.Fprintln(os.Stderr, "       wiredump -in <msg.bin> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*inFile, *hexInput, *noHeader); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*inFile, *hexInput, *scan, *noHeader); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inFile string, hexInput, scan, noHeader bool) error {
	wire, err := loadMessage(inFile, hexInput)
	if err != nil {
		return err
	}

	body := wire
	if !noHeader {
		var hdr transport.MessageHeader
		if herr := hdr.Unmarshal(wire); herr != nil {
			return herr
		}
		body = wire[transport.HeaderSize:]

		fmt.Printf("Message: %s (%d bytes)\n", inFile, len(wire))
		fmt.Printf("  txid:    0x%08x\n", hdr.Txid)
		fmt.Printf("  flags:   %02x %02x %02x\n", hdr.Flags[0], hdr.Flags[1], hdr.Flags[2])
		fmt.Printf("  magic:   0x%02x\n", hdr.Magic)
		fmt.Printf("  ordinal: 0x%016x\n", hdr.Ordinal)
	} else {
		fmt.Printf("Body: %s (%d bytes, no header)\n", inFile, len(wire))
	}

	fmt.Printf("\nBody (%d bytes):\n%s", len(body), hex.Dump(body))

	if scan {
		fmt.Println("\nEnvelope scan:")
		fmt.Print(scanEnvelopes(body))
	}
	return nil
}

func loadMessage(path string, hexInput bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !hexInput {
		return data, nil
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, string(data))
	wire, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return wire, nil
}

// scanEnvelopes drives the decode engine over the body as a chain of
// envelopes, the shape a table or union payload would have, reporting
// each header it can make sense of.
func scanEnvelopes(body []byte) string {
	var b strings.Builder

	var walk coding.DecodeFunc[coding.Bounded]
	walk = func(d *coding.Decoder, pos coding.Position, depth coding.Depth[coding.Bounded]) {
		env, ok := d.DecodeEnvelopeHeader(pos, 0)
		if !ok {
			return
		}
		at := d.BytesConsumed() - coding.EnvelopeSize
		if env.IsInline() {
			payload := coding.InlinePayload(pos, 0)
			fmt.Fprintf(&b, "  [%4d] inline envelope, %d handles, payload %08x\n",
				at, env.NumHandles, payload.Uint32(0))
			d.CloseNextNHandles(uint32(env.NumHandles))
			return
		}
		fmt.Fprintf(&b, "  [%4d] out-of-line envelope, %d bytes, %d handles\n",
			at, env.NumBytes, env.NumHandles)
		d.CloseNextNHandles(uint32(env.NumHandles))
		if env.NumBytes == 0 {
			return
		}
		next := depth.Add(d, 1)
		if !next.IsValid() {
			return
		}
		child := d.Alloc(env.NumBytes)
		if !child.IsValid() {
			return
		}
		walk(d, child, next)
	}

	res := coding.WireDecode[coding.Bounded](nil, walk, coding.EnvelopeSize, body, nil, nil)
	if res.Err != nil {
		fmt.Fprintf(&b, "  scan stopped: %v\n", res.Err)
	} else {
		fmt.Fprintf(&b, "  consumed %d bytes exactly\n", res.BytesConsumed)
	}
	return b.String()
}
