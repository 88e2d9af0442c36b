// Command swiftlog-decoder converts a binary swiftlog file (raw or
// compressed) back into text, the way its producer's own TextFileAppender
// would have rendered it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/swiftlog/swiftlog/cryptoenv"
	"github.com/swiftlog/swiftlog/decoder"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/layout"
	"github.com/swiftlog/swiftlog/tzone"
)

func main() {
	privKeyPath := flag.String("private-key", "", "PEM-encoded RSA private key, required to decode encrypted segments")
	zoneStr := flag.String("tz", "UTC", "time zone for rendered timestamps")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(-int(decoder.ResultInvalidHandle))
	}

	inputPath := args[0]

	out := os.Stdout
	if len(args) >= 2 {
		f, err := os.Create(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(-int(decoder.ResultIOError))
		}
		defer f.Close()
		out = f
	}

	var envelope *cryptoenv.Envelope
	if *privKeyPath != "" {
		priv, err := cryptoenv.LoadPrivateKeyPEM(*privKeyPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(-int(decoder.ResultInvalid))
		}
		envelope = &cryptoenv.Envelope{Priv: priv}
	}

	zone, err := tzone.Parse(*zoneStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-int(decoder.ResultInvalid))
	}

	engine := endian.GetLittleEndianEngine()
	dec := decoder.New(engine, envelope)

	entries, err := dec.DecodeFile(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-int(decoder.ClassifyError(err)))
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	buf := pool.NewByteBuffer(pool.RenderBufferDefaultSize)
	for _, entry := range entries {
		buf.Reset()
		if err := layout.Render(buf, zone, entry.Record, entry.Category, engine); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(-int(decoder.ResultInvalid))
		}
		buf.MustWrite([]byte("\n"))
		w.Write(buf.Bytes())
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-private-key path] [-tz zone] <input> [<output>]\n", os.Args[0])
	flag.PrintDefaults()
}
