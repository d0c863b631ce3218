// Command ipfixfilter compiles a filter expression and evaluates it
// against a built-in set of sample flow records, printing each record and
// its verdict. It exists to exercise the library from the shell:
//
//	ipfixfilter 'src ip 192.168.1.0/24 and dst port 80'
//	ipfixfilter -q 'bytes > 1M'
//
// A compile error is reported with a caret marking the offending span.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/netip"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	ipfixfilter "github.com/cesnet/go-ipfix-filter"
	"github.com/cesnet/go-ipfix-filter/internal/demohost"
)

var (
	quiet = flag.Bool("q", false, "print only matching records")

	srcFlag   = flag.String("src", "", "evaluate one record: source address")
	dstFlag   = flag.String("dst", "", "evaluate one record: destination address")
	sportFlag = flag.Uint("sport", 0, "evaluate one record: source port")
	dportFlag = flag.Uint("dport", 0, "evaluate one record: destination port")
	protoFlag = flag.Uint("proto", 0, "evaluate one record: protocol number")
	bytesFlag = flag.Uint64("bytes", 0, "evaluate one record: octet count")
	appFlag   = flag.String("app", "", "evaluate one record: application name")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ipfixfilter: ")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ipfixfilter [-q] [record flags] EXPRESSION")
		flag.PrintDefaults()
		os.Exit(2)
	}
	expr := flag.Arg(0)

	host := demohost.New()
	opts := ipfixfilter.DefaultOptions()
	opts.Lookup = host.Lookup
	opts.Const = host.Const
	opts.Data = host.Data

	f, err := ipfixfilter.Compile(expr, opts)
	if err != nil {
		if ferr := f.Err(); ferr != nil {
			printCaret(expr, ferr)
		}
		log.Fatal(err)
	}

	records := sampleRecords()
	if rec, ok := flagRecord(); ok {
		records = []*demohost.Record{rec}
	}

	matched := 0
	for _, rec := range records {
		ok := f.Evaluate(rec)
		if ok {
			matched++
		}
		if *quiet && !ok {
			continue
		}
		verdict := "-"
		if ok {
			verdict = "MATCH"
		}
		fmt.Printf("%-5s %s\n", verdict, formatRecord(rec))
	}
	fmt.Printf("%d of %d records matched\n", matched, len(records))
}

// flagRecord builds a single record from the record flags; it reports
// false when none were given so the sample set is used instead.
func flagRecord() (*demohost.Record, bool) {
	if *srcFlag == "" && *dstFlag == "" && *sportFlag == 0 && *dportFlag == 0 &&
		*protoFlag == 0 && *bytesFlag == 0 && *appFlag == "" {
		return nil, false
	}
	rec := &demohost.Record{
		SrcPort:  uint16(*sportFlag),
		DstPort:  uint16(*dportFlag),
		Protocol: uint8(*protoFlag),
		Bytes:    *bytesFlag,
		AppName:  *appFlag,
	}
	if *srcFlag != "" {
		a, err := netip.ParseAddr(*srcFlag)
		if err != nil {
			log.Fatalf("bad -src: %v", err)
		}
		rec.SrcIP = a
	}
	if *dstFlag != "" {
		a, err := netip.ParseAddr(*dstFlag)
		if err != nil {
			log.Fatalf("bad -dst: %v", err)
		}
		rec.DstIP = a
	}
	return rec, true
}

func printCaret(expr string, e *ipfixfilter.Error) {
	fmt.Fprintln(os.Stderr, expr)
	width := e.Span.End - e.Span.Begin
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(os.Stderr, "%s%s\n", strings.Repeat(" ", e.Span.Begin), strings.Repeat("^", width))
}

func formatRecord(r *demohost.Record) string {
	return fmt.Sprintf("%s:%d -> %s:%d proto=%d bytes=%s app=%s",
		r.SrcIP, r.SrcPort, r.DstIP, r.DstPort, r.Protocol, humanize.IBytes(r.Bytes), r.AppName)
}

func sampleRecords() []*demohost.Record {
	return []*demohost.Record{
		{
			SrcIP:    netip.MustParseAddr("192.168.1.42"),
			DstIP:    netip.MustParseAddr("93.184.216.34"),
			SrcPort:  51234,
			DstPort:  80,
			Protocol: 6,
			TCPFlags: 0x12,
			Bytes:    2048,
			Packets:  6,
			AppName:  "http-proxy",
		},
		{
			SrcIP:    netip.MustParseAddr("10.0.0.1"),
			DstIP:    netip.MustParseAddr("10.0.0.254"),
			SrcPort:  53155,
			DstPort:  53,
			Protocol: 17,
			Bytes:    192,
			Packets:  2,
			AppName:  "dns",
		},
		{
			SrcIP:    netip.MustParseAddr("2001:db8:abcd::1"),
			DstIP:    netip.MustParseAddr("2001:db8::53"),
			SrcPort:  40001,
			DstPort:  443,
			Protocol: 6,
			TCPFlags: 0x18,
			Bytes:    1 << 20,
			Packets:  900,
			AppName:  "https",
		},
	}
}
