// Package ipfixfilter compiles a small boolean filter expression language
// for selecting IPFIX (NetFlow) records and evaluates compiled filters
// against host-supplied records.
//
// A filter answers one question per record: does this record match? The
// language supports typed literals (numbers with unit suffixes, strings,
// datetimes, IPv4/IPv6 prefixes, MAC addresses), list membership with
// longest-prefix IP matching, operator overloading resolved at compile
// time through an extensible operation table, and multi-valued fields: a
// field such as "ip" may yield several values per record, and the filter
// matches if any combination of values satisfies the predicate.
//
// The host supplies records through three callbacks bundled in Options:
// Lookup maps identifier names to ids and types, Const resolves
// compile-time constants, and Data fetches (and iterates) field values
// against an opaque record pointer. Compilation latches the first error
// with a byte-offset span into the expression text, suitable for caret
// printing:
//
//	opts := ipfixfilter.DefaultOptions()
//	opts.Lookup, opts.Const, opts.Data = host.Lookup, host.Const, host.Data
//	f, err := ipfixfilter.Compile(`src ip 192.168.1.0/24 and dst port 80`, opts)
//	if err != nil {
//		log.Fatal(err)
//	}
//	matched := f.Evaluate(record)
//
// A compiled filter is single-threaded: evaluation mutates value slots in
// the compiled tree. Use one Filter per goroutine, or compile one per
// worker; compilation is cheap relative to record streams.
package ipfixfilter
