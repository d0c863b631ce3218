// Package demohost is a self-contained host adapter binding the filter
// language to an in-memory flow record, used by the command-line tool and
// the end-to-end tests. It implements the three host callbacks over a
// fixed field registry: qualified names ("src ip", "dst port") address one
// direction, unqualified names ("ip", "port", "mac") are multi-valued and
// yield both directions, driving the any-quantifier iteration.
package demohost

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"

	"github.com/cesnet/go-ipfix-filter/internal/callback"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

// Record is a decoded flow record, the evaluation subject handed to
// Filter.Evaluate as the opaque record pointer.
type Record struct {
	SrcIP    netip.Addr
	DstIP    netip.Addr
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
	TCPFlags uint8
	Bytes    uint64
	Packets  uint64
	AppName  string
	SrcMAC   [6]byte
	DstMAC   [6]byte
}

type fieldDef struct {
	id   uuid.UUID
	typ  value.Type
	vals func(r *Record) []value.Value
}

// Host is the adapter instance. Each looked-up field gets a stable opaque
// id for its lifetime, so several filters compiled against one Host agree
// on ids. Not safe for concurrent use: the per-field iteration positions
// below are mutated during evaluation.
type Host struct {
	fields    map[string]*fieldDef
	byID      map[uuid.UUID]*fieldDef
	constByID map[uuid.UUID]value.Value
	consts    map[string]uuid.UUID
	pos       map[uuid.UUID]int
}

// New returns a Host with the standard field and constant registry.
func New() *Host {
	h := &Host{
		fields:    map[string]*fieldDef{},
		byID:      map[uuid.UUID]*fieldDef{},
		constByID: map[uuid.UUID]value.Value{},
		consts:    map[string]uuid.UUID{},
		pos:       map[uuid.UUID]int{},
	}
	h.registerFields()
	h.registerConsts()
	return h
}

func ipVal(a netip.Addr) (value.Value, bool) {
	if !a.IsValid() {
		return value.Value{}, false
	}
	return value.IPValue(netip.PrefixFrom(a, a.BitLen())), true
}

func collectIPs(addrs ...netip.Addr) []value.Value {
	var out []value.Value
	for _, a := range addrs {
		if v, ok := ipVal(a); ok {
			out = append(out, v)
		}
	}
	return out
}

// register adds one field under every given name, so directional aliases
// ("in ip", "ingress ip") share the source field's id and values.
func (h *Host) register(typ value.Type, vals func(r *Record) []value.Value, names ...string) {
	f := &fieldDef{id: uuid.New(), typ: typ, vals: vals}
	for _, n := range names {
		h.fields[n] = f
	}
	h.byID[f.id] = f
}

func (h *Host) registerFields() {
	h.register(value.IP, func(r *Record) []value.Value {
		return collectIPs(r.SrcIP)
	}, "src ip", "in ip", "ingress ip")
	h.register(value.IP, func(r *Record) []value.Value {
		return collectIPs(r.DstIP)
	}, "dst ip", "out ip", "egress ip")
	h.register(value.IP, func(r *Record) []value.Value {
		return collectIPs(r.SrcIP, r.DstIP)
	}, "ip")

	h.register(value.Uint, func(r *Record) []value.Value {
		return []value.Value{value.UintValue(uint64(r.SrcPort))}
	}, "src port", "in port", "ingress port")
	h.register(value.Uint, func(r *Record) []value.Value {
		return []value.Value{value.UintValue(uint64(r.DstPort))}
	}, "dst port", "out port", "egress port")
	h.register(value.Uint, func(r *Record) []value.Value {
		return []value.Value{value.UintValue(uint64(r.SrcPort)), value.UintValue(uint64(r.DstPort))}
	}, "port")

	h.register(value.MAC, func(r *Record) []value.Value {
		return []value.Value{{Type: value.MAC, MAC: r.SrcMAC}}
	}, "src mac")
	h.register(value.MAC, func(r *Record) []value.Value {
		return []value.Value{{Type: value.MAC, MAC: r.DstMAC}}
	}, "dst mac")
	h.register(value.MAC, func(r *Record) []value.Value {
		return []value.Value{{Type: value.MAC, MAC: r.SrcMAC}, {Type: value.MAC, MAC: r.DstMAC}}
	}, "mac")

	h.register(value.Uint, func(r *Record) []value.Value {
		return []value.Value{value.UintValue(uint64(r.Protocol))}
	}, "protocol", "proto")
	h.register(value.Flags, func(r *Record) []value.Value {
		return []value.Value{value.FlagsValue(uint64(r.TCPFlags))}
	}, "tcpflags", "flags")
	h.register(value.Uint, func(r *Record) []value.Value {
		return []value.Value{value.UintValue(r.Bytes)}
	}, "bytes", "octets")
	h.register(value.Uint, func(r *Record) []value.Value {
		return []value.Value{value.UintValue(r.Packets)}
	}, "packets")
	h.register(value.Str, func(r *Record) []value.Value {
		return []value.Value{value.StrValue(r.AppName)}
	}, "name", "appname")
}

func (h *Host) registerConsts() {
	add := func(name string, v value.Value) {
		id := uuid.New()
		h.consts[name] = id
		h.constByID[id] = v
	}
	add("ICMP", value.UintValue(1))
	add("TCP", value.UintValue(6))
	add("UDP", value.UintValue(17))

	add("FIN", value.FlagsValue(0x01))
	add("SYN", value.FlagsValue(0x02))
	add("RST", value.FlagsValue(0x04))
	add("PSH", value.FlagsValue(0x08))
	add("ACK", value.FlagsValue(0x10))
	add("URG", value.FlagsValue(0x20))
}

// Lookup implements the identifier lookup callback.
func (h *Host) Lookup(_ interface{}, name string, _ *string) (interface{}, value.Type, callback.LookupFlag, bool) {
	if f, ok := h.fields[name]; ok {
		return f.id, f.typ, callback.FlagNone, true
	}
	if id, ok := h.consts[name]; ok {
		return id, h.constByID[id].Type, callback.FlagConst, true
	}
	return nil, value.None, callback.FlagNone, false
}

// Const implements the constant resolution callback.
func (h *Host) Const(_ interface{}, id interface{}) (value.Value, error) {
	uid, ok := id.(uuid.UUID)
	if !ok {
		return value.Value{}, fmt.Errorf("unknown constant id %v", id)
	}
	v, ok := h.constByID[uid]
	if !ok {
		return value.Value{}, fmt.Errorf("unknown constant id %v", uid)
	}
	return v, nil
}

// Data implements the per-record data callback with reset/advance
// iteration over multi-valued fields.
func (h *Host) Data(_ interface{}, reset bool, id interface{}, record interface{}, out *value.Value) (callback.Outcome, error) {
	uid, ok := id.(uuid.UUID)
	if !ok {
		return callback.NotFound, fmt.Errorf("unknown field id %v", id)
	}
	f, ok := h.byID[uid]
	if !ok {
		return callback.NotFound, fmt.Errorf("unknown field id %v", uid)
	}
	rec, ok := record.(*Record)
	if !ok {
		return callback.NotFound, fmt.Errorf("record has type %T, want *Record", record)
	}

	vals := f.vals(rec)
	i := 0
	if !reset {
		i = h.pos[uid] + 1
	}
	h.pos[uid] = i
	if i >= len(vals) {
		*out = value.Zero(f.typ)
		return callback.NotFound, nil
	}
	*out = vals[i]
	if i == len(vals)-1 {
		return callback.OK, nil
	}
	return callback.OKMore, nil
}
