package demohost

import (
	"net/netip"
	"testing"

	"github.com/cesnet/go-ipfix-filter/internal/callback"
	"github.com/cesnet/go-ipfix-filter/internal/value"
)

func TestLookup(t *testing.T) {
	h := New()
	id, typ, flags, ok := h.Lookup(nil, "dst port", nil)
	if !ok || typ != value.Uint || flags != callback.FlagNone || id == nil {
		t.Errorf("dst port: got (%v, %s, %v, %v)", id, typ, flags, ok)
	}
	_, typ, flags, ok = h.Lookup(nil, "TCP", nil)
	if !ok || typ != value.Uint || flags != callback.FlagConst {
		t.Errorf("TCP: got (%s, %v, %v)", typ, flags, ok)
	}
	if _, _, _, ok := h.Lookup(nil, "nosuchfield", nil); ok {
		t.Error("unknown names must not resolve")
	}

	// Directional aliases share the canonical field's id.
	a, _, _, _ := h.Lookup(nil, "src ip", nil)
	b, _, _, _ := h.Lookup(nil, "ingress ip", nil)
	if a != b {
		t.Error("src ip and ingress ip should share an id")
	}
}

func TestConst(t *testing.T) {
	h := New()
	id, _, _, _ := h.Lookup(nil, "UDP", nil)
	v, err := h.Const(nil, id)
	if err != nil || v.Type != value.Uint || v.U != 17 {
		t.Errorf("UDP: got (%s, %v)", v, err)
	}
	if _, err := h.Const(nil, "bogus"); err == nil {
		t.Error("unknown const ids must error")
	}
}

func TestDataIteration(t *testing.T) {
	h := New()
	rec := &Record{
		SrcIP: netip.MustParseAddr("10.0.0.1"),
		DstIP: netip.MustParseAddr("10.0.0.2"),
	}
	id, _, _, _ := h.Lookup(nil, "ip", nil)

	var v value.Value
	out, err := h.Data(nil, true, id, rec, &v)
	if err != nil || out != callback.OKMore {
		t.Fatalf("first value: got (%v, %v), want OK_MORE", out, err)
	}
	if v.IP.Addr() != rec.SrcIP {
		t.Errorf("first value: got %s, want %s", v.IP.Addr(), rec.SrcIP)
	}

	out, err = h.Data(nil, false, id, rec, &v)
	if err != nil || out != callback.OK {
		t.Fatalf("second value: got (%v, %v), want OK", out, err)
	}
	if v.IP.Addr() != rec.DstIP {
		t.Errorf("second value: got %s, want %s", v.IP.Addr(), rec.DstIP)
	}

	// Reset rewinds to the first value.
	out, _ = h.Data(nil, true, id, rec, &v)
	if out != callback.OKMore || v.IP.Addr() != rec.SrcIP {
		t.Errorf("after reset: got (%v, %s)", out, v.IP.Addr())
	}
}

func TestDataAbsentField(t *testing.T) {
	h := New()
	id, _, _, _ := h.Lookup(nil, "ip", nil)
	var v value.Value
	out, err := h.Data(nil, true, id, &Record{}, &v)
	if err != nil || out != callback.NotFound {
		t.Fatalf("record without addresses: got (%v, %v), want NOT_FOUND", out, err)
	}
	if v.Type != value.IP {
		t.Errorf("absent field should still write a typed default, got %s", v.Type)
	}
}

func TestDataSingleValue(t *testing.T) {
	h := New()
	rec := &Record{DstPort: 80}
	id, _, _, _ := h.Lookup(nil, "dst port", nil)
	var v value.Value
	out, err := h.Data(nil, true, id, rec, &v)
	if err != nil || out != callback.OK || v.U != 80 {
		t.Errorf("got (%v, %v, %s)", out, err, v)
	}
}
