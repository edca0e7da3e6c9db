package checksum

import (
	"strings"
	"testing"
)

func TestGetDeterministic(t *testing.T) {
	a := Get("\\v 1 In the beginning.")
	b := Get("\\v 1 In the beginning.")
	if a != b {
		t.Errorf("Get not deterministic: %q vs %q", a, b)
	}
	if a == Get("\\v 1 In the beginning") {
		t.Error("different data produced the same checksum")
	}
}

func TestVerify(t *testing.T) {
	data := "\\v 1 Ἐν ἀρχῇ"
	if !Verify(data, Get(data)) {
		t.Error("Verify rejected a valid checksum")
	}
	if Verify(data, Get(data+"x")) {
		t.Error("Verify accepted a wrong checksum")
	}
}

func TestSendReceive(t *testing.T) {
	data := "line one\nline two"
	framed := Send(data, true)
	if !strings.HasPrefix(framed, Get(data)+"\n1\n") {
		t.Errorf("unexpected framing: %q", framed)
	}
	got, readwrite, ok := Receive(framed)
	if !ok {
		t.Fatal("Receive rejected a valid frame")
	}
	if got != data || !readwrite {
		t.Errorf("Receive = %q, %v; want %q, true", got, readwrite, data)
	}
}

func TestReceiveRejectsTamperedData(t *testing.T) {
	framed := Send("original", false)
	if _, _, ok := Receive(framed + "tampered"); ok {
		t.Error("Receive accepted tampered data")
	}
}
