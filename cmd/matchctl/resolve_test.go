package main

import (
	"strings"
	"testing"
)

func TestReadMatchLines(t *testing.T) {
	in := strings.NewReader(`# weekend coupon
Galatasaray vs Fenerbahçe 1.85 3.40 4.10

Göztepe - Samsunspor yok
`)
	reqs, err := readMatchLines(in, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests", len(reqs))
	}
	if reqs[0].Home != "Galatasaray" || reqs[0].Away != "Fenerbahçe" || !reqs[0].NightRollback {
		t.Errorf("first = %+v", reqs[0])
	}
	if reqs[1].Home != "Göztepe" || reqs[1].Away != "Samsunspor" {
		t.Errorf("second = %+v", reqs[1])
	}
}

func TestReadMatchLinesReportsLine(t *testing.T) {
	_, err := readMatchLines(strings.NewReader("A vs B\nno separator here\n"), false)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v", err)
	}
}
