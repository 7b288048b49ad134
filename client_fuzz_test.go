package ftp

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"
)

func FuzzReadResponse(f *testing.F) {
	f.Add("220 Welcome\r\n")
	f.Add("220-Welcome\r\n220-more\r\n220 Ready\r\n")
	f.Add("211-Features:\r\n SIZE\r\n211 End\r\n")
	f.Add("200\r\n")
	f.Add("abc\r\n")

	f.Fuzz(func(t *testing.T, s string) {
		resp, err := readResponse(bufio.NewReader(strings.NewReader(s)))
		if err != nil {
			return
		}
		if resp.Code < 100 || resp.Code > 599 {
			t.Errorf("readResponse(%q) accepted code %d", s, resp.Code)
		}
		if len(resp.Lines) == 0 {
			t.Errorf("readResponse(%q) returned no lines", s)
		}
	})
}

func FuzzParsePASV(f *testing.F) {
	f.Add("227 Entering Passive Mode (127,0,0,1,4,1)")
	f.Add("227 Entering Passive Mode (0,0,0,0,195,149)")
	f.Add("227 =127,0,0,1,4,1")
	f.Add("227 ()")

	f.Fuzz(func(t *testing.T, s string) {
		addr, err := parsePASV(s)
		if err != nil {
			return
		}
		if _, port, err := net.SplitHostPort(addr); err != nil {
			t.Errorf("parsePASV(%q) = %q, not host:port: %v", s, addr, err)
		} else if _, err := strconv.Atoi(port); err != nil {
			t.Errorf("parsePASV(%q) = %q, non-numeric port", s, addr)
		}
	})
}
