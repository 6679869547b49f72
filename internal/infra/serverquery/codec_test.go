package serverquery

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"quit", nil, "quit\n\r"},
		{"use", []string{"1"}, "use 1\n\r"},
		{"login", []string{"serveradmin", "pa ss|w/d"}, "login serveradmin pa\\sss\\pw\\/d\n\r"},
		{"servernotifyregister", []string{"event=server"}, "servernotifyregister event=server\n\r"},
		{"login", []string{"u", "line\n\rbreak"}, "login u line\\n\\rbreak\n\r"},
	}

	for _, tt := range tests {
		result := string(EncodeCommand(tt.name, tt.args...))
		if result != tt.expected {
			t.Errorf("EncodeCommand(%q, %q) = %q, want %q", tt.name, tt.args, result, tt.expected)
		}
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{"", "plain", "with space", "a|b", `back\slash`, "tab\tnew\nline", "slash/es"}
	for _, in := range inputs {
		out, err := Unescape(Escape(in))
		if err != nil {
			t.Fatalf("Unescape(Escape(%q)) error: %v", in, err)
		}
		if out != in {
			t.Errorf("Unescape(Escape(%q)) = %q", in, out)
		}
	}
}

func TestUnescape_Malformed(t *testing.T) {
	for _, in := range []string{`trailing\`, `bad\x`, `\q`} {
		_, err := Unescape(in)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("Unescape(%q) error = %v, want DecodeError", in, err)
		}
	}
}

func TestDecodeStatus_Success(t *testing.T) {
	status, err := DecodeStatus("error id=0 msg=ok\n\r")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !status.OK() || status.Message != "ok" {
		t.Errorf("Expected ok status, got %+v", status)
	}
	if status.Err() != nil {
		t.Errorf("Expected nil Err(), got %v", status.Err())
	}
}

func TestDecodeStatus_FailureMessageIsUnescaped(t *testing.T) {
	tests := []struct {
		text    string
		code    int
		message string
	}{
		{"error id=1024 msg=invalid\\sserverID\n\r", 1024, "invalid serverID"},
		{"error id=520 msg=invalid\\sloginname\\sor\\spassword\n\r", 520, "invalid loginname or password"},
		{"error id=2568 msg=insufficient\\sclient\\spermissions failed_permid=4\n\r", 2568, "insufficient client permissions"},
		{"error id=3329 msg=a\\pb\\/c\n\r", 3329, "a|b/c"},
	}

	for _, tt := range tests {
		status, err := DecodeStatus(tt.text)
		if err != nil {
			t.Fatalf("DecodeStatus(%q) error: %v", tt.text, err)
		}
		var qe *QueryError
		if !errors.As(status.Err(), &qe) {
			t.Fatalf("Expected QueryError for %q, got %v", tt.text, status.Err())
		}
		if qe.Code != tt.code || qe.Message != tt.message {
			t.Errorf("Got %d %q, want %d %q", qe.Code, qe.Message, tt.code, tt.message)
		}
	}
}

func TestDecodeStatus_NoStatusLine(t *testing.T) {
	_, err := DecodeStatus("clid=1 cid=1\n\r")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
}

func TestDecodeStatus_MalformedID(t *testing.T) {
	_, err := DecodeStatus("error id=abc msg=ok\n\r")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
}

func TestDecodeRecords_RoundTrip(t *testing.T) {
	want := []Client{
		{ClientID: 1, ChannelID: 2, DatabaseID: 3, Type: 0, Nickname: "Foo Bar"},
		{ClientID: 8, ChannelID: 1, DatabaseID: 1, Type: 1, Nickname: "serveradmin"},
	}

	var line string
	for i, c := range want {
		if i > 0 {
			line += RecordSeparator
		}
		line += "clid=" + itoa(c.ClientID) + " cid=" + itoa(c.ChannelID) +
			" client_database_id=" + itoa(c.DatabaseID) +
			" client_nickname=" + Escape(c.Nickname) +
			" client_type=" + itoa(c.Type) +
			" client_unique_identifier=ignored"
	}
	text := line + Terminator + "error id=0 msg=ok" + Terminator

	got, found, err := DecodeRecords[Client](text)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !found {
		t.Fatal("Expected records to be found")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Got %+v, want %+v", got, want)
	}
}

func TestDecodeRecords_NoResultLine(t *testing.T) {
	got, found, err := DecodeRecords[Client]("error id=0 msg=ok\n\r")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if found || got != nil {
		t.Errorf("Expected no records, got found=%v records=%v", found, got)
	}
}

func TestDecodeRecords_BlankResultLine(t *testing.T) {
	got, found, err := DecodeRecords[Client]("\n\rerror id=0 msg=ok\n\r")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !found || len(got) != 0 {
		t.Errorf("Expected found empty result, got found=%v records=%v", found, got)
	}
}

func TestDecodeRecords_FailureHidesRecords(t *testing.T) {
	text := "clid=1 cid=1 client_database_id=1 client_nickname=x client_type=0\n\rerror id=1281 msg=database\\sempty\\sresult\\sset\n\r"
	got, found, err := DecodeRecords[Client](text)
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Expected QueryError, got %v", err)
	}
	if qe.Message != "database empty result set" {
		t.Errorf("Unexpected message %q", qe.Message)
	}
	if found || got != nil {
		t.Error("Expected no records on failure")
	}
}

func TestDecodeRecords_SkipsInterleavedEvents(t *testing.T) {
	text := "notifyclientleftview cfid=1 ctid=0 clid=4\n\r" +
		"clid=2 cid=1 client_database_id=5 client_nickname=Bob client_type=0\n\r" +
		"error id=0 msg=ok\n\r"
	got, found, err := DecodeRecords[Client](text)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !found || len(got) != 1 || got[0].Nickname != "Bob" {
		t.Errorf("Unexpected result found=%v records=%+v", found, got)
	}
}

func TestDecodeRecords_MissingField(t *testing.T) {
	text := "clid=2 cid=1 client_nickname=Bob\n\rerror id=0 msg=ok\n\r"
	_, _, err := DecodeRecords[Client](text)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
}

func TestUnmarshal_OptionalAndFlags(t *testing.T) {
	var v struct {
		ID     int64  `query:"clid"`
		Reason string `query:"reasonmsg,optional"`
		Away   bool   `query:"client_away,optional"`
	}
	if err := Unmarshal("notifyclientleftview clid=7 client_away=1", &v); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.ID != 7 || v.Reason != "" || !v.Away {
		t.Errorf("Unexpected result %+v", v)
	}
}

func TestUnmarshal_RejectsNonPointer(t *testing.T) {
	var c Client
	if err := Unmarshal("clid=1", c); err == nil {
		t.Error("Expected error for non-pointer target")
	}
}

func TestLines(t *testing.T) {
	got := Lines("a=1\n\rb=2\n\rerror id=0 msg=ok\n\r")
	want := []string{"a=1", "b=2", "error id=0 msg=ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lines = %q, want %q", got, want)
	}
}

func TestFrameComplete(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"error id=0 msg=ok\n\r", true},
		{"clid=1\n\rerror id=0 msg=ok", false},
		{"notifycliententerview clid=1\n\r", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := frameComplete(tt.text); got != tt.expected {
			t.Errorf("frameComplete(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestResponseComplete(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"error id=0 msg=ok\n\r", true},
		{"notifyclientleftview clid=1\n\rerror id=0 msg=ok\n\r", true},
		{"error id=", false},
		{"notifyclientleftview clid=1\n\rerror id=0 msg=o", false},
		{"virtualserver_id=1\n\r", false},
	}

	for _, tt := range tests {
		if got := responseComplete(tt.text); got != tt.expected {
			t.Errorf("responseComplete(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}
}
