package dsn

import (
	"reflect"
	"testing"
)

func TestParseEmpty(t *testing.T) {
	if got := Parse(""); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestParseBasic(t *testing.T) {
	got := Parse("host=127.0.0.1 dbname=mydb user=jake")
	want := map[string]string{"host": "127.0.0.1", "dbname": "mydb", "user": "jake"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseQuotedValueWithSpaces(t *testing.T) {
	got := Parse("keyword1=val1 keyword2='val2 with space' keyword3 = val3")
	want := map[string]string{"keyword1": "val1", "keyword2": "val2 with space", "keyword3": "val3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseWhitespaceAroundEquals(t *testing.T) {
	got := Parse("host = localhost  port= 5432")
	want := map[string]string{"host": "localhost", "port": "5432"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
