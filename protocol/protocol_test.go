package protocol

import (
	"strings"
	"testing"
)

func TestMethodURL(t *testing.T) {
	got := MethodURL("https://api.telegram.org/", "bot", "123:abc", "getMe")
	want := "https://api.telegram.org/bot123:abc/getMe"
	if got != want {
		t.Fatalf("MethodURL = %q, want %q", got, want)
	}

	// empty prefix gives {base}/{token}/{endpoint}
	got = MethodURL("http://127.0.0.1:8081", "", "123:abc", "sendMessage")
	want = "http://127.0.0.1:8081/123:abc/sendMessage"
	if got != want {
		t.Fatalf("MethodURL = %q, want %q", got, want)
	}
}

func TestFileURL(t *testing.T) {
	got := FileURL("https://api.telegram.org", "bot", "123:abc", "/photos/file_1.jpg")
	want := "https://api.telegram.org/file/bot123:abc/photos/file_1.jpg"
	if got != want {
		t.Fatalf("FileURL = %q, want %q", got, want)
	}
}

func TestSplitMethodPath(t *testing.T) {
	cases := []struct {
		path     string
		prefix   string
		token    string
		endpoint string
		ok       bool
	}{
		{"/bot123:abc/getMe", "bot", "123:abc", "getMe", true},
		{"/123:abc/getMe", "", "123:abc", "getMe", true},
		{"/bot123:abc/", "bot", "", "", false},
		{"/bot/getMe", "bot", "", "", false},
		{"/xyz123/getMe", "bot", "", "", false},
		{"/bot1/a/b", "bot", "", "", false},
	}
	for _, tc := range cases {
		token, endpoint, ok := SplitMethodPath(tc.path, tc.prefix)
		if ok != tc.ok || token != tc.token || endpoint != tc.endpoint {
			t.Errorf("SplitMethodPath(%q, %q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.path, tc.prefix, token, endpoint, ok, tc.token, tc.endpoint, tc.ok)
		}
	}
}

func TestCredentialSegment(t *testing.T) {
	if got := CredentialSegment("/bot123:abc/getMe"); got != "bot123:abc" {
		t.Fatalf("got %q", got)
	}
	if got := CredentialSegment("/file/bot123:abc/photos/a.jpg"); got != "bot123:abc" {
		t.Fatalf("got %q", got)
	}
}

func TestRedact(t *testing.T) {
	token := "123:a/b"
	s := "Post https://api.telegram.org/bot123:a/b/getMe and bot123:a%2Fb"
	got := Redact(s, token)
	if strings.Contains(got, "123:a") {
		t.Fatalf("token leaked: %q", got)
	}
	if Redact("nothing here", "") != "nothing here" {
		t.Fatal("empty token must not change input")
	}
}
