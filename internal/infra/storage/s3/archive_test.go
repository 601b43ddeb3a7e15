package s3

import "testing"

func TestParseEndpointStripsScheme(t *testing.T) {
	cases := map[string]string{
		"http://minio:9000":  "minio:9000",
		"https://s3.example": "s3.example",
		"minio:9000":         "minio:9000",
	}
	for in, want := range cases {
		if got := parseEndpoint(in); got != want {
			t.Fatalf("parseEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewArchiveRequiresBucket(t *testing.T) {
	if _, err := NewArchive("localhost:9000", false, "k", "s", " ", nil); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}
