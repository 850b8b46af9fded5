package mux

import "testing"

func TestStreamURL(t *testing.T) {
	got := StreamURL("abc123")
	want := "https://stream.mux.com/abc123.m3u8"
	if got != want {
		t.Fatalf("StreamURL = %q, want %q", got, want)
	}
}

func TestThumbnailURL(t *testing.T) {
	got := ThumbnailURL("abc123", 4.5, 800, 0)
	want := "https://image.mux.com/abc123/thumbnail.jpg?time=4.5&width=800"
	if got != want {
		t.Fatalf("ThumbnailURL = %q, want %q", got, want)
	}

	withCrop := ThumbnailURL("abc123", 3, 400, 400)
	wantCrop := "https://image.mux.com/abc123/thumbnail.jpg?time=3&width=400&height=400&fit_mode=smartcrop"
	if withCrop != wantCrop {
		t.Fatalf("ThumbnailURL with crop = %q, want %q", withCrop, wantCrop)
	}
}

func TestAnimatedURL(t *testing.T) {
	got := AnimatedURL("abc123", 0, 12, 480, 15)
	want := "https://image.mux.com/abc123/animated.gif?start=0&end=12&width=480&fps=15"
	if got != want {
		t.Fatalf("AnimatedURL = %q, want %q", got, want)
	}
}

func TestURLBuildersAreDeterministic(t *testing.T) {
	a := ThumbnailURL("p", 7.5, 800, 0)
	b := ThumbnailURL("p", 7.5, 800, 0)
	if a != b {
		t.Fatalf("thumbnail builder not deterministic: %q vs %q", a, b)
	}
}
