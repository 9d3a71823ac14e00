package meta

import (
	"reflect"
	"testing"
)

func TestParseFilenameSimpleNames(t *testing.T) {
	md := ParseFilename("Ivanova, Petrov, 05.11.2025_f8.mp3")
	if !reflect.DeepEqual(md.Speakers, []string{"Ivanova", "Petrov"}) {
		t.Fatalf("speakers = %v, want [Ivanova Petrov]", md.Speakers)
	}
	if md.StartTC != "00:00:00:00" {
		t.Fatalf("start_tc = %q, want zero timecode", md.StartTC)
	}
}

func TestParseFilenameWithTimecode(t *testing.T) {
	md := ParseFilename("15:40:41:00_clip.wav")
	if md.StartTC != "15:40:41:00" {
		t.Fatalf("start_tc = %q, want 15:40:41:00", md.StartTC)
	}
	if !reflect.DeepEqual(md.Speakers, []string{"clip"}) {
		t.Fatalf("speakers = %v, want [clip]", md.Speakers)
	}
}

func TestParseFilenameFiltersStopWords(t *testing.T) {
	md := ParseFilename("Имя_лайф_f8.mp4")
	if !reflect.DeepEqual(md.Speakers, []string{"Имя"}) {
		t.Fatalf("speakers = %v, want only the name token", md.Speakers)
	}
}

func TestParseFilenameStopWordsCaseInsensitive(t *testing.T) {
	md := ParseFilename("Smith_F8_WAV.mov")
	if !reflect.DeepEqual(md.Speakers, []string{"Smith"}) {
		t.Fatalf("speakers = %v, want [Smith]", md.Speakers)
	}
}

func TestParseFilenameFiltersDates(t *testing.T) {
	md := ParseFilename("Имя, 05.11.2025_f8.mp3")
	for _, s := range md.Speakers {
		if datePattern.MatchString(s) {
			t.Fatalf("date token %q leaked into speakers", s)
		}
	}
}

func TestParseFilenameNoNames(t *testing.T) {
	md := ParseFilename("f8.mp3")
	if len(md.Speakers) != 0 {
		t.Fatalf("speakers = %v, want empty", md.Speakers)
	}
}

func TestStripExtension(t *testing.T) {
	cases := map[string]string{
		"file.mp3":          "file",
		"my.file.name.docx": "my.file.name",
		"noext":             "noext",
	}
	for in, want := range cases {
		if got := StripExtension(in); got != want {
			t.Errorf("StripExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
