package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const arthasInput = "DataStore_Characters_Info = {\n{\n[\"name\"] = \"Arthas\",\n[\"level\"] = 60,\n},\n}\nDataStore_Characters_GuildRanks"

func TestExtract(t *testing.T) {
	section, err := Extract(arthasInput, DefaultStartMarker, DefaultEndMarker)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := "{\n[\"name\"] = \"Arthas\",\n[\"level\"] = 60,\n},"
	if section != want {
		t.Errorf("Expected %q, got %q", want, section)
	}
}

func TestExtractMissingMarkers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		marker  string
	}{
		{"no start", "{\n}\nDataStore_Characters_GuildRanks", DefaultStartMarker},
		{"no end", "DataStore_Characters_Info = {\n{\n}\n", DefaultEndMarker},
		{"empty", "", DefaultStartMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.content, DefaultStartMarker, DefaultEndMarker)
			if !errors.Is(err, ErrMarkerNotFound) {
				t.Fatalf("Expected ErrMarkerNotFound, got %v", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Expected *FormatError, got %T", err)
			}
			if fe.Marker != tt.marker {
				t.Errorf("Expected marker %q, got %q", tt.marker, fe.Marker)
			}
		})
	}
}

func TestExtractEndMarkerBeforeStart(t *testing.T) {
	content := "}\nDataStore_Characters_GuildRanks\nDataStore_Characters_Info = {\n{\n[\"name\"] = \"A\",\n}\n"

	section, err := Extract(content, DefaultStartMarker, DefaultEndMarker)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := "{\n[\"name\"] = \"A\",\n}"
	if section != want {
		t.Errorf("Expected %q, got %q", want, section)
	}

	records := ParseRecords(section)
	if len(records) != 1 || records[0]["name"] != TextValue("A") {
		t.Errorf("Expected one record {name: A}, got %v", records)
	}
}

func TestParseRecordsArthas(t *testing.T) {
	section, err := Extract(arthasInput, DefaultStartMarker, DefaultEndMarker)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	records := ParseRecords(section)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if len(rec) != 2 {
		t.Errorf("Expected 2 fields, got %d: %v", len(rec), rec)
	}
	if rec["name"] != TextValue("Arthas") {
		t.Errorf("Expected name Arthas, got %#v", rec["name"])
	}
	if rec["level"] != IntValue(60) {
		t.Errorf("Expected level 60, got %#v", rec["level"])
	}
}

func TestParseRecordsCountsBlocks(t *testing.T) {
	section := `{
		["name"] = "Jaina",
		["class"] = "MAGE",
	},
	{
		["name"] = "Thrall",
	},
	{
		["name"] = "Sylvanas",
		["realm"] = "Silvermoon",
	}`

	records := ParseRecords(section)
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	names := []string{"Jaina", "Thrall", "Sylvanas"}
	for i, name := range names {
		if got := records[i]["name"].String(); got != name {
			t.Errorf("Record %d: expected name %q, got %q", i, name, got)
		}
	}
	if _, ok := records[1]["class"]; ok {
		t.Errorf("Expected record 1 to have no class field")
	}
}

func TestParseRecordsValues(t *testing.T) {
	tests := []struct {
		line string
		want Value
	}{
		{`["v"] = 42,`, IntValue(42)},
		{`["v"] = "42",`, TextValue("42")},
		{`["v"] = -7`, IntValue(-7)},
		{`["v"] = "Stormwind City",`, TextValue("Stormwind City")},
		{`["v"] = true,`, TextValue("true")},
		{`["v"] = 1.5,`, TextValue("1.5")},
		{`["v"] = nil,`, TextValue("nil")},
		{`["v"] = "say \"hi\"",`, TextValue(`say \"hi\"`)},
		{`["v"] = "a = b",`, TextValue("a = b")},
		{`["v"] = 99999999999999999999,`, TextValue("99999999999999999999")},
		{`["v"] = "",`, TextValue("")},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			records := ParseRecords("{\n" + tt.line + "\n}")
			if len(records) != 1 {
				t.Fatalf("Expected 1 record, got %d", len(records))
			}
			if got := records[0]["v"]; got != tt.want {
				t.Errorf("Expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestParseRecordsSkipsUnsupportedKeys(t *testing.T) {
	section := `{
		[1] = "numeric",
		name = "bare",
		["ok"] = "kept",
		just some noise
		["faction"] = "Horde",
	}`

	records := ParseRecords(section)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if len(rec) != 2 {
		t.Errorf("Expected 2 fields, got %d: %v", len(rec), rec)
	}
	for _, key := range []string{"1", "[1]", "name"} {
		if _, ok := rec[key]; ok {
			t.Errorf("Expected key %q to be dropped", key)
		}
	}
}

func TestParseRecordsEdgeCases(t *testing.T) {
	t.Run("empty block dropped", func(t *testing.T) {
		if records := ParseRecords("{\n}"); len(records) != 0 {
			t.Errorf("Expected no records, got %v", records)
		}
	})

	t.Run("unterminated record discarded", func(t *testing.T) {
		records := ParseRecords("{\n[\"name\"] = \"A\",\n},\n{\n[\"name\"] = \"B\",\n")
		if len(records) != 1 || records[0]["name"].String() != "A" {
			t.Errorf("Expected only record A, got %v", records)
		}
	})

	t.Run("lines outside records ignored", func(t *testing.T) {
		records := ParseRecords("[\"name\"] = \"stray\",\n{\n[\"name\"] = \"A\",\n}")
		if len(records) != 1 || records[0]["name"].String() != "A" {
			t.Errorf("Expected only record A, got %v", records)
		}
	})

	t.Run("later assignment wins", func(t *testing.T) {
		records := ParseRecords("{\n[\"level\"] = 10,\n[\"level\"] = 70,\n}")
		if len(records) != 1 || records[0]["level"] != IntValue(70) {
			t.Errorf("Expected level 70, got %v", records)
		}
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		records := ParseRecords("\n\n{\n\n[\"name\"] = \"A\",\n\n}\n\n")
		if len(records) != 1 {
			t.Errorf("Expected 1 record, got %d", len(records))
		}
	})
}

func TestSavedVariablesParserParse(t *testing.T) {
	p := NewSavedVariablesParser("", "")

	if !p.CanParse(".lua") {
		t.Error("Expected parser to accept .lua")
	}
	if p.CanParse(".txt") {
		t.Error("Expected parser to reject .txt")
	}

	crlf := "\xef\xbb\xbfDataStore_Characters_Info = {\r\n{\r\n[\"name\"] = \"Arthas\",\r\n[\"level\"] = 60,\r\n},\r\n}\r\nDataStore_Characters_GuildRanks = {\r\n}\r\n"

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "DataStore_Characters.lua")
	if err := os.WriteFile(path, []byte(crlf), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	result, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.FilePath != path {
		t.Errorf("Expected FilePath %q, got %q", path, result.FilePath)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0]["level"] != IntValue(60) {
		t.Errorf("Expected level 60, got %#v", result.Records[0]["level"])
	}
}

func TestSavedVariablesParserCROnlyLineEndings(t *testing.T) {
	p := NewSavedVariablesParser("", "")
	cr := "DataStore_Characters_Info = {\r{\r[\"name\"] = \"Thrall\",\r[\"level\"] = 60,\r},\r}\rDataStore_Characters_GuildRanks = {\r}\r"

	records, err := p.ParseBytes([]byte(cr))
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0]["name"] != TextValue("Thrall") || records[0]["level"] != IntValue(60) {
		t.Errorf("Unexpected record %v", records[0])
	}
}

func TestSavedVariablesParserErrors(t *testing.T) {
	p := NewSavedVariablesParser("", "")

	if _, err := p.Parse(filepath.Join(t.TempDir(), "missing.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}

	if _, err := p.ParseBytes([]byte("SomethingElse = {}\n")); !errors.Is(err, ErrMarkerNotFound) {
		t.Errorf("Expected ErrMarkerNotFound, got %v", err)
	}
}

func TestSavedVariablesParserCustomMarkers(t *testing.T) {
	p := NewSavedVariablesParser("Roster = {", "}\nEnd")
	records, err := p.ParseBytes([]byte("Roster = {\n{\n[\"name\"] = \"Uther\",\n},\n}\nEnd"))
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(records) != 1 || records[0]["name"].String() != "Uther" {
		t.Errorf("Expected record Uther, got %v", records)
	}
}

func TestValueJSON(t *testing.T) {
	b, err := IntValue(60).MarshalJSON()
	if err != nil || string(b) != "60" {
		t.Errorf("Expected 60, got %s (%v)", b, err)
	}
	b, err = TextValue("60").MarshalJSON()
	if err != nil || string(b) != `"60"` {
		t.Errorf(`Expected "60", got %s (%v)`, b, err)
	}
}
