package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"refmap/pkg/domain"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const testGlossary = `[
	{"id":"R1","attributes":{"name":"Acme Corp"}},
	{"id":"R2","attributes":{"name":"Globex Corporation"}},
	{"id":"R3","attributes":{"name":"Initech"}}
]`

func TestCLIMapsAllRecords(t *testing.T) {
	glossaryPath := writeFile(t, "glossary.json", testGlossary)
	recordsPath := writeFile(t, "records.ndjson",
		`{"source_id":"a","attributes":{"name":"ACME Corp."}}
{"source_id":"b","attributes":{"name":"initech"}}
`)

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-glossary", glossaryPath, "-records", recordsPath}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 { // two results plus summary
		t.Fatalf("output lines = %d: %s", len(lines), stdout.String())
	}
	var first domain.MappingResult
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode result line: %v", err)
	}
	if first.SourceID != "a" || first.Status != domain.StatusMatched {
		t.Fatalf("first result = %+v", first)
	}
	if !strings.Contains(lines[2], "mapped 2 records: 2 matched") {
		t.Fatalf("summary line = %q", lines[2])
	}
}

func TestCLIReadsRecordsFromStdin(t *testing.T) {
	glossaryPath := writeFile(t, "glossary.json", testGlossary)
	stdin := strings.NewReader(`{"source_id":"a","attributes":{"name":"Acme Corp"}}` + "\n")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-glossary", glossaryPath}, stdin, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, stderr.String())
	}
}

func TestCLIExitsNonZeroOnUnmatched(t *testing.T) {
	glossaryPath := writeFile(t, "glossary.json", testGlossary)
	recordsPath := writeFile(t, "records.ndjson",
		`{"source_id":"a","attributes":{"name":"Wayne Enterprises"}}`+"\n")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-glossary", glossaryPath, "-records", recordsPath}, strings.NewReader(""), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit = %d, want 1; stdout: %s", code, stdout.String())
	}
	if !strings.Contains(stdout.String(), "1 unmatched") {
		t.Fatalf("summary missing unmatched count: %s", stdout.String())
	}
}

func TestCLIFallbackFlagRescuesUnmatched(t *testing.T) {
	glossaryPath := writeFile(t, "glossary.json", testGlossary)
	recordsPath := writeFile(t, "records.ndjson",
		`{"source_id":"a","category":"supplier","attributes":{"name":"Wayne Enterprises"}}`+"\n")

	var stdout, stderr bytes.Buffer
	code := cli([]string{
		"-glossary", glossaryPath,
		"-records", recordsPath,
		"-fallback", "supplier=R3",
	}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "1 by fallback") {
		t.Fatalf("summary missing fallback count: %s", stdout.String())
	}
}

func TestCLIDedupAcrossInvocations(t *testing.T) {
	glossaryPath := writeFile(t, "glossary.json", testGlossary)
	recordsPath := writeFile(t, "records.ndjson",
		`{"source_id":"a","attributes":{"name":"Acme Corp"}}`+"\n")
	dedupPath := filepath.Join(t.TempDir(), "dedup.db")

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-glossary", glossaryPath, "-records", recordsPath, "-dedup", dedupPath}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("first run exit = %d, stderr: %s", code, stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := cli([]string{"-glossary", glossaryPath, "-records", recordsPath, "-dedup", dedupPath}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("second run exit = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "(1 cache hits)") {
		t.Fatalf("second run should hit the dedup cache: %s", stdout.String())
	}
}

func TestCLIMalformedRecord(t *testing.T) {
	glossaryPath := writeFile(t, "glossary.json", testGlossary)
	recordsPath := writeFile(t, "records.ndjson", "not json\n")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-glossary", glossaryPath, "-records", recordsPath}, strings.NewReader(""), &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "decode record at line 1") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}

func TestCLIUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-nope"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
}

func TestParseFallbacks(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "supplier=R9", want: map[string]string{"supplier": "R9"}},
		{name: "multiple", raw: "supplier=R9, vendor=R1", want: map[string]string{"supplier": "R9", "vendor": "R1"}},
		{name: "missing id", raw: "supplier=", wantErr: true},
		{name: "missing separator", raw: "supplier", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseFallbacks(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tc.raw, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Fatalf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
