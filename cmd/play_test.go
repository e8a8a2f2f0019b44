package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/export"
	"github.com/iksnae/novel-session/testutil"
)

// playToDesk plays the bundled story up to the first choice, picks the
// desk and quits
const playToDesk = "\n\n\n\n\n2\nq\n"

func TestPlayCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, playToDesk, "--data-dir", dir, "play")
	if err != nil {
		t.Fatalf("play error = %v\n%s", err, out)
	}

	for _, want := range []string{
		"Night Shift Rules",
		"music: assets/hum.m4a",
		"Rulebook",
		"[1] Open the door",
		"[2] Stay behind the desk",
		"Smart. The knocking stops at dawn.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, ok, err := internal.NewLocalStore(dir).EngineModTime(); err != nil || !ok {
		t.Errorf("play did not save on exit (ok=%v, err=%v)", ok, err)
	}
}

func TestPlayCommand_Resume(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, playToDesk, "--data-dir", dir, "play"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "\n\nq\n", "--data-dir", dir, "play")
	if err != nil {
		t.Fatalf("resume error = %v", err)
	}
	if !strings.Contains(out, "Unlocked: Dawn") || !strings.Contains(out, "ending...") {
		t.Errorf("resumed play did not continue The Desk:\n%s", out)
	}
	if strings.Count(out, "music: assets/hum.m4a") != 1 {
		t.Errorf("background music should render once per run:\n%s", out)
	}
}

func TestPlayCommand_InvalidChoiceKeepsPlaying(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "\n\n\n\n\n7\nabc\n1\nq\n", "--data-dir", dir, "play")
	if err != nil {
		t.Fatalf("play error = %v", err)
	}
	if !strings.Contains(out, "I told you not to answer.") {
		t.Errorf("valid choice after invalid ones was not applied:\n%s", out)
	}
}

func TestPlayCommand_JumpLocked(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "jump Outside\nq\n", "--data-dir", dir, "play")
	if err != nil {
		t.Fatalf("play error = %v", err)
	}
	if strings.Contains(out, "Nobody comes back") {
		t.Errorf("jump to a locked chapter should not play it:\n%s", out)
	}
}

func TestTimelineCommand(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, playToDesk, "--data-dir", dir, "play"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "--data-dir", dir, "timeline", "--json")
	if err != nil {
		t.Fatalf("timeline error = %v", err)
	}
	var g struct {
		Nodes []struct {
			ID       string `json:"id"`
			Label    string `json:"label"`
			Unlocked bool   `json:"unlocked"`
			Depth    int    `json:"depth"`
		} `json:"nodes"`
		Connections []json.RawMessage `json:"connections"`
		ContentSize struct {
			Width float64 `json:"width"`
		} `json:"content_size"`
	}
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatalf("timeline --json output is not JSON: %v\n%s", err, out)
	}
	if len(g.Nodes) != 4 || len(g.Connections) != 4 {
		t.Fatalf("got %d nodes, %d connections", len(g.Nodes), len(g.Connections))
	}
	labels := map[string]string{}
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
	}
	if labels["Arrival"] != "Arrival" || labels["The Desk"] != "The Desk" || labels["Outside"] != "???" {
		t.Errorf("labels = %v", labels)
	}

	out, err = execute(t, "", "--data-dir", dir, "timeline")
	if err != nil {
		t.Fatalf("timeline error = %v", err)
	}
	for _, want := range []string{"Depth 0", "Depth 2", "Arrival → The Desk", "4 chapters"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExportCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "export with invalid format",
			args:    []string{"export", "--format", "invalid"},
			wantErr: true,
		},
		{
			name: "export json to stdout",
			args: []string{"export", "--format", "json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--data-dir", t.TempDir()}, tt.args...)
			_, err := execute(t, "", args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("exportCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExportCommand_AfterPlay(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, playToDesk, "--data-dir", dir, "play"); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "--data-dir", dir, "export", "--format", "json")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	var tr export.Transcript
	testutil.JSONUnmarshal(t, []byte(out), &tr)
	if tr.Chapter != "The Desk" {
		t.Errorf("Chapter = %q, want The Desk", tr.Chapter)
	}
	if strings.Join(tr.Chapters, ",") != "Arrival,The Desk" {
		t.Errorf("Chapters = %v", tr.Chapters)
	}
	for _, e := range tr.Entries {
		if e.Kind == "sound_effect" {
			t.Error("sound effects should not survive a save")
		}
	}

	outDir := filepath.Join(dir, "exports")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "", "--data-dir", dir, "export", "--format", "md", "--out", outDir); err != nil {
		t.Fatalf("export to dir error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "transcript.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Night Shift Rules") {
		t.Errorf("markdown export missing title:\n%s", data)
	}
}

func TestResetCommand(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, playToDesk, "--data-dir", dir, "play"); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "", "--data-dir", dir, "reset"); err == nil {
		t.Error("reset without --yes should fail")
	}
	if _, ok, _ := internal.NewLocalStore(dir).EngineModTime(); !ok {
		t.Fatal("unconfirmed reset removed the save")
	}

	if _, err := execute(t, "", "--data-dir", dir, "reset", "--yes"); err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if _, ok, _ := internal.NewLocalStore(dir).EngineModTime(); ok {
		t.Error("reset left the save in place")
	}
}

func TestCollectionsCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "--data-dir", dir, "collections")
	if err != nil {
		t.Fatalf("collections error = %v", err)
	}
	if !strings.Contains(out, "0 of 2 unlocked") {
		t.Errorf("fresh game output:\n%s", out)
	}

	if _, err := execute(t, playToDesk, "--data-dir", dir, "play"); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "", "--data-dir", dir, "collections")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Rulebook") || !strings.Contains(out, "1 of 2 unlocked") {
		t.Errorf("after play output:\n%s", out)
	}
}
