package app

import (
	"encoding/json"
	"testing"
)

func newStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateSessionWritesHeader(t *testing.T) {
	store := newStore(t)
	h, err := store.CreateSession(t.TempDir(), "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	entries := h.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 header entry, got %d", len(entries))
	}
	if entries[0].Type != EntryTypeSession || entries[0].Meta == nil {
		t.Fatalf("expected session header, got %+v", entries[0])
	}
	if entries[0].Meta.ID != h.ID() {
		t.Fatalf("header session id mismatch")
	}
}

func TestAppendEntryChainsParents(t *testing.T) {
	store := newStore(t)
	h, err := store.CreateSession(t.TempDir(), "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	first, err := h.AppendEntry(SessionEntry{Type: EntryTypeMessage, Role: RoleUser, Text: "hi"})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	second, err := h.AppendEntry(SessionEntry{Type: EntryTypeMessage, Role: RoleAssistant})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	if first.ID == "" || second.ID == "" {
		t.Fatal("expected entry ids to be assigned")
	}
	if second.ParentID != first.ID {
		t.Fatalf("expected second to chain onto first, got parent %q", second.ParentID)
	}

	branch := h.GetBranch()
	if len(branch) != 3 {
		t.Fatalf("expected branch of 3 (header + 2), got %d", len(branch))
	}
	if branch[len(branch)-1].ID != second.ID {
		t.Fatal("expected branch leaf to be last appended entry")
	}
}

func TestBranchExcludesAbandonedSiblings(t *testing.T) {
	store := newStore(t)
	h, err := store.CreateSession(t.TempDir(), "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	base, _ := h.AppendEntry(SessionEntry{Type: EntryTypeMessage, Role: RoleUser, Text: "base"})
	abandoned, _ := h.AppendEntry(SessionEntry{Type: EntryTypeMessage, Role: RoleAssistant, Text: "old branch"})

	// Fork: a new entry re-parented onto base, then continue from it.
	forked, err := h.AppendEntry(SessionEntry{Type: EntryTypeMessage, Role: RoleAssistant, ParentID: base.ID})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	branch := h.GetBranch()
	for _, e := range branch {
		if e.ID == abandoned.ID {
			t.Fatal("abandoned sibling leaked into branch")
		}
	}
	if branch[len(branch)-1].ID != forked.ID {
		t.Fatal("expected fork to be the branch leaf")
	}
}

func TestOpenSessionFileRoundTrip(t *testing.T) {
	store := newStore(t)
	h, err := store.CreateSession(t.TempDir(), "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := h.AppendEntry(SessionEntry{Type: EntryTypeMessage, Role: RoleUser, Text: "persisted"}); err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	if err := h.AppendCustomEntry("handoff", map[string]any{"goal": "g"}); err != nil {
		t.Fatalf("AppendCustomEntry: %v", err)
	}

	reopened, err := store.OpenSessionFile(h.Path())
	if err != nil {
		t.Fatalf("OpenSessionFile: %v", err)
	}
	if reopened.ID() != h.ID() {
		t.Fatalf("expected id %s, got %s", h.ID(), reopened.ID())
	}
	branch := reopened.GetBranch()
	if len(branch) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(branch))
	}
	last := branch[len(branch)-1]
	if last.Type != EntryTypeCustom || last.CustomType != "handoff" {
		t.Fatalf("expected custom handoff leaf, got %+v", last)
	}
	var data map[string]any
	if err := json.Unmarshal(last.Data, &data); err != nil {
		t.Fatalf("unmarshal custom data: %v", err)
	}
	if data["goal"] != "g" {
		t.Fatalf("expected goal in custom data, got %v", data)
	}
}

func TestParentSessionLinkage(t *testing.T) {
	store := newStore(t)
	workDir := t.TempDir()
	parent, err := store.CreateSession(workDir, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	child, err := store.CreateSession(workDir, parent.ID())
	if err != nil {
		t.Fatalf("CreateSession child: %v", err)
	}
	if child.ParentID() != parent.ID() {
		t.Fatalf("expected parent link %s, got %s", parent.ID(), child.ParentID())
	}

	reopened, err := store.OpenSession(child.ID())
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if reopened.ParentID() != parent.ID() {
		t.Fatal("parent link lost on reload")
	}
}

func TestListSessionsOrderedByActivity(t *testing.T) {
	store := newStore(t)
	workDir := t.TempDir()
	first, _ := store.CreateSession(workDir, "")
	second, _ := store.CreateSession(workDir, "")
	if _, err := first.AppendEntry(SessionEntry{Type: EntryTypeMessage, Role: RoleUser, Text: "bump"}); err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	list, err := store.ListSessions(workDir, 10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].Session.ID != first.ID() {
		t.Fatalf("expected most recently active first, got %s", list[0].Session.ID)
	}
	_ = second
}

func TestSessionFilesDiscovery(t *testing.T) {
	store := newStore(t)
	h, _ := store.CreateSession(t.TempDir(), "")
	files, err := store.SessionFiles()
	if err != nil {
		t.Fatalf("SessionFiles: %v", err)
	}
	if len(files) != 1 || files[0] != h.Path() {
		t.Fatalf("expected [%s], got %v", h.Path(), files)
	}
}
