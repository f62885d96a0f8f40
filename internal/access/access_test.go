package access

import "testing"

func TestHasAccess(t *testing.T) {
	grants := []Grant{
		{UserID: "u_editor", Level: LevelEditor},
		{UserID: "u_reviewer", Level: LevelReviewer},
		{UserID: "u_reader", Level: LevelReader},
	}

	cases := []struct {
		name   string
		userID string
		want   bool
	}{
		{name: "author always has access", userID: "u_author", want: true},
		{name: "editor", userID: "u_editor", want: true},
		{name: "reviewer", userID: "u_reviewer", want: true},
		{name: "reader", userID: "u_reader", want: true},
		{name: "stranger", userID: "u_stranger", want: false},
		{name: "empty user id", userID: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasAccess("u_author", grants, tc.userID); got != tc.want {
				t.Fatalf("HasAccess(%q) = %v, want %v", tc.userID, got, tc.want)
			}
		})
	}
}

func TestHasAccessAfterEveryGrantLevel(t *testing.T) {
	for _, level := range []Level{LevelEditor, LevelReviewer, LevelReader} {
		grants := []Grant{{UserID: "u_new", Level: level}}
		if !HasAccess("u_author", grants, "u_new") {
			t.Fatalf("HasAccess after grant at %q = false, want true", level)
		}
	}
}

func TestCanDelete(t *testing.T) {
	if !CanDelete("u_author", "u_author") {
		t.Fatal("author cannot delete own document")
	}
	if CanDelete("u_author", "u_editor") {
		t.Fatal("non-author may delete")
	}
	if CanDelete("", "") {
		t.Fatal("empty ids may never delete")
	}
}

func TestCanEdit(t *testing.T) {
	grants := []Grant{
		{UserID: "u_editor", Level: LevelEditor},
		{UserID: "u_reader", Level: LevelReader},
	}
	if !CanEdit("u_author", grants, "u_author") {
		t.Fatal("author cannot edit")
	}
	if !CanEdit("u_author", grants, "u_editor") {
		t.Fatal("editor cannot edit")
	}
	if CanEdit("u_author", grants, "u_reader") {
		t.Fatal("reader may edit")
	}
}

func TestParseLevel(t *testing.T) {
	for _, raw := range []string{"editor", "reviewer", "reader"} {
		if _, ok := ParseLevel(raw); !ok {
			t.Fatalf("ParseLevel(%q) rejected", raw)
		}
	}
	for _, raw := range []string{"", "owner", "admin", "Editor"} {
		if _, ok := ParseLevel(raw); ok {
			t.Fatalf("ParseLevel(%q) accepted", raw)
		}
	}
}

func TestRoleTag(t *testing.T) {
	grants := []Grant{
		{UserID: "u_both", Level: LevelReader},
		{UserID: "u_both", Level: LevelEditor},
		{UserID: "u_reviewer", Level: LevelReviewer},
	}

	cases := []struct {
		userID string
		want   string
	}{
		{userID: "u_author", want: "Author"},
		{userID: "u_both", want: "Editor"},
		{userID: "u_reviewer", want: "Reviewer"},
		{userID: "u_stranger", want: ""},
	}
	for _, tc := range cases {
		if got := RoleTag("u_author", grants, tc.userID); got != tc.want {
			t.Fatalf("RoleTag(%q) = %q, want %q", tc.userID, got, tc.want)
		}
	}
}
