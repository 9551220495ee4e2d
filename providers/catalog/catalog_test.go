package catalog

import "testing"

func TestRegisterAndLookup(t *testing.T) {
	Register(LanguageInfo{ID: "ruby", Extensions: []string{".rb", ".RAKE", "gemspec"}, Filenames: []string{"Rakefile"}})

	if info, ok := LookupByExtension(".rb"); !ok || info.ID != "ruby" {
		t.Fatalf("expected ruby for .rb, got %v %v", info, ok)
	}

	if info, ok := LookupByExtension(".rake"); !ok || info.ID != "ruby" {
		t.Fatalf("expected ruby for .rake, got %v %v", info, ok)
	}

	if info, ok := LookupByExtension(".gemspec"); !ok || info.ID != "ruby" {
		t.Fatalf("expected ruby for gemspec, got %v %v", info, ok)
	}

	if info, ok := LookupByPath("lib/tasks/Rakefile"); !ok || info.ID != "ruby" {
		t.Fatalf("expected ruby for Rakefile, got %v %v", info, ok)
	}

	if _, ok := LookupByPath("README.md"); ok {
		t.Fatal("expected no language for README.md")
	}

	langs := Languages()
	if len(langs) == 0 {
		t.Fatal("expected languages slice not empty")
	}
}

func TestRegisterIgnoresEmptyID(t *testing.T) {
	Register(LanguageInfo{Extensions: []string{".zzz"}})

	if _, ok := LookupByExtension(".zzz"); ok {
		t.Fatal("expected registration without ID to be ignored")
	}
}
