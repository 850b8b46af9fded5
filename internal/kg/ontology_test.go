package kg

import "testing"

func TestGraphIDForApp(t *testing.T) {
	cases := map[string]string{
		"placement":  "finance-knowledge",
		"pe_news":    "finance-knowledge",
		"finance":    "finance-knowledge",
		"relocation": "relocation",
		"jobs":       "jobs",
		"recruiter":  "jobs",
		"":           "finance-knowledge",
		"unknown":    "finance-knowledge",
	}
	for app, want := range cases {
		if got := GraphIDForApp(app); got != want {
			t.Fatalf("GraphIDForApp(%q) = %q, want %q", app, got, want)
		}
	}
}

func TestOntologyForGraph(t *testing.T) {
	fin := OntologyForGraph("finance-knowledge")
	if !fin.hasEntityType("Deal") || !fin.hasEdgeType("ADVISED_ON") {
		t.Fatalf("finance ontology missing expected vocabulary: %+v", fin)
	}
	if fin.hasEntityType("Job") {
		t.Fatalf("finance ontology leaked jobs vocabulary")
	}

	jobs := OntologyForGraph("jobs")
	if !jobs.hasEntityType("Skill") || !jobs.hasEdgeType("REQUIRES_ESSENTIAL") {
		t.Fatalf("jobs ontology missing expected vocabulary: %+v", jobs)
	}

	rel := OntologyForGraph("relocation")
	if !rel.hasEdgeType("IN_COUNTRY") || len(rel.EdgeTypes) != 1 {
		t.Fatalf("relocation ontology wrong: %+v", rel)
	}
}
