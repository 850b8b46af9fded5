package kg

// GraphIDForApp selects the per-app knowledge graph. Unknown apps land in
// the finance graph.
func GraphIDForApp(app string) string {
	switch app {
	case "placement", "pe_news", "finance":
		return "finance-knowledge"
	case "relocation":
		return "relocation"
	case "jobs", "recruiter":
		return "jobs"
	default:
		return "finance-knowledge"
	}
}

// Ontology fixes the entity and edge vocabulary the extractor may emit for
// one graph. The extraction schema is built from these lists so the model
// cannot invent types.
type Ontology struct {
	EntityTypes []string
	EdgeTypes   []string
}

func OntologyForGraph(graphID string) Ontology {
	switch graphID {
	case "jobs":
		return Ontology{
			EntityTypes: []string{"Job", "Skill", "Company", "Location"},
			EdgeTypes:   []string{"REQUIRES_ESSENTIAL", "REQUIRES_PREFERRED", "POSTED_BY", "LOCATED_IN"},
		}
	case "relocation":
		return Ontology{
			EntityTypes: []string{"Location", "Country", "Company"},
			EdgeTypes:   []string{"IN_COUNTRY"},
		}
	default:
		return Ontology{
			EntityTypes: []string{"Deal", "Person", "Company"},
			EdgeTypes:   []string{"ADVISED_ON", "WORKS_AT", "PARTNERED_WITH"},
		}
	}
}

func (o Ontology) hasEntityType(t string) bool {
	for _, e := range o.EntityTypes {
		if e == t {
			return true
		}
	}
	return false
}

func (o Ontology) hasEdgeType(t string) bool {
	for _, e := range o.EdgeTypes {
		if e == t {
			return true
		}
	}
	return false
}
