package doctor

// groupDefinition defines a check group with its metadata.
type groupDefinition struct {
	Name        string
	Description string
	AnyOf       bool
	CheckIDs    []string
}

var groupDefinitions = map[string]groupDefinition{
	GroupFetch: {
		Name:        "Download",
		Description: "One of curl or wget is needed to fetch the uv installer",
		AnyOf:       true,
		CheckIDs:    []string{IDCurl, IDWget},
	},
	GroupToolchain: {
		Name:        "Toolchain",
		Description: "Host tools for building and repository checks",
		CheckIDs:    []string{IDGit, IDClang},
	},
	GroupOCaml: {
		Name:        "OCaml",
		Description: "System opam, symlinked into _local when recent enough",
		CheckIDs:    []string{IDOpam},
	},
	GroupPython: {
		Name:        "Python",
		Description: "Hermetic uv for Python tooling",
		CheckIDs:    []string{IDUV},
	},
}

// GetGroups returns all check groups in report order, without results.
func GetGroups() []CheckGroup {
	var groups []CheckGroup
	for _, groupID := range GetAllGroupIDs() {
		def := groupDefinitions[groupID]
		groups = append(groups, CheckGroup{
			ID:          groupID,
			Name:        def.Name,
			Description: def.Description,
			AnyOf:       def.AnyOf,
		})
	}
	return groups
}

// GetGroupDefinition returns the definition for a specific group.
func GetGroupDefinition(groupID string) (groupDefinition, bool) {
	def, ok := groupDefinitions[groupID]
	return def, ok
}

// GetAllGroupIDs returns all group IDs in report order.
func GetAllGroupIDs() []string {
	return []string{GroupFetch, GroupToolchain, GroupOCaml, GroupPython}
}
