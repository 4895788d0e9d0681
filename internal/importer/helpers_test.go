package importer

func ptrStr(s string) *string { return &s }

// validTowerDocument is a two-phase tower with three priced tasks.
func validTowerDocument() *ImportDocument {
	return &ImportDocument{
		Project: ProjectImport{ShortID: "TOWER01", Name: "Tower A", Client: "Acme"},
		Wbs: []NodeImport{
			{Ref: "struct", Type: "PHASE", Name: "Structure"},
			{Ref: "conc", ParentRef: ptrStr("struct"), Type: "ACTIVITY", Name: "Concrete"},
			{Ref: "slab", ParentRef: ptrStr("conc"), Type: "TASK", Name: "Slab", Unit: "m3", Quantity: "100", SortOrder: 1},
			{Ref: "cols", ParentRef: ptrStr("conc"), Type: "TASK", Name: "Columns", Unit: "m3", Quantity: "40", SortOrder: 2},
			{Ref: "fin", Type: "PHASE", Name: "Finishes"},
			{Ref: "paint", ParentRef: ptrStr("fin"), Type: "ACTIVITY", Name: "Paint"},
			{Ref: "walls", ParentRef: ptrStr("paint"), Type: "TASK", Name: "Walls", Unit: "m2", Quantity: "500"},
		},
		Budget: &BudgetImport{
			VersionCode: "B1",
			VersionType: "BASELINE",
			Lines: []LineImport{
				{NodeRef: "slab", Quantity: "100", UnitPrice: "50"},
				{NodeRef: "cols", Quantity: "40", UnitPrice: "120", IndirectPct: "10"},
				{NodeRef: "walls", Quantity: "500", UnitPrice: "3.5"},
			},
		},
	}
}
