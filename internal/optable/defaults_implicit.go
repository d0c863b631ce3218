package optable

// registerImplicit appends an empty-symbol alias for every equality and
// membership entry, so the implicit juxtaposition operator ("port 80",
// "port [80, 443]", "src ip 10.0.0.0/8") resolves to the same operation an
// explicit == or in would. Appending, rather than Add's prepend, keeps the
// aliases' relative order identical to the priority order of the entries
// they alias, and below every explicit entry.
func registerImplicit(t *Table) {
	var aliases []Entry
	for _, e := range t.entries {
		if e.Symbol == "==" || e.Symbol == "in" {
			a := e
			a.Symbol = SymImplicit
			aliases = append(aliases, a)
		}
	}
	t.entries = append(t.entries, aliases...)
}
