package migrations

// All returns every migration in the order it must be applied.
func All() []Migration {
	return []Migration{
		CreateUsers(),
		AddUserContactFields(),
	}
}

// Find looks a migration up by ID.
func Find(id string) (Migration, bool) {
	return FindIn(All(), id)
}

func FindIn(registry []Migration, id string) (Migration, bool) {
	for _, m := range registry {
		if m.ID == id {
			return m, true
		}
	}
	return Migration{}, false
}
